// Package registry implements the object store behind every handler system.
//
// A Registry owns heterogeneous objects and addresses them through stable
// handles. Internally it keeps three structures:
//
//	dense    []Object  compacted on every removal, no holes
//	owners   []Handle  dense position -> handle of the object stored there
//	sparse   []int     stable id -> dense position, or a tombstone
//
// plus one membership index per declared capability. Handles are allocated
// sequentially and never reused; the sparse table grows by one entry per
// insertion and never shrinks.
//
// # Removal
//
// Remove swap-removes the dense slot: the last object moves into the hole and
// its sparse entry is repointed using the owners table. Capability indices
// are not touched, so removal stays O(1):
//
//	obj, ok := reg.Remove(h)
//	if !ok {
//	    // unknown or already removed handle
//	}
//
// # Dispatch
//
// Dispatch walks one capability index, calling fn for every live member.
// Entries whose handle has been removed are evicted from the index during the
// walk, so stale entries cost nothing until the capability is broadcast:
//
//	input, _ := reg.Lookup("InputHandler")
//	reg.Dispatch(input, func(h registry.Handle, impl any) {
//	    impl.(InputHandler).OnInput('x')
//	})
//
// Slots may insert and remove objects while a dispatch is running. Objects
// inserted by a slot are not visited by the pass that is already running,
// and a removed object is never called after its removal.
//
// # Typed Signals
//
// Signal and Broadcast give a compile-time checked broadcast for a capability
// interface:
//
//	click := registry.NewSignal(reg, "MouseHandler", "click",
//	    func(m MouseHandler, p Point) { m.OnClick(p.X, p.Y) })
//	registry.Broadcast(reg, click, Point{X: 1, Y: 2})
//
// # Observers
//
// Register observers to track object lifecycle events:
//
//	type evictionLog struct{}
//
//	func (evictionLog) OnRegistryEvent(e registry.Event) {
//	    if e.Type == registry.EventEvicted {
//	        log.Printf("stale %s entry for %d purged", e.Capability, e.Handle)
//	    }
//	}
//
//	reg.Subscribe(evictionLog{})
//
// # Thread Safety
//
// Registry is not synchronized. Locked wraps a Registry behind a single
// mutex for callers that share one between goroutines.
package registry
