package registry

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	handlersystem "github.com/wippyai/handler-system"
)

// tombstone marks a sparse entry whose object has been removed.
const tombstone = -1

// index lists the handles of every object that supported one capability at
// insertion time. Entries may be stale until the next dispatch evicts them.
type index struct {
	name    string
	members []Handle
}

// Registry stores objects densely and hands out stable handles for them.
type Registry struct {
	byName    map[string]Capability
	objects   []handlersystem.Object
	owners    []Handle
	sparse    []int
	indices   []index
	observers []Observer
	depth     int
}

// New creates a registry with one index per capability name.
// The order of capabilities fixes the Capability values returned by Lookup.
// It panics on an empty or repeated capability name; capability lists come
// from validated schemas, so a bad list is a programming error.
func New(capabilities []string, opts Options) *Registry {
	opts.Capacity = max(opts.Capacity, 0)
	r := &Registry{
		byName:    make(map[string]Capability, len(capabilities)),
		indices:   make([]index, len(capabilities)),
		objects:   make([]handlersystem.Object, 0, opts.Capacity),
		owners:    make([]Handle, 0, opts.Capacity),
		sparse:    make([]int, 0, opts.Capacity),
		observers: append([]Observer(nil), opts.Observers...),
	}
	for i, name := range capabilities {
		if name == "" {
			panic("registry: empty capability name")
		}
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("registry: capability %q declared twice", name))
		}
		r.byName[name] = Capability(i)
		r.indices[i] = index{name: name, members: make([]Handle, 0, opts.Capacity)}
	}
	return r
}

// NewWithDefaults creates a registry using DefaultOptions.
func NewWithDefaults(capabilities ...string) *Registry {
	return New(capabilities, DefaultOptions())
}

// Insert stores obj and returns its handle. The object is added to the index
// of every capability it supports at this moment.
func (r *Registry) Insert(obj handlersystem.Object) Handle {
	if obj == nil {
		panic("registry: insert of nil object")
	}

	pos := len(r.objects)
	h := handleOf(StableID(len(r.sparse)))

	r.objects = append(r.objects, obj)
	r.owners = append(r.owners, h)
	r.sparse = append(r.sparse, pos)

	joined := 0
	for i := range r.indices {
		if _, ok := obj.As(r.indices[i].name); ok {
			r.indices[i].members = append(r.indices[i].members, h)
			joined++
		}
	}

	if ce := Logger().Check(zap.DebugLevel, "object inserted"); ce != nil {
		ce.Write(
			zap.Uint64("handle", uint64(h)),
			zap.Int("position", pos),
			zap.Int("capabilities", joined),
		)
	}

	r.notify(Event{Type: EventInserted, Handle: h, Object: obj})
	return h
}

// position resolves a handle to its dense position.
func (r *Registry) position(h Handle) (int, bool) {
	if !h.Valid() {
		return 0, false
	}
	id := h.ID()
	if uint64(id) >= uint64(len(r.sparse)) {
		return 0, false
	}
	pos := r.sparse[id]
	if pos == tombstone {
		return 0, false
	}
	return pos, true
}

// Remove takes the object out of the registry and returns it.
// It returns (nil, false) for a zero, unknown or already removed handle.
func (r *Registry) Remove(h Handle) (handlersystem.Object, bool) {
	pos, ok := r.position(h)
	if !ok {
		return nil, false
	}

	obj := r.objects[pos]
	last := len(r.objects) - 1
	if pos != last {
		moved := r.owners[last]
		r.objects[pos] = r.objects[last]
		r.owners[pos] = moved
		r.sparse[moved.ID()] = pos
	}
	r.objects[last] = nil
	r.objects = r.objects[:last]
	r.owners = r.owners[:last]
	r.sparse[h.ID()] = tombstone

	if ce := Logger().Check(zap.DebugLevel, "object removed"); ce != nil {
		ce.Write(zap.Uint64("handle", uint64(h)), zap.Int("position", pos))
	}

	r.notify(Event{Type: EventRemoved, Handle: h, Object: obj})
	return obj, true
}

// Get returns the object for a handle.
func (r *Registry) Get(h Handle) (handlersystem.Object, bool) {
	pos, ok := r.position(h)
	if !ok {
		return nil, false
	}
	return r.objects[pos], true
}

// Contains reports whether the handle refers to a resident object.
func (r *Registry) Contains(h Handle) bool {
	_, ok := r.position(h)
	return ok
}

// Len returns the number of resident objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Issued returns how many handles have been allocated so far.
func (r *Registry) Issued() int {
	return len(r.sparse)
}

// Lookup returns the capability declared under name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Capabilities returns the declared capability names in declaration order.
func (r *Registry) Capabilities() []string {
	names := make([]string, len(r.indices))
	for i := range r.indices {
		names[i] = r.indices[i].name
	}
	return names
}

// CapabilityName returns the name a capability was declared with.
func (r *Registry) CapabilityName(c Capability) string {
	return r.indices[c].name
}

// IndexLen returns the number of entries in a capability index, stale
// entries included.
func (r *Registry) IndexLen(c Capability) int {
	return len(r.indices[c].members)
}

// Stale counts index entries whose object has been removed and that the next
// dispatch over c will evict.
func (r *Registry) Stale(c Capability) int {
	n := 0
	for _, h := range r.indices[c].members {
		if !r.Contains(h) {
			n++
		}
	}
	return n
}

// All yields every resident object with its handle in dense order.
// The order changes whenever an object is removed.
func (r *Registry) All() iter.Seq2[Handle, handlersystem.Object] {
	return func(yield func(Handle, handlersystem.Object) bool) {
		for i := 0; i < len(r.objects); i++ {
			if !yield(r.owners[i], r.objects[i]) {
				return
			}
		}
	}
}

// Objects yields every resident object in dense order.
func (r *Registry) Objects() iter.Seq[handlersystem.Object] {
	return func(yield func(handlersystem.Object) bool) {
		for i := 0; i < len(r.objects); i++ {
			if !yield(r.objects[i]) {
				return
			}
		}
	}
}

// Each calls fn for every resident object until fn returns false.
func (r *Registry) Each(fn func(Handle, handlersystem.Object) bool) {
	for h, obj := range r.All() {
		if !fn(h, obj) {
			return
		}
	}
}

// Clear discards every resident object. Objects implementing Dropper are
// dropped. Handles issued before Clear stay invalid forever and allocation
// continues from the next stable id.
func (r *Registry) Clear() {
	objects := r.objects
	owners := r.owners

	for _, h := range owners {
		r.sparse[h.ID()] = tombstone
	}
	r.objects = make([]handlersystem.Object, 0, cap(objects))
	r.owners = make([]Handle, 0, cap(owners))

	// Indices are left for lazy eviction while a dispatch is walking them.
	if r.depth == 0 {
		for i := range r.indices {
			r.indices[i].members = r.indices[i].members[:0]
		}
	}

	Logger().Debug("registry cleared", zap.Int("objects", len(objects)))

	for i, obj := range objects {
		if d, ok := obj.(Dropper); ok {
			d.Drop()
		}
		r.notify(Event{Type: EventCleared, Handle: owners[i], Object: obj})
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}
