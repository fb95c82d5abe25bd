package registry

import (
	"sync"

	handlersystem "github.com/wippyai/handler-system"
)

// Locked serializes access to a Registry with a single mutex.
//
// Callbacks passed to Dispatch and Do run with the lock held and must use the
// *Registry they are given, not the Locked wrapper.
type Locked struct {
	reg *Registry
	mu  sync.Mutex
}

// NewLocked wraps r. The caller must not use r directly afterwards.
func NewLocked(r *Registry) *Locked {
	return &Locked{reg: r}
}

// Insert adds an object and returns its handle.
func (l *Locked) Insert(obj handlersystem.Object) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Insert(obj)
}

// Remove takes an object out and returns it.
func (l *Locked) Remove(h Handle) (handlersystem.Object, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Remove(h)
}

// Get returns the object for a handle.
func (l *Locked) Get(h Handle) (handlersystem.Object, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Get(h)
}

// Contains reports whether the handle refers to a resident object.
func (l *Locked) Contains(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Contains(h)
}

// Len returns the number of resident objects.
func (l *Locked) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Len()
}

// Clear discards every resident object.
func (l *Locked) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reg.Clear()
}

// Dispatch runs a dispatch pass while holding the lock. fn receives the
// underlying registry for any insertions or removals it performs.
func (l *Locked) Dispatch(c Capability, fn func(*Registry, Handle, any)) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Dispatch(c, func(h Handle, impl any) {
		fn(l.reg, h, impl)
	})
}

// Do runs fn with exclusive access to the underlying registry.
func (l *Locked) Do(fn func(*Registry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.reg)
}
