package registry

import (
	"fmt"

	"go.uber.org/zap"
)

// Signal is a broadcast bound to one capability. C is the interface that
// objects hand out for the capability and A carries the signal arguments.
type Signal[C, A any] struct {
	Slot       func(C, A)
	Name       string
	Capability Capability
}

// NewSignal binds slot to the named capability of r.
// It panics if the capability was not declared.
func NewSignal[C, A any](r *Registry, capability, name string, slot func(C, A)) Signal[C, A] {
	c, ok := r.Lookup(capability)
	if !ok {
		panic(fmt.Sprintf("registry: signal %q bound to undeclared capability %q", name, capability))
	}
	return Signal[C, A]{Slot: slot, Name: name, Capability: c}
}

// Broadcast invokes the signal's slot on every resident object supporting
// its capability and returns how many slots ran. Capability values that do
// not implement C are logged and skipped.
func Broadcast[C, A any](r *Registry, s Signal[C, A], args A) int {
	called := 0
	r.Dispatch(s.Capability, func(h Handle, impl any) {
		c, ok := impl.(C)
		if !ok {
			Logger().Warn("capability value does not match signal",
				zap.String("signal", s.Name),
				zap.Uint64("handle", uint64(h)),
				zap.String("type", fmt.Sprintf("%T", impl)),
			)
			return
		}
		s.Slot(c, args)
		called++
	})
	return called
}
