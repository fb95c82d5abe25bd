package handlersystem

import "context"

// Object is implemented by every value stored in a registry.
//
// As returns the object's implementation of the named capability, or
// (nil, false) when the object does not support it. The answer for a given
// capability must not change while the object is registered.
type Object interface {
	As(capability string) (any, bool)
}

// SlotInvoker is optionally implemented by capability values that dispatch
// slots by name instead of exposing Go methods.
type SlotInvoker interface {
	InvokeSlot(ctx context.Context, slot string, args []any) error
}

// As probes obj for a capability and asserts the result to C.
func As[C any](obj Object, capability string) (C, bool) {
	var zero C
	if obj == nil {
		return zero, false
	}
	impl, ok := obj.As(capability)
	if !ok {
		return zero, false
	}
	c, ok := impl.(C)
	return c, ok
}
