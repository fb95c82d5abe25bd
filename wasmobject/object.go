package wasmobject

import (
	"context"
	"slices"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/handler-system/errors"
	"github.com/wippyai/handler-system/schema"
	"github.com/wippyai/handler-system/system"
)

// Object is a handler object backed by a wasm module instance.
type Object struct {
	module api.Module
	caps   map[string]*capability
	name   string
}

// As returns the capability value for a capability the module exports.
// The value implements handlersystem.SlotInvoker.
func (o *Object) As(name string) (any, bool) {
	cp, ok := o.caps[name]
	if !ok {
		return nil, false
	}
	return cp, true
}

// Name returns the name the object was loaded under.
func (o *Object) Name() string {
	return o.name
}

// Module returns the module instance.
func (o *Object) Module() api.Module {
	return o.module
}

// Capabilities returns the supported capability names, sorted.
func (o *Object) Capabilities() []string {
	names := make([]string, 0, len(o.caps))
	for name := range o.caps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close closes the module instance.
func (o *Object) Close(ctx context.Context) error {
	return o.module.Close(ctx)
}

// Drop closes the module when the registry discards the object.
func (o *Object) Drop() {
	if err := o.Close(context.Background()); err != nil {
		Logger().Warn("close wasm object", zap.String("name", o.name), zap.Error(err))
	}
}

type capability struct {
	object *Object
	slots  map[string]*slot
	name   string
}

type slot struct {
	fn     api.Function
	export string
	args   []schema.Arg
}

// InvokeSlot calls the export implementing slot.
func (c *capability) InvokeSlot(ctx context.Context, name string, args []any) error {
	s, ok := c.slots[name]
	if !ok {
		return errors.NotFound(errors.PhaseInvoke, "slot", name)
	}
	if len(args) != len(s.args) {
		return errors.Arity(errors.PhaseInvoke, []string{c.object.name, s.export}, len(s.args), len(args))
	}

	params := make([]uint64, len(args))
	for i, arg := range s.args {
		v, err := system.Convert(args[i], arg.Type)
		if err != nil {
			return err
		}
		params[i] = encode(v, arg.Type)
	}

	if _, err := s.fn.Call(ctx, params...); err != nil {
		return errors.Invocation([]string{c.object.name, s.export}, err)
	}
	return nil
}

// encode packs a converted argument into its core wasm representation.
func encode(v any, t wit.Type) uint64 {
	switch t.(type) {
	case wit.Bool:
		if v.(bool) {
			return api.EncodeI32(1)
		}
		return api.EncodeI32(0)
	case wit.U8:
		return api.EncodeU32(uint32(v.(uint8)))
	case wit.U16:
		return api.EncodeU32(uint32(v.(uint16)))
	case wit.U32:
		return api.EncodeU32(v.(uint32))
	case wit.S8:
		return api.EncodeI32(int32(v.(int8)))
	case wit.S16:
		return api.EncodeI32(int32(v.(int16)))
	case wit.S32:
		return api.EncodeI32(v.(int32))
	case wit.Char:
		return api.EncodeU32(uint32(v.(rune)))
	case wit.U64:
		return v.(uint64)
	case wit.S64:
		return api.EncodeI64(v.(int64))
	case wit.F32:
		return api.EncodeF32(v.(float32))
	case wit.F64:
		return api.EncodeF64(v.(float64))
	default:
		return 0
	}
}
