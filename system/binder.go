package system

import (
	"context"
	"reflect"
	"strings"
	"unicode"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	handlersystem "github.com/wippyai/handler-system"
	"github.com/wippyai/handler-system/errors"
	"github.com/wippyai/handler-system/schema"
)

// slotFunc runs one slot on a capability value with converted arguments.
type slotFunc func(ctx context.Context, impl any, args []any) error

// binding holds the slot of every signal of one capability for one concrete
// capability value type.
type binding struct {
	slots map[string]slotFunc
}

type bindKey struct {
	typ        reflect.Type
	capability string
}

// bind returns the cached binding for impl, building it on first use.
func (s *System) bind(c *schema.Capability, impl any) (*binding, error) {
	key := bindKey{typ: reflect.TypeOf(impl), capability: c.Name}
	if b, ok := s.bindings[key]; ok {
		return b, nil
	}

	b, err := newBinding(c, impl)
	if err != nil {
		return nil, err
	}
	s.bindings[key] = b

	Logger().Debug("bound capability",
		zap.String("capability", c.Name),
		zap.String("type", key.typ.String()),
	)
	return b, nil
}

func newBinding(c *schema.Capability, impl any) (*binding, error) {
	if impl == nil {
		return nil, errors.New(errors.PhaseBind, errors.KindInvalidData).
			Path(c.Name).
			Detail("capability probe returned nil").
			Build()
	}

	b := &binding{slots: make(map[string]slotFunc, len(c.Signals))}

	if _, ok := impl.(handlersystem.SlotInvoker); ok {
		for _, sig := range c.Signals {
			slot := sig.Slot
			b.slots[sig.Name] = func(ctx context.Context, impl any, args []any) error {
				return impl.(handlersystem.SlotInvoker).InvokeSlot(ctx, slot, args)
			}
		}
		return b, nil
	}

	rt := reflect.TypeOf(impl)
	methods := make(map[string]reflect.Method, rt.NumMethod())
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if m.IsExported() {
			methods[slotKey(m.Name)] = m
		}
	}

	var err error
	for _, sig := range c.Signals {
		m, ok := methods[slotKey(sig.Slot)]
		if !ok {
			err = multierr.Append(err, errors.New(errors.PhaseBind, errors.KindNotFound).
				Path(c.Name, sig.Slot).
				GoType(rt.String()).
				Detail("no method for slot %q", sig.Slot).
				Build())
			continue
		}
		fn, berr := bindMethod(c.Name, sig, m)
		if berr != nil {
			err = multierr.Append(err, berr)
			continue
		}
		b.slots[sig.Name] = fn
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// bindMethod checks that m can serve sig. Accepted shapes are
//
//	func(args...)
//	func(ctx context.Context, args...)
//
// each optionally returning error. Parameters must have the kind of the Go
// type the WIT argument converts to; named types are converted on call.
func bindMethod(capability string, sig *schema.Signal, m reflect.Method) (slotFunc, error) {
	mt := m.Type
	path := []string{capability, sig.Slot}

	// In(0) is the receiver.
	first := 1
	withContext := mt.NumIn() > 1 && mt.In(1) == typeContext
	if withContext {
		first = 2
	}

	if mt.IsVariadic() || mt.NumIn()-first != len(sig.Args) {
		return nil, errors.Arity(errors.PhaseBind, path, len(sig.Args), mt.NumIn()-first)
	}

	params := make([]reflect.Type, len(sig.Args))
	for i, arg := range sig.Args {
		want := GoType(arg.Type)
		got := mt.In(first + i)
		if want == nil || got.Kind() != want.Kind() {
			return nil, errors.TypeMismatch(errors.PhaseBind, append(path, arg.Name), got.String(), arg.TypeName)
		}
		params[i] = got
	}

	returnsError := false
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == typeError:
		returnsError = true
	default:
		return nil, errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			Path(path...).
			GoType(mt.String()).
			Detail("slot methods may only return error").
			Build()
	}

	return func(ctx context.Context, impl any, args []any) error {
		in := make([]reflect.Value, 0, first+len(args))
		in = append(in, reflect.ValueOf(impl))
		if withContext {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, a := range args {
			in = append(in, reflect.ValueOf(a).Convert(params[i]))
		}
		out := m.Func.Call(in)
		if returnsError && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}, nil
}

// slotKey normalizes a slot name so that on_click, onClick and OnClick
// compare equal.
func slotKey(slot string) string {
	return strings.ReplaceAll(toKebabCase(slot), "_", "-")
}

// toKebabCase converts a PascalCase or camelCase name to kebab-case,
// keeping acronyms together: OnHTTPEvent becomes on-http-event.
func toKebabCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !unicode.IsUpper(r) {
			result.WriteRune(r)
			continue
		}

		end := i + 1
		for end < len(runes) && unicode.IsUpper(runes[end]) {
			end++
		}
		// The last capital of a run starts the next word.
		if end > i+1 && end < len(runes) && unicode.IsLower(runes[end]) {
			end--
		}

		if i > 0 && runes[i-1] != '_' {
			result.WriteByte('-')
		}
		for j := i; j < end; j++ {
			result.WriteRune(unicode.ToLower(runes[j]))
		}
		i = end - 1
	}
	return result.String()
}
