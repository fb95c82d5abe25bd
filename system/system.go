package system

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	handlersystem "github.com/wippyai/handler-system"
	"github.com/wippyai/handler-system/errors"
	"github.com/wippyai/handler-system/registry"
	"github.com/wippyai/handler-system/schema"
)

// System is a registry whose capabilities and signals come from a schema.
// It is not safe for concurrent use.
type System struct {
	def      *schema.System
	reg      *registry.Registry
	caps     map[string]registry.Capability
	bindings map[bindKey]*binding
}

// New validates def and creates an empty system for it.
func New(def *schema.System, opts registry.Options) (*System, error) {
	if def == nil {
		return nil, errors.Empty(errors.PhaseSchema, nil, "nil system definition")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	reg := registry.New(def.CapabilityNames(), opts)
	caps := make(map[string]registry.Capability, len(def.Capabilities))
	for _, c := range def.Capabilities {
		caps[c.Name], _ = reg.Lookup(c.Name)
	}

	Logger().Info("system created",
		zap.String("system", def.Name),
		zap.Strings("capabilities", def.CapabilityNames()),
	)

	return &System{
		def:      def,
		reg:      reg,
		caps:     caps,
		bindings: make(map[bindKey]*binding),
	}, nil
}

// Definition returns the schema the system was built from.
func (s *System) Definition() *schema.System {
	return s.def
}

// Registry returns the underlying registry.
func (s *System) Registry() *registry.Registry {
	return s.reg
}

// Insert binds every capability obj supports to its slots and stores obj.
// An object whose capability values lack a slot method is rejected and
// nothing is stored.
func (s *System) Insert(obj handlersystem.Object) (registry.Handle, error) {
	if obj == nil {
		return 0, errors.Empty(errors.PhaseBind, nil, "nil object")
	}

	var err error
	for _, c := range s.def.Capabilities {
		impl, ok := obj.As(c.Name)
		if !ok {
			continue
		}
		if _, berr := s.bind(c, impl); berr != nil {
			err = multierr.Append(err, berr)
		}
	}
	if err != nil {
		return 0, err
	}
	return s.reg.Insert(obj), nil
}

// Remove takes the object out of the system and returns it.
func (s *System) Remove(h registry.Handle) (handlersystem.Object, bool) {
	return s.reg.Remove(h)
}

// Get returns the object for a handle.
func (s *System) Get(h registry.Handle) (handlersystem.Object, bool) {
	return s.reg.Get(h)
}

// Len returns the number of resident objects.
func (s *System) Len() int {
	return s.reg.Len()
}

// All yields every resident object with its handle.
func (s *System) All() iter.Seq2[registry.Handle, handlersystem.Object] {
	return s.reg.All()
}

// Clear discards every resident object.
func (s *System) Clear() {
	s.reg.Clear()
}

// Emit broadcasts a signal to every resident object whose capability
// declares it and returns the number of slots invoked.
//
// Arguments are converted to the Go types of the declared WIT types before
// any slot runs. A failing slot does not stop the broadcast; all slot errors
// are returned combined. Once ctx is done the remaining slots are skipped.
func (s *System) Emit(ctx context.Context, signal string, args ...any) (int, error) {
	sig, c, ok := s.def.SignalOwner(signal)
	if !ok {
		return 0, errors.NotFound(errors.PhaseBroadcast, "signal", signal)
	}
	if len(args) != len(sig.Args) {
		return 0, errors.Arity(errors.PhaseBroadcast, []string{signal}, len(sig.Args), len(args))
	}

	converted, err := convertArgs(sig, args)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	called := 0
	cancelled := false

	s.reg.Dispatch(s.caps[c.Name], func(h registry.Handle, impl any) {
		if cancelled {
			return
		}
		if cerr := ctx.Err(); cerr != nil {
			cancelled = true
			err = multierr.Append(err, cerr)
			return
		}

		b, berr := s.bind(c, impl)
		if berr != nil {
			Logger().Warn("cannot bind capability at broadcast",
				zap.Uint64("handle", uint64(h)),
				zap.String("capability", c.Name),
				zap.Error(berr),
			)
			err = multierr.Append(err, berr)
			return
		}

		called++
		if serr := b.slots[sig.Name](ctx, impl, converted); serr != nil {
			Logger().Warn("slot failed",
				zap.Uint64("handle", uint64(h)),
				zap.String("signal", signal),
				zap.String("slot", sig.Slot),
				zap.Error(serr),
			)
			err = multierr.Append(err, errors.New(errors.PhaseInvoke, errors.KindInvocation).
				Path(signal, sig.Slot).
				Value(h).
				Cause(serr).
				Detail("slot failed on handle %d", h).
				Build())
		}
	})

	return called, err
}

func convertArgs(sig *schema.Signal, args []any) ([]any, error) {
	out := make([]any, len(args))
	var err error
	for i, a := range sig.Args {
		v, ok := convert(args[i], a.Type)
		if !ok {
			err = multierr.Append(err, errors.TypeMismatch(errors.PhaseBroadcast,
				[]string{sig.Name, a.Name}, fmt.Sprintf("%T", args[i]), a.TypeName))
			continue
		}
		out[i] = v
	}
	return out, err
}
