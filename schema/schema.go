package schema

import (
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"

	"github.com/wippyai/handler-system/errors"
)

// Arg is one typed signal argument.
type Arg struct {
	Type     wit.Type
	Name     string
	TypeName string
}

// NewArg resolves typeName and returns the argument.
func NewArg(name, typeName string) (Arg, error) {
	t, err := wit.ParseType(strings.TrimSpace(typeName))
	if err != nil {
		return Arg{}, errors.New(errors.PhaseSchema, errors.KindInvalidData).
			Path(name).
			WitType(typeName).
			Cause(err).
			Detail("cannot resolve argument type").
			Build()
	}
	if !IsPrimitive(t) {
		return Arg{}, errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(name).
			WitType(typeName).
			Detail("signal arguments must be primitive value types").
			Build()
	}
	return Arg{Type: t, Name: name, TypeName: strings.TrimSpace(typeName)}, nil
}

// String renders the argument as "name: type".
func (a Arg) String() string {
	return a.Name + ": " + a.TypeName
}

// Signal maps a broadcast name to the slot method that handles it.
type Signal struct {
	Name       string
	Slot       string
	Capability string
	Args       []Arg
}

// String renders the signal as "name(arg: type, ...) => slot".
func (s *Signal) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(") => ")
	b.WriteString(s.Slot)
	return b.String()
}

// Capability is a named set of signals an object may support.
type Capability struct {
	Name    string
	Signals []*Signal
}

// Signal returns the capability's signal with the given name.
func (c *Capability) Signal(name string) (*Signal, bool) {
	for _, s := range c.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Slots returns the slot names of the capability in declaration order.
func (c *Capability) Slots() []string {
	slots := make([]string, len(c.Signals))
	for i, s := range c.Signals {
		slots[i] = s.Slot
	}
	return slots
}

// System is a complete handler system description.
type System struct {
	Name         string
	Capabilities []*Capability
}

// Capability returns the capability with the given name.
func (s *System) Capability(name string) (*Capability, bool) {
	for _, c := range s.Capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Signal returns the signal with the given name from any capability.
func (s *System) Signal(name string) (*Signal, bool) {
	sig, _, ok := s.SignalOwner(name)
	return sig, ok
}

// SignalOwner returns the named signal together with the capability that
// declares it. The owner comes from the declaration itself, so it is set even
// when Signal.Capability was left empty.
func (s *System) SignalOwner(name string) (*Signal, *Capability, bool) {
	for _, c := range s.Capabilities {
		if sig, ok := c.Signal(name); ok {
			return sig, c, true
		}
	}
	return nil, nil, false
}

// Signals returns every signal in declaration order.
func (s *System) Signals() []*Signal {
	var out []*Signal
	for _, c := range s.Capabilities {
		out = append(out, c.Signals...)
	}
	return out
}

// CapabilityNames returns capability names in declaration order.
func (s *System) CapabilityNames() []string {
	names := make([]string, len(s.Capabilities))
	for i, c := range s.Capabilities {
		names[i] = c.Name
	}
	return names
}

// Validate checks the structural rules every system must satisfy and
// returns all violations combined.
func (s *System) Validate() error {
	var err error

	if !IsIdentifier(s.Name) {
		err = multierr.Append(err, errors.InvalidName(errors.PhaseSchema, []string{s.Name}, "system", s.Name))
	}
	if len(s.Capabilities) == 0 {
		err = multierr.Append(err, errors.Empty(errors.PhaseSchema, []string{s.Name}, "expected list of handler definitions"))
	}

	capabilities := make(map[string]bool, len(s.Capabilities))
	signals := make(map[string]string)
	for _, c := range s.Capabilities {
		path := []string{s.Name, c.Name}
		if !IsIdentifier(c.Name) {
			err = multierr.Append(err, errors.InvalidName(errors.PhaseSchema, path, "capability", c.Name))
		}
		if capabilities[c.Name] {
			err = multierr.Append(err, errors.Duplicate(errors.PhaseSchema, "capability", c.Name))
		}
		capabilities[c.Name] = true

		if len(c.Signals) == 0 {
			err = multierr.Append(err, errors.Empty(errors.PhaseSchema, path, "expected delimited list of handler functions"))
		}

		slots := make(map[string]bool, len(c.Signals))
		for _, sig := range c.Signals {
			err = multierr.Append(err, validateSignal(s.Name, c.Name, sig, signals, slots))
		}
	}
	return err
}

func validateSignal(system, capability string, sig *Signal, signals map[string]string, slots map[string]bool) error {
	var err error
	path := []string{system, capability, sig.Name}

	if !IsIdentifier(sig.Name) {
		err = multierr.Append(err, errors.InvalidName(errors.PhaseSchema, path, "signal", sig.Name))
	}
	if owner, dup := signals[sig.Name]; dup {
		err = multierr.Append(err, errors.New(errors.PhaseSchema, errors.KindDuplicate).
			Path(path...).
			Value(sig.Name).
			Detail("signal %q already declared by %s", sig.Name, owner).
			Build())
	} else {
		signals[sig.Name] = capability
	}
	if sig.Capability != "" && sig.Capability != capability {
		err = multierr.Append(err, errors.InvalidData(errors.PhaseSchema, path,
			"signal belongs to capability "+sig.Capability))
	}

	if !IsIdentifier(sig.Slot) {
		err = multierr.Append(err, errors.InvalidName(errors.PhaseSchema, path, "slot", sig.Slot))
	}
	if slots[sig.Slot] {
		err = multierr.Append(err, errors.Duplicate(errors.PhaseSchema, "slot", sig.Slot))
	}
	slots[sig.Slot] = true

	args := make(map[string]bool, len(sig.Args))
	for _, a := range sig.Args {
		argPath := append(path[:len(path):len(path)], a.Name)
		if !IsIdentifier(a.Name) {
			err = multierr.Append(err, errors.InvalidName(errors.PhaseSchema, argPath, "argument", a.Name))
		}
		if args[a.Name] {
			err = multierr.Append(err, errors.Duplicate(errors.PhaseSchema, "argument", a.Name))
		}
		args[a.Name] = true
		if a.Type == nil || !IsPrimitive(a.Type) {
			err = multierr.Append(err, errors.New(errors.PhaseSchema, errors.KindUnsupported).
				Path(argPath...).
				WitType(a.TypeName).
				Detail("signal arguments must be primitive value types").
				Build())
		}
	}
	return err
}
