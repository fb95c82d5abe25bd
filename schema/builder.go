package schema

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/wippyai/handler-system/errors"
)

// Builder assembles a System. Errors are collected as the builder is used
// and reported together by Build.
type Builder struct {
	sys     *System
	current *Capability
	err     error
}

// NewBuilder starts a system with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{sys: &System{Name: name}}
}

// Capability starts a new capability. Following Signal calls add to it.
func (b *Builder) Capability(name string) *Builder {
	b.current = &Capability{Name: name}
	b.sys.Capabilities = append(b.sys.Capabilities, b.current)
	return b
}

// Signal adds a signal to the current capability. Each arg is written as
// "name: type", for example "x: u64".
func (b *Builder) Signal(name, slot string, args ...string) *Builder {
	if b.current == nil {
		b.err = multierr.Append(b.err, errors.New(errors.PhaseSchema, errors.KindInvalidData).
			Path(b.sys.Name, name).
			Detail("signal declared before any capability").
			Build())
		return b
	}

	sig := &Signal{Name: name, Slot: slot, Capability: b.current.Name}
	for _, decl := range args {
		arg, err := parseArg(decl)
		if err != nil {
			b.err = multierr.Append(b.err, prefix(err, b.sys.Name, b.current.Name, name))
			continue
		}
		sig.Args = append(sig.Args, arg)
	}
	b.current.Signals = append(b.current.Signals, sig)
	return b
}

// Build validates the system and returns it, or every error found.
func (b *Builder) Build() (*System, error) {
	err := multierr.Append(b.err, b.sys.Validate())
	if err != nil {
		return nil, err
	}
	return b.sys, nil
}

// MustBuild is like Build but panics on error.
// It is intended for systems declared in package-level variables.
func (b *Builder) MustBuild() *System {
	sys, err := b.Build()
	if err != nil {
		panic(err)
	}
	return sys
}

// parseArg splits "name: type" and resolves the type.
func parseArg(decl string) (Arg, error) {
	name, typeName, ok := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	typeName = strings.TrimSpace(typeName)
	if !ok || name == "" || typeName == "" {
		return Arg{}, errors.New(errors.PhaseSchema, errors.KindInvalidData).
			Value(decl).
			Detail("expected argument as \"name: type\", got %q", decl).
			Build()
	}
	return NewArg(name, typeName)
}

// prefix prepends the location of an argument to a schema error path.
func prefix(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
	}
	return err
}
