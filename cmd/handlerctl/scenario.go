package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.uber.org/multierr"

	handlersystem "github.com/wippyai/handler-system"
	"github.com/wippyai/handler-system/errors"
	"github.com/wippyai/handler-system/registry"
	"github.com/wippyai/handler-system/system"
)

type emission struct {
	signal string
	args   []any
}

// runScenario drives sys through inserts, broadcasts and removals, writing
// every slot call and the registry state to out. extra objects (wasm
// objects) join the scenario after the built-in widgets.
func runScenario(ctx context.Context, sys *system.System, out io.Writer, extra ...handlersystem.Object) error {
	def := sys.Definition()
	fmt.Fprintf(out, "System %s\n", def.Name)
	for _, c := range def.Capabilities {
		fmt.Fprintf(out, "  %s\n", c.Name)
		for _, sig := range c.Signals {
			fmt.Fprintf(out, "    %s\n", sig)
		}
	}

	ok := NewButton("ok", out)
	objects := []handlersystem.Object{
		ok,
		NewTextBox("name", out),
		NewLabel("title"),
		NewButton("cancel", out),
	}
	objects = append(objects, extra...)

	fmt.Fprintln(out, "\n== insert")
	var okHandle registry.Handle
	for _, obj := range objects {
		h, err := sys.Insert(obj)
		if err != nil {
			return fmt.Errorf("insert %s: %w", describe(obj), err)
		}
		if obj == handlersystem.Object(ok) {
			okHandle = h
		}
		fmt.Fprintf(out, "%d: %s\n", h, describe(obj))
	}
	printState(out, sys)

	steps := []emission{
		{"input", []any{'x'}},
		{"click", []any{uint64(10), uint64(20)}},
		{"input", []any{'h'}},
		{"input", []any{'i'}},
		{"hover", nil},
	}
	if err := emitAll(ctx, sys, out, steps); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n== remove %d\n", okHandle)
	if _, removed := sys.Remove(okHandle); !removed {
		return fmt.Errorf("remove %d: not found", okHandle)
	}
	if _, removed := sys.Remove(okHandle); removed {
		return fmt.Errorf("remove %d twice succeeded", okHandle)
	}
	printState(out, sys)

	if err := emitAll(ctx, sys, out, []emission{{"click", []any{uint64(1), uint64(2)}}}); err != nil {
		return err
	}
	printState(out, sys)

	fmt.Fprintln(out, "\n== clear")
	sys.Clear()
	printState(out, sys)
	return nil
}

// emitAll broadcasts each step. Slot failures are reported and the scenario
// continues; any other error stops it.
func emitAll(ctx context.Context, sys *system.System, out io.Writer, steps []emission) error {
	for _, st := range steps {
		fmt.Fprintf(out, "\n== emit %s%s\n", st.signal, formatArgs(st.args))
		n, err := sys.Emit(ctx, st.signal, st.args...)
		for _, e := range multierr.Errors(err) {
			if !isSlotFailure(e) {
				return fmt.Errorf("emit %s: %w", st.signal, err)
			}
			fmt.Fprintf(out, "slot failed: %v\n", e)
		}
		fmt.Fprintf(out, "%d slot(s) invoked\n", n)
	}
	return nil
}

func printState(out io.Writer, sys *system.System) {
	reg := sys.Registry()
	fmt.Fprintf(out, "-- %d object(s), %d handle(s) issued\n", reg.Len(), reg.Issued())

	var handles []registry.Handle
	for h := range reg.All() {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		obj, _ := reg.Get(h)
		fmt.Fprintf(out, "   %d: %s\n", h, describe(obj))
	}
	for _, name := range reg.Capabilities() {
		c, _ := reg.Lookup(name)
		fmt.Fprintf(out, "   %s index: %d entries, %d stale\n", name, reg.IndexLen(c), reg.Stale(c))
	}
}

func isSlotFailure(err error) bool {
	return errors.Is(err, &errors.Error{Phase: errors.PhaseInvoke, Kind: errors.KindInvocation})
}

func describe(obj handlersystem.Object) string {
	if n, ok := obj.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", obj)
}

func formatArgs(args []any) string {
	s := "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		if r, ok := a.(rune); ok {
			s += fmt.Sprintf("%q", r)
			continue
		}
		s += fmt.Sprint(a)
	}
	return s + ")"
}
