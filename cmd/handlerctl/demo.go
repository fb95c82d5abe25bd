package main

import (
	"fmt"
	"io"

	"github.com/wippyai/handler-system/schema"
)

// demoSystem is the schema every handlerctl session runs on.
func demoSystem() *schema.System {
	return schema.NewBuilder("System").
		Capability("MouseHandler").
		Signal("click", "on_click", "x: u64", "y: u64").
		Signal("hover", "on_hover").
		Capability("InputHandler").
		Signal("input", "on_input", "input: char").
		MustBuild()
}

// named is implemented by every object handlerctl can display.
type named interface {
	Name() string
}

// Button answers mouse signals.
type Button struct {
	out   io.Writer
	label string
}

func NewButton(label string, out io.Writer) *Button {
	return &Button{label: label, out: out}
}

func (b *Button) Name() string { return "button " + b.label }

func (b *Button) As(capability string) (any, bool) {
	if capability == "MouseHandler" {
		return b, true
	}
	return nil, false
}

func (b *Button) OnClick(x, y uint64) {
	fmt.Fprintf(b.out, "%s: click at (%d, %d)\n", b.Name(), x, y)
}

func (b *Button) OnHover() {
	fmt.Fprintf(b.out, "%s: hover\n", b.Name())
}

// TextBox answers mouse and keyboard signals and accumulates typed text.
type TextBox struct {
	out     io.Writer
	label   string
	text    []rune
	focused bool
}

func NewTextBox(label string, out io.Writer) *TextBox {
	return &TextBox{label: label, out: out}
}

func (t *TextBox) Name() string { return "textbox " + t.label }

func (t *TextBox) Text() string { return string(t.text) }

func (t *TextBox) As(capability string) (any, bool) {
	switch capability {
	case "MouseHandler", "InputHandler":
		return t, true
	}
	return nil, false
}

func (t *TextBox) OnClick(x, y uint64) {
	t.focused = true
	fmt.Fprintf(t.out, "%s: focused by click at (%d, %d)\n", t.Name(), x, y)
}

func (t *TextBox) OnHover() {}

func (t *TextBox) OnInput(r rune) error {
	if !t.focused {
		return fmt.Errorf("%s: input %q while not focused", t.Name(), r)
	}
	t.text = append(t.text, r)
	fmt.Fprintf(t.out, "%s: text is now %q\n", t.Name(), t.Text())
	return nil
}

// Label supports no capability at all.
type Label struct {
	text string
}

func NewLabel(text string) *Label {
	return &Label{text: text}
}

func (l *Label) Name() string { return "label " + l.text }

func (l *Label) As(string) (any, bool) { return nil, false }
