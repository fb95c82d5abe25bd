package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
	"golang.org/x/term"

	handlersystem "github.com/wippyai/handler-system"
	"github.com/wippyai/handler-system/registry"
	"github.com/wippyai/handler-system/schema"
	"github.com/wippyai/handler-system/system"
	"github.com/wippyai/handler-system/wasmobject"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	signalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// logLines is how many lines of slot output the view keeps visible.
const logLines = 8

type modelState int

const (
	stateObjects modelState = iota
	stateSelectSignal
	stateInputArgs
)

type interactiveModel struct {
	err      error
	sys      *system.System
	rt       *wasmobject.Runtime
	out      *bytes.Buffer
	status   string
	signals  []*schema.Signal
	handles  []registry.Handle
	inputs   []textinput.Model
	cfg      config
	selected int
	sigIdx   int
	focusIdx int
	created  int
	state    modelState
}

func newInteractiveModel(cfg config) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		out:   &bytes.Buffer{},
		state: stateObjects,
	}
}

type loadedMsg struct {
	err  error
	sys  *system.System
	rt   *wasmobject.Runtime
	wasm handlersystem.Object
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	ctx := context.Background()
	def := demoSystem()

	sys, err := system.New(def, m.cfg.registryOptions())
	if err != nil {
		return loadedMsg{err: err}
	}
	if m.cfg.WasmFile == "" {
		return loadedMsg{sys: sys}
	}

	rt := wasmobject.NewRuntimeWithConfig(ctx, def, m.cfg.wasmConfig())
	obj, err := loadWasm(ctx, rt, m.cfg.WasmFile, m.cfg.WasmName)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}
	return loadedMsg{sys: sys, rt: rt, wasm: obj}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (msg.String() == "q" && m.state != stateInputArgs) {
			m.close()
			return m, tea.Quit
		}
		if m.sys == nil {
			return m, nil
		}
		switch m.state {
		case stateObjects:
			m.updateObjects(msg)
		case stateSelectSignal:
			m.updateSignals(msg)
		case stateInputArgs:
			return m, m.updateInputs(msg)
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sys = msg.sys
		m.rt = msg.rt
		m.signals = m.sys.Definition().Signals()
		if msg.wasm != nil {
			m.insert(msg.wasm)
		}
	}

	return m, nil
}

func (m *interactiveModel) updateObjects(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.handles)-1 {
			m.selected++
		}
	case "b":
		m.created++
		m.insert(NewButton(fmt.Sprintf("b%d", m.created), m.out))
	case "t":
		m.created++
		m.insert(NewTextBox(fmt.Sprintf("t%d", m.created), m.out))
	case "l":
		m.created++
		m.insert(NewLabel(fmt.Sprintf("l%d", m.created)))
	case "d", "x":
		m.removeSelected()
	case "e", "enter":
		m.sigIdx = 0
		m.state = stateSelectSignal
	}
}

func (m *interactiveModel) updateSignals(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.sigIdx > 0 {
			m.sigIdx--
		}
	case "down", "j":
		if m.sigIdx < len(m.signals)-1 {
			m.sigIdx++
		}
	case "esc":
		m.state = stateObjects
	case "enter":
		m.prepareInputs()
		if len(m.inputs) == 0 {
			m.emit()
			return
		}
		m.state = stateInputArgs
	}
}

func (m *interactiveModel) updateInputs(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.inputs = nil
		m.state = stateSelectSignal
		return nil
	case "enter":
		m.emit()
		return nil
	case "tab":
		if len(m.inputs) > 1 {
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
		}
		return nil
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m *interactiveModel) insert(obj handlersystem.Object) {
	h, err := m.sys.Insert(obj)
	if err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("insert %s: %v", describe(obj), err))
		return
	}
	m.status = resultStyle.Render(fmt.Sprintf("inserted %s as %d", describe(obj), h))
	m.refresh()
}

func (m *interactiveModel) removeSelected() {
	if len(m.handles) == 0 {
		return
	}
	h := m.handles[m.selected]
	obj, ok := m.sys.Remove(h)
	if !ok {
		m.status = errorStyle.Render(fmt.Sprintf("handle %d not found", h))
		return
	}
	if d, ok := obj.(registry.Dropper); ok {
		d.Drop()
	}
	m.status = resultStyle.Render(fmt.Sprintf("removed %s (%d)", describe(obj), h))
	m.refresh()
}

// refresh rebuilds the handle list in handle order.
func (m *interactiveModel) refresh() {
	m.handles = m.handles[:0]
	for h := range m.sys.All() {
		m.handles = append(m.handles, h)
	}
	slices.Sort(m.handles)
	if m.selected >= len(m.handles) {
		m.selected = max(len(m.handles)-1, 0)
	}
}

func (m *interactiveModel) prepareInputs() {
	sig := m.signals[m.sigIdx]
	m.inputs = make([]textinput.Model, len(sig.Args))
	for i, a := range sig.Args {
		ti := textinput.New()
		ti.Placeholder = a.TypeName
		ti.Prompt = a.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) emit() {
	sig := m.signals[m.sigIdx]
	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		v, err := system.Parse(sig.Args[i].Type, input.Value())
		if err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("%s: %v", sig.Args[i].Name, err))
			return
		}
		args[i] = v
	}

	n, err := m.sys.Emit(context.Background(), sig.Name, args...)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d slot(s) invoked", sig.Name, n)
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(&b, "\n%v", e)
	}
	if err != nil {
		m.status = errorStyle.Render(b.String())
	} else {
		m.status = resultStyle.Render(b.String())
	}

	m.inputs = nil
	m.state = stateObjects
}

func (m *interactiveModel) close() {
	if m.sys != nil {
		m.sys.Clear()
	}
	if m.rt != nil {
		m.rt.Close(context.Background())
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.sys == nil {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Handler System"))
	b.WriteString(" ")
	b.WriteString(m.sys.Definition().Name)
	b.WriteString("\n\n")

	switch m.state {
	case stateObjects:
		m.viewObjects(&b)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("b button • t textbox • l label • d remove • e emit • q quit"))

	case stateSelectSignal:
		b.WriteString("Select a signal to emit:\n\n")
		for i, sig := range m.signals {
			_, owner, _ := m.sys.Definition().SignalOwner(sig.Name)
			line := signalStyle.Render(sig.String()) + " " + typeStyle.Render("["+owner.Name+"]")
			if i == m.sigIdx {
				b.WriteString(selectedStyle.Render("> " + sig.String()))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter emit • esc back"))

	case stateInputArgs:
		sig := m.signals[m.sigIdx]
		b.WriteString(fmt.Sprintf("Emitting %s\n\n", signalStyle.Render(sig.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(sig.Args[i].TypeName))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter emit • esc back"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(m.status)
	}
	if tail := m.logTail(); tail != "" {
		b.WriteString("\n\n")
		b.WriteString(tail)
	}
	return b.String()
}

func (m *interactiveModel) viewObjects(b *strings.Builder) {
	reg := m.sys.Registry()
	fmt.Fprintf(b, "%d object(s), %d handle(s) issued\n", reg.Len(), reg.Issued())
	for _, name := range reg.Capabilities() {
		c, _ := reg.Lookup(name)
		fmt.Fprintf(b, "%s %d entries, %d stale\n", typeStyle.Render(name), reg.IndexLen(c), reg.Stale(c))
	}
	b.WriteString("\n")

	if len(m.handles) == 0 {
		b.WriteString(helpStyle.Render("no objects"))
		b.WriteString("\n")
		return
	}
	for i, h := range m.handles {
		obj, _ := m.sys.Get(h)
		line := fmt.Sprintf("%4d  %s", h, describe(obj))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
}

func (m *interactiveModel) logTail() string {
	lines := strings.Split(strings.TrimRight(m.out.String(), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > logLines {
		lines = lines[len(lines)-logLines:]
	}
	return helpStyle.Render(strings.Join(lines, "\n"))
}

func runInteractive(cfg config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal on stdout")
	}
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
