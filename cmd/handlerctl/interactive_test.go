package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T) *interactiveModel {
	t.Helper()
	m := newInteractiveModel(defaultConfig())
	msg := m.load()
	require.IsType(t, loadedMsg{}, msg)
	m.Update(msg)
	require.NoError(t, m.err)
	require.NotNil(t, m.sys)
	t.Cleanup(m.close)
	return m
}

func press(m *interactiveModel, msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestInteractive_InsertAndRemove(t *testing.T) {
	m := loadedModel(t)
	assert.Contains(t, m.View(), "no objects")

	press(m, keys("b"), keys("t"), keys("l"))
	require.Len(t, m.handles, 3)
	assert.Equal(t, 3, m.sys.Len())
	assert.Contains(t, m.View(), "button b1")
	assert.Contains(t, m.View(), "textbox t2")

	press(m, tea.KeyMsg{Type: tea.KeyDown}, keys("d"))
	require.Len(t, m.handles, 2)
	assert.Equal(t, 1, m.selected)
	for _, h := range m.handles {
		obj, ok := m.sys.Get(h)
		require.True(t, ok)
		assert.NotEqual(t, "textbox t2", describe(obj))
	}

	press(m, keys("x"), keys("x"), keys("x"))
	assert.Empty(t, m.handles)
	assert.Equal(t, 0, m.sys.Len())
}

func TestInteractive_EmitWithArguments(t *testing.T) {
	m := loadedModel(t)
	press(m, keys("b"), keys("e"))
	require.Equal(t, stateSelectSignal, m.state)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateInputArgs, m.state)
	require.Len(t, m.inputs, 2)

	m.inputs[0].SetValue("5")
	m.inputs[1].SetValue("0x10")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateObjects, m.state)
	assert.Contains(t, m.out.String(), "button b1: click at (5, 16)")
	assert.Contains(t, m.status, "click: 1 slot(s) invoked")
}

func TestInteractive_EmitWithoutArguments(t *testing.T) {
	m := loadedModel(t)
	press(m, keys("b"), keys("e"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateObjects, m.state)
	assert.Contains(t, m.out.String(), "button b1: hover")
	assert.Contains(t, m.View(), "button b1: hover")
}

func TestInteractive_BadArgumentKeepsInputs(t *testing.T) {
	m := loadedModel(t)
	press(m, keys("b"), keys("e"), tea.KeyMsg{Type: tea.KeyEnter})

	m.inputs[0].SetValue("five")
	m.inputs[1].SetValue("1")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateInputArgs, m.state)
	assert.Contains(t, m.status, "x:")
	assert.Empty(t, m.out.String())

	press(m, tea.KeyMsg{Type: tea.KeyEsc}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateObjects, m.state)
}

func TestInteractive_SlotFailureShown(t *testing.T) {
	m := loadedModel(t)
	press(m, keys("t"), keys("e"))
	for range 2 {
		press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateInputArgs, m.state)

	m.inputs[0].SetValue("z")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, m.status, "input: 1 slot(s) invoked")
	assert.Contains(t, m.status, "while not focused")
}

func TestInteractive_LoadError(t *testing.T) {
	cfg := defaultConfig()
	cfg.WasmFile = "/nonexistent/widget.wasm"
	m := newInteractiveModel(cfg)
	m.Update(m.load())
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "Error:")

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
}

func TestInteractive_LogTail(t *testing.T) {
	m := newInteractiveModel(defaultConfig())
	assert.Empty(t, m.logTail())

	for i := range logLines + 3 {
		m.out.WriteString(string(rune('a'+i)) + "\n")
	}
	tail := m.logTail()
	assert.NotContains(t, tail, "a\n")
	assert.Contains(t, tail, string(rune('a'+logLines+2)))
}
