package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "simulate", Normalize("  Simulate "))
	assert.Equal(t, "sign out", Normalize("SIGN\t  out"))
	assert.Equal(t, "", Normalize("   "))
}

func TestModel_EnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "Process" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("process"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestModel_EnterOnEmptyInput(t *testing.T) {
	m := New(80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
