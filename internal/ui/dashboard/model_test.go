package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/triage"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testState() triage.State {
	user := model.MockUser("ada@example.com")
	return triage.State{
		User:     &user,
		Accounts: []model.Account{{Email: "ada@example.com", Connected: true}},
		Categories: []model.Category{
			{ID: "1", Name: "Billing", EmailCount: 2},
			{ID: "2", Name: "Newsletters"},
		},
	}
}

func TestModel_NavigateAndOpen(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetState(testState())

	m, _ = m.Update(runeKey("j"))
	c, ok := m.SelectedCategory()
	require.True(t, ok)
	assert.Equal(t, "2", c.ID)

	m, _ = m.Update(runeKey("j"))
	c, _ = m.SelectedCategory()
	assert.Equal(t, "1", c.ID, "selection wraps")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenCategoryMsg{ID: "1"}, cmd())
}

func TestModel_SetStateClampsSelection(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetState(testState())
	m, _ = m.Update(runeKey("k"))

	s := testState()
	s.Categories = s.Categories[:1]
	m.SetState(s)

	c, ok := m.SelectedCategory()
	require.True(t, ok)
	assert.Equal(t, "1", c.ID)
}

func TestModel_FormsTakeFocus(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetState(testState())
	assert.False(t, m.Editing())

	m, _ = m.Update(runeKey("n"))
	assert.True(t, m.Editing())
	assert.Contains(t, m.View(), "Category name")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Editing())

	m, _ = m.Update(runeKey("d"))
	assert.True(t, m.Editing())
	assert.Contains(t, m.View(), `Delete category "Billing"?`)
}

func TestModel_View(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	s := testState()
	s.Emails = []model.Email{{ID: "e1"}, {ID: "e2"}}
	m.SetState(s)
	m.SetNotice("Imported 2 email(s)")

	out := m.View()
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Billing")
	assert.Contains(t, out, "Categories (2 emails)")
	assert.Contains(t, out, "Imported 2 email(s)")
}

func TestModel_EmptyView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.SetState(triage.State{})

	out := m.View()
	assert.Contains(t, out, "No accounts.")
	assert.Contains(t, out, "No categories yet.")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
