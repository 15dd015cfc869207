package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
)

// Model is the help overlay. It lists the bindings of the screen it was
// opened from, followed by the global ones.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	screen triage.View
	width  int
	height int
}

// New creates a help overlay.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width - 4
	return Model{
		keys:   k,
		help:   h,
		screen: triage.ViewDashboard,
		width:  width,
		height: height,
	}
}

// SetScreen selects which screen's bindings are listed.
func (m *Model) SetScreen(v triage.View) {
	m.screen = v
}

// Bindings returns the binding columns shown for the current screen.
func (m Model) Bindings() [][]key.Binding {
	k := m.keys
	global := []key.Binding{k.Command, k.Help, k.Quit}

	switch m.screen {
	case triage.ViewCategoryDetail:
		return [][]key.Binding{
			{k.Up, k.Down, k.Select, k.Back},
			{k.Toggle, k.SelectAll, k.BulkDelete, k.BulkUnsubscribe},
			global,
		}
	case triage.ViewEmailDetail:
		return [][]key.Binding{
			{k.Up, k.Down, k.Back},
			{k.Delete, k.Unsubscribe},
			global,
		}
	case triage.ViewLogin:
		return [][]key.Binding{{k.Select}, global}
	default:
		return [][]key.Binding{
			{k.Up, k.Down, k.Select, k.NewCategory, k.Delete},
			{k.Process, k.Inbox, k.Refresh, k.Simulate},
			{k.AddAccount, k.Reconnect, k.SignOut},
			global,
		}
	}
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")
	sub := theme.DimmedStyle.Render("Shortcuts for the " + m.screen.String() + " screen. Press ? or esc to close.")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		sub,
		"",
		m.help.FullHelpView(m.Bindings()),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
