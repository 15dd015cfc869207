package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
)

// BackMsg signals the parent to close the email.
type BackMsg struct{}

// DeleteMsg asks the parent to delete the open email.
type DeleteMsg struct {
	ID string
}

// UnsubscribeMsg asks the parent to unsubscribe from the open email.
type UnsubscribeMsg struct {
	ID string
}

// Model is the email detail view component.
type Model struct {
	email      *model.Email
	category   string
	processing bool
	viewport   viewport.Model
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// SetState shows the open email. The viewport scrolls back to the top
// only when a different email is opened.
func (m *Model) SetState(s triage.State) {
	m.processing = s.Processing
	e, ok := s.Email(s.OpenEmailID)
	if !ok {
		m.email = nil
		m.viewport.SetContent("")
		return
	}

	changed := m.email == nil || m.email.ID != e.ID
	m.email = &e
	m.category = ""
	if c, ok := s.SelectedCategory(); ok {
		m.category = c.Name
	}
	m.viewport.SetContent(m.renderContent())
	if changed {
		m.viewport.GotoTop()
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Delete):
			if m.email != nil && !m.processing {
				id := m.email.ID
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
			return m, nil

		case key.Matches(msg, m.keys.Unsubscribe):
			if m.email != nil && !m.processing {
				id := m.email.ID
				return m, func() tea.Msg { return UnsubscribeMsg{ID: id} }
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.Active.Muted).
			Render("No email selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	e := m.email
	wrap := lipgloss.NewStyle().Width(min(m.width-4, 100))
	var sections []string

	sections = append(sections,
		lipgloss.NewStyle().Bold(true).Foreground(theme.Active.Accent).Render("AI SUMMARY"),
		wrap.Render(e.Summary),
		"",
	)

	sections = append(sections, lipgloss.NewStyle().Bold(true).Foreground(theme.Active.Text).Render(e.Subject))
	sections = append(sections, "")

	field := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, theme.LabelStyle.Render(label)+" "+value)
	}
	field("From:", e.From)
	if !e.ReceivedAt.IsZero() {
		field("Date:", e.ReceivedAt.Local().Format("Monday, January 2, 2006 at 03:04 PM"))
	}
	field("Category:", m.category)
	if e.Archived {
		field("Status:", lipgloss.NewStyle().Foreground(theme.Active.Good).Render("Archived in mailbox"))
	}
	if e.UnsubscribeURL != "" {
		field("Unsub:", theme.DimmedStyle.Render(e.UnsubscribeURL))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.Active.Subtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := e.Body
	if body == "" {
		body = theme.HelpStyle.Render("No content")
	}
	sections = append(sections, wrap.Render(body))

	if !e.ImportedAt.IsZero() {
		sections = append(sections, "", theme.DimmedStyle.Render(
			fmt.Sprintf("Imported %s", e.ImportedAt.Local().Format("2006-01-02 15:04")),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
