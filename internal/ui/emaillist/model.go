package emaillist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
)

// ToggleMsg asks the parent to toggle an email's selection.
type ToggleMsg struct {
	ID string
}

// SelectAllMsg asks the parent to select or clear every email in the
// category.
type SelectAllMsg struct{}

// OpenEmailMsg asks the parent to show an email.
type OpenEmailMsg struct {
	ID string
}

// BackMsg asks the parent to return to the dashboard.
type BackMsg struct{}

// BulkDeleteMsg asks the parent to delete the selected emails.
type BulkDeleteMsg struct {
	IDs []string
}

// BulkUnsubscribeMsg asks the parent to unsubscribe from the selected
// emails.
type BulkUnsubscribeMsg struct {
	IDs []string
}

type bulkKind int

const (
	bulkDelete bulkKind = iota + 1
	bulkUnsubscribe
)

type confirmBinding struct {
	ok bool
}

// Model lists the emails of one category with checkbox selection.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	marks    *marks
	category model.Category
	pending  bulkKind
	confirm  *huh.Form
	cb       *confirmBinding
	notice   string
	width    int
	height   int
}

// New creates a category email list.
func New(k *keys.KeyMap, width, height int) Model {
	mk := &marks{selection: triage.Selection{}, now: time.Now}
	l := list.New([]list.Item{}, ItemDelegate{marks: mk}, width, listHeight(height))
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("email", "emails")

	return Model{
		list:   l,
		keys:   k,
		marks:  mk,
		cb:     &confirmBinding{},
		width:  width,
		height: height,
	}
}

// SetState shows the emails of the selected category.
func (m *Model) SetState(s triage.State) tea.Cmd {
	c, _ := s.SelectedCategory()
	if c.ID != m.category.ID {
		m.list.ResetSelected()
		m.notice = ""
	}
	m.category = c
	m.marks.selection = s.Selection

	emails := s.EmailsIn(c.ID)
	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = EmailItem{Email: e}
	}
	return m.list.SetItems(items)
}

// Confirming reports whether a bulk confirmation has keyboard focus.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// Update handles messages for the email list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(keyMsg, m.keys.Toggle):
		if item, ok := m.list.SelectedItem().(EmailItem); ok {
			id := item.Email.ID
			return m, func() tea.Msg { return ToggleMsg{ID: id} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.SelectAll):
		if len(m.list.Items()) == 0 {
			return m, nil
		}
		return m, func() tea.Msg { return SelectAllMsg{} }

	case key.Matches(keyMsg, m.keys.Select):
		if item, ok := m.list.SelectedItem().(EmailItem); ok {
			id := item.Email.ID
			return m, func() tea.Msg { return OpenEmailMsg{ID: id} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.BulkDelete):
		return m.startConfirm(bulkDelete)

	case key.Matches(keyMsg, m.keys.BulkUnsubscribe):
		return m.startConfirm(bulkUnsubscribe)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) startConfirm(kind bulkKind) (Model, tea.Cmd) {
	n := m.marks.selection.Len()
	if n == 0 {
		m.notice = "Select emails with space first."
		return m, nil
	}

	title := fmt.Sprintf("Delete %d email(s)?", n)
	affirm := "Yes, delete"
	if kind == bulkUnsubscribe {
		title = fmt.Sprintf("Unsubscribe from %d email(s)?", n)
		affirm = "Yes, unsubscribe"
	}

	m.notice = ""
	m.pending = kind
	m.cb.ok = false
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description("The emails are removed from this device.").
				Affirmative(affirm).
				Negative("Cancel").
				Value(&m.cb.ok),
		),
	).WithWidth(min(max(m.width-4, 40), 100)).WithKeyMap(keys.FormKeyMap())
	return m, m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		m.confirm = nil
		if !m.cb.ok {
			return m, nil
		}
		ids := m.marks.selection.IDs()
		switch m.pending {
		case bulkDelete:
			return m, func() tea.Msg { return BulkDeleteMsg{IDs: ids} }
		case bulkUnsubscribe:
			return m, func() tea.Msg { return BulkUnsubscribeMsg{IDs: ids} }
		}
		return m, nil
	case huh.StateAborted:
		m.confirm = nil
		return m, nil
	}
	return m, cmd
}

// View renders the email list.
func (m Model) View() string {
	if m.confirm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirm.View())
	}

	header := theme.TitleStyle.Render(m.category.Name)
	if m.category.Description != "" {
		header += "\n" + theme.DimmedStyle.Render(m.category.Description)
	}
	sel := fmt.Sprintf("%d selected", m.marks.selection.Len())
	header += "\n" + theme.HelpStyle.Render(sel)

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Width(m.width - 4).
			Align(lipgloss.Center).
			Foreground(theme.Active.Muted).
			Render("No emails in this category yet.")
	}

	parts := []string{header, "", body}
	if m.notice != "" {
		parts = append(parts, theme.NoticeStyle.Render(m.notice))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width-4, listHeight(height))
}

func listHeight(height int) int {
	return max(height-5, 3)
}
