package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
	"github.com/nhle/mailsort/internal/ui"
)

// OpenCategoryMsg asks the parent to show a category's emails.
type OpenCategoryMsg struct {
	ID string
}

// CreateCategoryMsg carries a submitted new-category form.
type CreateCategoryMsg struct {
	Name        string
	Description string
}

// DeleteCategoryMsg asks the parent to delete a category and its emails.
type DeleteCategoryMsg struct {
	ID string
}

// AddAccountMsg carries a submitted add-account form.
type AddAccountMsg struct {
	Email string
}

type mode int

const (
	modeList mode = iota
	modeCategoryForm
	modeAccountForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	email       string
	confirm     bool
}

// Model is the dashboard: linked accounts, categories with counts and the
// demo section.
type Model struct {
	mode        mode
	keys        *keys.KeyMap
	accounts    []model.Account
	categories  []model.Category
	emailCount  int
	canSimulate bool
	processing  bool
	selectedIdx int
	form        *huh.Form
	fb          *formBindings
	notice      string
	width       int
	height      int
}

// New creates a dashboard model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetState refreshes the dashboard from application state.
func (m *Model) SetState(s triage.State) {
	m.accounts = s.Accounts
	m.categories = s.Categories
	m.emailCount = len(s.Emails)
	m.canSimulate = triage.CanSimulate(s)
	m.processing = s.Processing
	if m.selectedIdx >= len(m.categories) {
		m.selectedIdx = max(len(m.categories)-1, 0)
	}
}

// SetNotice shows a one-line message under the category list.
func (m *Model) SetNotice(s string) {
	m.notice = s
}

// Editing reports whether a form has keyboard focus.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// SelectedCategory returns the focused category.
func (m Model) SelectedCategory() (model.Category, bool) {
	if len(m.categories) == 0 {
		return model.Category{}, false
	}
	return m.categories[m.selectedIdx], true
}

// StartNewCategory opens the new-category form.
func (m *Model) StartNewCategory() tea.Cmd {
	m.fb.name = ""
	m.fb.description = ""
	m.form = m.buildCategoryForm()
	m.mode = modeCategoryForm
	return m.form.Init()
}

// StartAddAccount opens the add-account form.
func (m *Model) StartAddAccount() tea.Cmd {
	m.fb.email = ""
	m.form = m.buildAccountForm()
	m.mode = modeAccountForm
	return m.form.Init()
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != modeList {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if len(m.categories) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.categories)
		}

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.categories) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.categories) - 1
			}
		}

	case key.Matches(keyMsg, m.keys.Select):
		if c, ok := m.SelectedCategory(); ok {
			id := c.ID
			return m, func() tea.Msg { return OpenCategoryMsg{ID: id} }
		}

	case key.Matches(keyMsg, m.keys.NewCategory):
		return m, m.StartNewCategory()

	case key.Matches(keyMsg, m.keys.AddAccount):
		return m, m.StartAddAccount()

	case key.Matches(keyMsg, m.keys.Delete):
		if _, ok := m.SelectedCategory(); ok {
			m.fb.confirm = false
			m.form = m.buildConfirmForm()
			m.mode = modeConfirmDelete
			return m, m.form.Init()
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		done := m.mode
		m.mode = modeList
		return m, m.submit(done)
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) submit(done mode) tea.Cmd {
	switch done {
	case modeCategoryForm:
		msg := CreateCategoryMsg{
			Name:        strings.TrimSpace(m.fb.name),
			Description: strings.TrimSpace(m.fb.description),
		}
		return func() tea.Msg { return msg }

	case modeAccountForm:
		msg := AddAccountMsg{Email: strings.TrimSpace(m.fb.email)}
		return func() tea.Msg { return msg }

	case modeConfirmDelete:
		c, ok := m.SelectedCategory()
		if !ok || !m.fb.confirm {
			return nil
		}
		id := c.ID
		return func() tea.Msg { return DeleteCategoryMsg{ID: id} }
	}
	return nil
}

func (m *Model) buildCategoryForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Category name").
				Placeholder("e.g. Newsletters").
				Value(&m.fb.name).
				Validate(validateRequired("name")),
			huh.NewText().
				Title("Description").
				Placeholder("e.g. Marketing emails, newsletters, and promotional content").
				Value(&m.fb.description).
				Validate(validateRequired("description")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(keys.FormKeyMap())
}

func (m *Model) buildAccountForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email address to connect").
				Placeholder("other@example.com").
				Value(&m.fb.email),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(keys.FormKeyMap())
}

func (m *Model) buildConfirmForm() *huh.Form {
	name := ""
	count := 0
	if c, ok := m.SelectedCategory(); ok {
		name = c.Name
		count = c.EmailCount
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete category %q?", name)).
				Description(fmt.Sprintf("Its %d email(s) will be deleted too.", count)).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(keys.FormKeyMap())
}

// View renders the dashboard.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	m.writeAccounts(&b)
	b.WriteString("\n")
	m.writeCategories(&b)
	b.WriteString("\n")
	m.writeDemo(&b)

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.notice))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) writeAccounts(b *strings.Builder) {
	b.WriteString(theme.TitleStyle.Render("Connected accounts"))
	b.WriteString("\n")
	if len(m.accounts) == 0 {
		b.WriteString(theme.HelpStyle.Render("No accounts. Press 'A' to add one."))
		b.WriteString("\n")
		return
	}
	for _, a := range m.accounts {
		badge := "○"
		if a.Connected {
			badge = "●"
		}
		b.WriteString(theme.ListItemStyle.Render(
			theme.ConnectionStyle(a.Connected).Render(badge) + " " + a.Email,
		))
		b.WriteString("\n")
	}
}

func (m Model) writeCategories(b *strings.Builder) {
	title := fmt.Sprintf("Categories (%d emails)", m.emailCount)
	if m.processing {
		title += "  processing..."
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	if len(m.categories) == 0 {
		b.WriteString(theme.HelpStyle.Render("No categories yet. Press 'n' to create one."))
		b.WriteString("\n")
		return
	}

	for i, c := range m.categories {
		line := fmt.Sprintf("%s %s  %s",
			theme.CountStyle(c.EmailCount).Render(fmt.Sprintf("%3d", c.EmailCount)),
			c.Name,
			theme.DimmedStyle.Render(ui.Truncate(c.Description, m.width-20)),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
}

func (m Model) writeDemo(b *strings.Builder) {
	if !m.canSimulate {
		return
	}
	b.WriteString(theme.TitleStyle.Render("Demo mode"))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("Press 's' to simulate a new email arriving in your inbox."))
	b.WriteString("\n")
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
