package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailsort/internal/keys"
	"github.com/nhle/mailsort/internal/theme"
)

// EmailLoginMsg asks the parent to sign in locally with an email address.
type EmailLoginMsg struct {
	Email string
}

// GoogleLoginMsg asks the parent to start the Google device-code flow.
type GoogleLoginMsg struct{}

const (
	methodEmail  = "email"
	methodGoogle = "google"
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	method string
	email  string
}

// Model is the sign-in screen.
type Model struct {
	form          *huh.Form
	fb            *formBindings
	googleEnabled bool
	prompt        string
	width         int
	height        int
}

// New creates the sign-in screen. googleEnabled controls whether the
// Google option is offered.
func New(googleEnabled bool, width, height int) Model {
	m := Model{
		fb:            &formBindings{method: methodEmail},
		googleEnabled: googleEnabled,
		width:         width,
		height:        height,
	}
	m.form = m.buildForm()
	return m
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the form and any device prompt.
func (m *Model) Reset() tea.Cmd {
	m.fb.email = ""
	m.prompt = ""
	if !m.googleEnabled {
		m.fb.method = methodEmail
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// SetDevicePrompt shows the verification URL and code of a running
// device-code login. An empty url clears the prompt.
func (m *Model) SetDevicePrompt(url, code string) {
	if url == "" {
		m.prompt = ""
		return
	}
	m.prompt = fmt.Sprintf("Visit %s and enter code %s", url, code)
}

// Update handles messages for the sign-in screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submit()
		m.form = m.buildForm()
		return m, tea.Batch(submit, m.form.Init())
	case huh.StateAborted:
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, cmd
}

func (m Model) submit() tea.Cmd {
	if m.fb.method == methodGoogle {
		return func() tea.Msg { return GoogleLoginMsg{} }
	}
	email := strings.TrimSpace(m.fb.email)
	return func() tea.Msg { return EmailLoginMsg{Email: email} }
}

// View renders the sign-in screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("AI Email Sorter"))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render("Sign in to sort your inbox into categories."))
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.form.View())
	}

	if m.prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.NoticeStyle.Render(m.prompt))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("Email login is for development. Production uses Google sign in."))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	var groups []*huh.Group
	if m.googleEnabled {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sign in with").
				Options(
					huh.NewOption("Email address", methodEmail),
					huh.NewOption("Google account", methodGoogle),
				).
				Value(&m.fb.method),
		))
	}

	fb := m.fb
	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(ValidateEmail),
	).WithHideFunc(func() bool { return fb.method == methodGoogle }))

	return huh.NewForm(groups...).WithWidth(formWidth(m.width)).WithKeyMap(keys.FormKeyMap())
}

// ValidateEmail accepts any trimmed address containing an '@'.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func formWidth(width int) int {
	w := width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
