package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/nhle/mailsort/internal/keys"
	appsync "github.com/nhle/mailsort/internal/sync"
	"github.com/nhle/mailsort/internal/theme"
	"github.com/nhle/mailsort/internal/triage"
	"github.com/nhle/mailsort/internal/ui"
	"github.com/nhle/mailsort/internal/ui/command"
	"github.com/nhle/mailsort/internal/ui/dashboard"
	"github.com/nhle/mailsort/internal/ui/detail"
	"github.com/nhle/mailsort/internal/ui/emaillist"
	helpview "github.com/nhle/mailsort/internal/ui/help"
	"github.com/nhle/mailsort/internal/ui/login"
)

// DeviceFlow obtains an OAuth ID token through the device-code grant.
type DeviceFlow interface {
	Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	Wait(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error)
}

// Deps are the services the root model drives.
type Deps struct {
	Engine     *triage.Engine
	Reconciler *appsync.Reconciler
	KeepAlive  *appsync.KeepAlive

	// Device is nil when no OAuth client is configured.
	Device DeviceFlow

	// Mailbox is nil when IMAP ingestion is disabled.
	Mailbox      appsync.RawFetcher
	MailboxLimit int

	Logger *zap.Logger
	Rand   *rand.Rand
}

// overlay is a panel drawn over the active screen.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
)

// Model is the root Bubble Tea model. The screen is derived from the
// application state with triage.ActiveView; help and the command palette
// are overlays on top of it.
type Model struct {
	deps   Deps
	logger *zap.Logger
	state  triage.State

	overlay overlay
	layout  ui.Layout
	keys    *keys.KeyMap

	loginView   login.Model
	dashboard   dashboard.Model
	emailList   emaillist.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model

	health   appsync.HealthMsg
	inFlight int
	busy     string
	errText  string
	ready    bool
}

// New creates the root application model.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	k := keys.DefaultKeyMap()

	m := Model{
		deps:        deps,
		logger:      deps.Logger,
		keys:        k,
		loginView:   login.New(deps.Device != nil, 80, 24),
		dashboard:   dashboard.New(k, 80, 24),
		emailList:   emaillist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		inFlight:    1,
		busy:        "Syncing",
	}
	m.applyState(deps.Engine.State())
	return m
}

// Init starts the login form, the keep-alive timer and the startup
// reconciliation.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loginView.Init(),
		m.startup(),
	}
	if m.deps.KeepAlive != nil {
		cmds = append(cmds, m.deps.KeepAlive.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.dashboard.SetSize(w, h)
		m.emailList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case opResultMsg:
		return m.handleResult(msg)

	case deviceCodeMsg:
		return m.handleDeviceCode(msg)

	case appsync.HealthMsg:
		m.health = msg
		return m, m.deps.KeepAlive.WaitForNextResult()

	case login.EmailLoginMsg:
		return m.startOp("Signing in", m.loginLocal(msg.Email))

	case login.GoogleLoginMsg:
		return m.startOp("Starting Google sign in", m.startDeviceLogin())

	case dashboard.OpenCategoryMsg:
		return m.dispatch(triage.OpenCategory{ID: msg.ID})

	case dashboard.CreateCategoryMsg:
		return m.startOp("Creating category", m.createCategory(msg.Name, msg.Description))

	case dashboard.DeleteCategoryMsg:
		return m.startOp("Deleting category", m.deleteCategory(msg.ID))

	case dashboard.AddAccountMsg:
		return m.startOp("Adding account", m.addAccount(msg.Email))

	case emaillist.BackMsg:
		return m.dispatch(triage.Back{})

	case emaillist.ToggleMsg:
		return m.dispatch(triage.ToggleSelection{ID: msg.ID})

	case emaillist.SelectAllMsg:
		return m.dispatch(triage.SelectAll{})

	case emaillist.OpenEmailMsg:
		return m.dispatch(triage.OpenEmail{ID: msg.ID})

	case emaillist.BulkDeleteMsg:
		return m.startOp("Deleting", m.deleteEmails(msg.IDs))

	case emaillist.BulkUnsubscribeMsg:
		return m.startOp("Unsubscribing", m.unsubscribeEmails(msg.IDs))

	case detail.BackMsg:
		return m.dispatch(triage.CloseEmail{})

	case detail.DeleteMsg:
		return m.startOp("Deleting", m.deleteEmails([]string{msg.ID}))

	case detail.UnsubscribeMsg:
		return m.startOp("Unsubscribing", m.unsubscribeEmails([]string{msg.ID}))

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.overlay {
	case overlayHelp:
		if msg.String() == "?" || msg.String() == "esc" {
			m.overlay = overlayNone
		}
		return m, nil
	case overlayCommand:
		if msg.String() == "esc" {
			m.overlay = overlayNone
			return m, nil
		}
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	}

	if m.inputFocused() {
		return m.updateActiveView(msg)
	}

	view := triage.ActiveView(m.state)

	switch msg.String() {
	case "?":
		m.helpView.SetScreen(view)
		m.overlay = overlayHelp
		return m, nil
	case ":":
		m.overlay = overlayCommand
		return m, m.commandView.Focus()
	}

	if view == triage.ViewDashboard {
		switch msg.String() {
		case "q":
			return m.quit()
		case "s":
			return m.executeCommand("simulate")
		case "p":
			return m.executeCommand("process")
		case "i":
			return m.executeCommand("inbox")
		case "r":
			return m.executeCommand("refresh")
		case "R":
			return m.executeCommand("reconnect")
		case "L":
			return m.executeCommand("signout")
		}
	}

	m.errText = ""
	return m.updateActiveView(msg)
}

// inputFocused reports whether the active screen is capturing text or a
// confirmation, in which case global keys are not intercepted.
func (m Model) inputFocused() bool {
	switch triage.ActiveView(m.state) {
	case triage.ViewLogin:
		return true
	case triage.ViewDashboard:
		return m.dashboard.Editing()
	case triage.ViewCategoryDetail:
		return m.emailList.Confirming()
	}
	return false
}

// updateActiveView dispatches the message to the currently active screen.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch triage.ActiveView(m.state) {
	case triage.ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case triage.ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case triage.ViewCategoryDetail:
		m.emailList, cmd = m.emailList.Update(msg)
	case triage.ViewEmailDetail:
		m.detail, cmd = m.detail.Update(msg)
	}

	return m, cmd
}

// dispatch applies a navigation or selection action synchronously.
func (m Model) dispatch(a triage.Action) (tea.Model, tea.Cmd) {
	s, err := m.deps.Engine.Dispatch(context.Background(), a)
	if err != nil {
		m.errText = fmt.Sprintf("Error: %v", err)
	}
	return m, m.applyState(s)
}

// applyState pushes a new state into every screen. It returns a command
// when the new screen needs initialising.
func (m *Model) applyState(s triage.State) tea.Cmd {
	prev := triage.ActiveView(m.state)
	wasSignedIn := m.state.User != nil
	m.state = s

	m.dashboard.SetState(s)
	m.detail.SetState(s)
	cmds := []tea.Cmd{m.emailList.SetState(s)}

	if wasSignedIn && s.User == nil && prev != triage.ViewLogin {
		cmds = append(cmds, m.loginView.Reset())
	}
	return tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.deps.KeepAlive != nil {
		m.deps.KeepAlive.Stop()
	}
	return m, tea.Quit
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	user := ""
	if m.state.User != nil {
		user = m.state.User.Name
		if user == "" {
			user = m.state.User.Email
		}
	}
	healthText := "backend " + m.health.State.String()
	header := m.layout.RenderHeader(
		"AI Email Sorter",
		user,
		theme.HealthStyle(m.health.State.String()),
		healthText,
	)

	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errText)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current screen or
// overlay.
func (m Model) renderContent() string {
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.commandView.View()
	}

	switch triage.ActiveView(m.state) {
	case triage.ViewLogin:
		return m.loginView.View()
	case triage.ViewDashboard:
		return m.dashboard.View()
	case triage.ViewCategoryDetail:
		return m.emailList.View()
	case triage.ViewEmailDetail:
		return m.detail.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.inFlight > 0 {
		return m.busy + "..."
	}

	switch m.overlay {
	case overlayHelp:
		return "? close help | esc back"
	case overlayCommand:
		return "enter execute | tab complete | esc back"
	}

	switch triage.ActiveView(m.state) {
	case triage.ViewLogin:
		return "enter submit | ctrl+c quit"
	case triage.ViewCategoryDetail:
		return "space select | a all | D delete | U unsubscribe | enter open | esc back"
	case triage.ViewEmailDetail:
		return "d delete | u unsubscribe | j/k scroll | esc back"
	default:
		return "n new | d delete | p process | s simulate | r refresh | L sign out | ? help | q quit"
	}
}
