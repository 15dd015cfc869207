package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	appsync "github.com/nhle/mailsort/internal/sync"
)

// opTimeout bounds a whole operation, which may span several requests.
const opTimeout = 2 * time.Minute

// deviceLoginTimeout is used when the authorization server sends no expiry.
const deviceLoginTimeout = 15 * time.Minute

// errMailboxDisabled is reported by the imap command when no mailbox is
// configured.
var errMailboxDisabled = errors.New("IMAP ingestion is disabled; set imap.enabled in the config")

// opResultMsg is sent when a background operation finishes.
type opResultMsg struct {
	label  string
	notice string
	err    error
}

// deviceCodeMsg carries the device authorization of a Google sign in.
type deviceCodeMsg struct {
	url  string
	code string
	wait tea.Cmd
	err  error
}

// startOp records a running operation and returns the command that runs it.
func (m Model) startOp(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.inFlight++
	m.busy = label
	m.errText = ""
	return m, cmd
}

// handleResult applies the outcome of a background operation. The state
// is read from the engine so results arriving out of order never roll
// the screen back.
func (m Model) handleResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	if m.inFlight > 0 {
		m.inFlight--
	}
	m.loginView.SetDevicePrompt("", "")

	if msg.err != nil {
		m.errText = fmt.Sprintf("%s failed: %v", msg.label, msg.err)
		m.logger.Warn("operation failed", zap.String("op", msg.label), zap.Error(msg.err))
	}
	if msg.notice != "" {
		m.dashboard.SetNotice(msg.notice)
	}
	return m, m.applyState(m.deps.Engine.State())
}

// op wraps fn in a command bounded by opTimeout.
func op(label string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		notice, err := fn(ctx)
		return opResultMsg{label: label, notice: notice, err: err}
	}
}

func (m Model) startup() tea.Cmd {
	r := m.deps.Reconciler
	return op("Sync", func(ctx context.Context) (string, error) {
		return "", r.Startup(ctx)
	})
}

func (m Model) loginLocal(email string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Sign in", func(ctx context.Context) (string, error) {
		user, err := r.LoginLocal(ctx, email)
		if err != nil {
			return "", err
		}
		return connectNotice(ctx, r, user.Email), nil
	})
}

// connectNotice asks for the mailbox grant URL after a sign in. Without
// one the notice only names the user.
func connectNotice(ctx context.Context, r *appsync.Reconciler, email string) string {
	url, err := r.Connect(ctx)
	if err != nil {
		return fmt.Sprintf("Signed in as %s", email)
	}
	return fmt.Sprintf("Signed in as %s. Grant mailbox access at %s then press R", email, url)
}

func (m Model) startDeviceLogin() tea.Cmd {
	device := m.deps.Device
	r := m.deps.Reconciler
	return func() tea.Msg {
		if device == nil {
			return deviceCodeMsg{err: errors.New("google sign in is not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		da, err := device.Start(ctx)
		if err != nil {
			return deviceCodeMsg{err: err}
		}

		wait := op("Google sign in", func(ctx context.Context) (string, error) {
			deadline := da.Expiry
			if deadline.IsZero() {
				deadline = time.Now().Add(deviceLoginTimeout)
			}
			ctx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
			defer cancel()

			idToken, err := device.Wait(ctx, da)
			if err != nil {
				return "", err
			}
			user, err := r.LoginWithCredential(ctx, idToken)
			if err != nil {
				return "", err
			}
			if _, err := r.RefreshCategories(ctx); err != nil {
				return "", err
			}
			return connectNotice(ctx, r, user.Email), nil
		})

		return deviceCodeMsg{url: da.VerificationURI, code: da.UserCode, wait: wait}
	}
}

func (m Model) handleDeviceCode(msg deviceCodeMsg) (tea.Model, tea.Cmd) {
	if m.inFlight > 0 {
		m.inFlight--
	}
	if msg.err != nil {
		m.errText = fmt.Sprintf("Google sign in failed: %v", msg.err)
		return m, nil
	}
	m.loginView.SetDevicePrompt(msg.url, msg.code)
	return m.startOp("Waiting for Google sign in", msg.wait)
}

func (m Model) createCategory(name, description string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Create category", func(ctx context.Context) (string, error) {
		c, err := r.CreateCategory(ctx, name, description)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created category %q", c.Name), nil
	})
}

func (m Model) deleteCategory(id string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Delete category", func(ctx context.Context) (string, error) {
		if err := r.DeleteCategory(ctx, id); err != nil {
			return "", err
		}
		return "Category deleted", nil
	})
}

func (m Model) addAccount(email string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Add account", func(ctx context.Context) (string, error) {
		if err := r.AddAccount(ctx, email); err != nil {
			return "", err
		}
		if email == "" {
			return "", nil
		}
		return fmt.Sprintf("Connected %s", email), nil
	})
}

func (m Model) deleteEmails(ids []string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Delete", func(ctx context.Context) (string, error) {
		return "", r.Delete(ctx, ids)
	})
}

func (m Model) unsubscribeEmails(ids []string) tea.Cmd {
	r := m.deps.Reconciler
	return op("Unsubscribe", func(ctx context.Context) (string, error) {
		return "", r.Unsubscribe(ctx, ids)
	})
}

// executeCommand runs a command from the palette or a dashboard key.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	r := m.deps.Reconciler

	switch cmd {
	case "process":
		return m.startOp("Processing emails", op("Process emails", func(ctx context.Context) (string, error) {
			n, err := r.ProcessEmails(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Imported %d email(s)", n), nil
		}))

	case "inbox":
		return m.startOp("Fetching inbox", op("Fetch inbox", func(ctx context.Context) (string, error) {
			emails, err := r.FetchInbox(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Inbox has %d email(s); details are in the log", len(emails)), nil
		}))

	case "refresh":
		return m.startOp("Refreshing categories", op("Refresh categories", func(ctx context.Context) (string, error) {
			cats, err := r.RefreshCategories(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Loaded %d categories", len(cats)), nil
		}))

	case "simulate":
		seed := m.deps.Rand.Uint64()
		return m.startOp("Simulating", op("Simulate", func(ctx context.Context) (string, error) {
			raw, err := r.Simulate(ctx, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("New email: %s", raw.Subject), nil
		}))

	case "imap":
		mailbox, limit := m.deps.Mailbox, m.deps.MailboxLimit
		if mailbox == nil {
			m.errText = errMailboxDisabled.Error()
			return m, nil
		}
		return m.startOp("Reading mailbox", op("Import mailbox", func(ctx context.Context) (string, error) {
			n, err := r.ImportMailbox(ctx, mailbox, limit)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Imported %d email(s) from the mailbox", n), nil
		}))

	case "connect":
		return m.startOp("Requesting mailbox access", op("Connect", func(ctx context.Context) (string, error) {
			url, err := r.Connect(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Grant mailbox access at %s then press R", url), nil
		}))

	case "reconnect", "sync":
		if m.deps.KeepAlive != nil {
			m.deps.KeepAlive.Trigger()
		}
		return m.startOp("Syncing", m.startup())

	case "signout", "logout":
		return m.startOp("Signing out", op("Sign out", func(ctx context.Context) (string, error) {
			return "", r.SignOut(ctx)
		}))

	case "quit", "q":
		return m.quit()

	default:
		m.errText = fmt.Sprintf("Unknown command %q", cmd)
		return m, nil
	}
}
