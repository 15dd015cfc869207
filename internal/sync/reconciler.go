package sync

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mailsort/internal/backend"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/triage"
)

// Backend is the subset of the backend client the reconciler needs.
type Backend interface {
	GoogleAuth(ctx context.Context, credential, clientID string) (*model.User, error)
	ConnectURL(ctx context.Context) (string, error)
	Me(ctx context.Context) (*model.User, error)
	Logout(ctx context.Context) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*model.Category, error)
	ProcessEmails(ctx context.Context, q backend.EmailQuery) (*backend.ProcessResult, error)
	Inbox(ctx context.Context, q backend.EmailQuery) ([]model.RawEmail, error)
	Health(ctx context.Context) (map[string]any, error)
}

// Dispatcher applies actions to the application state.
type Dispatcher interface {
	Dispatch(ctx context.Context, a triage.Action) (triage.State, error)
	Load(ctx context.Context) (triage.State, error)
	State() triage.State
}

// Reconciler keeps local state in step with the backend. Network calls
// may overlap; every state change is serialised by the dispatcher. Failed
// requests are logged and returned, never retried.
type Reconciler struct {
	backend  Backend
	engine   Dispatcher
	cfg      model.BackendConfig
	clientID string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler wires a backend to an engine.
func NewReconciler(b Backend, engine Dispatcher, cfg model.AppConfig, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		backend:  b,
		engine:   engine,
		cfg:      cfg.Backend,
		clientID: cfg.Google.ClientID,
		logger:   logger,
		now:      time.Now,
	}
}

// Startup hydrates state from the store and then reconciles with the
// backend: the session is verified, and when a user is signed in the
// categories are refreshed and recent mail is processed. Only a failure
// to load local state is fatal; backend failures are joined and returned
// after all steps ran.
func (r *Reconciler) Startup(ctx context.Context) error {
	if _, err := r.engine.Load(ctx); err != nil {
		return fmt.Errorf("loading local state: %w", err)
	}

	var errs []error
	if _, err := r.VerifySession(ctx); err != nil && !backend.IsAuthError(err) {
		errs = append(errs, err)
	}
	if r.engine.State().User == nil {
		return errors.Join(errs...)
	}

	if _, err := r.RefreshCategories(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := r.ProcessEmails(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// VerifySession asks the backend who owns the current session. On
// success the user is stored and the linked accounts are kept. A 401 clears the user but keeps every other
// collection. Other failures leave local state untouched.
func (r *Reconciler) VerifySession(ctx context.Context) (*model.User, error) {
	user, err := r.backend.Me(ctx)
	if err != nil {
		if backend.IsAuthError(err) {
			r.logger.Info("session rejected, clearing user", zap.Error(err))
			if _, dErr := r.engine.Dispatch(ctx, triage.Login{User: nil}); dErr != nil {
				return nil, dErr
			}
			return nil, err
		}
		r.logger.Warn("session verification failed", zap.Error(err))
		return nil, fmt.Errorf("verifying session: %w", err)
	}
	if user == nil {
		return nil, errors.New("verifying session: empty user")
	}

	if _, err := r.engine.Dispatch(ctx, triage.SessionVerified{User: *user}); err != nil {
		return nil, err
	}
	r.logger.Info("session verified", zap.String("email", user.Email))
	return user, nil
}

// LoginWithCredential exchanges an OAuth ID token for a backend session
// and signs the user in.
func (r *Reconciler) LoginWithCredential(ctx context.Context, idToken string) (*model.User, error) {
	user, err := r.backend.GoogleAuth(ctx, idToken, r.clientID)
	if err != nil {
		r.logger.Warn("google sign in failed", zap.Error(err))
		return nil, fmt.Errorf("signing in: %w", err)
	}
	if _, err := r.engine.Dispatch(ctx, triage.Login{User: user}); err != nil {
		return nil, err
	}
	r.logger.Info("signed in", zap.String("email", user.Email))
	return user, nil
}

// LoginLocal signs in a development user without contacting the backend.
func (r *Reconciler) LoginLocal(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}
	user := model.MockUser(email)
	if _, err := r.engine.Dispatch(ctx, triage.Login{User: &user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Connect returns the authorization URL that grants the backend mailbox
// access.
func (r *Reconciler) Connect(ctx context.Context) (string, error) {
	u, err := r.backend.ConnectURL(ctx)
	if err != nil {
		r.logger.Warn("requesting connect url failed", zap.Error(err))
		return "", fmt.Errorf("requesting connect url: %w", err)
	}
	return u, nil
}

// AddAccount links another mailbox address.
func (r *Reconciler) AddAccount(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	_, err := r.engine.Dispatch(ctx, triage.AddAccount{
		Account: model.Account{Email: email, Connected: true},
	})
	return err
}

// RefreshCategories replaces local categories with the backend's list.
// Counts come from the locally held emails. On failure the current
// categories are kept.
func (r *Reconciler) RefreshCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := r.backend.ListCategories(ctx)
	if err != nil {
		if backend.IsAuthError(err) {
			r.logger.Warn("not authenticated to fetch categories", zap.Error(err))
		} else {
			r.logger.Warn("fetching categories failed", zap.Error(err))
		}
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	s, err := r.engine.Dispatch(ctx, triage.ReplaceCategories{Categories: cats})
	if err != nil {
		return nil, err
	}
	r.logger.Info("categories refreshed", zap.Int("count", len(s.Categories)))
	return s.Categories, nil
}

// CreateCategory creates a category on the backend and appends it
// locally with no emails.
func (r *Reconciler) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, triage.ErrCategoryNameRequired
	}
	if description == "" {
		return nil, triage.ErrCategoryDescriptionRequired
	}

	cat, err := r.backend.CreateCategory(ctx, name, description)
	if err != nil {
		r.logger.Warn("creating category failed", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("creating category: %w", err)
	}

	if _, err := r.engine.Dispatch(ctx, triage.AddCategory{Category: *cat}); err != nil {
		return nil, err
	}
	r.logger.Info("category created", zap.String("id", cat.ID), zap.String("name", cat.Name))
	return cat, nil
}

// DeleteCategory removes a category and its emails locally.
func (r *Reconciler) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := r.engine.State().Category(id); !ok {
		return fmt.Errorf("%w: %s", triage.ErrUnknownCategory, id)
	}
	_, err := r.engine.Dispatch(ctx, triage.DeleteCategory{ID: id})
	return err
}

func (r *Reconciler) query(maxResults int) (backend.EmailQuery, error) {
	user := r.engine.State().User
	if user == nil || user.Email == "" {
		return backend.EmailQuery{}, triage.ErrNotLoggedIn
	}
	return backend.EmailQuery{
		GmailAddress: user.Email,
		Timestamp:    r.now().AddDate(0, 0, -r.cfg.ProcessDaysBack),
		MaxResults:   maxResults,
	}, nil
}

// ProcessEmails asks the backend to ingest recent mail and imports every
// email it returns. A 401 signs the user out and clears all local data.
// It returns the number of emails imported.
func (r *Reconciler) ProcessEmails(ctx context.Context) (int, error) {
	q, err := r.query(r.cfg.ProcessMaxResults)
	if err != nil {
		return 0, err
	}

	if _, err := r.engine.Dispatch(ctx, triage.SetProcessing{On: true}); err != nil {
		return 0, err
	}
	defer func() {
		if _, err := r.engine.Dispatch(context.WithoutCancel(ctx), triage.SetProcessing{On: false}); err != nil {
			r.logger.Warn("clearing processing flag", zap.Error(err))
		}
	}()

	result, err := r.backend.ProcessEmails(ctx, q)
	if err != nil {
		switch {
		case backend.IsAuthError(err):
			r.logger.Warn("session expired while processing emails, signing out", zap.Error(err))
			if _, dErr := r.engine.Dispatch(ctx, triage.SignOut{}); dErr != nil {
				return 0, dErr
			}
		case backend.IsPermissionError(err):
			r.logger.Error("mail provider scope missing: grant mailbox access and retry", zap.Error(err))
		default:
			r.logger.Warn("processing emails failed", zap.Error(err))
		}
		return 0, fmt.Errorf("processing emails: %w", err)
	}

	if result.Message != "" {
		r.logger.Info("process message", zap.String("message", result.Message))
	}
	if len(result.Errors) > 0 {
		r.logger.Warn("errors during processing", zap.Strings("errors", result.Errors))
	}

	if len(result.Emails) > 0 {
		if _, err := r.engine.Dispatch(ctx, triage.ImportEmails{Emails: result.Emails}); err != nil {
			return 0, err
		}
	}
	r.logger.Info("emails processed", zap.Int("imported", len(result.Emails)))
	return len(result.Emails), nil
}

// FetchInbox lists recent inbox mail without importing it.
func (r *Reconciler) FetchInbox(ctx context.Context) ([]model.RawEmail, error) {
	q, err := r.query(r.cfg.InboxMaxResults)
	if err != nil {
		return nil, err
	}

	emails, err := r.backend.Inbox(ctx, q)
	if err != nil {
		r.logger.Warn("fetching inbox failed", zap.Error(err))
		return nil, fmt.Errorf("fetching inbox: %w", err)
	}

	r.logger.Info("inbox fetched", zap.Int("count", len(emails)))
	for i, e := range emails {
		r.logger.Debug("inbox email",
			zap.Int("index", i+1),
			zap.String("id", e.SourceID),
			zap.String("subject", e.Subject),
			zap.String("sender", e.From),
			zap.Time("received_at", e.ReceivedAt),
		)
	}
	return emails, nil
}

// Import categorizes and stores raw emails from any source.
func (r *Reconciler) Import(ctx context.Context, raws []model.RawEmail) error {
	if len(raws) == 0 {
		return nil
	}
	_, err := r.engine.Dispatch(ctx, triage.ImportEmails{Emails: raws})
	return err
}

// RawFetcher reads raw emails directly from a mailbox.
type RawFetcher interface {
	FetchRaw(ctx context.Context, since time.Time, limit int) ([]model.RawEmail, error)
}

// ImportMailbox reads recent mail from a mailbox and imports it with the
// local classifier. It returns the number of emails imported.
func (r *Reconciler) ImportMailbox(ctx context.Context, f RawFetcher, limit int) (int, error) {
	if r.engine.State().User == nil {
		return 0, triage.ErrNotLoggedIn
	}

	since := r.now().AddDate(0, 0, -r.cfg.ProcessDaysBack)
	raws, err := f.FetchRaw(ctx, since, limit)
	if err != nil {
		r.logger.Warn("reading mailbox failed", zap.Error(err))
		return 0, fmt.Errorf("reading mailbox: %w", err)
	}
	if err := r.Import(ctx, raws); err != nil {
		return 0, err
	}
	r.logger.Info("mailbox imported", zap.Int("imported", len(raws)))
	return len(raws), nil
}

// Simulate imports one random demo email. It needs at least one category.
func (r *Reconciler) Simulate(ctx context.Context, rng *rand.Rand) (model.RawEmail, error) {
	s := r.engine.State()
	if s.User == nil {
		return model.RawEmail{}, triage.ErrNotLoggedIn
	}
	if !triage.CanSimulate(s) {
		return model.RawEmail{}, fmt.Errorf("%w: create a category first", triage.ErrUnknownCategory)
	}
	raw := triage.Simulate(r.now(), rng)
	if err := r.Import(ctx, []model.RawEmail{raw}); err != nil {
		return model.RawEmail{}, err
	}
	return raw, nil
}

// Delete removes emails by id.
func (r *Reconciler) Delete(ctx context.Context, ids []string) error {
	_, err := r.engine.Dispatch(ctx, triage.DeleteEmails{IDs: ids})
	return err
}

// Unsubscribe removes emails by id. Unsubscribe targets are logged; no
// provider-level unsubscribe is sent.
func (r *Reconciler) Unsubscribe(ctx context.Context, ids []string) error {
	r.logger.Info("unsubscribe requested", zap.Int("count", len(ids)))
	_, err := r.engine.Dispatch(ctx, triage.UnsubscribeEmails{IDs: ids})
	return err
}

// SignOut ends the backend session and always clears all local data.
func (r *Reconciler) SignOut(ctx context.Context) error {
	if err := r.backend.Logout(ctx); err != nil {
		r.logger.Warn("logout request failed", zap.Error(err))
	}
	_, err := r.engine.Dispatch(ctx, triage.SignOut{})
	return err
}
