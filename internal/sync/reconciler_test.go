package sync

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/mailsort/internal/backend"
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/store"
	"github.com/nhle/mailsort/internal/triage"
	"github.com/nhle/mailsort/tests/testutil"
)

type fakeBackend struct {
	user      *model.User
	meErr     error
	cats      []model.Category
	catsErr   error
	created   *model.Category
	createErr error
	process   *backend.ProcessResult
	procErr   error
	inbox     []model.RawEmail
	logoutErr error

	calls      []string
	lastQuery  backend.EmailQuery
	authToken  string
	authClient string
}

func (f *fakeBackend) GoogleAuth(_ context.Context, credential, clientID string) (*model.User, error) {
	f.calls = append(f.calls, "google-auth")
	f.authToken, f.authClient = credential, clientID
	return f.user, nil
}

func (f *fakeBackend) ConnectURL(context.Context) (string, error) {
	f.calls = append(f.calls, "connect")
	return "https://accounts.example.com/o", nil
}

func (f *fakeBackend) Me(context.Context) (*model.User, error) {
	f.calls = append(f.calls, "me")
	return f.user, f.meErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	return f.logoutErr
}

func (f *fakeBackend) ListCategories(context.Context) ([]model.Category, error) {
	f.calls = append(f.calls, "categories")
	return f.cats, f.catsErr
}

func (f *fakeBackend) CreateCategory(_ context.Context, name, description string) (*model.Category, error) {
	f.calls = append(f.calls, "create-category")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeBackend) ProcessEmails(_ context.Context, q backend.EmailQuery) (*backend.ProcessResult, error) {
	f.calls = append(f.calls, "process")
	f.lastQuery = q
	if f.procErr != nil {
		return nil, f.procErr
	}
	if f.process == nil {
		return &backend.ProcessResult{}, nil
	}
	return f.process, nil
}

func (f *fakeBackend) Inbox(_ context.Context, q backend.EmailQuery) ([]model.RawEmail, error) {
	f.calls = append(f.calls, "inbox")
	f.lastQuery = q
	return f.inbox, nil
}

func (f *fakeBackend) Health(context.Context) (map[string]any, error) {
	return map[string]any{"status": "healthy"}, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	fb     *fakeBackend
	engine *triage.Engine
	rec    *Reconciler
	store  store.Store
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, fb *fakeBackend) *harness {
	t.Helper()
	st := testutil.NewTestStore(t)
	env := triage.Env{Now: func() time.Time { return testNow }, Classifier: triage.SubstringClassifier{}}
	engine := triage.NewEngine(st, env, zap.NewNop())

	core, logs := observer.New(zapcore.DebugLevel)
	cfg := model.AppConfig{
		Backend: model.BackendConfig{
			ProcessDaysBack:   30,
			ProcessMaxResults: 10,
			InboxMaxResults:   100,
		},
		Google: model.GoogleConfig{ClientID: "client-1"},
	}
	rec := NewReconciler(fb, engine, cfg, zap.New(core))
	rec.now = func() time.Time { return testNow }

	return &harness{fb: fb, engine: engine, rec: rec, store: st, logs: logs}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.rec.LoginLocal(context.Background(), "ada@example.com")
	require.NoError(t, err)
}

func authErr() error {
	return &backend.AuthError{Method: "GET", Path: "/me", Detail: "Not authenticated"}
}

func TestVerifySession_Success(t *testing.T) {
	h := newHarness(t, &fakeBackend{user: &model.User{Email: "ada@example.com", Name: "Ada"}})

	user, err := h.rec.VerifySession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	snap, err := store.LoadSnapshot(context.Background(), h.store)
	require.NoError(t, err)
	require.NotNil(t, snap.User)
	assert.Equal(t, "ada@example.com", snap.User.Email)
}

func TestVerifySession_KeepsLinkedAccounts(t *testing.T) {
	fb := &fakeBackend{user: &model.User{Email: "ada@example.com", Name: "Ada"}}
	h := newHarness(t, fb)
	h.login(t)
	require.NoError(t, h.rec.AddAccount(context.Background(), "work@example.com"))

	// A restart builds a fresh engine over the same store.
	env := triage.Env{Now: func() time.Time { return testNow }, Classifier: triage.SubstringClassifier{}}
	engine := triage.NewEngine(h.store, env, zap.NewNop())
	rec := NewReconciler(fb, engine, model.AppConfig{}, zap.NewNop())
	require.NoError(t, rec.Startup(context.Background()))

	want := []model.Account{
		{Email: "ada@example.com", Connected: true},
		{Email: "work@example.com", Connected: true},
	}
	s := engine.State()
	assert.Equal(t, want, s.Accounts)
	require.NotNil(t, s.User)
	assert.Equal(t, "Ada", s.User.Name)

	snap, err := store.LoadSnapshot(context.Background(), h.store)
	require.NoError(t, err)
	assert.Equal(t, want, snap.Accounts)
}

func TestVerifySession_UnauthorizedClearsUserOnly(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}}}
	h := newHarness(t, fb)
	h.login(t)
	_, err := h.rec.RefreshCategories(context.Background())
	require.NoError(t, err)

	fb.meErr = authErr()
	_, err = h.rec.VerifySession(context.Background())
	assert.True(t, backend.IsAuthError(err))

	s := h.engine.State()
	assert.Nil(t, s.User)
	assert.Len(t, s.Categories, 1)
	assert.Len(t, s.Accounts, 1)
}

func TestVerifySession_NetworkErrorKeepsData(t *testing.T) {
	fb := &fakeBackend{meErr: errors.New("connection refused")}
	h := newHarness(t, fb)
	h.login(t)

	_, err := h.rec.VerifySession(context.Background())
	require.Error(t, err)
	assert.NotNil(t, h.engine.State().User)
}

func TestRefreshCategories_RecountsFromLocalEmails(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}}}
	h := newHarness(t, fb)
	h.login(t)
	ctx := context.Background()

	_, err := h.rec.RefreshCategories(ctx)
	require.NoError(t, err)
	require.NoError(t, h.rec.Import(ctx, []model.RawEmail{{Subject: "billing"}, {Subject: "other"}}))

	fb.cats = []model.Category{{ID: "1", Name: "Billing"}, {ID: "2", Name: "Work"}}
	cats, err := h.rec.RefreshCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, 2, cats[0].EmailCount)
	assert.Equal(t, 0, cats[1].EmailCount)
}

func TestRefreshCategories_FailureKeepsExisting(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}}}
	h := newHarness(t, fb)
	h.login(t)

	_, err := h.rec.RefreshCategories(context.Background())
	require.NoError(t, err)

	fb.catsErr = authErr()
	_, err = h.rec.RefreshCategories(context.Background())
	require.Error(t, err)
	assert.Len(t, h.engine.State().Categories, 1)
	assert.NotNil(t, h.engine.State().User, "category 401 does not sign out")
	assert.Equal(t, 1, h.logs.FilterMessage("not authenticated to fetch categories").Len())
}

func TestCreateCategory(t *testing.T) {
	fb := &fakeBackend{created: &model.Category{ID: "9", Name: "News", Description: "Newsletters"}}
	h := newHarness(t, fb)
	h.login(t)
	ctx := context.Background()

	_, err := h.rec.CreateCategory(ctx, "  ", "x")
	assert.ErrorIs(t, err, triage.ErrCategoryNameRequired)
	_, err = h.rec.CreateCategory(ctx, "News", "")
	assert.ErrorIs(t, err, triage.ErrCategoryDescriptionRequired)
	assert.NotContains(t, fb.calls, "create-category")

	cat, err := h.rec.CreateCategory(ctx, "News", "Newsletters")
	require.NoError(t, err)
	assert.Equal(t, "9", cat.ID)

	s := h.engine.State()
	require.Len(t, s.Categories, 1)
	assert.Equal(t, 0, s.Categories[0].EmailCount)
}

func TestCreateCategory_BackendFailureAddsNothing(t *testing.T) {
	fb := &fakeBackend{createErr: &backend.StatusError{StatusCode: 500}}
	h := newHarness(t, fb)
	h.login(t)

	_, err := h.rec.CreateCategory(context.Background(), "News", "Newsletters")
	require.Error(t, err)
	assert.Empty(t, h.engine.State().Categories)
}

func TestProcessEmails_ImportsResults(t *testing.T) {
	billing := "1"
	fb := &fakeBackend{
		cats: []model.Category{{ID: "1", Name: "Billing"}, {ID: "2", Name: "Work"}},
		process: &backend.ProcessResult{Emails: []model.RawEmail{
			{SourceID: "m1", Subject: "Team sync", From: "boss@work.com"},
			{SourceID: "m2", Subject: "Receipt", CategoryID: &billing, Summary: "A receipt."},
		}},
	}
	h := newHarness(t, fb)
	h.login(t)
	ctx := context.Background()
	_, err := h.rec.RefreshCategories(ctx)
	require.NoError(t, err)

	n, err := h.rec.ProcessEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "ada@example.com", fb.lastQuery.GmailAddress)
	assert.Equal(t, 10, fb.lastQuery.MaxResults)
	assert.True(t, fb.lastQuery.Timestamp.Equal(testNow.AddDate(0, 0, -30)))

	s := h.engine.State()
	require.Len(t, s.Emails, 2)
	assert.Equal(t, "A receipt.", s.Emails[1].Summary)
	assert.Equal(t, 2, s.Categories[0].EmailCount)
	assert.False(t, s.Processing)
	require.NoError(t, triage.CheckCounts(s))
}

func TestProcessEmails_UnauthorizedClearsEverything(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}}}
	h := newHarness(t, fb)
	h.login(t)
	ctx := context.Background()
	_, err := h.rec.RefreshCategories(ctx)
	require.NoError(t, err)

	fb.procErr = authErr()
	_, err = h.rec.ProcessEmails(ctx)
	require.Error(t, err)

	s := h.engine.State()
	assert.Nil(t, s.User)
	assert.Empty(t, s.Categories)
	for _, key := range store.CollectionKeys {
		_, ok, err := h.store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestProcessEmails_PermissionErrorLogsScope(t *testing.T) {
	fb := &fakeBackend{procErr: &backend.PermissionError{Detail: "insufficient scope"}}
	h := newHarness(t, fb)
	h.login(t)

	_, err := h.rec.ProcessEmails(context.Background())
	assert.True(t, backend.IsPermissionError(err))
	assert.NotNil(t, h.engine.State().User)
	assert.Equal(t, 1, h.logs.FilterMessageSnippet("mail provider scope missing").Len())
}

func TestProcessEmails_RequiresUser(t *testing.T) {
	fb := &fakeBackend{}
	h := newHarness(t, fb)

	_, err := h.rec.ProcessEmails(context.Background())
	assert.ErrorIs(t, err, triage.ErrNotLoggedIn)
	assert.Empty(t, fb.calls)
}

func TestFetchInbox_DoesNotImport(t *testing.T) {
	fb := &fakeBackend{inbox: []model.RawEmail{{SourceID: "x", Subject: "Hi"}}}
	h := newHarness(t, fb)
	h.login(t)

	emails, err := h.rec.FetchInbox(context.Background())
	require.NoError(t, err)
	assert.Len(t, emails, 1)
	assert.Equal(t, 100, fb.lastQuery.MaxResults)
	assert.Empty(t, h.engine.State().Emails)
}

func TestSignOut_ClearsEvenWhenLogoutFails(t *testing.T) {
	fb := &fakeBackend{logoutErr: errors.New("offline")}
	h := newHarness(t, fb)
	h.login(t)

	require.NoError(t, h.rec.SignOut(context.Background()))
	assert.Contains(t, fb.calls, "logout")
	assert.Equal(t, triage.ViewLogin, triage.ActiveView(h.engine.State()))
}

func TestLoginWithCredential(t *testing.T) {
	fb := &fakeBackend{user: &model.User{Email: "ada@example.com"}}
	h := newHarness(t, fb)

	_, err := h.rec.LoginWithCredential(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "id-token", fb.authToken)
	assert.Equal(t, "client-1", fb.authClient)
	assert.Equal(t, []model.Account{{Email: "ada@example.com", Connected: true}}, h.engine.State().Accounts)
}

func TestLoginLocal_RejectsInvalidEmail(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	_, err := h.rec.LoginLocal(context.Background(), "not-an-email")
	assert.Error(t, err)
	assert.Nil(t, h.engine.State().User)
}

func TestSimulate(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}}}
	h := newHarness(t, fb)
	h.login(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(3, 4))

	_, err := h.rec.Simulate(ctx, rng)
	require.Error(t, err, "no categories yet")

	_, err = h.rec.RefreshCategories(ctx)
	require.NoError(t, err)

	raw, err := h.rec.Simulate(ctx, rng)
	require.NoError(t, err)
	s := h.engine.State()
	require.Len(t, s.Emails, 1)
	assert.Equal(t, raw.Subject, s.Emails[0].Subject)
	assert.Equal(t, "1", *s.Emails[0].CategoryID)
}

func TestStartup(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		fb := &fakeBackend{
			user: &model.User{Email: "ada@example.com"},
			cats: []model.Category{{ID: "1", Name: "Billing"}},
		}
		h := newHarness(t, fb)

		require.NoError(t, h.rec.Startup(context.Background()))
		assert.Equal(t, []string{"me", "categories", "process"}, fb.calls)
		assert.Equal(t, triage.ViewDashboard, triage.ActiveView(h.engine.State()))
	})

	t.Run("no session", func(t *testing.T) {
		fb := &fakeBackend{meErr: authErr()}
		h := newHarness(t, fb)

		require.NoError(t, h.rec.Startup(context.Background()))
		assert.Equal(t, []string{"me"}, fb.calls)
		assert.Equal(t, triage.ViewLogin, triage.ActiveView(h.engine.State()))
	})

	t.Run("offline keeps persisted user", func(t *testing.T) {
		fb := &fakeBackend{
			meErr:   errors.New("dial tcp: refused"),
			catsErr: errors.New("dial tcp: refused"),
			procErr: errors.New("dial tcp: refused"),
		}
		h := newHarness(t, fb)
		user := model.MockUser("ada@example.com")
		require.NoError(t, store.SaveUser(context.Background(), h.store, &user))

		err := h.rec.Startup(context.Background())
		require.Error(t, err)
		assert.Equal(t, []string{"me", "categories", "process"}, fb.calls)
		assert.NotNil(t, h.engine.State().User)
	})
}

func TestDeleteCategory_Unknown(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.login(t)
	err := h.rec.DeleteCategory(context.Background(), "nope")
	assert.ErrorIs(t, err, triage.ErrUnknownCategory)
}

func TestUnsubscribe_RemovesEmails(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.rec.Import(ctx, []model.RawEmail{{Subject: "a"}, {Subject: "b"}}))
	ids := []string{h.engine.State().Emails[0].ID}

	require.NoError(t, h.rec.Unsubscribe(ctx, ids))
	assert.Len(t, h.engine.State().Emails, 1)
}

type fakeFetcher struct {
	emails []model.RawEmail
	since  time.Time
	limit  int
}

func (f *fakeFetcher) FetchRaw(_ context.Context, since time.Time, limit int) ([]model.RawEmail, error) {
	f.since, f.limit = since, limit
	return f.emails, nil
}

func TestImportMailbox(t *testing.T) {
	fb := &fakeBackend{cats: []model.Category{{ID: "1", Name: "Billing"}, {ID: "2", Name: "Newsletter"}}}
	h := newHarness(t, fb)
	ctx := context.Background()
	f := &fakeFetcher{emails: []model.RawEmail{
		{SourceID: "<a@x>", Subject: "Weekly newsletter", UnsubscribeURL: "https://x/u"},
		{SourceID: "<b@x>", Subject: "Invoice"},
	}}

	_, err := h.rec.ImportMailbox(ctx, f, 5)
	assert.ErrorIs(t, err, triage.ErrNotLoggedIn)

	h.login(t)
	_, err = h.rec.RefreshCategories(ctx)
	require.NoError(t, err)

	n, err := h.rec.ImportMailbox(ctx, f, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, f.limit)
	assert.True(t, f.since.Equal(testNow.AddDate(0, 0, -30)))

	s := h.engine.State()
	assert.Equal(t, "2", *s.Emails[0].CategoryID)
	assert.Equal(t, "https://x/u", s.Emails[0].UnsubscribeURL)
	assert.Equal(t, "1", *s.Emails[1].CategoryID)
}
