package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/store"
	"github.com/nhle/mailsort/tests/testutil"
)

func TestLoadSnapshot_Empty(t *testing.T) {
	s := testutil.NewTestStore(t)

	snap, err := store.LoadSnapshot(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Accounts)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Emails)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := model.MockUser("ada@example.com")
	catID := "1"
	received := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveUser(ctx, s, &user))
	require.NoError(t, store.SaveAccounts(ctx, s, []model.Account{{Email: user.Email, Connected: true}}))
	require.NoError(t, store.SaveCategories(ctx, s, []model.Category{{ID: catID, Name: "Billing", EmailCount: 1}}))
	require.NoError(t, store.SaveEmails(ctx, s, []model.Email{{
		ID: "1700000000000", Subject: "Statement", CategoryID: &catID,
		ReceivedAt: received, ImportedAt: received, Archived: true,
	}}))

	snap, err := store.LoadSnapshot(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, snap.User)
	assert.Equal(t, "ada", snap.User.Name)
	assert.Len(t, snap.Accounts, 1)
	assert.Equal(t, "Billing", snap.Categories[0].Name)
	require.Len(t, snap.Emails, 1)
	assert.True(t, snap.Emails[0].InCategory(catID))
	assert.True(t, snap.Emails[0].ReceivedAt.Equal(received))
}

func TestSaveUser_NilRemovesKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := model.MockUser("ada@example.com")
	require.NoError(t, store.SaveUser(ctx, s, &user))
	require.NoError(t, store.SaveUser(ctx, s, nil))

	_, ok, err := s.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveCategories_NilWritesEmptyArray(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCategories(ctx, s, nil))

	raw, ok, err := s.Get(ctx, store.KeyCategories)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(raw))
}

func TestLoadSnapshot_CorruptValueNamesKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, store.KeyEmails, []byte("{not json")))

	_, err := store.LoadSnapshot(ctx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"emails"`)
}

func TestClearCollections(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := model.MockUser("ada@example.com")
	require.NoError(t, store.SaveUser(ctx, s, &user))
	require.NoError(t, store.SaveEmails(ctx, s, []model.Email{{ID: "1"}}))
	require.NoError(t, s.Set(ctx, "unrelated", []byte("1")))

	require.NoError(t, store.ClearCollections(ctx, s))

	for _, key := range store.CollectionKeys {
		_, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	_, ok, err := s.Get(ctx, "unrelated")
	require.NoError(t, err)
	assert.True(t, ok)

	snap, err := store.LoadSnapshot(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Emails)
}
