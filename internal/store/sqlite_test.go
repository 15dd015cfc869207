package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsort/internal/store"
	"github.com/nhle/mailsort/tests/testutil"
)

func TestSQLiteStore_GetMissingKey(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`"one"`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`"two"`)))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"two"`, string(v))
}

func TestSQLiteStore_Remove(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Set(ctx, k, []byte("1")))
	}
	require.NoError(t, s.Remove(ctx, "b"))
	require.NoError(t, s.Remove(ctx, "missing"))
	require.NoError(t, s.Remove(ctx))
	require.NoError(t, s.Remove(ctx, "a", "d", "missing"))

	for key, want := range map[string]bool{"a": false, "b": false, "c": true, "d": false} {
		_, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, ok, key)
	}
}

func TestSQLiteStore_RemoveFailureKeepsKeys(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("1")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, s.Remove(cancelled, "a", "b"))

	for _, key := range []string{"a", "b"} {
		_, ok, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mailsort.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyUser, []byte(`{"email":"a@b.c"}`)))
	require.NoError(t, s.Close())

	// Reopening must not re-run migration v1.
	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(v))
}
