package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nhle/mailsort/internal/model"
)

// Snapshot is the full persisted client state.
type Snapshot struct {
	User       *model.User
	Accounts   []model.Account
	Categories []model.Category
	Emails     []model.Email
}

// LoadSnapshot reads the four collections. Missing keys yield zero values;
// a value that fails to decode is reported with its key.
func LoadSnapshot(ctx context.Context, s Store) (Snapshot, error) {
	var snap Snapshot

	var user model.User
	ok, err := load(ctx, s, KeyUser, &user)
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		snap.User = &user
	}

	if _, err := load(ctx, s, KeyAccounts, &snap.Accounts); err != nil {
		return Snapshot{}, err
	}
	if _, err := load(ctx, s, KeyCategories, &snap.Categories); err != nil {
		return Snapshot{}, err
	}
	if _, err := load(ctx, s, KeyEmails, &snap.Emails); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

func load(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

func save(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// SaveUser persists the signed-in user. A nil user removes the key.
func SaveUser(ctx context.Context, s Store, user *model.User) error {
	if user == nil {
		return s.Remove(ctx, KeyUser)
	}
	return save(ctx, s, KeyUser, user)
}

// SaveAccounts persists the linked account list.
func SaveAccounts(ctx context.Context, s Store, accounts []model.Account) error {
	if accounts == nil {
		accounts = []model.Account{}
	}
	return save(ctx, s, KeyAccounts, accounts)
}

// SaveCategories persists the category list.
func SaveCategories(ctx context.Context, s Store, categories []model.Category) error {
	if categories == nil {
		categories = []model.Category{}
	}
	return save(ctx, s, KeyCategories, categories)
}

// SaveEmails persists the email collection.
func SaveEmails(ctx context.Context, s Store, emails []model.Email) error {
	if emails == nil {
		emails = []model.Email{}
	}
	return save(ctx, s, KeyEmails, emails)
}

// ClearCollections removes all four collections atomically. Other keys
// are left alone.
func ClearCollections(ctx context.Context, s Store) error {
	if err := s.Remove(ctx, CollectionKeys...); err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}
	return nil
}
