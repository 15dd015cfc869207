package triage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/mailsort/internal/store"
)

// Engine owns the application state and mirrors every change into the
// store. All mutations go through Dispatch, which serialises them.
type Engine struct {
	mu     sync.Mutex
	state  State
	env    Env
	store  store.Store
	logger *zap.Logger
}

// NewEngine creates an engine with empty state. Call Load to hydrate it
// from the store.
func NewEngine(st store.Store, env Env, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, _ := Reduce(State{}, SignOut{}, env)
	return &Engine{
		state:  s,
		env:    env,
		store:  st,
		logger: logger,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load replaces the in-memory state with the persisted snapshot.
func (e *Engine) Load(ctx context.Context) (State, error) {
	snap, err := store.LoadSnapshot(ctx, e.store)
	if err != nil {
		return e.State(), fmt.Errorf("loading snapshot: %w", err)
	}
	return e.Dispatch(ctx, Hydrate{Snapshot: snap})
}

// Dispatch reduces a into the current state and persists the collections
// it changed. The in-memory state advances even when persisting fails, in
// which case the error is returned alongside the new state.
func (e *Engine) Dispatch(ctx context.Context, a Action) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u, ok := a.(UnsubscribeEmails); ok {
		e.logUnsubscribe(u)
	}

	next, changes := Reduce(e.state, a, e.env)
	e.state = next

	if err := e.persist(ctx, next, changes); err != nil {
		e.logger.Error("persisting state",
			zap.String("action", fmt.Sprintf("%T", a)),
			zap.Error(err),
		)
		return next, err
	}

	if err := CheckCounts(next); err != nil {
		e.logger.Error("count invariant violated", zap.Error(err))
		return next, err
	}

	return next, nil
}

func (e *Engine) persist(ctx context.Context, s State, changes Changes) error {
	if changes.Has(ChangedWipe) {
		return store.ClearCollections(ctx, e.store)
	}
	if changes.Has(ChangedUser) {
		if err := store.SaveUser(ctx, e.store, s.User); err != nil {
			return fmt.Errorf("saving user: %w", err)
		}
	}
	if changes.Has(ChangedAccounts) {
		if err := store.SaveAccounts(ctx, e.store, s.Accounts); err != nil {
			return fmt.Errorf("saving accounts: %w", err)
		}
	}
	if changes.Has(ChangedEmails) {
		if err := store.SaveEmails(ctx, e.store, s.Emails); err != nil {
			return fmt.Errorf("saving emails: %w", err)
		}
	}
	if changes.Has(ChangedCategories) {
		if err := store.SaveCategories(ctx, e.store, s.Categories); err != nil {
			return fmt.Errorf("saving categories: %w", err)
		}
	}
	return nil
}

// logUnsubscribe records the unsubscribe targets of the emails about to be
// removed. No provider-level unsubscribe is sent.
func (e *Engine) logUnsubscribe(a UnsubscribeEmails) {
	for _, id := range a.IDs {
		em, ok := e.state.Email(id)
		if !ok {
			continue
		}
		e.logger.Info("unsubscribe requested",
			zap.String("email_id", id),
			zap.String("from", em.From),
			zap.String("unsubscribe_url", em.UnsubscribeURL),
		)
	}
}
