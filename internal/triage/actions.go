package triage

import (
	"github.com/nhle/mailsort/internal/model"
	"github.com/nhle/mailsort/internal/store"
)

// Action is a state transition handled by Reduce.
type Action interface {
	action()
}

// Hydrate replaces the persisted collections with a loaded snapshot.
type Hydrate struct{ Snapshot store.Snapshot }

// Login sets the signed-in user and resets the account list to that
// user's mailbox. A nil User clears only the user.
type Login struct{ User *model.User }

// SessionVerified records the user the backend reports for an existing
// session. Linked accounts are left as persisted.
type SessionVerified struct{ User model.User }

// SignOut clears every collection.
type SignOut struct{}

// AddAccount appends a linked mailbox.
type AddAccount struct{ Account model.Account }

// ReplaceCategories reconciles the category list with the backend.
type ReplaceCategories struct{ Categories []model.Category }

// AddCategory appends a category created by the backend.
type AddCategory struct{ Category model.Category }

// DeleteCategory removes a category and every email assigned to it.
type DeleteCategory struct{ ID string }

// ImportEmails categorizes and appends raw emails.
type ImportEmails struct{ Emails []model.RawEmail }

// DeleteEmails removes emails by id.
type DeleteEmails struct{ IDs []string }

// UnsubscribeEmails removes emails by id after an unsubscribe request.
type UnsubscribeEmails struct{ IDs []string }

// OpenCategory shows a category's email list.
type OpenCategory struct{ ID string }

// OpenEmail shows one email in the detail view.
type OpenEmail struct{ ID string }

// CloseEmail returns from the detail view to the category list.
type CloseEmail struct{}

// Back navigates one level up.
type Back struct{}

// ToggleSelection flips one email's selection.
type ToggleSelection struct{ ID string }

// SelectAll selects every email in the viewed category, or clears the
// selection when it already covers them all.
type SelectAll struct{}

// ClearSelection empties the selection.
type ClearSelection struct{}

// SetProcessing marks a long-running operation as active.
type SetProcessing struct{ On bool }

func (Hydrate) action()           {}
func (Login) action()             {}
func (SessionVerified) action()   {}
func (SignOut) action()           {}
func (AddAccount) action()        {}
func (ReplaceCategories) action() {}
func (AddCategory) action()       {}
func (DeleteCategory) action()    {}
func (ImportEmails) action()      {}
func (DeleteEmails) action()      {}
func (UnsubscribeEmails) action() {}
func (OpenCategory) action()      {}
func (OpenEmail) action()         {}
func (CloseEmail) action()        {}
func (Back) action()              {}
func (ToggleSelection) action()   {}
func (SelectAll) action()         {}
func (ClearSelection) action()    {}
func (SetProcessing) action()     {}
