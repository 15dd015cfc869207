package triage

import (
	"sort"

	"github.com/nhle/mailsort/internal/model"
)

// Selection is a set of email ids chosen for a bulk operation.
type Selection map[string]struct{}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int { return len(s) }

// IDs returns the selected ids in sorted order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Selection) toggle(id string) Selection {
	out := make(Selection, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

func selectionOf(ids []string) Selection {
	out := make(Selection, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// State is the whole client state. A State value is never modified in
// place: Reduce builds new slices and maps for everything it changes, so
// states returned by the engine can be shared freely.
type State struct {
	User       *model.User
	Accounts   []model.Account
	Categories []model.Category
	Emails     []model.Email

	// SelectedCategoryID is the category being viewed, empty on the dashboard.
	SelectedCategoryID string

	// OpenEmailID is the email shown in the detail view.
	OpenEmailID string

	Selection  Selection
	Processing bool

	counts CountIndex
}

// Counts returns a copy of the incremental count index.
func (s State) Counts() CountIndex {
	if s.counts == nil {
		return NewCountIndex(s.Emails)
	}
	return s.counts.Clone()
}

// Category returns the category with the given id.
func (s State) Category(id string) (model.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// Email returns the email with the given id.
func (s State) Email(id string) (model.Email, bool) {
	for _, e := range s.Emails {
		if e.ID == id {
			return e, true
		}
	}
	return model.Email{}, false
}

// EmailsIn returns the emails assigned to category id, in import order.
func (s State) EmailsIn(id string) []model.Email {
	var out []model.Email
	for _, e := range s.Emails {
		if e.InCategory(id) {
			out = append(out, e)
		}
	}
	return out
}

// SelectedCategory returns the category being viewed, if any.
func (s State) SelectedCategory() (model.Category, bool) {
	if s.SelectedCategoryID == "" {
		return model.Category{}, false
	}
	return s.Category(s.SelectedCategoryID)
}

// Changes names the persisted collections an action touched.
type Changes uint8

const (
	ChangedUser Changes = 1 << iota
	ChangedAccounts
	ChangedCategories
	ChangedEmails

	// ChangedWipe asks for every persisted collection to be removed.
	ChangedWipe
)

// Has reports whether every bit in f is set.
func (c Changes) Has(f Changes) bool { return c&f == f }
