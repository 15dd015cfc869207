package triage

import (
	"strings"
	"time"

	"github.com/nhle/mailsort/internal/model"
)

// Env supplies the impure inputs a reduction may need.
type Env struct {
	Now        func() time.Time
	Classifier Classifier
}

// DefaultEnv uses the wall clock and the substring classifier.
func DefaultEnv() Env {
	return Env{Now: time.Now, Classifier: SubstringClassifier{}}
}

func (env Env) now() time.Time {
	if env.Now == nil {
		return time.Now()
	}
	return env.Now()
}

func (env Env) classifier() Classifier {
	if env.Classifier == nil {
		return SubstringClassifier{}
	}
	return env.Classifier
}

// Reduce applies a to s and returns the next state together with the
// persisted collections that changed. Category counts in the returned
// state always match its emails.
func Reduce(s State, a Action, env Env) (State, Changes) {
	if s.counts == nil {
		s.counts = NewCountIndex(s.Emails)
	}

	switch a := a.(type) {
	case Hydrate:
		return hydrate(a), ChangedCategories

	case Login:
		if a.User == nil {
			s.User = nil
			s = resetNavigation(s)
			return s, ChangedUser
		}
		u := *a.User
		s.User = &u
		s.Accounts = []model.Account{{Email: u.Email, Connected: true}}
		return s, ChangedUser | ChangedAccounts

	case SessionVerified:
		u := a.User
		s.User = &u
		return s, ChangedUser

	case SignOut:
		return State{
			Accounts:   []model.Account{},
			Categories: []model.Category{},
			Emails:     []model.Email{},
			Selection:  Selection{},
			counts:     CountIndex{},
		}, ChangedUser | ChangedAccounts | ChangedCategories | ChangedEmails | ChangedWipe

	case AddAccount:
		email := strings.TrimSpace(a.Account.Email)
		if email == "" {
			return s, 0
		}
		acct := a.Account
		acct.Email = email
		s.Accounts = appendCopy(s.Accounts, acct)
		return s, ChangedAccounts

	case ReplaceCategories:
		s.Categories = s.counts.Apply(a.Categories)
		if _, ok := s.SelectedCategory(); !ok && s.SelectedCategoryID != "" {
			s = resetNavigation(s)
		}
		return s, ChangedCategories

	case AddCategory:
		c := a.Category
		c.EmailCount = s.counts.Count(c.ID)
		s.Categories = appendCopy(s.Categories, c)
		return s, ChangedCategories

	case DeleteCategory:
		return deleteCategory(s, a.ID)

	case ImportEmails:
		return importEmails(s, a.Emails, env)

	case DeleteEmails:
		return deleteEmails(s, a.IDs)

	case UnsubscribeEmails:
		return deleteEmails(s, a.IDs)

	case OpenCategory:
		if _, ok := s.Category(a.ID); !ok {
			return s, 0
		}
		s.SelectedCategoryID = a.ID
		s.OpenEmailID = ""
		s.Selection = Selection{}
		return s, 0

	case OpenEmail:
		if _, ok := s.Email(a.ID); !ok || s.SelectedCategoryID == "" {
			return s, 0
		}
		s.OpenEmailID = a.ID
		return s, 0

	case CloseEmail:
		s.OpenEmailID = ""
		return s, 0

	case Back:
		if s.OpenEmailID != "" {
			s.OpenEmailID = ""
			return s, 0
		}
		return resetNavigation(s), 0

	case ToggleSelection:
		if _, ok := s.Email(a.ID); !ok {
			return s, 0
		}
		s.Selection = s.Selection.toggle(a.ID)
		return s, 0

	case SelectAll:
		var ids []string
		for _, e := range s.EmailsIn(s.SelectedCategoryID) {
			ids = append(ids, e.ID)
		}
		if len(ids) == s.Selection.Len() {
			s.Selection = Selection{}
		} else {
			s.Selection = selectionOf(ids)
		}
		return s, 0

	case ClearSelection:
		s.Selection = Selection{}
		return s, 0

	case SetProcessing:
		s.Processing = a.On
		return s, 0
	}

	return s, 0
}

func hydrate(a Hydrate) State {
	snap := a.Snapshot
	s := State{
		Accounts:  snap.Accounts,
		Emails:    snap.Emails,
		Selection: Selection{},
	}
	if snap.User != nil {
		u := *snap.User
		s.User = &u
	}
	if s.Accounts == nil {
		s.Accounts = []model.Account{}
	}
	if s.Emails == nil {
		s.Emails = []model.Email{}
	}
	s.counts = NewCountIndex(s.Emails)
	s.Categories = s.counts.Apply(snap.Categories)
	return s
}

func resetNavigation(s State) State {
	s.SelectedCategoryID = ""
	s.OpenEmailID = ""
	s.Selection = Selection{}
	return s
}

func deleteCategory(s State, id string) (State, Changes) {
	if _, ok := s.Category(id); !ok {
		return s, 0
	}

	categories := make([]model.Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		if c.ID != id {
			categories = append(categories, c)
		}
	}

	counts := s.counts.Clone()
	emails := make([]model.Email, 0, len(s.Emails))
	for _, e := range s.Emails {
		if e.InCategory(id) {
			counts.Remove(e)
			continue
		}
		emails = append(emails, e)
	}

	s.Emails = emails
	s.counts = counts
	s.Categories = counts.Apply(categories)
	if s.SelectedCategoryID == id {
		s = resetNavigation(s)
	}
	return s, ChangedCategories | ChangedEmails
}

func importEmails(s State, raws []model.RawEmail, env Env) (State, Changes) {
	if len(raws) == 0 {
		return s, 0
	}

	now := env.now()
	classifier := env.classifier()

	taken := make(map[string]bool, len(s.Emails)+len(raws))
	for _, e := range s.Emails {
		taken[e.ID] = true
	}

	counts := s.counts.Clone()
	emails := make([]model.Email, len(s.Emails), len(s.Emails)+len(raws))
	copy(emails, s.Emails)

	for _, raw := range raws {
		res := Result{CategoryID: raw.CategoryID, Summary: raw.Summary}
		if !raw.Classified() {
			res = classifier.Classify(raw, s.Categories)
		}

		id := NextEmailID(now, func(id string) bool { return taken[id] })
		taken[id] = true

		received := raw.ReceivedAt
		if received.IsZero() {
			received = now
		}

		e := model.Email{
			ID:             id,
			Subject:        raw.Subject,
			From:           raw.From,
			Body:           raw.Body,
			ReceivedAt:     received,
			CategoryID:     res.CategoryID,
			Summary:        res.Summary,
			Archived:       true,
			ImportedAt:     now,
			SourceID:       raw.SourceID,
			UnsubscribeURL: raw.UnsubscribeURL,
		}
		counts.Add(e)
		emails = append(emails, e)
	}

	s.Emails = emails
	s.counts = counts
	s.Categories = counts.Apply(s.Categories)
	return s, ChangedCategories | ChangedEmails
}

func deleteEmails(s State, ids []string) (State, Changes) {
	drop := selectionOf(ids)

	counts := s.counts.Clone()
	emails := make([]model.Email, 0, len(s.Emails))
	for _, e := range s.Emails {
		if drop.Has(e.ID) {
			counts.Remove(e)
			continue
		}
		emails = append(emails, e)
	}

	s.Emails = emails
	s.counts = counts
	s.Categories = counts.Apply(s.Categories)
	s.Selection = Selection{}
	if drop.Has(s.OpenEmailID) {
		s.OpenEmailID = ""
	}
	return s, ChangedCategories | ChangedEmails
}

func appendCopy[T any](xs []T, x T) []T {
	out := make([]T, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, x)
}
