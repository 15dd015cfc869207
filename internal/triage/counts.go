package triage

import (
	"fmt"

	"github.com/nhle/mailsort/internal/model"
)

// CountIndex maps category id to the number of emails referencing it.
// Emails without a category are not counted.
type CountIndex map[string]int

// NewCountIndex builds an index from the full email collection.
func NewCountIndex(emails []model.Email) CountIndex {
	idx := make(CountIndex, len(emails))
	for _, e := range emails {
		idx.Add(e)
	}
	return idx
}

// Add records one email.
func (idx CountIndex) Add(e model.Email) {
	if e.CategoryID != nil {
		idx[*e.CategoryID]++
	}
}

// Remove forgets one email.
func (idx CountIndex) Remove(e model.Email) {
	if e.CategoryID == nil {
		return
	}
	id := *e.CategoryID
	if idx[id] <= 1 {
		delete(idx, id)
		return
	}
	idx[id]--
}

// Count returns the number of emails in category id.
func (idx CountIndex) Count(id string) int {
	return idx[id]
}

// Clone returns an independent copy.
func (idx CountIndex) Clone() CountIndex {
	out := make(CountIndex, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out
}

// Apply returns a copy of categories with EmailCount taken from the index.
func (idx CountIndex) Apply(categories []model.Category) []model.Category {
	out := make([]model.Category, len(categories))
	for i, c := range categories {
		c.EmailCount = idx.Count(c.ID)
		out[i] = c
	}
	return out
}

// Recount returns a copy of categories with every EmailCount recomputed by
// scanning the full email collection.
func Recount(categories []model.Category, emails []model.Email) []model.Category {
	out := make([]model.Category, len(categories))
	for i, c := range categories {
		n := 0
		for _, e := range emails {
			if e.InCategory(c.ID) {
				n++
			}
		}
		c.EmailCount = n
		out[i] = c
	}
	return out
}

// CheckCounts verifies that every category's EmailCount equals the number
// of emails referencing it.
func CheckCounts(s State) error {
	want := Recount(s.Categories, s.Emails)
	for i, c := range s.Categories {
		if c.EmailCount != want[i].EmailCount {
			return fmt.Errorf("%w: category %q has %d, want %d",
				ErrCountMismatch, c.ID, c.EmailCount, want[i].EmailCount)
		}
	}
	return nil
}
