package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailsort/internal/model"
)

func emailIn(id, cat string) model.Email {
	return model.Email{ID: id, CategoryID: &cat}
}

func TestCountIndex(t *testing.T) {
	emails := []model.Email{emailIn("a", "1"), emailIn("b", "1"), emailIn("c", "2"), {ID: "d"}}
	idx := NewCountIndex(emails)

	assert.Equal(t, 2, idx.Count("1"))
	assert.Equal(t, 1, idx.Count("2"))
	assert.Equal(t, 0, idx.Count("3"))

	idx.Remove(emails[2])
	idx.Remove(emails[3])
	assert.Equal(t, CountIndex{"1": 2}, idx)

	clone := idx.Clone()
	clone.Add(emailIn("e", "1"))
	assert.Equal(t, 2, idx.Count("1"))
	assert.Equal(t, 3, clone.Count("1"))
}

func TestRecountAndApplyAgree(t *testing.T) {
	categories := []model.Category{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	emails := []model.Email{emailIn("a", "1"), emailIn("b", "2"), emailIn("c", "2"), {ID: "d"}}

	assert.Equal(t, Recount(categories, emails), NewCountIndex(emails).Apply(categories))
	assert.Zero(t, categories[1].EmailCount, "inputs are not modified")
}

func TestCheckCounts(t *testing.T) {
	s := State{
		Categories: []model.Category{{ID: "1", EmailCount: 1}},
		Emails:     []model.Email{emailIn("a", "1")},
	}
	require.NoError(t, CheckCounts(s))

	s.Categories[0].EmailCount = 2
	err := CheckCounts(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCountMismatch)
}
