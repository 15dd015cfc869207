package triage

import (
	"math/rand/v2"
	"time"

	"github.com/nhle/mailsort/internal/model"
)

// SampleEmails returns the canned emails used by the demo simulation,
// stamped as received at now.
func SampleEmails(now time.Time) []model.RawEmail {
	return []model.RawEmail{
		{
			Subject:    "Weekly Tech Newsletter - AI Advances",
			From:       "newsletter@tech.com",
			Body:       "Check out the latest in technology news this week including breakthrough in AI...",
			ReceivedAt: now,
		},
		{
			Subject:    "Your Monthly Statement is Ready",
			From:       "billing@company.com",
			Body:       "Your statement for this month is now available for review...",
			ReceivedAt: now,
		},
		{
			Subject:    "Team Meeting Tomorrow at 2 PM",
			From:       "manager@work.com",
			Body:       "Reminder about our team sync meeting scheduled for tomorrow...",
			ReceivedAt: now,
		},
	}
}

// Simulate picks one sample email at random. A nil r uses the global source.
func Simulate(now time.Time, r *rand.Rand) model.RawEmail {
	samples := SampleEmails(now)
	if r == nil {
		return samples[rand.IntN(len(samples))]
	}
	return samples[r.IntN(len(samples))]
}

// CanSimulate reports whether the demo is offered. Simulated emails need
// at least one category to land in.
func CanSimulate(s State) bool {
	return s.User != nil && len(s.Categories) > 0
}
