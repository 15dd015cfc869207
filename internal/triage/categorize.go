package triage

import (
	"fmt"
	"strings"

	"github.com/nhle/mailsort/internal/model"
)

// Result is the outcome of classifying one email.
type Result struct {
	CategoryID *string
	Summary    string
}

// Classifier assigns an email to one of the given categories. The real
// classifier runs on the backend; implementations here must be pure.
type Classifier interface {
	Classify(email model.RawEmail, categories []model.Category) Result
}

// SubstringClassifier matches a category when its name occurs in the
// subject or body, ignoring case. The first match in list order wins.
// Without a match the first category is used, and with no categories
// the email stays uncategorized.
type SubstringClassifier struct{}

// Classify implements Classifier.
func (SubstringClassifier) Classify(email model.RawEmail, categories []model.Category) Result {
	return Result{
		CategoryID: matchCategory(email, categories),
		Summary:    Summarize(email.Subject),
	}
}

func matchCategory(email model.RawEmail, categories []model.Category) *string {
	if len(categories) == 0 {
		return nil
	}

	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)
	for _, c := range categories {
		name := strings.ToLower(c.Name)
		if strings.Contains(subject, name) || strings.Contains(body, name) {
			id := c.ID
			return &id
		}
	}

	id := categories[0].ID
	return &id
}

// Summarize renders the placeholder summary for a subject line.
func Summarize(subject string) string {
	return fmt.Sprintf(
		"This email discusses %s. Key points include important updates and action items that may require your attention.",
		strings.ToLower(subject),
	)
}
