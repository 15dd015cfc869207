package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Email is an imported message held in the local email collection.
// CategoryID is nil when no category existed at import time.
type Email struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
	CategoryID *string   `json:"categoryId"`
	Summary    string    `json:"summary"`
	Archived   bool      `json:"archived"`
	ImportedAt time.Time `json:"importedAt"`

	// SourceID is the provider message id when the email came from the
	// backend or an IMAP mailbox.
	SourceID string `json:"sourceId,omitempty"`

	// UnsubscribeURL is the List-Unsubscribe target, when known.
	UnsubscribeURL string `json:"unsubscribeUrl,omitempty"`
}

// InCategory reports whether the email is assigned to the category id.
func (e Email) InCategory(id string) bool {
	return e.CategoryID != nil && *e.CategoryID == id
}

// RawEmail is an email as fetched from the backend, an IMAP mailbox, or
// the demo sample set, before it is categorized and imported.
type RawEmail struct {
	SourceID       string
	Subject        string
	From           string
	Body           string
	ReceivedAt     time.Time
	UnsubscribeURL string

	// CategoryID and Summary are set when the backend classifier already
	// processed the email.
	CategoryID *string
	Summary    string
}

// Classified reports whether the email arrived with a category and summary
// assigned upstream.
func (r RawEmail) Classified() bool {
	return r.CategoryID != nil && r.Summary != ""
}

// rawEmailJSON accepts both the camelCase client shape and the
// snake_case backend shape.
type rawEmailJSON struct {
	ID             json.RawMessage `json:"id"`
	Subject        string          `json:"subject"`
	From           string          `json:"from"`
	Sender         string          `json:"sender"`
	Body           string          `json:"body"`
	ReceivedAt     string          `json:"receivedAt"`
	ReceivedAtAlt  string          `json:"received_at"`
	CategoryID     json.RawMessage `json:"categoryId"`
	CategoryIDAlt  json.RawMessage `json:"category_id"`
	Summary        string          `json:"summary"`
	UnsubscribeURL string          `json:"unsubscribe_url"`
}

// UnmarshalJSON decodes a raw email from either wire shape.
func (r *RawEmail) UnmarshalJSON(data []byte) error {
	var w rawEmailJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding raw email: %w", err)
	}

	id, err := ParseID(w.ID)
	if err != nil {
		return fmt.Errorf("decoding raw email id: %w", err)
	}

	catRaw := w.CategoryID
	if len(catRaw) == 0 || string(catRaw) == "null" {
		catRaw = w.CategoryIDAlt
	}
	catID, err := ParseID(catRaw)
	if err != nil {
		return fmt.Errorf("decoding raw email category id: %w", err)
	}

	*r = RawEmail{
		SourceID:       id,
		Subject:        w.Subject,
		From:           firstNonEmpty(w.From, w.Sender),
		Body:           w.Body,
		ReceivedAt:     ParseTimestamp(firstNonEmpty(w.ReceivedAt, w.ReceivedAtAlt)),
		UnsubscribeURL: w.UnsubscribeURL,
		Summary:        w.Summary,
	}
	if catID != "" {
		r.CategoryID = &catID
	}
	return nil
}

// MarshalJSON encodes the raw email in the client shape.
func (r RawEmail) MarshalJSON() ([]byte, error) {
	out := struct {
		ID         string  `json:"id,omitempty"`
		Subject    string  `json:"subject"`
		From       string  `json:"from"`
		Body       string  `json:"body"`
		ReceivedAt string  `json:"receivedAt"`
		CategoryID *string `json:"categoryId,omitempty"`
		Summary    string  `json:"summary,omitempty"`
	}{
		ID:         r.SourceID,
		Subject:    r.Subject,
		From:       r.From,
		Body:       r.Body,
		CategoryID: r.CategoryID,
		Summary:    r.Summary,
	}
	if !r.ReceivedAt.IsZero() {
		out.ReceivedAt = r.ReceivedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp parses the timestamp formats the backend emits.
// Unparseable or empty input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseID renders a JSON string or number id as a string. Null or empty
// input yields "".
func ParseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
