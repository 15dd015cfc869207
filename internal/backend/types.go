package backend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/mailsort/internal/model"
)

// EmailQuery is the request body of /emails/process and /emails/inbox.
type EmailQuery struct {
	GmailAddress string    `json:"gmail_address"`
	Timestamp    time.Time `json:"timestamp"`
	MaxResults   int       `json:"max_results"`
}

// ProcessResult is the response of /emails/process. The backend returns
// either an array of emails or an object carrying a message and errors.
type ProcessResult struct {
	Emails  []model.RawEmail
	Message string
	Errors  []string
}

// UnmarshalJSON accepts both response shapes.
func (r *ProcessResult) UnmarshalJSON(data []byte) error {
	var emails []model.RawEmail
	if err := json.Unmarshal(data, &emails); err == nil {
		*r = ProcessResult{Emails: emails}
		return nil
	}

	var obj struct {
		Message string            `json:"message"`
		Errors  []json.RawMessage `json:"errors"`
		Emails  []model.RawEmail  `json:"emails"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding process result: %w", err)
	}

	*r = ProcessResult{Emails: obj.Emails, Message: obj.Message}
	for _, raw := range obj.Errors {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			r.Errors = append(r.Errors, s)
			continue
		}
		r.Errors = append(r.Errors, string(raw))
	}
	return nil
}

// categoryJSON is a category as the backend returns it. IDs are integers.
type categoryJSON struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	AccountID   json.RawMessage `json:"account_id,omitempty"`
}

func (c categoryJSON) toModel() (model.Category, error) {
	id, err := model.ParseID(c.ID)
	if err != nil {
		return model.Category{}, fmt.Errorf("decoding category id: %w", err)
	}
	return model.Category{
		ID:          id,
		Name:        c.Name,
		Description: c.Description,
	}, nil
}

type googleAuthRequest struct {
	Credential string `json:"credential"`
	ClientID   string `json:"client_id"`
}

type googleAuthResponse struct {
	User model.User `json:"user"`
}

type connectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// errorBody is the error envelope the backend uses.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}
