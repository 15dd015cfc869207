package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/mailsort/internal/model"
)

// RequestIDHeader carries a per-request id that the backend can log.
const RequestIDHeader = "X-Request-ID"

// maxDetailLen bounds error details taken from non-JSON response bodies.
const maxDetailLen = 200

// Client is a thin HTTP client for the mailsort backend. Session
// credentials travel as cookies held in the client's jar. Failed requests
// are not retried.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	sessions   SessionStore
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSessionStore persists session cookies across restarts.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.sessions = s }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// NewClient creates a backend client for baseURL. timeout bounds each
// request; zero means model.DefaultTimeoutSec.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = model.DefaultTimeoutSec * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.restoreSession(); err != nil {
		c.logger.Warn("restoring session cookies", zap.Error(err))
	}

	return c, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GoogleAuth exchanges an OAuth ID token for a backend session.
func (c *Client) GoogleAuth(ctx context.Context, credential, clientID string) (*model.User, error) {
	var resp googleAuthResponse
	req := googleAuthRequest{Credential: credential, ClientID: clientID}
	if err := c.post(ctx, "/google-auth", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ConnectURL returns the URL the user must visit to grant mailbox access.
func (c *Client) ConnectURL(ctx context.Context) (string, error) {
	var resp connectResponse
	if err := c.get(ctx, "/auth/google/connect", &resp); err != nil {
		return "", err
	}
	if resp.AuthorizationURL == "" {
		return "", fmt.Errorf("backend returned no authorization url")
	}
	return resp.AuthorizationURL, nil
}

// Me returns the user owning the current session.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the server-side session. The local session cookies are
// discarded whether or not the request succeeds.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/logout", nil, nil)
	if clearErr := c.clearSession(); clearErr != nil {
		c.logger.Warn("clearing session cookies", zap.Error(clearErr))
	}
	return err
}

// ListCategories returns the user's categories. Integer ids are
// converted to strings.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var raw []categoryJSON
	if err := c.get(ctx, "/categories", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(raw))
	for _, rc := range raw {
		cat, err := rc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

// CreateCategory creates a category and returns it with its backend id.
func (c *Client) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	var raw categoryJSON
	req := createCategoryRequest{Name: name, Description: description}
	if err := c.post(ctx, "/categories", req, &raw); err != nil {
		return nil, err
	}
	cat, err := raw.toModel()
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// ProcessEmails asks the backend to ingest and classify recent mail.
func (c *Client) ProcessEmails(ctx context.Context, q EmailQuery) (*ProcessResult, error) {
	var result ProcessResult
	if err := c.post(ctx, "/emails/process", q.normalize(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Inbox lists recent inbox messages without importing them.
func (c *Client) Inbox(ctx context.Context, q EmailQuery) ([]model.RawEmail, error) {
	var emails []model.RawEmail
	if err := c.post(ctx, "/emails/inbox", q.normalize(), &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.get(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (q EmailQuery) normalize() EmailQuery {
	q.Timestamp = q.Timestamp.UTC().Truncate(time.Millisecond)
	return q
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// do builds the request, sends it once, maps error statuses to typed
// errors and decodes the JSON response into result.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	c.logger.Debug("request completed",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if len(resp.Cookies()) > 0 {
		if err := c.saveSession(); err != nil {
			c.logger.Warn("saving session cookies", zap.Error(err))
		}
	}

	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Method: method, Path: path, Detail: errorDetail(respBody)}
	case resp.StatusCode == http.StatusForbidden:
		return &PermissionError{Method: method, Path: path, Detail: errorDetail(respBody)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// errorDetail extracts a human-readable message from an error body.
func errorDetail(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if len(eb.Detail) > 0 && string(eb.Detail) != "null" {
			var s string
			if json.Unmarshal(eb.Detail, &s) == nil {
				return s
			}
			return string(eb.Detail)
		}
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxDetailLen {
		text = text[:maxDetailLen] + "..."
	}
	return text
}
