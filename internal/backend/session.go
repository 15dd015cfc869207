package backend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nhle/mailsort/internal/credential"
)

// SessionStore persists secrets by key. credential.Vault implements it.
type SessionStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *Client) sessionKey() string {
	return credential.SessionKey(c.baseURL.String())
}

// saveSession writes the jar's cookies for the backend to the session store.
func (c *Client) saveSession() error {
	if c.sessions == nil {
		return nil
	}

	cookies := c.httpClient.Jar.Cookies(c.baseURL)
	if len(cookies) == 0 {
		return c.sessions.Delete(c.sessionKey())
	}

	saved := make([]savedCookie, 0, len(cookies))
	for _, ck := range cookies {
		saved = append(saved, savedCookie{Name: ck.Name, Value: ck.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encoding session cookies: %w", err)
	}
	return c.sessions.Set(c.sessionKey(), string(data))
}

// restoreSession loads previously saved cookies into the jar. A missing
// entry is not an error.
func (c *Client) restoreSession() error {
	if c.sessions == nil {
		return nil
	}

	data, err := c.sessions.Get(c.sessionKey())
	if err != nil {
		if credential.IsNotFound(err) {
			return nil
		}
		return err
	}

	var saved []savedCookie
	if err := json.Unmarshal([]byte(data), &saved); err != nil {
		return fmt.Errorf("decoding session cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
	return nil
}

// clearSession expires the backend cookies and drops the persisted copy.
func (c *Client) clearSession() error {
	var expired []*http.Cookie
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.httpClient.Jar.SetCookies(c.baseURL, expired)
	}

	if c.sessions == nil {
		return nil
	}
	return c.sessions.Delete(c.sessionKey())
}

// HasSession reports whether the client holds any session cookie.
func (c *Client) HasSession() bool {
	return len(c.httpClient.Jar.Cookies(c.baseURL)) > 0
}
