package imap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/mailsort/internal/model"
)

// AuthError indicates the IMAP server rejected the credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("imap authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Client reads recent messages from one IMAP mailbox.
type Client struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	mailbox  string
}

// NewClient creates a client from configuration. The password comes from
// the keyring.
func NewClient(cfg model.IMAPConfig, password string) *Client {
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &Client{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
		tls:      cfg.TLS,
		mailbox:  mailbox,
	}
}

// connect dials and authenticates. The connection is closed if ctx ends
// before the returned release func is called; the caller must Logout the
// client and then call release.
func (c *Client) connect(ctx context.Context) (*imapclient.Client, func() bool, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error
	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	release := context.AfterFunc(ctx, func() { _ = client.Close() })

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		release()
		return nil, nil, &AuthError{Username: c.username, Err: err}
	}

	return client, release, nil
}

// FetchRaw returns up to limit of the most recent messages received since
// the given time, oldest first, ready for import.
func (c *Client) FetchRaw(ctx context.Context, since time.Time, limit int) ([]model.RawEmail, error) {
	client, release, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = client.Logout().Wait()
		release()
	}()

	if _, err := client.Select(c.mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", c.mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var out []model.RawEmail
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		out = append(out, rawFromBuffer(buf, buf.FindBodySection(bodySection)))
	}

	if err := fetchCmd.Close(); err != nil {
		return out, fmt.Errorf("fetching messages: %w", err)
	}
	return out, nil
}

// rawFromBuffer builds a raw email from the envelope and the full message.
func rawFromBuffer(buf *imapclient.FetchMessageBuffer, raw []byte) model.RawEmail {
	msg := parseMessage(raw)
	email := model.RawEmail{
		SourceID:       "imap:" + strconv.FormatUint(uint64(buf.UID), 10),
		Subject:        msg.Subject,
		From:           msg.From,
		Body:           msg.Body,
		ReceivedAt:     msg.Date,
		UnsubscribeURL: msg.UnsubscribeURL,
	}

	if env := buf.Envelope; env != nil {
		if env.Subject != "" {
			email.Subject = env.Subject
		}
		if len(env.From) > 0 {
			email.From = env.From[0].Addr()
		}
		if !env.Date.IsZero() {
			email.ReceivedAt = env.Date
		}
		if env.MessageID != "" {
			email.SourceID = env.MessageID
		}
	}
	return email
}
