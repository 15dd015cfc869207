package imap

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessage_Multipart(t *testing.T) {
	raw := crlf(`From: Tech News <newsletter@tech.com>
To: ada@example.com
Subject: Weekly Tech Newsletter
Date: Mon, 02 Jun 2025 09:30:00 +0000
List-Unsubscribe: <mailto:unsub@tech.com>, <https://tech.com/unsub?u=1>
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Check out the latest in technology news.
--b1
Content-Type: text/html; charset=utf-8

<p>Check out the <b>latest</b></p>
--b1--
`)

	msg := parseMessage(raw)
	assert.Equal(t, "Weekly Tech Newsletter", msg.Subject)
	assert.Equal(t, "newsletter@tech.com", msg.From)
	assert.True(t, msg.Date.Equal(time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Check out the latest in technology news.", msg.Body)
	assert.Equal(t, "https://tech.com/unsub?u=1", msg.UnsubscribeURL)
}

func TestParseMessage_HTMLOnly(t *testing.T) {
	raw := crlf(`From: billing@company.com
Subject: Statement
Content-Type: text/html; charset=utf-8

<html><head><style>p { color: red; }</style></head>
<body><p>Your statement &amp; invoice</p><p>is ready</p></body></html>
`)

	msg := parseMessage(raw)
	assert.Equal(t, "billing@company.com", msg.From)
	assert.Equal(t, "Your statement & invoice\nis ready", msg.Body)
	assert.Empty(t, msg.UnsubscribeURL)
}

func TestParseMessage_Empty(t *testing.T) {
	assert.Equal(t, message{}, parseMessage(nil))
}

func TestParseListUnsubscribe(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"<mailto:a@b.c>", "mailto:a@b.c"},
		{"<https://x.example/u>", "https://x.example/u"},
		{"<mailto:a@b.c>, <http://x.example/u>", "http://x.example/u"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseListUnsubscribe(tt.in), tt.in)
	}
}
