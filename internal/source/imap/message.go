package imap

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// message is the subset of a parsed RFC 5322 message used for import.
type message struct {
	Subject        string
	From           string
	Date           time.Time
	Body           string
	UnsubscribeURL string
}

// parseMessage parses a raw message with go-message. The text/plain part
// is preferred; an HTML-only message is reduced to text. Unparseable
// input is returned as the body.
func parseMessage(raw []byte) message {
	var msg message
	if len(raw) == 0 {
		return msg
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		msg.Body = string(raw)
		return msg
	}
	defer mr.Close()

	msg.Subject, _ = mr.Header.Subject()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}
	msg.Date, _ = mr.Header.Date()
	msg.UnsubscribeURL = parseListUnsubscribe(mr.Header.Get("List-Unsubscribe"))

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	msg.Body = strings.TrimSpace(textBody)
	if msg.Body == "" && htmlBody != "" {
		msg.Body = htmlToText(htmlBody)
	}
	return msg
}

// parseListUnsubscribe picks an unsubscribe target from a List-Unsubscribe
// header value, preferring an HTTP(S) URL over mailto.
func parseListUnsubscribe(v string) string {
	var fallback string
	for _, item := range strings.Split(v, ",") {
		item = strings.Trim(strings.TrimSpace(item), "<>")
		switch {
		case strings.HasPrefix(item, "https://"), strings.HasPrefix(item, "http://"):
			return item
		case strings.HasPrefix(item, "mailto:") && fallback == "":
			fallback = item
		}
	}
	return fallback
}

var (
	blockTags  = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	breakTags  = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/tr|/h[1-6])[^>]*>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	blankLines = regexp.MustCompile(`\n[ \t]*\n[\s]*`)
)

// htmlToText strips markup from an HTML body for terminal display.
func htmlToText(s string) string {
	s = blockTags.ReplaceAllString(s, "")
	s = breakTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
