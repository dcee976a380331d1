// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package delivery hands exported results to a recipient, either as a
// mailto: link the user opens in a mail client or as an authenticated SMTP
// message carrying the attachment.
package delivery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Delivery modes.
const (
	ModeMailto = "mailto"
	ModeSMTP   = "smtp"
)

// ErrMissingCredentials is returned when SMTP is requested without a login
// or password.
var ErrMissingCredentials = errors.New("smtp login and password are required")

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("recipient address is empty")

// Error wraps a transport failure. Op names the step that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("delivery %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Message is one outgoing e-mail.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment []byte
	Filename   string

	// ContentType of the attachment; octet-stream when empty.
	ContentType string
}

// MailtoLink builds a mailto: URL for m. Attachments cannot travel in a
// mailto link and are dropped.
func MailtoLink(m Message) (string, error) {
	to := strings.TrimSpace(m.To)
	if to == "" {
		return "", ErrNoRecipient
	}
	return "mailto:" + to + "?subject=" + escape(m.Subject) + "&body=" + escape(m.Body), nil
}

// escape percent-encodes s, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// SummarySubject returns the standard subject line for a result set.
func SummarySubject(query string) string {
	return "Результаты поиска закупок: " + query
}

// SummaryBody returns the standard plain-text body. Mailto bodies add a
// reminder to attach the file by hand.
func SummaryBody(query, region string, count int, manualAttach bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Поисковый запрос: %s\n", query)
	fmt.Fprintf(&b, "Регион: %s\n", region)
	fmt.Fprintf(&b, "Записей: %d\n", count)
	if manualAttach {
		b.WriteString("\nФайл results.xlsx прикреплён вручную.")
	}
	return b.String()
}
