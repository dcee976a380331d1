// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delivery

import (
	"context"
	"errors"
	"mime"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/pdiddy/tender-search/pkg/types"
)

func TestMailtoLink(t *testing.T) {
	m := Message{
		To:         "buyer@example.ru",
		Subject:    SummarySubject("ноутбук & мышь"),
		Body:       SummaryBody("ноутбук & мышь", "Москва", 3, true),
		Attachment: []byte("xlsx"),
	}
	link, err := MailtoLink(m)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "mailto:buyer@example.ru?subject="))
	assert.NotContains(t, link, "+")
	assert.NotContains(t, link, " ")

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Len(t, q, 2, "attachment is not carried")
	assert.Equal(t, "Результаты поиска закупок: ноутбук & мышь", q.Get("subject"))
	assert.Contains(t, q.Get("body"), "Записей: 3\n")
	assert.Contains(t, q.Get("body"), "прикреплён вручную")
}

func TestMailtoLinkNeedsRecipient(t *testing.T) {
	_, err := MailtoLink(Message{To: "  "})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSummaryBody(t *testing.T) {
	assert.Equal(t,
		"Поисковый запрос: ноутбук\nРегион: Москва\nЗаписей: 2\n",
		SummaryBody("ноутбук", "Москва", 2, false))
}

// fakeTransport records what would have been sent.
type fakeTransport struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeTransport) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func testSender(ft *fakeTransport, host *string, opts *int) *SMTPSender {
	s := NewSMTPSender(types.DeliveryConfig{Login: "robot@mail.ru", Password: "secret"})
	s.dial = func(h string, o ...mail.Option) (transport, error) {
		if host != nil {
			*host = h
		}
		if opts != nil {
			*opts = len(o)
		}
		return ft, nil
	}
	return s
}

func TestSMTPSenderSend(t *testing.T) {
	ft := &fakeTransport{}
	var host string
	var nopts int
	s := testSender(ft, &host, &nopts)

	err := s.Send(context.Background(), Message{
		To:          "buyer@example.ru",
		Subject:     SummarySubject("ноутбук"),
		Body:        SummaryBody("ноутбук", "Москва", 1, false),
		Attachment:  []byte("PK\x03\x04"),
		Filename:    "results.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultSMTPHost, host)
	assert.Equal(t, 6, nopts)
	require.Len(t, ft.sent, 1)

	msg := ft.sent[0]
	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	assert.Equal(t, "Результаты поиска закупок: ноутбук", decoded)
	rcpt, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.ru"}, rcpt)

	atts := msg.GetAttachments()
	require.Len(t, atts, 1)
	assert.Equal(t, "results.xlsx", atts[0].Name)
}

func TestSMTPSenderMissingCredentials(t *testing.T) {
	tests := []struct {
		name, login, password string
	}{
		{"no login", "", "secret"},
		{"no password", "robot@mail.ru", ""},
		{"neither", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{}
			s := testSender(ft, nil, nil)
			s.Login, s.Password = tt.login, tt.password

			err := s.Send(context.Background(), Message{To: "buyer@example.ru"})
			assert.ErrorIs(t, err, ErrMissingCredentials)
			assert.Empty(t, ft.sent)
		})
	}
}

func TestSMTPSenderWrapsTransportError(t *testing.T) {
	cause := errors.New("535 authentication failed")
	ft := &fakeTransport{err: cause}
	s := testSender(ft, nil, nil)

	err := s.Send(context.Background(), Message{To: "buyer@example.ru", Subject: "s"})
	require.Error(t, err)

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "send", de.Op)
	assert.ErrorIs(t, err, cause)
}

func TestSMTPSenderRejectsBadAddress(t *testing.T) {
	s := testSender(&fakeTransport{}, nil, nil)
	err := s.Send(context.Background(), Message{To: "not an address"})

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "compose", de.Op)

	err = s.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPSenderHonoursConfig(t *testing.T) {
	var host string
	s := testSender(&fakeTransport{}, &host, nil)
	s.Host = "smtp.example.org"

	require.NoError(t, s.Send(context.Background(), Message{To: "buyer@example.ru"}))
	assert.Equal(t, "smtp.example.org", host)
}
