// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delivery

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/pdiddy/tender-search/pkg/types"
)

// SMTP defaults for mail.ru.
const (
	DefaultSMTPHost = "smtp.mail.ru"
	DefaultSMTPPort = 587
	DefaultTimeout  = 30 * time.Second
)

const octetStream = "application/octet-stream"

// transport is the part of *mail.Client the sender needs.
type transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender sends messages over STARTTLS with PLAIN auth. The login doubles
// as the From address. Failures are reported once and never retried.
type SMTPSender struct {
	Host     string
	Port     int
	Login    string
	Password string
	Timeout  time.Duration

	dial func(host string, opts ...mail.Option) (transport, error)
}

// NewSMTPSender builds a sender from cfg, applying mail.ru defaults.
func NewSMTPSender(cfg types.DeliveryConfig) *SMTPSender {
	return &SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Login:    cfg.Login,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	}
}

// Send delivers m. It fails with ErrMissingCredentials before touching the
// network when credentials are absent.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if s.Login == "" || s.Password == "" {
		return ErrMissingCredentials
	}
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}

	msg, err := s.compose(m)
	if err != nil {
		return &Error{Op: "compose", Err: err}
	}

	client, err := s.client()
	if err != nil {
		return &Error{Op: "connect", Err: err}
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &Error{Op: "send", Err: err}
	}
	return nil
}

func (s *SMTPSender) compose(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.Login); err != nil {
		return nil, err
	}
	if err := msg.To(strings.TrimSpace(m.To)); err != nil {
		return nil, err
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	if len(m.Attachment) > 0 {
		name := m.Filename
		if name == "" {
			name = "results.xlsx"
		}
		ct := m.ContentType
		if ct == "" {
			ct = octetStream
		}
		if err := msg.AttachReader(name, bytes.NewReader(m.Attachment), mail.WithFileContentType(mail.ContentType(ct))); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (s *SMTPSender) client() (transport, error) {
	host := s.Host
	if host == "" {
		host = DefaultSMTPHost
	}
	port := s.Port
	if port == 0 {
		port = DefaultSMTPPort
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.Login),
		mail.WithPassword(s.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(timeout),
	}

	dial := s.dial
	if dial == nil {
		dial = func(host string, opts ...mail.Option) (transport, error) {
			return mail.NewClient(host, opts...)
		}
	}
	return dial(host, opts...)
}
