package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
)

const (
	defaultTimeout  = 15 * time.Second
	implicitTLSPort = mail.DefaultPortSSL
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type deliverFunc func(ctx context.Context, client *mail.Client, msg *mail.Msg) error

// SMTPMailer delivers messages through an SMTP relay. Port 465 uses implicit
// TLS; other ports upgrade with STARTTLS when the relay offers it.
type SMTPMailer struct {
	host        string
	port        int
	from        string
	username    string
	password    string
	implicitTLS bool
	timeout     time.Duration
	now         func() time.Time
	deliver     deliverFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	from := cfg.Sender()
	if from == "" {
		return nil, errors.New("smtp sender is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	port := cfg.Port
	if port == 0 {
		port = mail.DefaultPortTLS
	}
	return &SMTPMailer{
		host:        cfg.Host,
		port:        port,
		from:        from,
		username:    cfg.Username,
		password:    cfg.Password,
		implicitTLS: port == implicitTLSPort,
		timeout:     timeout,
		now:         time.Now,
		deliver: func(ctx context.Context, client *mail.Client, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

// Send delivers msg. The whole exchange, greeting included, is bounded by the
// configured timeout and by ctx.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.ContainsAny(msg.To+msg.Subject, "\r\n") {
		return errors.New("header values must not contain line breaks")
	}

	composed, err := m.compose(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	client, err := m.client(ctx, deadline)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := m.deliver(ctx, client, composed); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now())
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}

func (m *SMTPMailer) client(ctx context.Context, deadline time.Time) (*mail.Client, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return nil, context.DeadlineExceeded
	}
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTimeout(remaining),
		mail.WithDialContextFunc(m.dialer(ctx, deadline)),
	}
	if m.implicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	return mail.NewClient(m.host, opts...)
}

// dialer opens the relay connection with a hard deadline. go-mail reads the
// server greeting before it applies its own timeouts, so a relay that accepts
// and stays silent would otherwise block forever.
func (m *SMTPMailer) dialer(ctx context.Context, deadline time.Time) mail.DialContextFunc {
	return func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		netDialer := &net.Dialer{}
		var (
			conn net.Conn
			err  error
		)
		if m.implicitTLS {
			tlsDialer := &tls.Dialer{
				NetDialer: netDialer,
				Config:    &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12},
			}
			conn, err = tlsDialer.DialContext(dialCtx, network, addr)
		} else {
			conn, err = netDialer.DialContext(dialCtx, network, addr)
		}
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
		return conn, nil
	}
}
