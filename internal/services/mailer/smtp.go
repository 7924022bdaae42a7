package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
)

// ErrSTARTTLSUnsupported is returned when the relay does not offer STARTTLS.
// Credentials are never sent over a plain connection.
var ErrSTARTTLSUnsupported = errors.New("SMTP server does not support STARTTLS")

// SMTPConfig holds relay connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Auth     string        // "login" or "plain"
	Timeout  time.Duration // Whole-conversation deadline, zero means none
}

// SMTPSender delivers mail through a STARTTLS relay.
type SMTPSender struct {
	config    SMTPConfig
	tlsConfig *tls.Config
}

// NewSMTPSender creates a sender. A nil tlsConfig verifies against the relay host.
func NewSMTPSender(config SMTPConfig, tlsConfig *tls.Config) *SMTPSender {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: config.Host}
	}
	return &SMTPSender{config: config, tlsConfig: tlsConfig}
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return ErrSTARTTLSUnsupported
	}
	if err := client.StartTLS(s.tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := client.Auth(newSASLAuth(s.config.Auth, s.config.Username, s.config.Password)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set mail recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// saslAuth adapts a SASL client to smtp.Auth.
type saslAuth struct {
	client sasl.Client
}

func newSASLAuth(mechanism, username, password string) smtp.Auth {
	if mechanism == "plain" {
		return &saslAuth{client: sasl.NewPlainClient("", username, password)}
	}
	return &saslAuth{client: sasl.NewLoginClient(username, password)}
}

func (a *saslAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, ErrSTARTTLSUnsupported
	}
	return a.client.Start()
}

func (a *saslAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	return a.client.Next(fromServer)
}
