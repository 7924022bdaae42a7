// -----------------------------------------------------------------------
// Mailer Service - plain text report delivery over STARTTLS SMTP
// -----------------------------------------------------------------------

package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/oilreport/internal/common"
)

// Sender delivers a composed RFC 5322 message.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Config holds the envelope addresses.
type Config struct {
	From string
	To   string
}

// Service composes the report email and hands it to a Sender.
type Service struct {
	sender Sender
	config Config
	logger arbor.ILogger
	now    func() time.Time
}

// NewService creates a new mailer service
func NewService(sender Sender, config Config, logger arbor.ILogger) *Service {
	return &Service{
		sender: sender,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// BuildMessage composes a single-part text/plain message encoded as
// quoted-printable, so padded report lines survive transport intact.
func (s *Service) BuildMessage(subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Address: s.config.From}})
	h.SetAddressList("To", []*mail.Address{{Address: s.config.To}})
	h.SetSubject(subject)
	h.SetMessageID(common.NewMessageID(domainOf(s.config.From)))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

// Notify sends the report and reports whether delivery succeeded. Failures
// are logged and swallowed so the run can finish.
func (s *Service) Notify(ctx context.Context, subject, body string) bool {
	msg, err := s.BuildMessage(subject, body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compose report email")
		return false
	}

	if err := s.sender.Send(ctx, s.config.From, []string{s.config.To}, msg); err != nil {
		s.logger.Error().
			Err(err).
			Str("to", s.config.To).
			Msg("Failed to send report email")
		return false
	}

	s.logger.Info().
		Str("to", s.config.To).
		Str("subject", subject).
		Int("bytes", len(msg)).
		Msg("Report email sent")
	return true
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return ""
}
