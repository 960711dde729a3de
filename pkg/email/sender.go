package email

import (
	"context"
	"fmt"

	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers transactional mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendgridSender sends through the SendGrid API.
type SendgridSender struct {
	client   *sendgrid.Client
	from     *mail.Email
	fromName string
}

// NewSendgridSender builds a sender from config. Returns an error when the API
// key is missing so callers can fall back to the log sender in dev.
func NewSendgridSender(cfg config.SendgridConfig) (*SendgridSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	return &SendgridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	message := mail.NewSingleEmail(
		s.from,
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes mail to the log instead of sending it. Used in dev and in
// environments without a SendGrid key.
type LogSender struct {
	Logger *logger.Logger
}

func (s LogSender) Send(ctx context.Context, to, subject, _ string) error {
	if s.Logger != nil {
		ctx = s.Logger.WithFields(ctx, map[string]any{"to": to, "subject": subject})
		s.Logger.Info(ctx, "email.logged_instead_of_sent")
	}
	return nil
}
