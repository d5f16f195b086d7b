package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/suar-net/leadintake/pkg/logging"
)

var ErrSenderNotConfigured = errors.New("notify: email sender not configured")

// EmailSender delivers one message.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a plain-text email with an optional HTML alternative.
// Categories and Args are passed through as SendGrid categories and custom
// args so deliveries can be traced back to a lead.
type EmailMessage struct {
	To         string
	ToName     string
	ReplyTo    string
	Subject    string
	Body       string
	HTML       string
	Categories []string
	Args       map[string]string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logging.Logger
}

// NewSendGridSender returns nil when cfg has no API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Solar Leads"
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return ErrSenderNotConfigured
	}

	resp, err := s.client.SendWithContext(ctx, s.compose(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 300 {
		s.logger.Warnw("sendgrid rejected message", "status", resp.StatusCode,
			"to", msg.To, "body", strings.TrimSpace(resp.Body))
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Debugw("email sent via sendgrid", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// compose builds the v3 payload; the plain-text part must precede HTML.
func (s *SendGridSender) compose(msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))
	for k, v := range msg.Args {
		p.SetCustomArg(k, v)
	}
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Body))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	if len(msg.Categories) > 0 {
		m.AddCategories(msg.Categories...)
	}
	return m
}

// LogSender writes messages to the log instead of sending them. It stands in
// for SendGrid when a notification address is set without an API key.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Infow("email not sent, no provider configured",
		"to", msg.To, "subject", msg.Subject, "args", msg.Args)
	return nil
}
