package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Aesthetics Clinic"

// EmailSender delivers one booking email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a plain-text booking email. Kind and BookingID are attached
// as provider metadata (SendGrid categories and custom args, SES tags) so
// deliveries can be traced back to the booking.
type EmailMessage struct {
	To        string
	ToName    string
	Subject   string
	Body      string
	ReplyTo   string
	Kind      string
	BookingID string
}

func (m EmailMessage) recipient() string {
	if m.ToName == "" {
		return m.To
	}
	return (&mail.Address{Name: m.ToName, Address: m.To}).String()
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides the API host, e.g. for a local mock.
	Host string
}

// SendGridSender sends booking emails through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		req := sendgrid.GetRequest(cfg.APIKey, "/v3/mail/send", cfg.Host)
		req.Method = "POST"
		client = &sendgrid.Client{Request: req}
	}
	return &SendGridSender{
		client: client,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

// Send posts one message to SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	resp, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "booking_id", msg.BookingID, "to", msg.To, "error", err)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected email", "booking_id", msg.BookingID, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Info("booking email sent", "provider", "sendgrid", "kind", msg.Kind, "booking_id", msg.BookingID, "to", msg.To)
	return nil
}

func (s *SendGridSender) build(msg EmailMessage) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))
	if msg.BookingID != "" {
		p.SetCustomArg("booking_id", msg.BookingID)
	}
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))

	if msg.ReplyTo != "" {
		m.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}
	m.AddCategories("booking")
	if msg.Kind != "" {
		m.AddCategories(msg.Kind)
	}
	return m
}

// StubEmailSender logs emails instead of sending them.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send booking email", "kind", msg.Kind, "booking_id", msg.BookingID, "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
