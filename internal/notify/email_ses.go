package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	FromEmail string
	FromName  string
	// ConfigurationSet routes delivery events when set.
	ConfigurationSet string
}

// SESSender sends booking emails through the SES v2 API.
type SESSender struct {
	client    *sesv2.Client
	from      string
	configSet string
	logger    *logging.Logger
}

// NewSESSender returns nil without a client.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SESSender{
		client:    client,
		from:      (&mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String(),
		configSet: cfg.ConfigurationSet,
		logger:    logger,
	}
}

// Send delivers one message through SES.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}
	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.Error("SES send failed", "booking_id", msg.BookingID, "to", msg.To, "error", err)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}
	s.logger.Info("booking email sent", "provider", "ses", "kind", msg.Kind, "booking_id", msg.BookingID, "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.recipient()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body:    &types.Body{Text: utf8Content(msg.Body)},
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if s.configSet != "" {
		in.ConfigurationSetName = aws.String(s.configSet)
	}
	if msg.Kind != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("kind"), Value: aws.String(msg.Kind)})
	}
	if msg.BookingID != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("booking_id"), Value: aws.String(msg.BookingID)})
	}
	return in
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
