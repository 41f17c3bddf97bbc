package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	"github.com/wolfman30/aesthetics-booking/pkg/logging"
)

// Booking event kinds.
const (
	KindBookingCreated       = "booking_created"
	KindBookingStatusChanged = "booking_status_changed"
)

// BookingEvent describes a booking change worth telling people about.
type BookingEvent struct {
	Kind           string
	BookingID      string
	CustomerName   string
	CustomerEmail  string
	Service        string
	TeamMemberID   string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	Status         string
	PreviousStatus string
	PaymentStatus  string
	Amount         float64
}

// ClinicConfigStore retrieves clinic configuration.
type ClinicConfigStore interface {
	Get(ctx context.Context, clinicID string) (*clinic.Config, error)
}

// Service sends booking emails to customers and clinic staff.
type Service struct {
	email       EmailSender
	clinicStore ClinicConfigStore
	clinicID    string
	logger      *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, clinicStore ClinicConfigStore, clinicID string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:       email,
		clinicStore: clinicStore,
		clinicID:    clinicID,
		logger:      logger,
	}
}

// NotifyBooking emails the customer and the configured staff recipients.
// It returns a joined error when any message failed.
func (s *Service) NotifyBooking(ctx context.Context, evt BookingEvent) error {
	if s == nil || s.email == nil || s.clinicStore == nil {
		return nil
	}

	cfg, err := s.clinicStore.Get(ctx, s.clinicID)
	if err != nil {
		return fmt.Errorf("notify: get clinic config: %w", err)
	}
	prefs := cfg.Notifications
	if !prefs.EmailEnabled {
		s.logger.Debug("notify: email disabled for clinic", "clinic_id", s.clinicID)
		return nil
	}
	switch evt.Kind {
	case KindBookingCreated:
		if !prefs.NotifyOnBooking {
			return nil
		}
	case KindBookingStatusChanged:
		if !prefs.NotifyOnStatusChange || evt.Status == evt.PreviousStatus {
			return nil
		}
	default:
		return fmt.Errorf("notify: unknown booking event %q", evt.Kind)
	}

	staffName := evt.TeamMemberID
	if m, err := cfg.Member(evt.TeamMemberID); err == nil {
		staffName = m.Name
	}
	when := fmt.Sprintf("%s at %s", evt.Date, evt.Time)

	var msgs []EmailMessage
	if evt.CustomerEmail != "" {
		msgs = append(msgs, EmailMessage{
			To:        evt.CustomerEmail,
			ToName:    evt.CustomerName,
			Subject:   customerSubject(cfg.Name, evt),
			Body:      customerBody(cfg, evt, staffName, when),
			ReplyTo:   cfg.Email,
			Kind:      evt.Kind,
			BookingID: evt.BookingID,
		})
	}
	staffSubject := fmt.Sprintf("[%s] %s: %s, %s", cfg.Name, strings.ReplaceAll(evt.Kind, "_", " "), evt.CustomerName, when)
	staffBody := fmt.Sprintf("Booking %s\n\nCustomer: %s <%s>\nService: %s\nWith: %s\nWhen: %s\nStatus: %s\nPayment: %s\nAmount: $%.2f\n",
		evt.BookingID, evt.CustomerName, evt.CustomerEmail, evt.Service, staffName, when, evt.Status, evt.PaymentStatus, evt.Amount)
	for _, recipient := range prefs.EmailRecipients {
		msgs = append(msgs, EmailMessage{
			To:        recipient,
			Subject:   staffSubject,
			Body:      staffBody,
			Kind:      evt.Kind,
			BookingID: evt.BookingID,
		})
	}

	var errs []error
	for _, msg := range msgs {
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send booking email", "error", err, "to", msg.To, "booking_id", evt.BookingID)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: booking email sent", "to", msg.To, "booking_id", evt.BookingID, "kind", evt.Kind)
	}
	return errors.Join(errs...)
}

func customerSubject(clinicName string, evt BookingEvent) string {
	if evt.Kind == KindBookingCreated {
		return fmt.Sprintf("Your %s appointment request", clinicName)
	}
	return fmt.Sprintf("Your %s appointment is %s", clinicName, evt.Status)
}

func customerBody(cfg *clinic.Config, evt BookingEvent, staffName, when string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", evt.CustomerName)
	if evt.Kind == KindBookingCreated {
		fmt.Fprintf(&b, "Thanks for booking with %s. We have received your request:\n\n", cfg.Name)
	} else {
		fmt.Fprintf(&b, "Your appointment status changed from %s to %s.\n\n", evt.PreviousStatus, evt.Status)
	}
	fmt.Fprintf(&b, "Service: %s\nWith: %s\nWhen: %s\nTotal: $%.2f\n", evt.Service, staffName, when, evt.Amount)
	if cfg.Address != "" {
		fmt.Fprintf(&b, "Where: %s\n", cfg.Address)
	}
	if cfg.Phone != "" {
		fmt.Fprintf(&b, "\nQuestions? Call us at %s.\n", cfg.Phone)
	}
	fmt.Fprintf(&b, "\n%s\n", cfg.Name)
	return b.String()
}
