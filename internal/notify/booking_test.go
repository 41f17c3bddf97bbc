package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/wolfman30/aesthetics-booking/internal/clinic"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[msg.To] {
		return errors.New("smtp down")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newClinicStore(t *testing.T, mutate func(*clinic.Config)) *clinic.MemoryStore {
	t.Helper()
	store := clinic.NewMemoryStore()
	cfg := clinic.DefaultConfig("glow")
	cfg.Email = "front-desk@glow.test"
	cfg.Notifications.EmailEnabled = true
	cfg.Notifications.EmailRecipients = []string{"owner@glow.test"}
	if mutate != nil {
		mutate(cfg)
	}
	if err := store.Set(context.Background(), cfg); err != nil {
		t.Fatalf("seed clinic: %v", err)
	}
	return store
}

func sampleEvent() BookingEvent {
	return BookingEvent{
		Kind:          KindBookingCreated,
		BookingID:     "bk-1",
		CustomerName:  "Ana Diaz",
		CustomerEmail: "ana@example.com",
		Service:       "Botox",
		TeamMemberID:  "tm-1",
		Date:          "2026-10-20",
		Time:          "10:00",
		Status:        "pending",
		PaymentStatus: "pending",
		Amount:        300,
	}
}

func TestNotifyBooking_CreatedEmailsCustomerAndStaff(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, newClinicStore(t, nil), "glow", nil)

	if err := svc.NotifyBooking(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	customer := sender.sent[0]
	if customer.To != "ana@example.com" || customer.ReplyTo != "front-desk@glow.test" {
		t.Fatalf("unexpected customer email %+v", customer)
	}
	if !strings.Contains(customer.Body, "Dr. Maya Chen") || !strings.Contains(customer.Body, "2026-10-20 at 10:00") {
		t.Fatalf("expected staff name and time in body, got %q", customer.Body)
	}
	if sender.sent[1].To != "owner@glow.test" {
		t.Fatalf("expected staff copy, got %+v", sender.sent[1])
	}
}

func TestNotifyBooking_RespectsPreferences(t *testing.T) {
	sender := &recordingSender{}
	store := newClinicStore(t, func(c *clinic.Config) { c.Notifications.EmailEnabled = false })
	svc := NewService(sender, store, "glow", nil)
	if err := svc.NotifyBooking(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails when disabled, got %d", len(sender.sent))
	}

	store = newClinicStore(t, func(c *clinic.Config) { c.Notifications.NotifyOnStatusChange = false })
	svc = NewService(sender, store, "glow", nil)
	evt := sampleEvent()
	evt.Kind = KindBookingStatusChanged
	evt.PreviousStatus = "pending"
	evt.Status = "confirmed"
	if err := svc.NotifyBooking(context.Background(), evt); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no status emails, got %d", len(sender.sent))
	}
}

func TestNotifyBooking_StatusChange(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, newClinicStore(t, nil), "glow", nil)

	evt := sampleEvent()
	evt.Kind = KindBookingStatusChanged
	evt.PreviousStatus = "pending"
	evt.Status = "confirmed"
	if err := svc.NotifyBooking(context.Background(), evt); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 || !strings.Contains(sender.sent[0].Subject, "confirmed") {
		t.Fatalf("unexpected emails %+v", sender.sent)
	}

	// Unchanged status sends nothing
	sender.sent = nil
	evt.PreviousStatus = "confirmed"
	if err := svc.NotifyBooking(context.Background(), evt); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails for unchanged status")
	}
}

func TestNotifyBooking_ReportsFailures(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"owner@glow.test": true}}
	svc := NewService(sender, newClinicStore(t, nil), "glow", nil)

	err := svc.NotifyBooking(context.Background(), sampleEvent())
	if err == nil {
		t.Fatal("expected error when a recipient fails")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected customer email still sent, got %d", len(sender.sent))
	}
}

func TestNotifyBooking_NilService(t *testing.T) {
	var svc *Service
	if err := svc.NotifyBooking(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("nil service should be a no-op, got %v", err)
	}
}
