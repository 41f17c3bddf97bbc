// Package bookings owns clinic appointments: persistence, the slot conflict
// guard, the admin CRUD endpoints and the month calendar view.
package bookings

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks the payment of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known booking status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Booking is one appointment with a team member.
type Booking struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customer_id,omitempty"`
	CustomerName    string        `json:"customer_name"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	Service         string        `json:"service"`
	TeamMemberID    string        `json:"team_member_id"`
	Date            string        `json:"date"` // YYYY-MM-DD
	Time            string        `json:"time"` // HH:MM
	DurationMinutes int           `json:"duration_minutes"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Amount          float64       `json:"amount"`
	Address         string        `json:"address,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Active reports whether the booking still occupies its slot.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}

// Appointment projects the booking onto the availability model.
func (b Booking) Appointment() availability.Appointment {
	return availability.Appointment{Date: b.Date, Time: b.Time, DurationMinutes: b.DurationMinutes}
}

// Request is the body of POST and PUT /api/bookings.
type Request struct {
	CustomerName    string        `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string        `json:"customer_email" validate:"required,email"`
	CustomerPhone   string        `json:"customer_phone" validate:"omitempty,max=40"`
	Service         string        `json:"service" validate:"required,max=500"`
	TeamMemberID    string        `json:"team_member_id" validate:"required"`
	Date            string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string        `json:"time" validate:"required,clock"`
	DurationMinutes int           `json:"duration_minutes" validate:"gt=0,lte=720"`
	Status          Status        `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	PaymentStatus   PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending paid refunded"`
	Amount          float64       `json:"amount" validate:"gte=0"`
	Address         string        `json:"address" validate:"omitempty,max=500"`
	Notes           string        `json:"notes" validate:"omitempty,max=2000"`
}

// PatchRequest is the body of PATCH /api/bookings/{id}. Nil fields are left untouched.
type PatchRequest struct {
	Status        *Status        `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	PaymentStatus *PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending paid refunded"`
	Notes         *string        `json:"notes" validate:"omitempty,max=2000"`
	Address       *string        `json:"address" validate:"omitempty,max=500"`
}

// Empty reports whether the patch changes nothing.
func (p PatchRequest) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.Notes == nil && p.Address == nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Date          string
	StartDate     string
	EndDate       string
	TeamMemberID  string
}

func (f Filter) matches(b *Booking) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.Date != "" && b.Date != f.Date {
		return false
	}
	if f.StartDate != "" && b.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && b.Date > f.EndDate {
		return false
	}
	if f.TeamMemberID != "" && b.TeamMemberID != f.TeamMemberID {
		return false
	}
	return true
}

var validate = availability.NewValidator()

func (r *Request) normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.ToLower(strings.TrimSpace(r.CustomerEmail))
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.Service = strings.TrimSpace(r.Service)
	r.TeamMemberID = strings.TrimSpace(r.TeamMemberID)
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
}

// Validate normalizes and checks the request.
func (r *Request) Validate() error {
	r.normalize()
	if err := validate.Struct(r); err != nil {
		return &ValidationError{err: err}
	}
	return nil
}

// Validate checks the patch fields.
func (p *PatchRequest) Validate() error {
	if p.Empty() {
		return &ValidationError{err: errors.New("no fields to update")}
	}
	if err := validate.Struct(p); err != nil {
		return &ValidationError{err: err}
	}
	return nil
}

func (r Request) apply(b *Booking) {
	b.CustomerName = r.CustomerName
	b.CustomerEmail = r.CustomerEmail
	b.CustomerPhone = r.CustomerPhone
	b.Service = r.Service
	b.TeamMemberID = r.TeamMemberID
	b.Date = r.Date
	b.Time = r.Time
	b.DurationMinutes = r.DurationMinutes
	b.Status = r.Status
	b.PaymentStatus = r.PaymentStatus
	b.Amount = r.Amount
	b.Address = r.Address
	b.Notes = r.Notes
}

func (p PatchRequest) apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Address != nil {
		b.Address = *p.Address
	}
}

// ValidationError wraps request validation failures.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
		}
		return "bookings: invalid fields: " + strings.Join(fields, ", ")
	}
	return "bookings: " + e.err.Error()
}

func (e *ValidationError) Unwrap() error { return e.err }
