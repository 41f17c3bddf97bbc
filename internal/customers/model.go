package customers

import (
	"strings"
	"time"
)

// Customer is someone who has booked with the clinic.
type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	BookingCount    int       `json:"booking_count"`
	LastBookingDate string    `json:"last_booking_date,omitempty"` // YYYY-MM-DD
	CreatedAt       time.Time `json:"created_at"`
}

// UpsertRequest creates a customer or refreshes the contact details of the
// customer with the same email.
type UpsertRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Normalize trims fields and lower-cases the email.
func (r *UpsertRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
}

// Validate checks the required fields.
func (r *UpsertRequest) Validate() error {
	if r.Name == "" {
		return ErrInvalidName
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func matches(c *Customer, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(c.Email, q) ||
		strings.Contains(c.Phone, q)
}
