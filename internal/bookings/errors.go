package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking matches the id.
	ErrBookingNotFound = errors.New("bookings: booking not found")
	// ErrSlotUnavailable is returned when the requested time conflicts with
	// another booking or falls outside working hours.
	ErrSlotUnavailable = errors.New("bookings: slot unavailable")
	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("bookings: invalid status")
)

// ParseStatus validates a booking status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// ParsePaymentStatus validates a payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	p := PaymentStatus(s)
	if !p.Valid() {
		return "", ErrInvalidStatus
	}
	return p, nil
}
