package customers

import "errors"

var (
	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("customers: name is required")

	// ErrInvalidEmail is returned when the email is missing or malformed
	ErrInvalidEmail = errors.New("customers: valid email is required")

	// ErrCustomerNotFound is returned when a customer is not found
	ErrCustomerNotFound = errors.New("customers: customer not found")
)
