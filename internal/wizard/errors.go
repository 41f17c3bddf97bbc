package wizard

import "errors"

var (
	// ErrStepLocked is returned when a step's prerequisites are not met.
	ErrStepLocked = errors.New("wizard: step locked")
	// ErrExceedsWorkingHours is returned when a cart change would push the
	// selected appointment past closing time.
	ErrExceedsWorkingHours = errors.New("wizard: cannot add service, appointment would run past closing")
	// ErrInvalidItem is returned for order items without an id, duration or quantity.
	ErrInvalidItem = errors.New("wizard: invalid order item")
	// ErrUnknownService is returned when the cart has no item with the given id.
	ErrUnknownService = errors.New("wizard: service not in cart")
	// ErrDateUnavailable is returned when selecting a date that has no open slots.
	ErrDateUnavailable = errors.New("wizard: date not available")
	// ErrSlotUnavailable is returned when selecting a time that does not fit.
	ErrSlotUnavailable = errors.New("wizard: time slot not available")
	// ErrMissingContact is returned when submitting without a name and email.
	ErrMissingContact = errors.New("wizard: customer name and email required")
	// ErrUnknownAction is returned for actions the reducer does not handle.
	ErrUnknownAction = errors.New("wizard: unknown action")
)
