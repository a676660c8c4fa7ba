package errs

import "errors"

// Sentinel errors shared by the usecase and handler layers.
// The message of a marked error is what callers show to users.
var (
	// Slot errors
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotHeld        = errors.New("slot held")
	ErrSlotBooked      = errors.New("slot booked")

	// Booking errors
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingConflict = errors.New("booking conflict")

	// Store overload, throttling or timeouts. Safe to retry with backoff.
	ErrServiceUnavailable = errors.New("service unavailable")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
)

// SlotUnavailable marks err as ErrSlotUnavailable and the given reason (ErrSlotNotFound, ErrSlotHeld, ErrSlotBooked).
func SlotUnavailable(err, reason error) error {
	return Mark(Mark(err, reason), ErrSlotUnavailable)
}
