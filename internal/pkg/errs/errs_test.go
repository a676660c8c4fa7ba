//go:build unit

package errs_test

import (
	"fmt"
	"testing"

	"slot-reservation/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestMark(t *testing.T) {
	t.Run("marked error keeps its message", func(t *testing.T) {
		err := errs.Mark(errs.New("Booking cannot be confirmed. Current state: CANCELLED"), errs.ErrBookingConflict)

		assert.True(t, errs.Is(err, errs.ErrBookingConflict))
		assert.False(t, errs.Is(err, errs.ErrBookingNotFound))
		assert.Equal(t, "Booking cannot be confirmed. Current state: CANCELLED", err.Error())
	})

	t.Run("nil error returns the mark itself", func(t *testing.T) {
		assert.Equal(t, errs.ErrInvalidRequest, errs.Mark(nil, errs.ErrInvalidRequest))
	})

	t.Run("slot unavailable carries both marks", func(t *testing.T) {
		err := errs.SlotUnavailable(errs.New("Slot is already booked"), errs.ErrSlotBooked)

		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.True(t, errs.Is(err, errs.ErrSlotBooked))
		assert.False(t, errs.Is(err, errs.ErrSlotHeld))
	})

	t.Run("marks survive wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", errs.Mark(errs.New("down"), errs.ErrServiceUnavailable))
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))
	})
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, errs.ExtractStackLines(nil, 5))

	lines := errs.ExtractStackLines(errs.Wrap(errs.New("root"), "context"), 3)
	assert.LessOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "context")
}
