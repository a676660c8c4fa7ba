//go:build unit

package booking_test

import (
	"testing"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		errIs error
	}{
		{name: "generated id", id: booking.NewID()},
		{name: "bare v4 uuid", id: "3f2b8c1e-7d4a-4b6e-9c2f-1a5d8e7b6c4d"},
		{name: "empty", id: "", errIs: booking.ErrBookingIDRequired},
		{name: "not a uuid", id: "booking-123", errIs: booking.ErrInvalidBookingID},
		{name: "nil uuid", id: "00000000-0000-0000-0000-000000000000", errIs: booking.ErrInvalidBookingID},
		{name: "wrong variant", id: "3f2b8c1e-7d4a-4b6e-1c2f-1a5d8e7b6c4d", errIs: booking.ErrInvalidBookingID},
		{name: "braced uuid", id: "{3f2b8c1e-7d4a-4b6e-9c2f-1a5d8e7b6c4d}", errIs: booking.ErrInvalidBookingID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := booking.ValidateID(tc.id)
			if tc.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestNewPending(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		bb := builder.NewBookingBuilder()
		b, err := bb.BuildPending()
		require.NoError(t, err)

		assert.Equal(t, booking.StatePending, b.State())
		assert.Equal(t, bb.SlotID(), b.SlotID())
		assert.Equal(t, bb.ExpiresAt(), b.ExpiresAt())

		key, err := b.SlotKey()
		require.NoError(t, err)
		assert.Equal(t, bb.Key(), key)
	})

	t.Run("user id is required", func(t *testing.T) {
		_, err := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) { bb.UserID = "  " }).BuildPending()
		assert.ErrorIs(t, err, booking.ErrUserIDRequired)
	})

	t.Run("hold lapses strictly after expiresAt", func(t *testing.T) {
		bb := builder.NewBookingBuilder()
		b, err := bb.BuildPending()
		require.NoError(t, err)
		assert.False(t, b.HoldLapsed(bb.ExpiresAt()))
		assert.True(t, b.HoldLapsed(bb.ExpiresAt().Add(time.Millisecond)))
	})
}
