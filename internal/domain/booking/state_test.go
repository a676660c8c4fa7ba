//go:build unit

package booking_test

import (
	"testing"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	type want struct {
		to booking.State
		ok bool
	}
	cases := map[booking.State]map[booking.Event]want{
		booking.StatePending: {
			booking.EventConfirm: {booking.StateConfirmed, true},
			booking.EventCancel:  {booking.StateCancelled, true},
			booking.EventExpire:  {booking.StateExpired, true},
		},
		booking.StateConfirmed: {
			booking.EventConfirm: {booking.StateConfirmed, false},
			booking.EventCancel:  {booking.StateCancelled, true},
			booking.EventExpire:  {booking.StateConfirmed, false},
		},
		booking.StateCancelled: {
			booking.EventConfirm: {booking.StateCancelled, false},
			booking.EventCancel:  {booking.StateCancelled, false},
			booking.EventExpire:  {booking.StateCancelled, false},
		},
		booking.StateExpired: {
			booking.EventConfirm: {booking.StateExpired, false},
			booking.EventCancel:  {booking.StateExpired, false},
			booking.EventExpire:  {booking.StateExpired, false},
		},
	}

	for from, events := range cases {
		for ev, w := range events {
			t.Run(string(from)+"/"+string(ev), func(t *testing.T) {
				to, ok := booking.Next(from, ev)
				assert.Equal(t, w.ok, ok)
				assert.Equal(t, w.to, to)
			})
		}
	}
}

func TestSources(t *testing.T) {
	cases := []struct {
		event booking.Event
		want  []booking.State
	}{
		{booking.EventConfirm, []booking.State{booking.StatePending}},
		{booking.EventCancel, []booking.State{booking.StatePending, booking.StateConfirmed}},
		{booking.EventExpire, []booking.State{booking.StatePending}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, booking.Sources(tc.event)); diff != "" {
			t.Errorf("Sources(%s) mismatch (-want +got):\n%s", tc.event, diff)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, booking.StatePending.IsTerminal())
	assert.False(t, booking.StateConfirmed.IsTerminal())
	assert.True(t, booking.StateCancelled.IsTerminal())
	assert.True(t, booking.StateExpired.IsTerminal())
}

func TestTransitionApply(t *testing.T) {
	now := time.Date(2030, 1, 10, 9, 1, 0, 0, time.UTC)

	t.Run("confirm stamps confirmedAt", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().BuildPending()
		require.NoError(t, err)

		tr := booking.Confirm(now)
		require.True(t, tr.Permits(b))
		next := tr.Apply(b)
		assert.Equal(t, booking.StateConfirmed, next.State())
		require.NotNil(t, next.ConfirmedAt())
		assert.Equal(t, now, *next.ConfirmedAt())
		assert.Equal(t, booking.StatePending, b.State(), "Apply must not mutate its input")
	})

	t.Run("cancel of a confirmed booking stamps cancelledAt", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) {
			bb.State = booking.StateConfirmed
		}).BuildDomain()
		require.NoError(t, err)

		next := booking.Cancel(now).Apply(b)
		assert.Equal(t, booking.StateCancelled, next.State())
		require.NotNil(t, next.CancelledAt())
	})

	t.Run("expire leaves timestamps alone", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().BuildPending()
		require.NoError(t, err)

		next := booking.Expire(now).Apply(b)
		assert.Equal(t, booking.StateExpired, next.State())
		assert.Nil(t, next.ConfirmedAt())
		assert.Nil(t, next.CancelledAt())
	})

	t.Run("expire never overrides confirmed", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) {
			bb.State = booking.StateConfirmed
		}).BuildDomain()
		require.NoError(t, err)
		assert.False(t, booking.Expire(now).Permits(b))
	})
}
