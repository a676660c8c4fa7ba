//go:build unit

package queue

import (
	"errors"
	"testing"
	"time"

	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
	"slot-reservation/internal/usecase/sweep"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilDue(t *testing.T) {
	expiresAt := time.Date(2030, 1, 10, 9, 5, 0, 0, time.UTC)
	task, _, err := NewExpireTask(shared.ExpiryMarker{BookingID: "b1", ProviderID: "p1", SlotID: "2030-01-15#10:00", ExpiresAt: expiresAt})
	require.NoError(t, err)

	d, ok := untilDue(task, expiresAt.Add(-90*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second+dueSlack, d)

	d, ok = untilDue(task, expiresAt)
	assert.True(t, ok)
	assert.Equal(t, dueSlack, d)

	_, ok = untilDue(task, expiresAt.Add(time.Millisecond))
	assert.False(t, ok)

	_, ok = untilDue(asynq.NewTask(TypeExpireBooking, []byte("x")), expiresAt)
	assert.False(t, ok)
}

func TestRetryDelay(t *testing.T) {
	future := time.Now().Add(time.Hour)
	task, _, err := NewExpireTask(shared.ExpiryMarker{BookingID: "b1", ExpiresAt: future})
	require.NoError(t, err)

	d := retryDelay(1, errs.Wrap(sweep.ErrNotDue, "early"), task)
	assert.InDelta(t, time.Hour.Seconds(), d.Seconds(), 5)

	d = retryDelay(1, errors.New("boom"), task)
	assert.Less(t, d, time.Hour)
}

func TestExpireTaskID(t *testing.T) {
	assert.Equal(t, "expire:booking-1", expireTaskID("booking-1"))
}
