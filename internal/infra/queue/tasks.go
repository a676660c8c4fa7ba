package queue

import (
	"encoding/json"
	"time"

	"slot-reservation/internal/usecase/shared"

	"github.com/hibiken/asynq"
)

const (
	TypeMaterializeBooking = "booking:materialize"
	TypeExpireBooking      = "booking:expire"
)

func NewMaterializeTask(req shared.MaterializeRequest) (*asynq.Task, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMaterializeBooking, b), nil
}

// NewExpireTask returns a task that becomes visible at the marker's deadline. Its id is derived
// from the booking so a second Schedule for the same booking collapses onto the first.
func NewExpireTask(m shared.ExpiryMarker) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.ProcessAt(m.ExpiresAt),
		asynq.TaskID(expireTaskID(m.BookingID)),
	}
	return asynq.NewTask(TypeExpireBooking, b), opts, nil
}

func expireTaskID(bookingID string) string {
	return "expire:" + bookingID
}

func decodeMarker(t *asynq.Task) (shared.ExpiryMarker, error) {
	var m shared.ExpiryMarker
	err := json.Unmarshal(t.Payload(), &m)
	return m, err
}

// dueSlack pushes a retried expiry task just past the deadline, which is itself still live.
const dueSlack = time.Second

// untilDue is how long an early expiry task should wait before its next attempt.
func untilDue(t *asynq.Task, now time.Time) (time.Duration, bool) {
	m, err := decodeMarker(t)
	if err != nil || now.After(m.ExpiresAt) {
		return 0, false
	}
	return m.ExpiresAt.Sub(now) + dueSlack, true
}
