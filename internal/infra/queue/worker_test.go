//go:build unit

package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"slot-reservation/internal/infra/queue"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/shared"
	"slot-reservation/internal/usecase/sweep"
	"slot-reservation/tests/common/testutil"
	commandsmock "slot-reservation/tests/mock/commands"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type expiryFunc func(ctx context.Context, m shared.ExpiryMarker) error

func (f expiryFunc) HandleExpiry(ctx context.Context, m shared.ExpiryMarker) error { return f(ctx, m) }

var request = shared.MaterializeRequest{
	BookingID:  "booking-3f2b8c1e-7d4a-4b6e-9c2f-1a5d8e7b6c4d",
	ProviderID: "provider-1",
	SlotID:     "2030-01-15#10:00",
	UserID:     "user-1",
	CreatedAt:  time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC),
	ExpiresAt:  time.Date(2030, 1, 10, 9, 5, 0, 0, time.UTC),
}

func TestMaterializeHandler(t *testing.T) {
	ctx := context.Background()
	noExpiry := expiryFunc(func(context.Context, shared.ExpiryMarker) error { return nil })

	t.Run("decodes and materializes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := commandsmock.NewMockBookingMaterializer(ctrl)
		m.EXPECT().Materialize(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req shared.MaterializeRequest) error {
				assert.Equal(t, request.BookingID, req.BookingID)
				assert.True(t, request.ExpiresAt.Equal(req.ExpiresAt))
				return nil
			})

		task, err := queue.NewMaterializeTask(request)
		require.NoError(t, err)
		assert.NoError(t, queue.NewServeMux(m, noExpiry, testutil.DiscardLogger()).ProcessTask(ctx, task))
	})

	t.Run("malformed request skips retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := commandsmock.NewMockBookingMaterializer(ctrl)
		m.EXPECT().Materialize(gomock.Any(), gomock.Any()).
			Return(errs.Mark(errs.New("invalid slotId"), commands.ErrMalformedRequest))

		task, err := queue.NewMaterializeTask(request)
		require.NoError(t, err)
		err = queue.NewServeMux(m, noExpiry, testutil.DiscardLogger()).ProcessTask(ctx, task)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("undecodable payload skips retry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := commandsmock.NewMockBookingMaterializer(ctrl)

		task := asynq.NewTask(queue.TypeMaterializeBooking, []byte("{"))
		err := queue.NewServeMux(m, noExpiry, testutil.DiscardLogger()).ProcessTask(ctx, task)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := commandsmock.NewMockBookingMaterializer(ctrl)
		m.EXPECT().Materialize(gomock.Any(), gomock.Any()).
			Return(errs.Mark(errs.New("timeout"), errs.ErrServiceUnavailable))

		task, err := queue.NewMaterializeTask(request)
		require.NoError(t, err)
		err = queue.NewServeMux(m, noExpiry, testutil.DiscardLogger()).ProcessTask(ctx, task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestExpireHandler(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	m := commandsmock.NewMockBookingMaterializer(ctrl)

	t.Run("delivers the marker", func(t *testing.T) {
		var got shared.ExpiryMarker
		handler := expiryFunc(func(_ context.Context, mk shared.ExpiryMarker) error {
			got = mk
			return nil
		})

		task, opts, err := queue.NewExpireTask(request.Marker())
		require.NoError(t, err)
		assert.Len(t, opts, 2)
		require.NoError(t, queue.NewServeMux(m, handler, testutil.DiscardLogger()).ProcessTask(ctx, task))
		assert.Equal(t, request.Marker().BookingID, got.BookingID)
		assert.True(t, request.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("not due is passed through for a delayed retry", func(t *testing.T) {
		handler := expiryFunc(func(context.Context, shared.ExpiryMarker) error {
			return errs.Wrap(sweep.ErrNotDue, "early")
		})
		payload, err := json.Marshal(request.Marker())
		require.NoError(t, err)

		err = queue.NewServeMux(m, handler, testutil.DiscardLogger()).ProcessTask(ctx, asynq.NewTask(queue.TypeExpireBooking, payload))
		assert.True(t, errs.Is(err, sweep.ErrNotDue))
	})
}
