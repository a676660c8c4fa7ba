package commands

//go:generate mockgen -source=materialize.go -destination=../../../tests/mock/commands/materialize.go -package=commandsmock

import (
	"context"
	"log/slog"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
)

// ErrMalformedRequest marks a materialize message that can never succeed. Workers drop it instead of retrying.
var ErrMalformedRequest = errs.New("malformed materialize request")

// BookingMaterializer is the worker side of async dispatch: it persists the PENDING booking behind a hold.
type BookingMaterializer interface {
	Materialize(ctx context.Context, req shared.MaterializeRequest) error
}

type materializerImpl struct {
	bookings shared.BookingStore
	expiry   shared.ExpiryScheduler
	events   shared.EventPublisher
	logger   *slog.Logger
}

func NewBookingMaterializer(
	bookings shared.BookingStore,
	expiry shared.ExpiryScheduler,
	events shared.EventPublisher,
	logger *slog.Logger,
) BookingMaterializer {
	return &materializerImpl{bookings: bookings, expiry: expiry, events: events, logger: logger}
}

// Materialize is idempotent on the booking id. A redelivered message re-schedules the expiry marker,
// which the scheduler deduplicates.
func (m *materializerImpl) Materialize(ctx context.Context, req shared.MaterializeRequest) error {
	key, err := slot.ParseKey(req.ProviderID, req.SlotID)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "booking %s", req.BookingID), ErrMalformedRequest)
	}
	b, err := booking.NewPending(req.BookingID, key, req.UserID, req.CreatedAt, req.ExpiresAt)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "booking %s", req.BookingID), ErrMalformedRequest)
	}

	res, err := m.bookings.InsertPending(ctx, b)
	if err != nil {
		return errs.Wrap(err, "insert pending booking")
	}

	switch res.Outcome {
	case shared.OutcomeOK:
		m.logger.Info("booking materialized",
			slog.String("booking_id", b.ID()),
			slog.String("provider_id", b.ProviderID()),
			slog.String("slot_id", b.SlotID()))
		m.publishHeld(ctx, b)
	case shared.OutcomePredicateFailed:
		m.logger.Debug("booking already materialized", slog.String("booking_id", b.ID()))
	case shared.OutcomeTransient:
		return unavailable(res.Cause, "insert pending booking")
	}

	if err := m.expiry.Schedule(ctx, req.Marker()); err != nil {
		return errs.Wrap(err, "schedule expiry marker")
	}
	return nil
}

func (m *materializerImpl) publishHeld(ctx context.Context, b *booking.Booking) {
	ev := shared.BookingEvent{
		Type:       shared.EventBookingHeld,
		BookingID:  b.ID(),
		ProviderID: b.ProviderID(),
		SlotID:     b.SlotID(),
		UserID:     b.UserID(),
		State:      b.State(),
		OccurredAt: b.CreatedAt(),
	}
	if err := m.events.Publish(ctx, ev); err != nil {
		m.logger.Warn("failed to publish booking event", slog.String("booking_id", b.ID()), slog.Any("error", err))
	}
}
