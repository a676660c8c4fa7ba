// Package sweep reclaims slots whose PENDING booking was never confirmed.
// Markers arrive either pushed by the queue once their deadline passes or pulled by a periodic scan;
// both end in the same atomic dual update, so a redelivered or stale marker is a no-op.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/pkg/clock"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
)

// Upper bound on pages drained by one SweepOnce call.
const maxPagesPerSweep = 10

var ErrNotDue = errs.New("expiry marker delivered before its deadline")

type Sweeper struct {
	bookings  shared.BookingStore
	events    shared.EventPublisher
	clock     clock.Clock
	batchSize int
	logger    *slog.Logger
}

func NewSweeper(bookings shared.BookingStore, events shared.EventPublisher, clk clock.Clock, cfg config.Config, logger *slog.Logger) *Sweeper {
	batch := cfg.Sweep.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{
		bookings:  bookings,
		events:    events,
		clock:     clk,
		batchSize: batch,
		logger:    logger,
	}
}

// HandleExpiry expires the booking named by m and releases its slot. A rejected predicate means
// the booking was confirmed, cancelled or already expired, or the slot changed hands; all are success.
func (s *Sweeper) HandleExpiry(ctx context.Context, m shared.ExpiryMarker) error {
	_, err := s.handle(ctx, m)
	return err
}

func (s *Sweeper) handle(ctx context.Context, m shared.ExpiryMarker) (bool, error) {
	log := s.logger.With(
		slog.String("booking_id", m.BookingID),
		slog.String("provider_id", m.ProviderID),
		slog.String("slot_id", m.SlotID))

	key, err := slot.ParseKey(m.ProviderID, m.SlotID)
	if err != nil {
		log.Warn("dropping malformed expiry marker", slog.Any("error", err))
		return false, nil
	}

	now := s.clock.Now()
	// Same boundary as slot holds: a hold ending exactly now is still live.
	if !now.After(m.ExpiresAt) {
		return false, errs.Wrapf(ErrNotDue, "booking %s expires at %s", m.BookingID, m.ExpiresAt)
	}

	res, err := s.bookings.CommitTransition(ctx, shared.DualUpdate{
		BookingID: m.BookingID,
		Booking:   booking.Expire(now),
		SlotKey:   key,
		Slot:      slot.Release(m.BookingID),
	})
	if err != nil {
		return false, errs.Wrap(err, "commit expire")
	}

	switch res.Outcome {
	case shared.OutcomeOK:
		log.Info("booking expired, slot released")
		s.publish(ctx, m, now)
		return true, nil
	case shared.OutcomePredicateFailed:
		log.Info("expiry already handled",
			slog.Bool("booking_rejected", res.BookingRejected),
			slog.Bool("slot_rejected", res.SlotRejected))
		return false, nil
	default:
		return false, errs.Mark(errs.Wrap(res.Cause, "commit expire"), errs.ErrServiceUnavailable)
	}
}

// SweepOnce scans for lapsed PENDING bookings and expires them. It returns how many were expired.
// Per-marker failures are logged and the first one is returned after the scan finishes.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired := 0
	var firstErr error

	for range maxPagesPerSweep {
		markers, err := s.bookings.ListExpiredPending(ctx, s.clock.Now(), s.batchSize)
		if err != nil {
			return expired, errs.Wrap(err, "list expired bookings")
		}

		progressed := 0
		for _, m := range markers {
			ok, herr := s.handle(ctx, m)
			if herr != nil {
				s.logger.Warn("expiry failed", slog.String("booking_id", m.BookingID), slog.Any("error", herr))
				if firstErr == nil {
					firstErr = herr
				}
				continue
			}
			if ok {
				progressed++
			}
		}
		expired += progressed

		if len(markers) < s.batchSize || progressed == 0 {
			break
		}
	}
	return expired, firstErr
}

func (s *Sweeper) publish(ctx context.Context, m shared.ExpiryMarker, at time.Time) {
	ev := shared.BookingEvent{
		Type:       shared.EventBookingExpired,
		BookingID:  m.BookingID,
		ProviderID: m.ProviderID,
		SlotID:     m.SlotID,
		State:      booking.StateExpired,
		OccurredAt: at,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish booking event", slog.String("booking_id", m.BookingID), slog.Any("error", err))
	}
}
