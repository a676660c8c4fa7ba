package events

import (
	"context"
	"log/slog"

	"slot-reservation/internal/usecase/shared"
)

var _ shared.EventPublisher = (*LogPublisher)(nil)

// LogPublisher records events in the application log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev shared.BookingEvent) error {
	p.logger.Info("booking event",
		slog.String("type", string(ev.Type)),
		slog.String("booking_id", ev.BookingID),
		slog.String("provider_id", ev.ProviderID),
		slog.String("slot_id", ev.SlotID),
		slog.String("state", string(ev.State)),
		slog.Time("occurred_at", ev.OccurredAt))
	return nil
}
