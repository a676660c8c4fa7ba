package queue

import (
	"context"
	"log/slog"

	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/shared"
)

var (
	_ shared.BookingDispatcher = (*InlineDispatcher)(nil)
	_ shared.ExpiryScheduler   = NoopScheduler{}
)

// InlineDispatcher materializes in a goroutine of this process. Used when no queue is configured.
type InlineDispatcher struct {
	materializer commands.BookingMaterializer
	logger       *slog.Logger
}

func NewInlineDispatcher(materializer commands.BookingMaterializer, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{materializer: materializer, logger: logger}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, req shared.MaterializeRequest) error {
	// The request context ends with the HTTP response.
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := d.materializer.Materialize(bg, req); err != nil {
			d.logger.Error("inline materialize failed",
				slog.String("booking_id", req.BookingID),
				slog.String("error", err.Error()))
		}
	}()
	return nil
}

// NoopScheduler is used when expiry relies on the periodic scan alone.
type NoopScheduler struct{}

func (NoopScheduler) Schedule(context.Context, shared.ExpiryMarker) error { return nil }
func (NoopScheduler) Clear(context.Context, string) error                 { return nil }
