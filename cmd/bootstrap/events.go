package bootstrap

import (
	"context"
	"log/slog"

	"slot-reservation/internal/infra/events"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewEventPublisher,
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no kafka brokers configured, booking events go to the log")
		return events.NewLogPublisher(logger), nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.Kafka, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}
