package bootstrap

import (
	"context"
	"log/slog"

	"slot-reservation/internal/infra/queue"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

var QueueModule = fx.Module("queue",
	fx.Provide(
		NewQueueClient,
		NewRedisPinger,
		NewDispatcher,
		NewExpiryScheduler,
	),
)

// NewQueueClient returns nil when the queue is disabled.
func NewQueueClient(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *queue.Client {
	if !cfg.Queue.Enabled {
		logger.Info("queue disabled, materializing bookings inline")
		return nil
	}
	client := queue.NewClient(cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client
}

func NewRedisPinger(lc fx.Lifecycle, cfg config.Config) *queue.Pinger {
	if !cfg.Queue.Enabled {
		return nil
	}
	rdb := queue.NewRedisClient(cfg.Redis)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return queue.NewPinger(rdb)
}

func NewDispatcher(client *queue.Client, materializer commands.BookingMaterializer, logger *slog.Logger) shared.BookingDispatcher {
	if client == nil {
		return queue.NewInlineDispatcher(materializer, logger)
	}
	return client
}

func NewExpiryScheduler(cfg config.Config, client *queue.Client) shared.ExpiryScheduler {
	if client == nil || !cfg.PushEnabled() {
		return queue.NoopScheduler{}
	}
	return client
}
