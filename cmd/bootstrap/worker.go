package bootstrap

import (
	"context"
	"log/slog"

	"slot-reservation/internal/infra/queue"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/sweep"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Invoke(
		startQueueWorker,
		startSweepRunner,
	),
)

func startQueueWorker(lc fx.Lifecycle, cfg config.Config, materializer commands.BookingMaterializer, sweeper *sweep.Sweeper, logger *slog.Logger) {
	if !cfg.Queue.Enabled {
		return
	}
	worker := queue.NewWorker(cfg, materializer, sweeper, logger)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return worker.Start()
		},
		OnStop: func(_ context.Context) error {
			worker.Shutdown()
			return nil
		},
	})
}

func startSweepRunner(lc fx.Lifecycle, cfg config.Config, sweeper *sweep.Sweeper, logger *slog.Logger) {
	if !cfg.PullEnabled() {
		return
	}
	runner := sweep.NewRunner(sweeper, cfg.Sweep.Interval, logger)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("expiry sweep started", slog.Duration("interval", cfg.Sweep.Interval))
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return runner.Stop(ctx)
		},
	})
}
