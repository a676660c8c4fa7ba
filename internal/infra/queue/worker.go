package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/shared"
	"slot-reservation/internal/usecase/sweep"

	"github.com/hibiken/asynq"
)

// ExpiryHandler is satisfied by *sweep.Sweeper.
type ExpiryHandler interface {
	HandleExpiry(ctx context.Context, m shared.ExpiryMarker) error
}

// Worker consumes materialize requests and expiry markers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewWorker(cfg config.Config, materializer commands.BookingMaterializer, expiry ExpiryHandler, logger *slog.Logger) *Worker {
	server := asynq.NewServer(
		RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				cfg.Queue.Name: 1,
			},
			// An early expiry task is not a failure and must not burn retries.
			IsFailure: func(err error) bool {
				return !errs.Is(err, sweep.ErrNotDue)
			},
			RetryDelayFunc: retryDelay,
			LogLevel:       asynq.WarnLevel,
		},
	)

	return &Worker{
		server: server,
		mux:    NewServeMux(materializer, expiry, logger),
		logger: logger,
	}
}

func NewServeMux(materializer commands.BookingMaterializer, expiry ExpiryHandler, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMaterializeBooking, handleMaterialize(materializer, logger))
	mux.HandleFunc(TypeExpireBooking, handleExpire(expiry, logger))
	return mux
}

func (w *Worker) Start() error {
	w.logger.Info("starting queue worker")
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
	w.logger.Info("queue worker stopped")
}

func handleMaterialize(materializer commands.BookingMaterializer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var req shared.MaterializeRequest
		if err := json.Unmarshal(task.Payload(), &req); err != nil {
			logger.Warn("dropping undecodable materialize task", slog.String("error", err.Error()))
			return errs.Wrap(asynq.SkipRetry, err.Error())
		}

		err := materializer.Materialize(ctx, req)
		if errs.Is(err, commands.ErrMalformedRequest) {
			logger.Warn("dropping malformed materialize task",
				slog.String("booking_id", req.BookingID),
				slog.String("error", err.Error()))
			return errs.Wrap(asynq.SkipRetry, err.Error())
		}
		return err
	}
}

func handleExpire(expiry ExpiryHandler, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		m, err := decodeMarker(task)
		if err != nil {
			logger.Warn("dropping undecodable expiry task", slog.String("error", err.Error()))
			return errs.Wrap(asynq.SkipRetry, err.Error())
		}
		return expiry.HandleExpiry(ctx, m)
	}
}

func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if errs.Is(err, sweep.ErrNotDue) {
		if d, ok := untilDue(task, time.Now()); ok {
			return d
		}
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}
