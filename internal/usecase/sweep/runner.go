package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner calls SweepOnce on a fixed interval until stopped.
type Runner struct {
	sweeper  *Sweeper
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(sweeper *Sweeper, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{sweeper: sweeper, interval: interval, logger: logger}
}

func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.Run(ctx)
	}()
}

// Stop cancels the loop and waits for the in-flight sweep, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("expiry sweep started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry sweep stopped")
			return
		case <-ticker.C:
			n, err := r.sweeper.SweepOnce(ctx)
			if err != nil && ctx.Err() == nil {
				r.logger.Warn("expiry sweep finished with errors", slog.Int("expired", n), slog.Any("error", err))
				continue
			}
			if n > 0 {
				r.logger.Info("expiry sweep finished", slog.Int("expired", n))
			}
		}
	}
}
