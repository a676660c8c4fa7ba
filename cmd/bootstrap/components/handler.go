package components

import (
	"context"
	"time"

	"slot-reservation/internal/handler"
	"slot-reservation/internal/handler/api"
	"slot-reservation/internal/handler/middleware"
	"slot-reservation/internal/infra/queue"
	"slot-reservation/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewSlotHandler,
		NewHealthHandler,
		NewRateLimiter,
		func(b *api.BookingHandler, s *api.SlotHandler, h *handler.HealthHandler) handler.Handlers {
			return handler.Handlers{Booking: b, Slot: s, Health: h}
		},
	),
	fx.Invoke(
		middleware.RegisterValidators,
		handler.NewRouter,
	),
)

func NewHealthHandler(pool *pgxpool.Pool, redis *queue.Pinger) *handler.HealthHandler {
	deps := map[string]handler.Pinger{"postgres": pool}
	if redis != nil {
		deps["redis"] = redis
	}
	return handler.NewHealthHandler(deps)
}

func NewRateLimiter(lc fx.Lifecycle, cfg config.Config) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						limiter.Cleanup()
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			close(stop)
			return nil
		},
	})
	return limiter
}
