package queue

import (
	"context"
	"log/slog"

	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"

	"github.com/hibiken/asynq"
)

var (
	_ shared.BookingDispatcher = (*Client)(nil)
	_ shared.ExpiryScheduler   = (*Client)(nil)
)

// Client enqueues materialize requests and expiry markers into Redis.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	maxRetry  int
	logger    *slog.Logger
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	opt := RedisOpt(cfg.Redis)
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     cfg.Queue.Name,
		maxRetry:  cfg.Queue.MaxRetry,
		logger:    logger,
	}
}

func (c *Client) Dispatch(ctx context.Context, req shared.MaterializeRequest) error {
	task, err := NewMaterializeTask(req)
	if err != nil {
		return errs.Wrap(err, "failed to encode materialize request")
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(c.maxRetry))
	if err != nil {
		return errs.Wrapf(err, "failed to enqueue booking %s", req.BookingID)
	}
	c.logger.Debug("materialize request enqueued",
		slog.String("booking_id", req.BookingID),
		slog.String("task_id", info.ID))
	return nil
}

func (c *Client) Schedule(ctx context.Context, m shared.ExpiryMarker) error {
	task, opts, err := NewExpireTask(m)
	if err != nil {
		return errs.Wrap(err, "failed to encode expiry marker")
	}
	opts = append(opts, asynq.Queue(c.queue), asynq.MaxRetry(c.maxRetry))

	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		// Already scheduled by an earlier delivery.
		if errs.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return errs.Wrapf(err, "failed to schedule expiry for booking %s", m.BookingID)
	}
	return nil
}

func (c *Client) Clear(_ context.Context, bookingID string) error {
	err := c.inspector.DeleteTask(c.queue, expireTaskID(bookingID))
	if err == nil || errs.Is(err, asynq.ErrTaskNotFound) || errs.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return errs.Wrapf(err, "failed to clear expiry for booking %s", bookingID)
}

func (c *Client) Close() error {
	var closeErr error
	if err := c.client.Close(); err != nil {
		closeErr = err
	}
	if err := c.inspector.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}
