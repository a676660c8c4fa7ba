package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

var ErrPublisherClosed = errs.New("publisher is closed")

var _ shared.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes booking events keyed by booking id, so one booking's events stay ordered
// within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errs.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errs.New("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error("kafka writer error", slog.Any("detail", append([]any{msg}, args...)))
		}),
	}

	return &KafkaPublisher{writer: writer, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev shared.BookingEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := toMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrapf(err, "failed to publish %s for booking %s", ev.Type, ev.BookingID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func toMessage(ev shared.BookingEvent) (kafka.Message, error) {
	if ev.BookingID == "" {
		return kafka.Message{}, errs.New("event key cannot be empty")
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errs.Wrap(err, "failed to encode booking event")
	}
	return kafka.Message{
		Key:   []byte(ev.BookingID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}
