//go:build unit || e2e

package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"slot-reservation/internal/usecase/shared"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Materializer is the subset of commands.BookingMaterializer the sync dispatcher needs.
type Materializer interface {
	Materialize(ctx context.Context, req shared.MaterializeRequest) error
}

// SyncDispatcher materializes on the caller's goroutine so tests observe the booking right after Create.
type SyncDispatcher struct {
	Target Materializer
	Err    error
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, req shared.MaterializeRequest) error {
	if d.Err != nil {
		return d.Err
	}
	if d.Target == nil {
		return nil
	}
	return d.Target.Materialize(ctx, req)
}

type RecordingScheduler struct {
	mu        sync.Mutex
	Scheduled []shared.ExpiryMarker
	Cleared   []string
}

func (s *RecordingScheduler) Schedule(_ context.Context, m shared.ExpiryMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scheduled = append(s.Scheduled, m)
	return nil
}

func (s *RecordingScheduler) Clear(_ context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cleared = append(s.Cleared, bookingID)
	return nil
}

type RecordingPublisher struct {
	mu     sync.Mutex
	Events []shared.BookingEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, ev shared.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return nil
}

func (p *RecordingPublisher) Types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.Events))
	for _, ev := range p.Events {
		out = append(out, ev.Type)
	}
	return out
}
