package memstore

import (
	"context"
	"sort"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/infra"
	"slot-reservation/internal/usecase/queries"
)

func (s *Store) FindByID(ctx context.Context, bookingID string) (*queries.BookingView, error) {
	b, err := s.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return toView(b), nil
}

func (s *Store) ListByUser(ctx context.Context, userID string, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	return s.listWhere(ctx, func(b *booking.Booking) bool { return b.UserID() == userID }, after, limit)
}

func (s *Store) ListByProvider(ctx context.Context, providerID string, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	return s.listWhere(ctx, func(b *booking.Booking) bool { return b.ProviderID() == providerID }, after, limit)
}

func (s *Store) ListByDate(ctx context.Context, providerID, date string) ([]*queries.SlotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("list slots", err, infra.KindUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*queries.SlotRecord
	for key, sl := range s.slots {
		if key.ProviderID != providerID || key.Date != date {
			continue
		}
		out = append(out, &queries.SlotRecord{
			ProviderID:    key.ProviderID,
			Date:          key.Date,
			Time:          key.Time,
			Status:        string(sl.Status()),
			HoldExpiresAt: sl.HoldExpiresAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (s *Store) listWhere(ctx context.Context, match func(*booking.Booking) bool, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("list bookings", err, infra.KindUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*queries.BookingView
	for _, b := range s.bookings {
		if !match(b) || !pastKeyset(b, after) {
			continue
		}
		out = append(out, toView(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BookingID > out[j].BookingID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

// pastKeyset reports whether b sorts strictly after the keyset in newest-first order.
func pastKeyset(b *booking.Booking, after *queries.Keyset) bool {
	if after == nil {
		return true
	}
	created := b.CreatedAt().Truncate(time.Microsecond)
	if created.Equal(after.CreatedAt) {
		return b.ID() < after.BookingID
	}
	return created.Before(after.CreatedAt)
}

func toView(b *booking.Booking) *queries.BookingView {
	return &queries.BookingView{
		BookingID:   b.ID(),
		ProviderID:  b.ProviderID(),
		SlotID:      b.SlotID(),
		UserID:      b.UserID(),
		State:       string(b.State()),
		CreatedAt:   b.CreatedAt(),
		ExpiresAt:   b.ExpiresAt(),
		ConfirmedAt: b.ConfirmedAt(),
		CancelledAt: b.CancelledAt(),
	}
}
