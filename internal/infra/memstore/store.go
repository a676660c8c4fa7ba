// Package memstore is a process-local implementation of the slot and booking stores.
// A single mutex makes every conditional write linearizable, which is all the coordinator relies on.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/infra"
	"slot-reservation/internal/usecase/queries"
	"slot-reservation/internal/usecase/shared"
)

type Store struct {
	mu       sync.RWMutex
	slots    map[slot.Key]*slot.Slot
	bookings map[string]*booking.Booking
}

func New() *Store {
	return &Store{
		slots:    make(map[slot.Key]*slot.Slot),
		bookings: make(map[string]*booking.Booking),
	}
}

var (
	_ shared.SlotStore         = (*Store)(nil)
	_ shared.BookingStore      = (*Store)(nil)
	_ queries.BookingReadStore = (*Store)(nil)
	_ queries.SlotReadStore    = (*Store)(nil)
)

// ------------------------------------------------------------
// Slots
// ------------------------------------------------------------

func (s *Store) FindSlot(ctx context.Context, key slot.Key) (*slot.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("find slot", err, infra.KindUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[key]
	if !ok {
		return nil, infra.WrapRepoErr("slot not found", nil, infra.KindNotFound)
	}
	return sl, nil
}

func (s *Store) PutSlots(_ context.Context, slots []*slot.Slot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, sl := range slots {
		if _, exists := s.slots[sl.Key()]; exists {
			continue
		}
		s.slots[sl.Key()] = sl
		created++
	}
	return created, nil
}

func (s *Store) UpdateSlot(ctx context.Context, key slot.Key, t slot.Transition) (shared.Result, error) {
	if err := ctx.Err(); err != nil {
		return shared.Transient(err), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.slots[key]
	if !ok || !t.Permits(current) {
		return shared.Rejected(false, true), nil
	}
	s.slots[key] = t.Apply(current)
	return shared.Applied(), nil
}

// ------------------------------------------------------------
// Bookings
// ------------------------------------------------------------

func (s *Store) FindBooking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("find booking", err, infra.KindUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return b, nil
}

func (s *Store) InsertPending(ctx context.Context, b *booking.Booking) (shared.Result, error) {
	if err := ctx.Err(); err != nil {
		return shared.Transient(err), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID()]; exists {
		return shared.Rejected(true, false), nil
	}
	s.bookings[b.ID()] = b
	return shared.Applied(), nil
}

func (s *Store) CommitTransition(ctx context.Context, u shared.DualUpdate) (shared.Result, error) {
	if err := ctx.Err(); err != nil {
		return shared.Transient(err), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, bookingFound := s.bookings[u.BookingID]
	sl, slotFound := s.slots[u.SlotKey]

	bookingRejected := !bookingFound || !u.Booking.Permits(b)
	slotRejected := !slotFound || !u.Slot.Permits(sl)
	if bookingRejected || slotRejected {
		return shared.Rejected(bookingRejected, slotRejected), nil
	}

	s.bookings[u.BookingID] = u.Booking.Apply(b)
	s.slots[u.SlotKey] = u.Slot.Apply(sl)
	return shared.Applied(), nil
}

func (s *Store) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]shared.ExpiryMarker, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("list expired bookings", err, infra.KindUnavailable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []shared.ExpiryMarker
	for _, b := range s.bookings {
		if !b.HoldLapsed(now) {
			continue
		}
		key, err := b.SlotKey()
		if err != nil {
			continue
		}
		if sl, ok := s.slots[key]; !ok || !sl.IsHeldBy(b.ID()) {
			continue
		}
		out = append(out, shared.ExpiryMarker{
			BookingID:  b.ID(),
			ProviderID: b.ProviderID(),
			SlotID:     b.SlotID(),
			ExpiresAt:  b.ExpiresAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].BookingID < out[j].BookingID
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
