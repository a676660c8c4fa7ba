package shared

import (
	"context"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
)

// DualUpdate moves a booking and its slot together. Both predicates are evaluated; either
// failing means neither side is written.
type DualUpdate struct {
	BookingID string
	Booking   booking.Transition
	SlotKey   slot.Key
	Slot      slot.Transition
}

type SlotStore interface {
	FindSlot(ctx context.Context, key slot.Key) (*slot.Slot, error)
	// PutSlots inserts slots that do not exist yet and returns how many were created.
	PutSlots(ctx context.Context, slots []*slot.Slot) (int, error)
	UpdateSlot(ctx context.Context, key slot.Key, t slot.Transition) (Result, error)
}

type BookingStore interface {
	FindBooking(ctx context.Context, bookingID string) (*booking.Booking, error)
	// InsertPending is put-if-absent on the booking id; an existing id is OutcomePredicateFailed.
	InsertPending(ctx context.Context, b *booking.Booking) (Result, error)
	CommitTransition(ctx context.Context, u DualUpdate) (Result, error)
	// ListExpiredPending returns PENDING bookings with expiresAt before now whose slot they still hold.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]ExpiryMarker, error)
}

// ExpiryMarker is the value carried by an expiry notification.
type ExpiryMarker struct {
	BookingID  string    `json:"bookingId"`
	ProviderID string    `json:"providerId"`
	SlotID     string    `json:"slotId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// MaterializeRequest is the async message that turns a successful hold into a PENDING booking.
type MaterializeRequest struct {
	BookingID  string    `json:"bookingId"`
	ProviderID string    `json:"providerId"`
	SlotID     string    `json:"slotId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (r MaterializeRequest) Marker() ExpiryMarker {
	return ExpiryMarker{BookingID: r.BookingID, ProviderID: r.ProviderID, SlotID: r.SlotID, ExpiresAt: r.ExpiresAt}
}

// BookingDispatcher is a fire-and-forget, at-least-once channel to the materializer.
type BookingDispatcher interface {
	Dispatch(ctx context.Context, req MaterializeRequest) error
}

// ExpiryScheduler arranges for an ExpiryMarker to be delivered once expiresAt has passed.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, m ExpiryMarker) error
	Clear(ctx context.Context, bookingID string) error
}

type EventType string

const (
	EventBookingHeld      EventType = "booking.held"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
)

type BookingEvent struct {
	Type       EventType     `json:"type"`
	BookingID  string        `json:"bookingId"`
	ProviderID string        `json:"providerId"`
	SlotID     string        `json:"slotId"`
	UserID     string        `json:"userId,omitempty"`
	State      booking.State `json:"state"`
	OccurredAt time.Time     `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}
