//go:build unit || e2e

package builder

import (
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	reqdto "slot-reservation/internal/handler/dto/request"
	"slot-reservation/internal/usecase/queries"
)

type BookingBuilder struct {
	BookingID  string
	ProviderID string
	Date       string
	Time       string
	UserID     string
	State      booking.State
	CreatedAt  time.Time
	HoldTTL    time.Duration
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		BookingID:  booking.NewID(),
		ProviderID: "provider-1",
		Date:       "2030-01-15",
		Time:       "10:00",
		UserID:     "user-1",
		State:      booking.StatePending,
		CreatedAt:  time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC),
		HoldTTL:    5 * time.Minute,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) SlotID() string {
	return b.Date + "#" + b.Time
}

func (b *BookingBuilder) Key() slot.Key {
	return slot.Key{ProviderID: b.ProviderID, Date: b.Date, Time: b.Time}
}

func (b *BookingBuilder) ExpiresAt() time.Time {
	return b.CreatedAt.Add(b.HoldTTL)
}

// Build methods
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	return booking.Reconstruct(b.BookingID, b.ProviderID, b.SlotID(), b.UserID, b.State,
		b.CreatedAt, b.ExpiresAt(), nil, nil)
}

func (b *BookingBuilder) BuildPending() (*booking.Booking, error) {
	return booking.NewPending(b.BookingID, b.Key(), b.UserID, b.CreatedAt, b.ExpiresAt())
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		ProviderID: b.ProviderID,
		SlotID:     b.SlotID(),
		UserID:     b.UserID,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	return &queries.BookingView{
		BookingID:  b.BookingID,
		ProviderID: b.ProviderID,
		SlotID:     b.SlotID(),
		UserID:     b.UserID,
		State:      string(b.State),
		CreatedAt:  b.CreatedAt,
		ExpiresAt:  b.ExpiresAt(),
	}
}
