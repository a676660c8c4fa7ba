package booking

import (
	"errors"
	"strings"
	"time"

	"slot-reservation/internal/domain/slot"

	"github.com/google/uuid"
)

const IDPrefix = "booking-"

var (
	ErrBookingIDRequired = errors.New("booking ID is required")
	ErrInvalidBookingID  = errors.New("invalid booking ID format")
	ErrUserIDRequired    = errors.New("userId is required")
	ErrInvalidState      = errors.New("invalid booking state")
)

func NewID() string {
	return IDPrefix + uuid.NewString()
}

// ValidateID accepts "booking-<uuid>" and a bare uuid of version 1-5 with the RFC 4122 variant.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrBookingIDRequired
	}
	raw := strings.TrimPrefix(id, IDPrefix)
	if len(raw) != 36 {
		return ErrInvalidBookingID
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return ErrInvalidBookingID
	}
	if v := u.Version(); v < 1 || v > 5 || u.Variant() != uuid.RFC4122 {
		return ErrInvalidBookingID
	}
	return nil
}

type Booking struct {
	id          string
	providerID  string
	slotID      string
	userID      string
	state       State
	createdAt   time.Time
	expiresAt   time.Time
	confirmedAt *time.Time
	cancelledAt *time.Time
}

func NewPending(id string, key slot.Key, userID string, createdAt, expiresAt time.Time) (*Booking, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	return &Booking{
		id:         id,
		providerID: key.ProviderID,
		slotID:     key.SlotID(),
		userID:     userID,
		state:      StatePending,
		createdAt:  createdAt,
		expiresAt:  expiresAt,
	}, nil
}

func Reconstruct(
	id, providerID, slotID, userID string,
	state State,
	createdAt, expiresAt time.Time,
	confirmedAt, cancelledAt *time.Time,
) (*Booking, error) {
	if !state.IsValid() {
		return nil, ErrInvalidState
	}
	return &Booking{
		id:          id,
		providerID:  providerID,
		slotID:      slotID,
		userID:      userID,
		state:       state,
		createdAt:   createdAt,
		expiresAt:   expiresAt,
		confirmedAt: confirmedAt,
		cancelledAt: cancelledAt,
	}, nil
}

func (b *Booking) ID() string              { return b.id }
func (b *Booking) ProviderID() string      { return b.providerID }
func (b *Booking) SlotID() string          { return b.slotID }
func (b *Booking) UserID() string          { return b.userID }
func (b *Booking) State() State            { return b.state }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) ExpiresAt() time.Time    { return b.expiresAt }
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

func (b *Booking) SlotKey() (slot.Key, error) {
	return slot.ParseKey(b.providerID, b.slotID)
}

// HoldLapsed reports a PENDING booking whose deadline is strictly before now.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.state == StatePending && b.expiresAt.Before(now)
}
