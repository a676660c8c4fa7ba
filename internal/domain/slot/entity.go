package slot

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	idSeparator = "#"
)

var (
	ErrProviderIDRequired = errors.New("providerId is required")
	ErrInvalidSlotID      = errors.New("invalid slotId format. Expected: date#time")
	ErrInvalidDate        = errors.New("invalid date. Expected: YYYY-MM-DD")
	ErrInvalidTime        = errors.New("invalid time. Expected: HH:mm")
	ErrInconsistentHold   = errors.New("slot hold fields are inconsistent with its status")

	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Key identifies a slot: one provider, one date, one start time.
type Key struct {
	ProviderID string
	Date       string
	Time       string
}

func NewKey(providerID, date, tm string) (Key, error) {
	if strings.TrimSpace(providerID) == "" {
		return Key{}, ErrProviderIDRequired
	}
	if err := ValidateDate(date); err != nil {
		return Key{}, err
	}
	if err := validateTime(tm); err != nil {
		return Key{}, err
	}
	return Key{ProviderID: providerID, Date: date, Time: tm}, nil
}

// ParseKey builds a Key from a provider id and a "date#time" slot id.
func ParseKey(providerID, slotID string) (Key, error) {
	parts := strings.Split(slotID, idSeparator)
	if len(parts) != 2 {
		return Key{}, ErrInvalidSlotID
	}
	return NewKey(providerID, parts[0], parts[1])
}

// ValidateSlotID checks the "date#time" form without a provider.
func ValidateSlotID(slotID string) error {
	parts := strings.Split(slotID, idSeparator)
	if len(parts) != 2 {
		return ErrInvalidSlotID
	}
	if err := ValidateDate(parts[0]); err != nil {
		return err
	}
	return validateTime(parts[1])
}

func validateTime(tm string) error {
	if !timePattern.MatchString(tm) {
		return ErrInvalidTime
	}
	if _, err := time.Parse(TimeLayout, tm); err != nil {
		return ErrInvalidTime
	}
	return nil
}

func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (k Key) SlotID() string {
	return k.Date + idSeparator + k.Time
}

func (k Key) String() string {
	return k.ProviderID + "/" + k.SlotID()
}

type Slot struct {
	key           Key
	status        Status
	heldBy        string
	holdExpiresAt *time.Time
	confirmedAt   *time.Time
}

func NewAvailable(key Key) *Slot {
	return &Slot{key: key, status: StatusAvailable}
}

// Reconstruct rebuilds a slot read from storage and rejects rows that break the heldBy/status invariant.
func Reconstruct(key Key, status Status, heldBy string, holdExpiresAt, confirmedAt *time.Time) (*Slot, error) {
	if !status.IsValid() {
		return nil, errors.New("invalid slot status: " + string(status))
	}
	if (status == StatusAvailable) != (heldBy == "") {
		return nil, ErrInconsistentHold
	}
	return &Slot{
		key:           key,
		status:        status,
		heldBy:        heldBy,
		holdExpiresAt: copyTime(holdExpiresAt),
		confirmedAt:   copyTime(confirmedAt),
	}, nil
}

func (s *Slot) Key() Key                  { return s.key }
func (s *Slot) Status() Status            { return s.status }
func (s *Slot) HeldBy() string            { return s.heldBy }
func (s *Slot) HoldExpiresAt() *time.Time { return copyTime(s.holdExpiresAt) }
func (s *Slot) ConfirmedAt() *time.Time   { return copyTime(s.confirmedAt) }

func (s *Slot) IsHeldBy(bookingID string) bool {
	return bookingID != "" && s.heldBy == bookingID
}

// HoldLapsed reports a HELD slot whose deadline is strictly before now.
func (s *Slot) HoldLapsed(now time.Time) bool {
	return s.status == StatusHeld && s.holdExpiresAt != nil && s.holdExpiresAt.Before(now)
}

func (s *Slot) Availability(now time.Time) Availability {
	switch {
	case s.status == StatusReserved:
		return Booked
	case s.status == StatusHeld && !s.HoldLapsed(now):
		return HeldByOther
	default:
		return Free
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
