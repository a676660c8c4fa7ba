package slot

import "time"

type Event string

const (
	EventHold    Event = "hold"
	EventConfirm Event = "confirm"
	EventRelease Event = "release"
)

// Transition is one conditional slot mutation. Permits is the predicate and Apply the mutation;
// stores evaluate both atomically against the committed row.
type Transition struct {
	event     Event
	bookingID string
	deadline  time.Time
	at        time.Time
}

func Hold(bookingID string, deadline, now time.Time) Transition {
	return Transition{event: EventHold, bookingID: bookingID, deadline: deadline, at: now}
}

// Confirm reserves a slot held by bookingID. A RESERVED slot carries no hold deadline, so it is
// cleared here and in the confirm SQL.
func Confirm(bookingID string, now time.Time) Transition {
	return Transition{event: EventConfirm, bookingID: bookingID, at: now}
}

func Release(bookingID string) Transition {
	return Transition{event: EventRelease, bookingID: bookingID}
}

func (t Transition) Event() Event        { return t.event }
func (t Transition) BookingID() string   { return t.bookingID }
func (t Transition) Deadline() time.Time { return t.deadline }
func (t Transition) At() time.Time       { return t.at }

func (t Transition) Permits(s *Slot) bool {
	if s == nil {
		return false
	}
	switch t.event {
	case EventHold:
		return s.status == StatusAvailable || s.HoldLapsed(t.at)
	case EventConfirm:
		return s.status == StatusHeld && s.IsHeldBy(t.bookingID)
	case EventRelease:
		return s.IsHeldBy(t.bookingID)
	default:
		return false
	}
}

// Apply returns the mutated copy. It does not evaluate Permits.
func (t Transition) Apply(s *Slot) *Slot {
	next := &Slot{key: s.key}
	switch t.event {
	case EventHold:
		deadline := t.deadline
		next.status = StatusHeld
		next.heldBy = t.bookingID
		next.holdExpiresAt = &deadline
	case EventConfirm:
		at := t.at
		next.status = StatusReserved
		next.heldBy = s.heldBy
		next.confirmedAt = &at
	case EventRelease:
		next.status = StatusAvailable
	default:
		return s
	}
	return next
}
