package booking

import "time"

// Transition moves a booking along one event. It is the booking half of an atomic dual update.
type Transition struct {
	event Event
	at    time.Time
}

func Confirm(now time.Time) Transition { return Transition{event: EventConfirm, at: now} }
func Cancel(now time.Time) Transition  { return Transition{event: EventCancel, at: now} }
func Expire(now time.Time) Transition  { return Transition{event: EventExpire, at: now} }

func (t Transition) Event() Event     { return t.event }
func (t Transition) At() time.Time    { return t.at }
func (t Transition) Sources() []State { return Sources(t.event) }

func (t Transition) Permits(b *Booking) bool {
	if b == nil {
		return false
	}
	_, ok := Next(b.state, t.event)
	return ok
}

// Target is the state the booking ends in, assuming Permits.
func (t Transition) Target() State {
	to, _ := Next(StatePending, t.event)
	return to
}

// Apply returns the mutated copy. It does not evaluate Permits.
func (t Transition) Apply(b *Booking) *Booking {
	to, ok := Next(b.state, t.event)
	if !ok {
		return b
	}
	next := *b
	next.state = to
	at := t.at
	switch t.event {
	case EventConfirm:
		next.confirmedAt = &at
	case EventCancel:
		next.cancelledAt = &at
	case EventExpire:
	}
	return &next
}
