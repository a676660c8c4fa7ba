package slot

import (
	"errors"
	"time"
)

var (
	ErrInvalidWindow   = errors.New("window end must be after its start")
	ErrInvalidDuration = errors.New("slot duration must be positive")
)

// Window is a provider's bookable time range on one date, cut into fixed-length slots.
type Window struct {
	ProviderID string
	Date       string
	Start      string
	End        string
	Duration   time.Duration
}

// Times lists slot start times from Start up to but excluding End.
// A last slot that would run past End still starts before it and is included.
func (w Window) Times() ([]string, error) {
	if err := validateTime(w.Start); err != nil {
		return nil, err
	}
	if err := validateTime(w.End); err != nil {
		return nil, err
	}
	if w.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	start, _ := time.Parse(TimeLayout, w.Start)
	end, _ := time.Parse(TimeLayout, w.End)
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	var times []string
	for t := start; t.Before(end); t = t.Add(w.Duration) {
		times = append(times, t.Format(TimeLayout))
	}
	return times, nil
}

// Slots returns an AVAILABLE slot for every start time in the window.
func (w Window) Slots() ([]*Slot, error) {
	times, err := w.Times()
	if err != nil {
		return nil, err
	}
	slots := make([]*Slot, 0, len(times))
	for _, tm := range times {
		key, err := NewKey(w.ProviderID, w.Date, tm)
		if err != nil {
			return nil, err
		}
		slots = append(slots, NewAvailable(key))
	}
	return slots, nil
}
