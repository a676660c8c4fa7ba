package booking

type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
	StateExpired   State = "EXPIRED"
)

var allStates = []State{StatePending, StateConfirmed, StateCancelled, StateExpired}

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StatePending, StateConfirmed, StateCancelled, StateExpired:
		return true
	default:
		return false
	}
}

// IsTerminal is true for states with no outgoing transition.
func (s State) IsTerminal() bool {
	return s == StateCancelled || s == StateExpired
}

type Event string

const (
	EventConfirm Event = "confirm"
	EventCancel  Event = "cancel"
	EventExpire  Event = "expire"
)

// Next is defined for every (state, event) pair. ok is false when the event is not allowed from the state.
func Next(from State, ev Event) (to State, ok bool) {
	switch from {
	case StatePending:
		switch ev {
		case EventConfirm:
			return StateConfirmed, true
		case EventCancel:
			return StateCancelled, true
		case EventExpire:
			return StateExpired, true
		}
	case StateConfirmed:
		if ev == EventCancel {
			return StateCancelled, true
		}
	case StateCancelled, StateExpired:
	}
	return from, false
}

// Sources lists the states ev may leave from.
func Sources(ev Event) []State {
	var out []State
	for _, s := range allStates {
		if _, ok := Next(s, ev); ok {
			out = append(out, s)
		}
	}
	return out
}
