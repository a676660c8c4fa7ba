package slot

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusHeld      Status = "HELD"
	StatusReserved  Status = "RESERVED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusHeld, StatusReserved:
		return true
	default:
		return false
	}
}

// Availability is how a slot looks to a new requester at a given instant.
type Availability int

const (
	Free Availability = iota
	HeldByOther
	Booked
)
