package shared

import "fmt"

// Outcome classifies a conditional store write.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// One or more predicates did not hold. Nothing was written.
	OutcomePredicateFailed
	// Timeout, throttling or lost connection. Nothing is known to be written; safe to retry later.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomePredicateFailed:
		return "predicate_failed"
	case OutcomeTransient:
		return "transient"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by every conditional write. Unclassified failures travel as a separate error.
type Result struct {
	Outcome Outcome
	// Set on OutcomePredicateFailed for a dual update, naming the side(s) whose predicate failed.
	BookingRejected bool
	SlotRejected    bool
	// Set on OutcomeTransient.
	Cause error
}

func Applied() Result {
	return Result{Outcome: OutcomeOK}
}

func Rejected(bookingSide, slotSide bool) Result {
	return Result{Outcome: OutcomePredicateFailed, BookingRejected: bookingSide, SlotRejected: slotSide}
}

func Transient(cause error) Result {
	return Result{Outcome: OutcomeTransient, Cause: cause}
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}
