package shared

import "slot-reservation/internal/pkg/errs"

// Store implementations mark their read failures with these so use cases can branch without
// knowing the backend.
var (
	ErrNotFound    = errs.New("record not found")
	ErrUnavailable = errs.New("store unavailable")
)
