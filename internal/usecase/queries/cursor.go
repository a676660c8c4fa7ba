package queries

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"slot-reservation/internal/pkg/errs"
)

const (
	MaxListLimit     = 200
	DefaultListLimit = 20
	CursorVersionV1  = "v1"
)

var ErrInvalidCursor = errs.Mark(errs.New("invalid cursor"), errs.ErrInvalidRequest)

// Keyset is the position after which the next page starts, newest first.
type Keyset struct {
	CreatedAt time.Time
	BookingID string
}

// Uses microsecond precision to align with PostgreSQL timestamp precision
func EncodeAfterCursor(k Keyset) string {
	cursorData := fmt.Sprintf("%s:%d-%s", CursorVersionV1, k.CreatedAt.UnixMicro(), k.BookingID)
	return base64.URLEncoding.EncodeToString([]byte(cursorData))
}

func DecodeAfterCursor(cursor string) (Keyset, error) {
	if cursor == "" {
		return Keyset{}, fmt.Errorf("cursor cannot be empty")
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Keyset{}, fmt.Errorf("invalid cursor encoding: %w", err)
	}
	payload, ok := strings.CutPrefix(string(decoded), CursorVersionV1+":")
	if !ok {
		return Keyset{}, fmt.Errorf("unsupported cursor version")
	}

	// booking ids contain '-', the timestamp never does
	parts := strings.SplitN(payload, "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Keyset{}, fmt.Errorf("invalid cursor format: expected '<micros>-<bookingId>'")
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Keyset{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return Keyset{CreatedAt: time.UnixMicro(micros).UTC(), BookingID: parts[1]}, nil
}

type Cursor struct {
	After string `json:"after,omitempty"`
}

func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func decodeCursor(cursor *Cursor) (*Keyset, error) {
	if cursor == nil || cursor.After == "" {
		return nil, nil
	}
	k, err := DecodeAfterCursor(cursor.After)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode cursor"), ErrInvalidCursor)
	}
	return &k, nil
}

// page trims the extra probe row and builds the next cursor from the last row kept.
func page(rows []*BookingView, limit int) ([]*BookingView, *Cursor) {
	if len(rows) <= limit {
		return rows, nil
	}
	last := rows[limit-1]
	next := &Cursor{After: EncodeAfterCursor(Keyset{CreatedAt: last.CreatedAt, BookingID: last.BookingID})}
	return rows[:limit], next
}
