package repository

import (
	"slot-reservation/internal/domain/slot"
)

const getSlot = `
SELECT provider_id, slot_date, slot_time, status, held_by, hold_expires_at, confirmed_at
FROM slots
WHERE provider_id = $1 AND slot_date = $2 AND slot_time = $3`

const insertSlot = `
INSERT INTO slots (provider_id, slot_date, slot_time, status)
VALUES ($1, $2, $3, 'AVAILABLE')
ON CONFLICT (provider_id, slot_date, slot_time) DO NOTHING`

// Each slot transition is one UPDATE whose WHERE clause is the transition predicate.
const holdSlot = `
UPDATE slots
SET status = 'HELD', held_by = $4, hold_expires_at = $5, confirmed_at = NULL, updated_at = now()
WHERE provider_id = $1 AND slot_date = $2 AND slot_time = $3
  AND (status = 'AVAILABLE' OR (status = 'HELD' AND hold_expires_at < $6))`

const confirmSlot = `
UPDATE slots
SET status = 'RESERVED', confirmed_at = $5, hold_expires_at = NULL, updated_at = now()
WHERE provider_id = $1 AND slot_date = $2 AND slot_time = $3
  AND status = 'HELD' AND held_by = $4`

const releaseSlot = `
UPDATE slots
SET status = 'AVAILABLE', held_by = NULL, hold_expires_at = NULL, confirmed_at = NULL, updated_at = now()
WHERE provider_id = $1 AND slot_date = $2 AND slot_time = $3
  AND held_by = $4`

const getBooking = `
SELECT booking_id, provider_id, slot_id, user_id, state, created_at, expires_at, confirmed_at, cancelled_at
FROM bookings
WHERE booking_id = $1`

const insertPendingBooking = `
INSERT INTO bookings (booking_id, provider_id, slot_id, user_id, state, created_at, expires_at)
VALUES ($1, $2, $3, $4, 'PENDING', $5, $6)
ON CONFLICT (booking_id) DO NOTHING`

// $5 lists the states the event may leave from.
const transitionBooking = `
UPDATE bookings
SET state = $2,
    confirmed_at = COALESCE($3, confirmed_at),
    cancelled_at = COALESCE($4, cancelled_at)
WHERE booking_id = $1 AND state = ANY($5::text[])`

// Only bookings that still hold their slot; a hold taken over by another booking leaves nothing to release.
const listExpiredPending = `
SELECT b.booking_id, b.provider_id, b.slot_id, b.expires_at
FROM bookings b
JOIN slots s ON s.held_by = b.booking_id
WHERE b.state = 'PENDING' AND b.expires_at < $1
ORDER BY b.expires_at, b.booking_id
LIMIT $2`

// slotUpdate maps a transition to its conditional UPDATE and arguments.
func slotUpdate(key slot.Key, t slot.Transition) (string, []any, bool) {
	base := []any{key.ProviderID, key.Date, key.Time, t.BookingID()}
	switch t.Event() {
	case slot.EventHold:
		return holdSlot, append(base, t.Deadline(), t.At()), true
	case slot.EventConfirm:
		return confirmSlot, append(base, t.At()), true
	case slot.EventRelease:
		return releaseSlot, base, true
	default:
		return "", nil, false
	}
}
