//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// SeedSlots inserts AVAILABLE slots for one provider and date.
func SeedSlots(t *testing.T, db DBLike, providerID, date string, times ...string) {
	t.Helper()

	ctx := context.Background()
	for _, tm := range times {
		_, err := db.Exec(ctx,
			"INSERT INTO slots (provider_id, slot_date, slot_time, status) VALUES ($1, $2, $3, 'AVAILABLE') ON CONFLICT DO NOTHING",
			providerID, date, tm)
		require.NoError(t, err)
	}
}

// SlotRow is the raw state of one slot row.
type SlotRow struct {
	Status        string
	HeldBy        *string
	HoldExpiresAt *time.Time
}

func GetSlot(t *testing.T, db DBLike, providerID, date, tm string) SlotRow {
	t.Helper()

	var row SlotRow
	err := db.QueryRow(context.Background(),
		"SELECT status, held_by, hold_expires_at FROM slots WHERE provider_id = $1 AND slot_date = $2 AND slot_time = $3",
		providerID, date, tm).Scan(&row.Status, &row.HeldBy, &row.HoldExpiresAt)
	require.NoError(t, err)
	return row
}

func GetBookingState(t *testing.T, db DBLike, bookingID string) string {
	t.Helper()

	var state string
	err := db.QueryRow(context.Background(), "SELECT state FROM bookings WHERE booking_id = $1", bookingID).Scan(&state)
	require.NoError(t, err)
	return state
}

// ExpireHold moves a booking's deadline and its slot's hold into the past.
func ExpireHold(t *testing.T, db DBLike, bookingID string, at time.Time) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Exec(ctx, "UPDATE bookings SET expires_at = $2 WHERE booking_id = $1", bookingID, at)
	require.NoError(t, err)
	_, err = db.Exec(ctx, "UPDATE slots SET hold_expires_at = $2 WHERE held_by = $1", bookingID, at)
	require.NoError(t, err)
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('atlas_schema_revisions')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
