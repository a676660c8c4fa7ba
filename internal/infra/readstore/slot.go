package readstore

import (
	"context"

	"slot-reservation/internal/infra"
	"slot-reservation/internal/pkg/pgconv"
	"slot-reservation/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listSlotsByDate = `
SELECT provider_id, slot_date, slot_time, status, hold_expires_at
FROM slots
WHERE provider_id = $1 AND slot_date = $2
ORDER BY slot_time`

var _ queries.SlotReadStore = (*SlotReadStore)(nil)

type SlotReadStore struct {
	db *pgxpool.Pool
}

func NewSlotReadStore(db *pgxpool.Pool) *SlotReadStore {
	return &SlotReadStore{db: db}
}

func (r *SlotReadStore) ListByDate(ctx context.Context, providerID, date string) ([]*queries.SlotRecord, error) {
	rows, err := r.db.Query(ctx, listSlotsByDate, providerID, date)
	if err != nil {
		return nil, wrapErr("failed to list slots by date", err)
	}
	defer rows.Close()

	var records []*queries.SlotRecord
	for rows.Next() {
		var (
			rec           queries.SlotRecord
			holdExpiresAt pgtype.Timestamptz
		)
		if err := rows.Scan(&rec.ProviderID, &rec.Date, &rec.Time, &rec.Status, &holdExpiresAt); err != nil {
			return nil, wrapErr("failed to scan slot", err)
		}
		rec.HoldExpiresAt = pgconv.TimePtrFromPgtype(holdExpiresAt)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate slots", err)
	}
	return records, nil
}

func wrapErr(msg string, err error) error {
	if infra.IsTransient(err) {
		return infra.WrapRepoErr(msg, err, infra.KindUnavailable)
	}
	return infra.WrapRepoErr(msg, err)
}
