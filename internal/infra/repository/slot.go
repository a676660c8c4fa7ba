package repository

import (
	"context"

	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/infra"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/pkg/pgconv"
	"slot-reservation/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ shared.SlotStore = (*SlotRepository)(nil)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) FindSlot(ctx context.Context, key slot.Key) (*slot.Slot, error) {
	return findSlot(ctx, r.pool, key)
}

func (r *SlotRepository) PutSlots(ctx context.Context, slots []*slot.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range slots {
		k := s.Key()
		batch.Queue(insertSlot, k.ProviderID, k.Date, k.Time)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return created, wrapReadErr("failed to insert slot", err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func (r *SlotRepository) UpdateSlot(ctx context.Context, key slot.Key, t slot.Transition) (shared.Result, error) {
	tag, err := execSlotTransition(ctx, r.pool, key, t)
	if err != nil {
		if infra.IsTransient(err) {
			return shared.Transient(err), nil
		}
		return shared.Result{}, infra.WrapRepoErr("failed to update slot", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.Rejected(false, true), nil
	}
	return shared.Applied(), nil
}

func execSlotTransition(ctx context.Context, db DBTX, key slot.Key, t slot.Transition) (pgconn.CommandTag, error) {
	query, args, ok := slotUpdate(key, t)
	if !ok {
		return pgconn.CommandTag{}, errs.Newf("unknown slot event %q", t.Event())
	}
	return db.Exec(ctx, query, args...)
}

func findSlot(ctx context.Context, db DBTX, key slot.Key) (*slot.Slot, error) {
	var (
		providerID, date, tm, status string
		heldBy                       pgtype.Text
		holdExpiresAt, confirmedAt   pgtype.Timestamptz
	)
	err := db.QueryRow(ctx, getSlot, key.ProviderID, key.Date, key.Time).
		Scan(&providerID, &date, &tm, &status, &heldBy, &holdExpiresAt, &confirmedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("slot not found", err, infra.KindNotFound)
		}
		return nil, wrapReadErr("failed to get slot", err)
	}

	s, err := slot.Reconstruct(
		slot.Key{ProviderID: providerID, Date: date, Time: tm},
		slot.Status(status),
		pgconv.StringFromPgtype(heldBy),
		pgconv.TimePtrFromPgtype(holdExpiresAt),
		pgconv.TimePtrFromPgtype(confirmedAt),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupted slot row "+key.String(), err, infra.KindCorrupted)
	}
	return s, nil
}

func wrapReadErr(msg string, err error) error {
	if infra.IsTransient(err) {
		return infra.WrapRepoErr(msg, err, infra.KindUnavailable)
	}
	return infra.WrapRepoErr(msg, err)
}
