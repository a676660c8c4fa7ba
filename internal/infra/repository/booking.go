package repository

import (
	"context"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/infra"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/pkg/pgconv"
	"slot-reservation/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ shared.BookingStore = (*BookingRepository)(nil)

type BookingRepository struct {
	pool *pgxpool.Pool
	tx   *txRunner
}

func NewBookingRepository(pool *pgxpool.Pool, cfg config.Config) *BookingRepository {
	return &BookingRepository{pool: pool, tx: newTxRunner(pool, cfg.DB.TxRetries)}
}

func (r *BookingRepository) FindBooking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	var (
		id, providerID, slotID, userID, state string
		createdAt, expiresAt                  time.Time
		confirmedAt, cancelledAt              pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, getBooking, bookingID).
		Scan(&id, &providerID, &slotID, &userID, &state, &createdAt, &expiresAt, &confirmedAt, &cancelledAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, wrapReadErr("failed to get booking", err)
	}

	b, err := booking.Reconstruct(id, providerID, slotID, userID, booking.State(state),
		createdAt.UTC(), expiresAt.UTC(),
		pgconv.TimePtrFromPgtype(confirmedAt), pgconv.TimePtrFromPgtype(cancelledAt))
	if err != nil {
		return nil, infra.WrapRepoErr("corrupted booking row "+bookingID, err, infra.KindCorrupted)
	}
	return b, nil
}

func (r *BookingRepository) InsertPending(ctx context.Context, b *booking.Booking) (shared.Result, error) {
	tag, err := r.pool.Exec(ctx, insertPendingBooking,
		b.ID(), b.ProviderID(), b.SlotID(), b.UserID(), b.CreatedAt(), b.ExpiresAt())
	if err != nil {
		if infra.IsTransient(err) {
			return shared.Transient(err), nil
		}
		return shared.Result{}, infra.WrapRepoErr("failed to insert booking", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.Rejected(true, false), nil
	}
	return shared.Applied(), nil
}

// CommitTransition writes the booking row then the slot row in one transaction. Both
// statements always run so the result names every side whose predicate failed.
func (r *BookingRepository) CommitTransition(ctx context.Context, u shared.DualUpdate) (shared.Result, error) {
	var bookingRejected, slotRejected bool

	err := r.tx.within(ctx, func(ctx context.Context, tx DBTX) error {
		bookingRejected, slotRejected = false, false

		target := u.Booking.Target()
		var confirmedAt, cancelledAt *time.Time
		at := u.Booking.At()
		switch target {
		case booking.StateConfirmed:
			confirmedAt = &at
		case booking.StateCancelled:
			cancelledAt = &at
		}

		tag, err := tx.Exec(ctx, transitionBooking,
			u.BookingID, string(target),
			pgconv.TimePtrToPgtype(confirmedAt), pgconv.TimePtrToPgtype(cancelledAt),
			stateNames(u.Booking.Sources()))
		if err != nil {
			return err
		}
		bookingRejected = tag.RowsAffected() == 0

		tag, err = execSlotTransition(ctx, tx, u.SlotKey, u.Slot)
		if err != nil {
			return err
		}
		slotRejected = tag.RowsAffected() == 0

		if bookingRejected || slotRejected {
			return errRejected
		}
		return nil
	})

	switch {
	case err == nil:
		return shared.Applied(), nil
	case errs.Is(err, errRejected):
		return shared.Rejected(bookingRejected, slotRejected), nil
	case infra.IsTransient(err) || errs.Is(err, errMaxRetriesExceeded) || errs.Is(err, errTransactionBegin):
		return shared.Transient(err), nil
	default:
		return shared.Result{}, infra.WrapRepoErr("failed to commit booking transition", err)
	}
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]shared.ExpiryMarker, error) {
	rows, err := r.pool.Query(ctx, listExpiredPending, now, limit)
	if err != nil {
		return nil, wrapReadErr("failed to list expired bookings", err)
	}
	defer rows.Close()

	var markers []shared.ExpiryMarker
	for rows.Next() {
		var m shared.ExpiryMarker
		if err := rows.Scan(&m.BookingID, &m.ProviderID, &m.SlotID, &m.ExpiresAt); err != nil {
			return nil, wrapReadErr("failed to scan expired booking", err)
		}
		m.ExpiresAt = m.ExpiresAt.UTC()
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapReadErr("failed to iterate expired bookings", err)
	}
	return markers, nil
}

func stateNames(states []booking.State) []string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return names
}
