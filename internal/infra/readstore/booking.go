package readstore

import (
	"context"
	"time"

	"slot-reservation/internal/infra"
	"slot-reservation/internal/pkg/pgconv"
	"slot-reservation/internal/usecase/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `booking_id, provider_id, slot_id, user_id, state, created_at, expires_at, confirmed_at, cancelled_at`

const getBookingView = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`

// A NULL keyset reads the first page.
const listBookingsByUser = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE user_id = $1
  AND ($2::timestamptz IS NULL OR (created_at, booking_id) < ($2::timestamptz, $3::text))
ORDER BY created_at DESC, booking_id DESC
LIMIT $4`

const listBookingsByProvider = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE provider_id = $1
  AND ($2::timestamptz IS NULL OR (created_at, booking_id) < ($2::timestamptz, $3::text))
ORDER BY created_at DESC, booking_id DESC
LIMIT $4`

var _ queries.BookingReadStore = (*BookingReadStore)(nil)

type BookingReadStore struct {
	db *pgxpool.Pool
}

func NewBookingReadStore(db *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, bookingID string) (*queries.BookingView, error) {
	view, err := scanBookingView(r.db.QueryRow(ctx, getBookingView, bookingID))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, wrapErr("failed to get booking view by id", err)
	}
	return view, nil
}

func (r *BookingReadStore) ListByUser(ctx context.Context, userID string, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	return r.list(ctx, listBookingsByUser, userID, after, limit)
}

func (r *BookingReadStore) ListByProvider(ctx context.Context, providerID string, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	return r.list(ctx, listBookingsByProvider, providerID, after, limit)
}

func (r *BookingReadStore) list(ctx context.Context, query, owner string, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	var (
		lastCreatedAt pgtype.Timestamptz
		lastID        pgtype.Text
	)
	if after != nil {
		lastCreatedAt = pgconv.TimeToPgtype(after.CreatedAt)
		lastID = pgconv.StringToPgtype(after.BookingID)
	}

	rows, err := r.db.Query(ctx, query, owner, lastCreatedAt, lastID, limit)
	if err != nil {
		return nil, wrapErr("failed to list bookings", err)
	}
	defer rows.Close()

	views := make([]*queries.BookingView, 0, limit)
	for rows.Next() {
		view, err := scanBookingView(rows)
		if err != nil {
			return nil, wrapErr("failed to scan booking view", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate booking views", err)
	}
	return views, nil
}

func scanBookingView(row pgx.Row) (*queries.BookingView, error) {
	var (
		v                        queries.BookingView
		createdAt, expiresAt     time.Time
		confirmedAt, cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(&v.BookingID, &v.ProviderID, &v.SlotID, &v.UserID, &v.State,
		&createdAt, &expiresAt, &confirmedAt, &cancelledAt); err != nil {
		return nil, err
	}
	v.CreatedAt = createdAt.UTC()
	v.ExpiresAt = expiresAt.UTC()
	v.ConfirmedAt = pgconv.TimePtrFromPgtype(confirmedAt)
	v.CancelledAt = pgconv.TimePtrFromPgtype(cancelledAt)
	return &v, nil
}
