package queries

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/queries/booking.go -package=queriesmock

import (
	"context"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
)

// BookingView is the read model returned by GET endpoints.
type BookingView struct {
	BookingID   string     `json:"bookingId"`
	ProviderID  string     `json:"providerId"`
	SlotID      string     `json:"slotId"`
	UserID      string     `json:"userId"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, bookingID string) (*BookingView, error)
	// List methods return at most limit rows ordered by (createdAt, bookingId) descending, strictly after the keyset.
	ListByUser(ctx context.Context, userID string, after *Keyset, limit int32) ([]*BookingView, error)
	ListByProvider(ctx context.Context, providerID string, after *Keyset, limit int32) ([]*BookingView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, bookingID string) (*BookingView, error)
	ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error)
	ListByProvider(ctx context.Context, providerID string, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error)
}

type bookingQueriesImpl struct {
	repo BookingReadStore
}

func NewBookingQueries(repo BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, bookingID string) (*BookingView, error) {
	if err := booking.ValidateID(bookingID); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidRequest)
	}
	view, err := q.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, readErr(err, "Booking not found")
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	limit = ValidateLimit(limit)
	rows, err := q.repo.ListByUser(ctx, userID, after, int32(limit+1))
	if err != nil {
		return nil, nil, readErr(err, "")
	}
	rows, next := page(rows, limit)
	return rows, next, nil
}

func (q *bookingQueriesImpl) ListByProvider(ctx context.Context, providerID string, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, nil, err
	}
	limit = ValidateLimit(limit)
	rows, err := q.repo.ListByProvider(ctx, providerID, after, int32(limit+1))
	if err != nil {
		return nil, nil, readErr(err, "")
	}
	rows, next := page(rows, limit)
	return rows, next, nil
}

func readErr(err error, notFoundMsg string) error {
	switch {
	case notFoundMsg != "" && errs.Is(err, shared.ErrNotFound):
		return errs.Mark(errs.New(notFoundMsg), errs.ErrBookingNotFound)
	case errs.Is(err, shared.ErrUnavailable):
		return errs.Mark(err, errs.ErrServiceUnavailable)
	default:
		return err
	}
}
