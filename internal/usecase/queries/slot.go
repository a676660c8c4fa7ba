package queries

//go:generate mockgen -source=slot.go -destination=../../../tests/mock/queries/slot.go -package=queriesmock

import (
	"context"
	"sort"
	"time"

	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/pkg/clock"
	"slot-reservation/internal/pkg/errs"
)

// SlotRecord is one stored slot as the read side sees it.
type SlotRecord struct {
	ProviderID    string
	Date          string
	Time          string
	Status        string
	HoldExpiresAt *time.Time
}

type SlotView struct {
	Time   string `json:"time"`
	Status string `json:"status"`
	SlotID string `json:"slotId"`
}

type AvailableSlots struct {
	ProviderID     string     `json:"providerId"`
	Date           string     `json:"date"`
	AvailableSlots []SlotView `json:"availableSlots"`
	Count          int        `json:"count"`
}

type SlotReadStore interface {
	ListByDate(ctx context.Context, providerID, date string) ([]*SlotRecord, error)
}

type SlotQueries interface {
	ListAvailable(ctx context.Context, providerID, date string) (*AvailableSlots, error)
}

type slotQueriesImpl struct {
	repo  SlotReadStore
	clock clock.Clock
}

func NewSlotQueries(repo SlotReadStore, clk clock.Clock) SlotQueries {
	return &slotQueriesImpl{repo: repo, clock: clk}
}

// ListAvailable returns the slots a new requester could hold right now, sorted by time.
// A HELD slot whose deadline has passed is reported as AVAILABLE since hold may take it over.
func (q *slotQueriesImpl) ListAvailable(ctx context.Context, providerID, date string) (*AvailableSlots, error) {
	if providerID == "" {
		return nil, errs.Mark(slot.ErrProviderIDRequired, errs.ErrInvalidRequest)
	}
	if err := slot.ValidateDate(date); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidRequest)
	}

	records, err := q.repo.ListByDate(ctx, providerID, date)
	if err != nil {
		return nil, readErr(err, "")
	}

	now := q.clock.Now()
	free := make([]SlotView, 0, len(records))
	for _, r := range records {
		if !isFree(r, now) {
			continue
		}
		key := slot.Key{ProviderID: r.ProviderID, Date: r.Date, Time: r.Time}
		free = append(free, SlotView{
			Time:   r.Time,
			Status: string(slot.StatusAvailable),
			SlotID: key.SlotID(),
		})
	}
	sort.Slice(free, func(i, j int) bool { return free[i].Time < free[j].Time })

	return &AvailableSlots{
		ProviderID:     providerID,
		Date:           date,
		AvailableSlots: free,
		Count:          len(free),
	}, nil
}

func isFree(r *SlotRecord, now time.Time) bool {
	switch slot.Status(r.Status) {
	case slot.StatusAvailable:
		return true
	case slot.StatusHeld:
		return r.HoldExpiresAt != nil && r.HoldExpiresAt.Before(now)
	default:
		return false
	}
}
