//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/infra/memstore"
	"slot-reservation/internal/pkg/clock"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/shared"
	"slot-reservation/internal/usecase/sweep"
	"slot-reservation/tests/common/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	startTime = time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	slotKey   = slot.Key{ProviderID: "provider-1", Date: "2030-01-15", Time: "10:00"}
)

type fixture struct {
	store      *memstore.Store
	clock      *clock.MockClock
	dispatcher *testutil.SyncDispatcher
	scheduler  *testutil.RecordingScheduler
	publisher  *testutil.RecordingPublisher
	cmds       commands.BookingCommands
	sweeper    *sweep.Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil)
}

// newFixtureWith lets a test swap the store seen by the coordinator while seeding through memstore.
func newFixtureWith(t *testing.T, slots shared.SlotStore, bookings shared.BookingStore) *fixture {
	t.Helper()
	cfg := config.NewTestConfig()
	logger := testutil.DiscardLogger()

	f := &fixture{
		store:     memstore.New(),
		clock:     clock.NewMockClock(startTime),
		scheduler: &testutil.RecordingScheduler{},
		publisher: &testutil.RecordingPublisher{},
	}
	if slots == nil {
		slots = f.store
	}
	if bookings == nil {
		bookings = f.store
	}

	f.dispatcher = &testutil.SyncDispatcher{
		Target: commands.NewBookingMaterializer(f.store, f.scheduler, f.publisher, logger),
	}
	f.cmds = commands.NewBookingCommands(slots, bookings, f.dispatcher, f.scheduler, f.publisher, f.clock, cfg, logger)
	f.sweeper = sweep.NewSweeper(f.store, f.publisher, f.clock, cfg, logger)

	_, err := f.store.PutSlots(context.Background(), []*slot.Slot{slot.NewAvailable(slotKey)})
	require.NoError(t, err)
	return f
}

func (f *fixture) create(t *testing.T, userID string) *commands.CreateBookingResult {
	t.Helper()
	res, err := f.cmds.Create(context.Background(), commands.CreateBookingRequest{
		ProviderID: slotKey.ProviderID,
		SlotID:     slotKey.SlotID(),
		UserID:     userID,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) slot(t *testing.T) *slot.Slot {
	t.Helper()
	s, err := f.store.FindSlot(context.Background(), slotKey)
	require.NoError(t, err)
	return s
}

func (f *fixture) bookingState(t *testing.T, id string) booking.State {
	t.Helper()
	b, err := f.store.FindBooking(context.Background(), id)
	require.NoError(t, err)
	return b.State()
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("holds the slot and materializes a pending booking", func(t *testing.T) {
		f := newFixture(t)

		res := f.create(t, "user-1")

		assert.Equal(t, booking.StatePending, res.Status)
		assert.Equal(t, startTime.Add(5*time.Minute), res.ExpiresAt)
		require.NoError(t, booking.ValidateID(res.BookingID))

		s := f.slot(t)
		assert.Equal(t, slot.StatusHeld, s.Status())
		assert.Equal(t, res.BookingID, s.HeldBy())
		assert.Equal(t, res.ExpiresAt, *s.HoldExpiresAt())

		assert.Equal(t, booking.StatePending, f.bookingState(t, res.BookingID))
		require.Len(t, f.scheduler.Scheduled, 1)
		assert.Equal(t, res.BookingID, f.scheduler.Scheduled[0].BookingID)
		assert.Equal(t, []shared.EventType{shared.EventBookingHeld}, f.publisher.Types())
	})

	t.Run("live hold rejects a second requester", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, "user-1")

		_, err := f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: slotKey.ProviderID, SlotID: slotKey.SlotID(), UserID: "user-2",
		})
		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.True(t, errs.Is(err, errs.ErrSlotHeld))
		assert.Contains(t, err.Error(), "2030-01-10T09:05:00Z")
	})

	t.Run("reserved slot is reported as booked", func(t *testing.T) {
		f := newFixture(t)
		res := f.create(t, "user-1")
		_, err := f.cmds.Confirm(ctx, res.BookingID)
		require.NoError(t, err)

		_, err = f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: slotKey.ProviderID, SlotID: slotKey.SlotID(), UserID: "user-2",
		})
		assert.True(t, errs.Is(err, errs.ErrSlotBooked))
		assert.Equal(t, "Slot is already booked", err.Error())
	})

	t.Run("unknown slot", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: "provider-2", SlotID: slotKey.SlotID(), UserID: "user-1",
		})
		assert.True(t, errs.Is(err, errs.ErrSlotUnavailable))
		assert.True(t, errs.Is(err, errs.ErrSlotNotFound))
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		cases := []commands.CreateBookingRequest{
			{ProviderID: "", SlotID: slotKey.SlotID(), UserID: "user-1"},
			{ProviderID: "provider-1", SlotID: "2030-01-15 10:00", UserID: "user-1"},
			{ProviderID: "provider-1", SlotID: slotKey.SlotID(), UserID: ""},
		}
		for _, req := range cases {
			_, err := f.cmds.Create(ctx, req)
			assert.True(t, errs.Is(err, errs.ErrInvalidRequest), "request %+v", req)
		}
		assert.Equal(t, slot.StatusAvailable, f.slot(t).Status())
	})

	t.Run("dispatch failure releases the hold", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.Err = errs.New("redis: connection refused")

		_, err := f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: slotKey.ProviderID, SlotID: slotKey.SlotID(), UserID: "user-1",
		})
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))

		s := f.slot(t)
		assert.Equal(t, slot.StatusAvailable, s.Status())
		assert.Empty(t, s.HeldBy())
	})

	t.Run("lapsed hold is taken over", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, "user-1")
		f.clock.Add(5*time.Minute + time.Second)

		second := f.create(t, "user-2")

		assert.NotEqual(t, first.BookingID, second.BookingID)
		assert.Equal(t, second.BookingID, f.slot(t).HeldBy())
	})
}

func TestCreateMutualExclusion(t *testing.T) {
	f := newFixture(t)
	const requesters = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for i := range requesters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.cmds.Create(context.Background(), commands.CreateBookingRequest{
				ProviderID: slotKey.ProviderID,
				SlotID:     slotKey.SlotID(),
				UserID:     "user-" + string(rune('a'+i%26)),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, res.BookingID)
				return
			}
			if errs.Is(err, errs.ErrSlotUnavailable) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, requesters-1, conflicts)
	assert.Equal(t, winners[0], f.slot(t).HeldBy())
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("pending booking is confirmed and its slot reserved", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		f.clock.Add(time.Minute)

		res, err := f.cmds.Confirm(ctx, created.BookingID)
		require.NoError(t, err)

		assert.Equal(t, booking.StateConfirmed, res.State)
		assert.Equal(t, startTime.Add(time.Minute), res.At)

		s := f.slot(t)
		assert.Equal(t, slot.StatusReserved, s.Status())
		assert.Equal(t, created.BookingID, s.HeldBy())
		assert.Nil(t, s.HoldExpiresAt())

		b, err := f.store.FindBooking(ctx, created.BookingID)
		require.NoError(t, err)
		require.NotNil(t, b.ConfirmedAt())
		assert.Equal(t, res.At, *b.ConfirmedAt())

		assert.Equal(t, []string{created.BookingID}, f.scheduler.Cleared)
		assert.Equal(t, []shared.EventType{shared.EventBookingHeld, shared.EventBookingConfirmed}, f.publisher.Types())
	})

	t.Run("second confirm conflicts", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		_, err := f.cmds.Confirm(ctx, created.BookingID)
		require.NoError(t, err)

		_, err = f.cmds.Confirm(ctx, created.BookingID)
		assert.True(t, errs.Is(err, errs.ErrBookingConflict))
		assert.Equal(t, "Booking cannot be confirmed. Current state: CONFIRMED", err.Error())
	})

	t.Run("stolen hold leaves the booking pending", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, "user-1")
		f.clock.Add(6 * time.Minute)
		second := f.create(t, "user-2")

		_, err := f.cmds.Confirm(ctx, first.BookingID)
		assert.True(t, errs.Is(err, errs.ErrBookingConflict))
		assert.Equal(t, "Slot is no longer held by this booking", err.Error())

		assert.Equal(t, booking.StatePending, f.bookingState(t, first.BookingID))
		assert.Equal(t, second.BookingID, f.slot(t).HeldBy())
		assert.Equal(t, slot.StatusHeld, f.slot(t).Status())
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cmds.Confirm(ctx, booking.NewID())
		assert.True(t, errs.Is(err, errs.ErrBookingNotFound))
	})

	t.Run("malformed booking id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cmds.Confirm(ctx, "not-a-booking")
		assert.True(t, errs.Is(err, errs.ErrInvalidRequest))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending booking releases its slot", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")

		res, err := f.cmds.Cancel(ctx, created.BookingID)
		require.NoError(t, err)

		assert.Equal(t, booking.StateCancelled, res.State)
		assert.Equal(t, slot.StatusAvailable, f.slot(t).Status())
		assert.Equal(t, []shared.EventType{shared.EventBookingHeld, shared.EventBookingCancelled}, f.publisher.Types())
	})

	t.Run("confirmed booking releases its slot", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		_, err := f.cmds.Confirm(ctx, created.BookingID)
		require.NoError(t, err)

		res, err := f.cmds.Cancel(ctx, created.BookingID)
		require.NoError(t, err)
		assert.Equal(t, booking.StateCancelled, res.State)
		assert.Equal(t, slot.StatusAvailable, f.slot(t).Status())

		f.create(t, "user-2")
	})

	t.Run("double cancel conflicts", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		_, err := f.cmds.Cancel(ctx, created.BookingID)
		require.NoError(t, err)

		_, err = f.cmds.Cancel(ctx, created.BookingID)
		assert.True(t, errs.Is(err, errs.ErrBookingConflict))
		assert.Equal(t, "Booking cannot be cancelled. Current state: CANCELLED", err.Error())
	})
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("lapsed pending booking is expired by the sweep", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		f.clock.Add(5*time.Minute + time.Millisecond)

		n, err := f.sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.Equal(t, booking.StateExpired, f.bookingState(t, created.BookingID))
		assert.Equal(t, slot.StatusAvailable, f.slot(t).Status())

		_, err = f.cmds.Confirm(ctx, created.BookingID)
		assert.True(t, errs.Is(err, errs.ErrBookingConflict))
		assert.Equal(t, "Booking cannot be confirmed. Current state: EXPIRED", err.Error())
	})

	t.Run("confirmed booking is never expired", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		_, err := f.cmds.Confirm(ctx, created.BookingID)
		require.NoError(t, err)
		f.clock.Add(time.Hour)

		require.NoError(t, f.sweeper.HandleExpiry(ctx, f.scheduler.Scheduled[0]))

		assert.Equal(t, booking.StateConfirmed, f.bookingState(t, created.BookingID))
		assert.Equal(t, slot.StatusReserved, f.slot(t).Status())
	})
}

// flakyStore reports every conditional write as transient.
type flakyStore struct {
	*memstore.Store
}

func (s flakyStore) UpdateSlot(context.Context, slot.Key, slot.Transition) (shared.Result, error) {
	return shared.Transient(context.DeadlineExceeded), nil
}

func (s flakyStore) CommitTransition(context.Context, shared.DualUpdate) (shared.Result, error) {
	return shared.Transient(context.DeadlineExceeded), nil
}

// downStore fails every read as unavailable, the way any store backend marks an outage.
type downStore struct {
	*memstore.Store
}

func (s downStore) FindSlot(context.Context, slot.Key) (*slot.Slot, error) {
	return nil, errs.Mark(errs.Wrap(context.DeadlineExceeded, "find slot"), shared.ErrUnavailable)
}

func (s downStore) FindBooking(context.Context, string) (*booking.Booking, error) {
	return nil, errs.Mark(errs.Wrap(context.DeadlineExceeded, "find booking"), shared.ErrUnavailable)
}

func TestTransientFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("transient hold", func(t *testing.T) {
		base := newFixture(t)
		flaky := flakyStore{base.store}
		f := newFixtureWith(t, flaky, flaky)

		_, err := f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: slotKey.ProviderID, SlotID: slotKey.SlotID(), UserID: "user-1",
		})
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))
	})

	t.Run("transient dual update", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, "user-1")
		flaky := newFixtureWith(t, flakyStore{f.store}, flakyStore{f.store})

		_, err := flaky.cmds.Confirm(ctx, created.BookingID)
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))
		assert.Equal(t, booking.StatePending, f.bookingState(t, created.BookingID))
		assert.Equal(t, slot.StatusHeld, f.slot(t).Status())
	})

	t.Run("unavailable reads", func(t *testing.T) {
		base := newFixture(t)
		down := downStore{base.store}
		f := newFixtureWith(t, down, down)

		_, err := f.cmds.Create(ctx, commands.CreateBookingRequest{
			ProviderID: slotKey.ProviderID, SlotID: slotKey.SlotID(), UserID: "user-1",
		})
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))

		_, err = f.cmds.Cancel(ctx, booking.NewID())
		assert.True(t, errs.Is(err, errs.ErrServiceUnavailable))
	})
}
