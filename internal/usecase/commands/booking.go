package commands

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking.go -package=commandsmock

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/pkg/clock"
	"slot-reservation/internal/pkg/config"
	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
)

type CreateBookingRequest struct {
	ProviderID string
	SlotID     string
	UserID     string
}

type CreateBookingResult struct {
	BookingID string
	Status    booking.State
	ExpiresAt time.Time
}

type TransitionResult struct {
	BookingID string
	State     booking.State
	At        time.Time
}

type BookingCommands interface {
	Create(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error)
	Confirm(ctx context.Context, bookingID string) (*TransitionResult, error)
	Cancel(ctx context.Context, bookingID string) (*TransitionResult, error)
}

type bookingCommandsImpl struct {
	slots      shared.SlotStore
	bookings   shared.BookingStore
	dispatcher shared.BookingDispatcher
	expiry     shared.ExpiryScheduler
	events     shared.EventPublisher
	clock      clock.Clock
	holdTTL    time.Duration
	logger     *slog.Logger
}

func NewBookingCommands(
	slots shared.SlotStore,
	bookings shared.BookingStore,
	dispatcher shared.BookingDispatcher,
	expiry shared.ExpiryScheduler,
	events shared.EventPublisher,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		slots:      slots,
		bookings:   bookings,
		dispatcher: dispatcher,
		expiry:     expiry,
		events:     events,
		clock:      clk,
		holdTTL:    cfg.Booking.HoldTTL,
		logger:     logger,
	}
}

// Create holds the slot for a new booking id and hands materialization of the booking record to the dispatcher.
// It returns as soon as the hold is in place.
func (uc *bookingCommandsImpl) Create(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	key, err := slot.ParseKey(req.ProviderID, req.SlotID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errs.Mark(booking.ErrUserIDRequired, errs.ErrInvalidRequest)
	}

	current, err := uc.slots.FindSlot(ctx, key)
	if err != nil {
		if errs.Is(err, shared.ErrNotFound) {
			return nil, errs.SlotUnavailable(
				errs.New("Slot does not exist for the given provider and time"), errs.ErrSlotNotFound)
		}
		return nil, storeErr(err, "load slot")
	}

	now := uc.clock.Now()
	switch current.Availability(now) {
	case slot.Booked:
		return nil, errs.SlotUnavailable(errs.New("Slot is already booked"), errs.ErrSlotBooked)
	case slot.HeldByOther:
		return nil, errs.SlotUnavailable(heldMessage(current), errs.ErrSlotHeld)
	case slot.Free:
	}

	bookingID := booking.NewID()
	expiresAt := now.Add(uc.holdTTL)

	res, err := uc.slots.UpdateSlot(ctx, key, slot.Hold(bookingID, expiresAt, now))
	if err != nil {
		return nil, errs.Wrap(err, "hold slot")
	}
	switch res.Outcome {
	case shared.OutcomeOK:
	case shared.OutcomePredicateFailed:
		return nil, errs.SlotUnavailable(errs.New("Slot is held by another booking"), errs.ErrSlotHeld)
	case shared.OutcomeTransient:
		return nil, unavailable(res.Cause, "hold slot")
	}

	msg := shared.MaterializeRequest{
		BookingID:  bookingID,
		ProviderID: key.ProviderID,
		SlotID:     key.SlotID(),
		UserID:     req.UserID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	if err := uc.dispatcher.Dispatch(ctx, msg); err != nil {
		uc.releaseHold(ctx, key, bookingID)
		return nil, unavailable(err, "dispatch booking")
	}

	uc.logger.Info("slot held",
		slog.String("booking_id", bookingID),
		slog.String("provider_id", key.ProviderID),
		slog.String("slot_id", key.SlotID()),
		slog.Time("expires_at", expiresAt))

	return &CreateBookingResult{
		BookingID: bookingID,
		Status:    booking.StatePending,
		ExpiresAt: expiresAt,
	}, nil
}

func (uc *bookingCommandsImpl) Confirm(ctx context.Context, bookingID string) (*TransitionResult, error) {
	return uc.transition(ctx, bookingID, "confirmed", func(now time.Time) (booking.Transition, slot.Transition) {
		return booking.Confirm(now), slot.Confirm(bookingID, now)
	})
}

// Cancel accepts PENDING and CONFIRMED bookings. The slot side only requires that this booking still holds it.
func (uc *bookingCommandsImpl) Cancel(ctx context.Context, bookingID string) (*TransitionResult, error) {
	return uc.transition(ctx, bookingID, "cancelled", func(now time.Time) (booking.Transition, slot.Transition) {
		return booking.Cancel(now), slot.Release(bookingID)
	})
}

func (uc *bookingCommandsImpl) transition(
	ctx context.Context,
	bookingID, verb string,
	build func(now time.Time) (booking.Transition, slot.Transition),
) (*TransitionResult, error) {
	if err := booking.ValidateID(bookingID); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidRequest)
	}

	loaded, err := uc.bookings.FindBooking(ctx, bookingID)
	if err != nil {
		if errs.Is(err, shared.ErrNotFound) {
			return nil, errs.Mark(errs.New("Booking not found"), errs.ErrBookingNotFound)
		}
		return nil, storeErr(err, "load booking")
	}
	key, err := loaded.SlotKey()
	if err != nil {
		return nil, errs.Wrapf(err, "booking %s references a malformed slot", bookingID)
	}

	now := uc.clock.Now()
	bt, st := build(now)
	res, err := uc.bookings.CommitTransition(ctx, shared.DualUpdate{
		BookingID: bookingID,
		Booking:   bt,
		SlotKey:   key,
		Slot:      st,
	})
	if err != nil {
		return nil, errs.Wrapf(err, "commit %s", bt.Event())
	}

	switch res.Outcome {
	case shared.OutcomeOK:
	case shared.OutcomePredicateFailed:
		return nil, uc.conflict(ctx, loaded, res, verb)
	case shared.OutcomeTransient:
		return nil, unavailable(res.Cause, "commit "+string(bt.Event()))
	}

	uc.afterTransition(ctx, loaded, bt.Target(), now)

	return &TransitionResult{BookingID: bookingID, State: bt.Target(), At: now}, nil
}

// conflict names the booking-side reason when both sides were rejected.
func (uc *bookingCommandsImpl) conflict(ctx context.Context, loaded *booking.Booking, res shared.Result, verb string) error {
	uc.logger.Info("transition rejected",
		slog.String("booking_id", loaded.ID()),
		slog.Bool("booking_rejected", res.BookingRejected),
		slog.Bool("slot_rejected", res.SlotRejected))

	if !res.BookingRejected {
		return errs.Mark(errs.New("Slot is no longer held by this booking"), errs.ErrBookingConflict)
	}

	state := loaded.State()
	if latest, err := uc.bookings.FindBooking(ctx, loaded.ID()); err == nil {
		state = latest.State()
	}
	return errs.Mark(errs.Newf("Booking cannot be %s. Current state: %s", verb, state), errs.ErrBookingConflict)
}

// afterTransition clears the push marker and announces the change. Both are best-effort.
func (uc *bookingCommandsImpl) afterTransition(ctx context.Context, b *booking.Booking, to booking.State, at time.Time) {
	if err := uc.expiry.Clear(ctx, b.ID()); err != nil {
		uc.logger.Warn("failed to clear expiry marker", slog.String("booking_id", b.ID()), slog.Any("error", err))
	}

	evType := shared.EventBookingConfirmed
	if to == booking.StateCancelled {
		evType = shared.EventBookingCancelled
	}
	ev := shared.BookingEvent{
		Type:       evType,
		BookingID:  b.ID(),
		ProviderID: b.ProviderID(),
		SlotID:     b.SlotID(),
		UserID:     b.UserID(),
		State:      to,
		OccurredAt: at,
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.logger.Warn("failed to publish booking event", slog.String("booking_id", b.ID()), slog.Any("error", err))
	}
}

// releaseHold undoes a hold whose booking could not be dispatched. The heldBy predicate makes it safe
// even if the hold was already taken over.
func (uc *bookingCommandsImpl) releaseHold(ctx context.Context, key slot.Key, bookingID string) {
	res, err := uc.slots.UpdateSlot(context.WithoutCancel(ctx), key, slot.Release(bookingID))
	if err != nil || !res.OK() {
		uc.logger.Warn("failed to release hold after dispatch failure; it stays held until it lapses",
			slog.String("booking_id", bookingID),
			slog.String("outcome", res.Outcome.String()),
			slog.Any("error", err))
	}
}

func heldMessage(s *slot.Slot) error {
	until := s.HoldExpiresAt()
	if until == nil {
		return errs.New("Slot is currently held by another user")
	}
	return errs.Newf("Slot is currently held by another user until %s", until.UTC().Format(time.RFC3339))
}

func unavailable(cause error, op string) error {
	if cause == nil {
		cause = errs.New("transient store failure")
	}
	return errs.Mark(errs.Wrap(cause, op), errs.ErrServiceUnavailable)
}

// storeErr maps a failed read: transient kinds become ErrServiceUnavailable, the rest stays fatal.
func storeErr(err error, op string) error {
	if errs.Is(err, shared.ErrUnavailable) {
		return unavailable(err, op)
	}
	return errs.Wrap(err, op)
}
