package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"slot-reservation/cmd/bootstrap"
	"slot-reservation/cmd/bootstrap/components"
	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

// Opens a provider's availability: writes AVAILABLE slots for each day in the range. Existing
// slots are left untouched, so re-running with the same window is harmless.
//
//	go run ./cmd/seed -provider provider-1 -date 2030-01-15 -days 5 -start 09:00 -end 17:00 -duration 30m
func main() {
	var (
		providerID = flag.String("provider", "", "provider id")
		date       = flag.String("date", time.Now().UTC().Format(slot.DateLayout), "first date (YYYY-MM-DD)")
		days       = flag.Int("days", 1, "number of consecutive dates")
		start      = flag.String("start", "09:00", "first slot start (HH:mm)")
		end        = flag.String("end", "17:00", "window end (HH:mm, exclusive)")
		duration   = flag.Duration("duration", 30*time.Minute, "slot length")
	)
	flag.Parse()

	windows, err := windowsFor(*providerID, *date, *days, *start, *end, *duration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	var (
		store  shared.SlotStore
		logger *slog.Logger
	)
	app := fx.New(
		bootstrap.ConfigModule,
		bootstrap.LoggerModule,
		bootstrap.DBModule,
		components.StoreModule,
		fx.Populate(&store, &logger),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		slog.Error("seed: startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = app.Stop(context.Background()) }()

	if err := seed(ctx, store, logger, windows); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		_ = app.Stop(context.Background())
		os.Exit(1)
	}
}

func windowsFor(providerID, first string, days int, start, end string, d time.Duration) ([]slot.Window, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1, got %d", days)
	}
	day, err := time.Parse(slot.DateLayout, first)
	if err != nil {
		return nil, slot.ErrInvalidDate
	}
	windows := make([]slot.Window, 0, days)
	for i := range days {
		windows = append(windows, slot.Window{
			ProviderID: providerID,
			Date:       day.AddDate(0, 0, i).Format(slot.DateLayout),
			Start:      start,
			End:        end,
			Duration:   d,
		})
	}
	return windows, nil
}

func seed(ctx context.Context, store shared.SlotStore, logger *slog.Logger, windows []slot.Window) error {
	for _, w := range windows {
		slots, err := w.Slots()
		if err != nil {
			return fmt.Errorf("%s %s: %w", w.ProviderID, w.Date, err)
		}
		created, err := store.PutSlots(ctx, slots)
		if err != nil {
			return fmt.Errorf("%s %s: %w", w.ProviderID, w.Date, err)
		}
		logger.Info("availability opened",
			slog.String("provider_id", w.ProviderID),
			slog.String("date", w.Date),
			slog.Int("slots", len(slots)),
			slog.Int("created", created))
	}
	return nil
}
