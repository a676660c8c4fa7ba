//go:build unit

package main

import (
	"context"
	"testing"
	"time"

	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/infra/memstore"
	"slot-reservation/tests/common/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsFor(t *testing.T) {
	t.Run("consecutive dates across a month end", func(t *testing.T) {
		windows, err := windowsFor("p1", "2030-01-30", 3, "09:00", "10:00", 30*time.Minute)
		require.NoError(t, err)
		require.Len(t, windows, 3)
		assert.Equal(t, "2030-01-30", windows[0].Date)
		assert.Equal(t, "2030-02-01", windows[2].Date)
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := windowsFor("p1", "2030-01-30", 0, "09:00", "10:00", time.Hour)
		assert.Error(t, err)

		_, err = windowsFor("p1", "30-01-2030", 1, "09:00", "10:00", time.Hour)
		assert.ErrorIs(t, err, slot.ErrInvalidDate)
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	windows, err := windowsFor("p1", "2030-01-15", 2, "09:00", "11:00", 30*time.Minute)
	require.NoError(t, err)

	require.NoError(t, seed(ctx, store, testutil.DiscardLogger(), windows))

	for _, key := range []slot.Key{
		{ProviderID: "p1", Date: "2030-01-15", Time: "09:00"},
		{ProviderID: "p1", Date: "2030-01-16", Time: "10:30"},
	} {
		s, err := store.FindSlot(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, slot.StatusAvailable, s.Status())
	}

	t.Run("re-running leaves held slots alone", func(t *testing.T) {
		key := slot.Key{ProviderID: "p1", Date: "2030-01-15", Time: "09:00"}
		now := time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
		res, err := store.UpdateSlot(ctx, key, slot.Hold("booking-1", now.Add(time.Minute), now))
		require.NoError(t, err)
		require.True(t, res.OK())

		require.NoError(t, seed(ctx, store, testutil.DiscardLogger(), windows))

		s, err := store.FindSlot(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, slot.StatusHeld, s.Status())
	})

	t.Run("missing provider fails", func(t *testing.T) {
		bad, err := windowsFor("", "2030-01-15", 1, "09:00", "10:00", time.Hour)
		require.NoError(t, err)
		assert.ErrorIs(t, seed(ctx, store, testutil.DiscardLogger(), bad), slot.ErrProviderIDRequired)
	})
}
