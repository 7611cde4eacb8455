package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cantine/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	e := models.ScheduleEntry{
		DateISO: "2025-03-20",
		Weekday: "Jeudi",
		Menu:    "Lasagnes",
		Open:    true,
	}
	require.NoError(t, db.UpsertScheduleEntry(ctx, e))

	entries, err := db.ListScheduleEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])

	t.Run("upsert replaces", func(t *testing.T) {
		e.Menu = "Gratin"
		e.Open = false
		e.Suspended = true
		require.NoError(t, db.UpsertScheduleEntry(ctx, e))

		entries, err := db.ListScheduleEntries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Gratin", entries[0].Menu)
		assert.False(t, entries[0].Open)
		assert.True(t, entries[0].Suspended)
	})
}

func TestReservations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	t.Run("append keeps FIFO order", func(t *testing.T) {
		first, err := db.AppendReservation(ctx, "2025-03-20", "John Smith")
		require.NoError(t, err)
		second, err := db.AppendReservation(ctx, "2025-03-20", "Jane Doe")
		require.NoError(t, err)
		_, err = db.AppendReservation(ctx, "2025-03-21", "Other Day")
		require.NoError(t, err)

		assert.NotEmpty(t, first.ID)
		assert.Less(t, first.Seq, second.Seq)

		list, err := db.ListReservations(ctx, "2025-03-20")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "John Smith", list[0].Name)
		assert.Equal(t, "Jane Doe", list[1].Name)

		all, err := db.ListAllReservations(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("delete by id", func(t *testing.T) {
		r, err := db.AppendReservation(ctx, "2025-03-22", "To Remove")
		require.NoError(t, err)

		require.NoError(t, db.DeleteReservation(ctx, r.ID))
		list, err := db.ListReservations(ctx, "2025-03-22")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		err := db.DeleteReservation(ctx, "no-such-id")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestTillEntries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	e := models.TillEntry{
		DateISO:   "2025-03-20",
		Name:      "John Smith",
		Kind:      models.KindStudentCash,
		Base:      decimal.NewFromInt(8),
		Beverage:  decimal.NewFromInt(2),
		Chocolate: decimal.RequireFromString("1.50"),
		Total:     decimal.RequireFromString("11.50"),
		CreatedAt: time.Date(2025, 3, 20, 12, 30, 0, 0, time.UTC),
	}
	require.NoError(t, db.AppendTillEntry(ctx, e))
	require.NoError(t, db.AppendTillEntry(ctx, models.ClosingEntry("2025-03-20", time.Now())))

	rows, err := db.ListTillEntries(ctx, "2025-03-20")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	got := rows[0]
	assert.Equal(t, models.KindStudentCash, got.Kind)
	assert.True(t, got.Base.Equal(e.Base))
	assert.True(t, got.Beverage.Equal(e.Beverage))
	assert.True(t, got.Chocolate.Equal(e.Chocolate))
	assert.True(t, got.Total.Equal(e.Total))
	assert.Equal(t, models.KindClosed, rows[1].Kind)

	other, err := db.ListTillEntries(ctx, "2025-03-21")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}
