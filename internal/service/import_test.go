package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportSchedule(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := newTestService(store)

	csvData := strings.Join([]string{
		"date_iso;jour;menu;open;disabled",
		"2025-03-20;Jeudi;Lasagnes;1;0",
		"2025-03-21;Vendredi;Poisson;vrai;oui",
		";;skipped row;;",
	}, "\n")

	n, err := svc.ImportSchedule(ctx, strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.schedule, 2)
	assert.True(t, store.schedule[0].Open)
	assert.False(t, store.schedule[0].Suspended)
	assert.True(t, store.schedule[1].Suspended)

	t.Run("reimport replaces by date", func(t *testing.T) {
		n, err := svc.ImportSchedule(ctx, strings.NewReader(
			"date_iso;jour;menu;open\n2025-03-20;Jeudi;Gratin;0\n"))
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, store.schedule, 2)
		assert.Equal(t, "Gratin", store.schedule[0].Menu)
		assert.False(t, store.schedule[0].Open)
	})
}

func TestImportReservations(t *testing.T) {
	ctx := context.Background()
	store := openStore()
	svc := newTestService(store)

	csvData := "date_iso;name\n2025-03-20;John Smith\n2025-03-20; Jane Doe \n;missing name\n"
	n, err := svc.ImportReservations(ctx, strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.reservations, 2)
	// File order becomes queue order.
	assert.Equal(t, "John Smith", store.reservations[0].Name)
	assert.Equal(t, "Jane Doe", store.reservations[1].Name)
}

func TestImportMalformedCSV(t *testing.T) {
	svc := newTestService(&fakeStore{})
	_, err := svc.ImportSchedule(context.Background(), strings.NewReader("a;\"b\nunclosed"))
	assert.Error(t, err)
}
