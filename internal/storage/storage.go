// Package storage defines the persistence ports shared by the SQLite and
// Google Sheets backends. The service layer only ever sees these
// interfaces; each backend is a thin adapter.
package storage

import (
	"context"
	"errors"
	"fmt"

	"cantine/internal/models"
)

// ErrUnavailable marks persistence failures: the storage collaborator is
// unreachable or rejected the operation. There are no partial-write
// retries at this layer; the current operation is abandoned.
var ErrUnavailable = errors.New("storage unavailable")

// Unavailable wraps err so callers can detect it with errors.Is.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// ScheduleSource reads the serving calendar. The calendar is maintained by
// the admin import; refreshed on every call, never cached across requests.
type ScheduleSource interface {
	ListScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error)
}

// ReservationStore holds the pre-registration ledger.
type ReservationStore interface {
	// ListReservations returns the live reservations for a date in
	// insertion order (ascending Seq).
	ListReservations(ctx context.Context, dateISO string) ([]models.Reservation, error)
	// ListAllReservations returns every live reservation, all dates.
	ListAllReservations(ctx context.Context) ([]models.Reservation, error)
	// AppendReservation appends a reservation and returns it with its
	// assigned ID and ordinal.
	AppendReservation(ctx context.Context, dateISO, name string) (models.Reservation, error)
	// DeleteReservation removes one reservation by ID.
	DeleteReservation(ctx context.Context, id string) error
}

// TillStore holds the append-only till ledger. Appends are not validated
// here; open/closed and capacity checks belong to the caller.
type TillStore interface {
	// ListTillEntries returns the till rows for a date in insertion order.
	ListTillEntries(ctx context.Context, dateISO string) ([]models.TillEntry, error)
	AppendTillEntry(ctx context.Context, e models.TillEntry) error
}

// ScheduleImporter replaces calendar rows and seeds reservations from the
// admin CSV import.
type ScheduleImporter interface {
	UpsertScheduleEntry(ctx context.Context, e models.ScheduleEntry) error
}

// Store is the full persistence surface a backend provides.
type Store interface {
	ScheduleSource
	ReservationStore
	TillStore
	ScheduleImporter
	Ping(ctx context.Context) error
	Close() error
}
