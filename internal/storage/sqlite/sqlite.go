// Package sqlite implements the storage ports on a local SQLite file.
// This is the standalone deployment used on the cafeteria PC.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"cantine/internal/models"
	"cantine/internal/storage"
)

// DB wraps sql.DB for the cantine store.
type DB struct {
	*sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Serving calendar, one row per date.
		`CREATE TABLE IF NOT EXISTS params (
			date_iso TEXT PRIMARY KEY,
			jour TEXT NOT NULL,
			menu TEXT NOT NULL DEFAULT '',
			open BOOLEAN NOT NULL DEFAULT 0,
			disabled BOOLEAN NOT NULL DEFAULT 0
		)`,

		// Pre-registrations. seq is the FIFO ordinal.
		`CREATE TABLE IF NOT EXISTS reservations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			date_iso TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Till ledger, append-only.
		`CREATE TABLE IF NOT EXISTS till (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date_iso TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			base TEXT NOT NULL DEFAULT '0',
			beverage TEXT NOT NULL DEFAULT '0',
			chocolate TEXT NOT NULL DEFAULT '0',
			total TEXT NOT NULL DEFAULT '0',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date_iso)`,
		`CREATE INDEX IF NOT EXISTS idx_till_date ON till(date_iso)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Ping reports whether the database file is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// ListScheduleEntries returns the serving calendar ordered by date.
func (db *DB) ListScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT date_iso, jour, menu, open, disabled FROM params ORDER BY date_iso`)
	if err != nil {
		return nil, storage.Unavailable("list schedule", err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.DateISO, &e.Weekday, &e.Menu, &e.Open, &e.Suspended); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertScheduleEntry creates or replaces one calendar row.
func (db *DB) UpsertScheduleEntry(ctx context.Context, e models.ScheduleEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO params (date_iso, jour, menu, open, disabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date_iso) DO UPDATE SET
			jour = excluded.jour,
			menu = excluded.menu,
			open = excluded.open,
			disabled = excluded.disabled`,
		e.DateISO, e.Weekday, e.Menu, e.Open, e.Suspended,
	)
	if err != nil {
		return storage.Unavailable("upsert schedule", err)
	}
	return nil
}

// ListReservations returns live reservations for a date in FIFO order.
func (db *DB) ListReservations(ctx context.Context, dateISO string) ([]models.Reservation, error) {
	return db.queryReservations(ctx,
		`SELECT seq, id, date_iso, name, created_at FROM reservations WHERE date_iso = ? ORDER BY seq`,
		dateISO)
}

// ListAllReservations returns every live reservation ordered by date then
// insertion order.
func (db *DB) ListAllReservations(ctx context.Context) ([]models.Reservation, error) {
	return db.queryReservations(ctx,
		`SELECT seq, id, date_iso, name, created_at FROM reservations ORDER BY date_iso, seq`)
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Unavailable("list reservations", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(&r.Seq, &r.ID, &r.DateISO, &r.Name, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendReservation appends one reservation and returns it with the
// assigned uuid and ordinal.
func (db *DB) AppendReservation(ctx context.Context, dateISO, name string) (models.Reservation, error) {
	r := models.Reservation{
		ID:        uuid.NewString(),
		DateISO:   dateISO,
		Name:      name,
		CreatedAt: time.Now(),
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO reservations (id, date_iso, name, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.DateISO, r.Name, r.CreatedAt,
	)
	if err != nil {
		return models.Reservation{}, storage.Unavailable("append reservation", err)
	}
	if r.Seq, err = res.LastInsertId(); err != nil {
		return models.Reservation{}, fmt.Errorf("reservation ordinal: %w", err)
	}
	return r, nil
}

// DeleteReservation removes one reservation by uuid.
func (db *DB) DeleteReservation(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return storage.Unavailable("delete reservation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListTillEntries returns the till rows for a date in insertion order.
func (db *DB) ListTillEntries(ctx context.Context, dateISO string) ([]models.TillEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date_iso, name, type, base, beverage, chocolate, total, created_at
		FROM till WHERE date_iso = ? ORDER BY id`,
		dateISO,
	)
	if err != nil {
		return nil, storage.Unavailable("list till", err)
	}
	defer rows.Close()

	var out []models.TillEntry
	for rows.Next() {
		var e models.TillEntry
		var kind, base, bev, choc, total string
		if err := rows.Scan(&e.DateISO, &e.Name, &kind, &base, &bev, &choc, &total, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan till row: %w", err)
		}
		e.Kind = models.EntryKind(kind)
		if e.Base, err = parseAmount(base); err != nil {
			return nil, err
		}
		if e.Beverage, err = parseAmount(bev); err != nil {
			return nil, err
		}
		if e.Chocolate, err = parseAmount(choc); err != nil {
			return nil, err
		}
		if e.Total, err = parseAmount(total); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendTillEntry appends one till row. Amounts are stored as decimal
// text so they survive round-trips exactly.
func (db *DB) AppendTillEntry(ctx context.Context, e models.TillEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO till (date_iso, name, type, base, beverage, chocolate, total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DateISO, e.Name, string(e.Kind),
		e.Base.String(), e.Beverage.String(), e.Chocolate.String(), e.Total.String(),
		e.CreatedAt,
	)
	if err != nil {
		return storage.Unavailable("append till entry", err)
	}
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
