package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cantine/internal/models"
)

// ImportSchedule loads calendar rows from a semicolon-separated CSV with
// a date_iso;jour;menu;open;disabled header, as exported from the old
// spreadsheet. Existing rows for the same date are replaced. Returns the
// number of rows imported.
func (s *Service) ImportSchedule(ctx context.Context, r io.Reader) (int, error) {
	records, err := readCSV(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		if len(rec) < 2 || rec[0] == "" {
			continue
		}
		e := models.ScheduleEntry{
			DateISO: rec[0],
			Weekday: field(rec, 1),
			Menu:    field(rec, 2),
			Open:    truthy(field(rec, 3)),
		}
		e.Suspended = truthy(field(rec, 4))
		if err := s.store.UpsertScheduleEntry(ctx, e); err != nil {
			return n, errStorage(err)
		}
		n++
	}
	s.logger.Info().Int("rows", n).Msg("schedule imported")
	return n, nil
}

// ImportReservations seeds reservations from a date_iso;name CSV. Rows
// are appended in file order, so the file order becomes the FIFO order.
func (s *Service) ImportReservations(ctx context.Context, r io.Reader) (int, error) {
	records, err := readCSV(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		date, name := field(rec, 0), strings.TrimSpace(field(rec, 1))
		if date == "" || name == "" {
			continue
		}
		if _, err := s.store.AppendReservation(ctx, date, name); err != nil {
			return n, errStorage(err)
		}
		n++
	}
	s.logger.Info().Int("rows", n).Msg("reservations imported")
	return n, nil
}

// readCSV parses a semicolon-separated file and drops the header row.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "vrai", "yes", "oui":
		return true
	}
	return false
}
