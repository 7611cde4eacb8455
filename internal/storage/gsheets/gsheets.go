// Package gsheets implements the storage ports on a shared Google
// spreadsheet. This is the deployment where the secretariat edits the
// calendar and reservations directly in Sheets.
//
// Worksheet layout (kept compatible with the historical spreadsheet):
//
//	Paramètres:   date_iso | jour | menu | open | disabled
//	Réservations: date_iso | name | id | created_at
//	Caisse:       date | nom | type | base | boisson | chocolat | total | timestamp
package gsheets

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cantine/internal/models"
	"cantine/internal/storage"
)

const (
	sheetParams       = "Paramètres"
	sheetReservations = "Réservations"
	sheetTill         = "Caisse"

	timestampLayout = "2006-01-02 15:04:05"
)

var sheetHeaders = map[string][]interface{}{
	sheetParams:       {"date_iso", "jour", "menu", "open", "disabled"},
	sheetReservations: {"date_iso", "name", "id", "created_at"},
	sheetTill:         {"date", "nom", "type", "base", "boisson", "chocolat", "total", "timestamp"},
}

// Service talks to one spreadsheet through the Sheets API.
type Service struct {
	srv           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64 // worksheet title -> sheet id
}

// New builds a Service authenticated with a service-account key file.
func New(ctx context.Context, credentialsFile, spreadsheetID string) (*Service, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &Service{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// Ping verifies the spreadsheet is reachable.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return storage.Unavailable("ping spreadsheet", err)
	}
	return nil
}

// Close is a no-op; the HTTP client needs no teardown.
func (s *Service) Close() error { return nil }

// ensureSheet returns the numeric sheet id for a worksheet, creating the
// worksheet with its header row when missing. Ids are cached.
func (s *Service) ensureSheet(ctx context.Context, title string) (int64, error) {
	s.mu.Lock()
	if id, ok := s.sheetIDs[title]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	doc, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, storage.Unavailable("get spreadsheet", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties.Title == title {
			s.setSheetID(title, sh.Properties.SheetId)
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, storage.Unavailable("add sheet "+title, err)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId

	if header, ok := sheetHeaders[title]; ok {
		if err := s.appendRow(ctx, title, header); err != nil {
			return 0, err
		}
	}
	s.setSheetID(title, id)
	return id, nil
}

func (s *Service) setSheetID(title string, id int64) {
	s.mu.Lock()
	s.sheetIDs[title] = id
	s.mu.Unlock()
}

func (s *Service) appendRow(ctx context.Context, title string, values []interface{}) error {
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, title+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return storage.Unavailable("append row to "+title, err)
	}
	return nil
}

// dataRows returns the worksheet rows below the header.
func (s *Service) dataRows(ctx context.Context, title string) ([][]interface{}, error) {
	if _, err := s.ensureSheet(ctx, title); err != nil {
		return nil, err
	}
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, title+"!A2:H").Context(ctx).Do()
	if err != nil {
		return nil, storage.Unavailable("read "+title, err)
	}
	return resp.Values, nil
}

// ListScheduleEntries reads the Paramètres worksheet.
func (s *Service) ListScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := s.dataRows(ctx, sheetParams)
	if err != nil {
		return nil, err
	}
	var entries []models.ScheduleEntry
	for _, row := range rows {
		e, ok := parseScheduleRow(row)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpsertScheduleEntry updates the row for the entry's date, or appends one.
func (s *Service) UpsertScheduleEntry(ctx context.Context, e models.ScheduleEntry) error {
	rows, err := s.dataRows(ctx, sheetParams)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 0) == e.DateISO {
			rng := fmt.Sprintf("%s!A%d:E%d", sheetParams, i+2, i+2)
			_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{
				Values: [][]interface{}{scheduleRowValues(e)},
			}).ValueInputOption("RAW").Context(ctx).Do()
			if err != nil {
				return storage.Unavailable("update schedule row", err)
			}
			return nil
		}
	}
	return s.appendRow(ctx, sheetParams, scheduleRowValues(e))
}

// ListReservations returns the live reservations for a date in row order.
func (s *Service) ListReservations(ctx context.Context, dateISO string) ([]models.Reservation, error) {
	all, err := s.ListAllReservations(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Reservation
	for _, r := range all {
		if r.DateISO == dateISO {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAllReservations returns every reservation. The spreadsheet row
// position is the FIFO ordinal.
func (s *Service) ListAllReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.dataRows(ctx, sheetReservations)
	if err != nil {
		return nil, err
	}
	var out []models.Reservation
	for i, row := range rows {
		r, ok := parseReservationRow(row, int64(i+1))
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// AppendReservation appends a reservation row with a fresh uuid.
func (s *Service) AppendReservation(ctx context.Context, dateISO, name string) (models.Reservation, error) {
	r := models.Reservation{
		ID:        uuid.NewString(),
		DateISO:   dateISO,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.appendRow(ctx, sheetReservations, reservationRowValues(r)); err != nil {
		return models.Reservation{}, err
	}
	return r, nil
}

// DeleteReservation removes the worksheet row carrying the given uuid.
func (s *Service) DeleteReservation(ctx context.Context, id string) error {
	sheetID, err := s.ensureSheet(ctx, sheetReservations)
	if err != nil {
		return err
	}
	rows, err := s.dataRows(ctx, sheetReservations)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 2) != id {
			continue
		}
		// Data rows start at worksheet index 1 (0 is the header).
		idx := int64(i + 1)
		_, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: idx,
						EndIndex:   idx + 1,
					},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return storage.Unavailable("delete reservation row", err)
		}
		return nil
	}
	return sql.ErrNoRows
}

// ListTillEntries reads the Caisse worksheet rows for a date.
func (s *Service) ListTillEntries(ctx context.Context, dateISO string) ([]models.TillEntry, error) {
	rows, err := s.dataRows(ctx, sheetTill)
	if err != nil {
		return nil, err
	}
	var out []models.TillEntry
	for _, row := range rows {
		e, ok := parseTillRow(row)
		if !ok || e.DateISO != dateISO {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// AppendTillEntry appends one Caisse row.
func (s *Service) AppendTillEntry(ctx context.Context, e models.TillEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return s.appendRow(ctx, sheetTill, tillRowValues(e))
}

// --- row codecs ---

func scheduleRowValues(e models.ScheduleEntry) []interface{} {
	return []interface{}{e.DateISO, e.Weekday, e.Menu, boolCell(e.Open), boolCell(e.Suspended)}
}

func parseScheduleRow(row []interface{}) (models.ScheduleEntry, bool) {
	dateISO := cell(row, 0)
	if dateISO == "" {
		return models.ScheduleEntry{}, false
	}
	return models.ScheduleEntry{
		DateISO:   dateISO,
		Weekday:   cell(row, 1),
		Menu:      cell(row, 2),
		Open:      truthy(cell(row, 3)),
		Suspended: truthy(cell(row, 4)),
	}, true
}

func reservationRowValues(r models.Reservation) []interface{} {
	return []interface{}{r.DateISO, r.Name, r.ID, r.CreatedAt.Format(timestampLayout)}
}

func parseReservationRow(row []interface{}, seq int64) (models.Reservation, bool) {
	dateISO, name := cell(row, 0), strings.TrimSpace(cell(row, 1))
	if dateISO == "" || name == "" {
		return models.Reservation{}, false
	}
	r := models.Reservation{
		ID:      cell(row, 2),
		DateISO: dateISO,
		Name:    name,
		Seq:     seq,
	}
	if ts, err := time.ParseInLocation(timestampLayout, cell(row, 3), time.Local); err == nil {
		r.CreatedAt = ts
	}
	return r, true
}

func tillRowValues(e models.TillEntry) []interface{} {
	return []interface{}{
		e.DateISO,
		e.Name,
		string(e.Kind),
		e.Base.String(),
		e.Beverage.String(),
		e.Chocolate.String(),
		e.Total.String(),
		e.CreatedAt.Format(timestampLayout),
	}
}

func parseTillRow(row []interface{}) (models.TillEntry, bool) {
	dateISO, kind := cell(row, 0), cell(row, 2)
	if dateISO == "" || kind == "" {
		return models.TillEntry{}, false
	}
	e := models.TillEntry{
		DateISO:   dateISO,
		Name:      cell(row, 1),
		Kind:      models.EntryKind(kind),
		Base:      amountCell(row, 3),
		Beverage:  amountCell(row, 4),
		Chocolate: amountCell(row, 5),
		Total:     amountCell(row, 6),
	}
	if ts, err := time.ParseInLocation(timestampLayout, cell(row, 7), time.Local); err == nil {
		e.CreatedAt = ts
	}
	return e, true
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}

func amountCell(row []interface{}, i int) decimal.Decimal {
	s := cell(row, i)
	if s == "" {
		return decimal.Zero
	}
	// Tolerate manual edits with a comma decimal separator.
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "vrai", "yes", "oui":
		return true
	}
	return false
}
