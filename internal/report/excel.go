// Package report writes the end-of-day till report: one workbook per
// closed date with the raw till rows and the accounting totals, kept as a
// local audit artifact next to the database.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"cantine/internal/dates"
	"cantine/internal/events"
	"cantine/internal/models"
	"cantine/internal/storage"
)

var tillColumns = []string{"Nom", "Type", "Base", "Boisson", "Chocolat", "Cash", "Heure"}

// Writer produces one xlsx per closed date.
type Writer struct {
	dir    string
	till   storage.TillStore
	logger *zerolog.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, till storage.TillStore, logger *zerolog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir, till: till, logger: logger}, nil
}

// Handler adapts the writer to the closing-event bus.
func (w *Writer) Handler() events.Handler {
	return func(e events.DayClosed) error {
		path, err := w.Write(context.Background(), e.DateISO, e.Totals)
		if err != nil {
			w.logger.Error().Err(err).Str("date", e.DateISO).Msg("closing report failed")
			return err
		}
		w.logger.Info().Str("path", path).Msg("closing report written")
		return nil
	}
}

// Write renders caisse_<date>.xlsx and returns its path.
func (w *Writer) Write(ctx context.Context, dateISO string, totals models.Totals) (string, error) {
	till, err := w.till.ListTillEntries(ctx, dateISO)
	if err != nil {
		return "", fmt.Errorf("load till rows: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeTillSheet(f, dateISO, till); err != nil {
		return "", err
	}
	if err := writeTotalsSheet(f, totals); err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("caisse_%s.xlsx", dateISO))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func writeTillSheet(f *excelize.File, dateISO string, till []models.TillEntry) error {
	sheet := "Caisse " + dates.ToDisplay(dateISO)
	// Excel caps sheet names at 31 chars.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	f.SetSheetName("Sheet1", sheet)

	if err := writeRow(f, sheet, 1, toCells(tillColumns)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(tillColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", end, style)
	}

	for i, e := range till {
		row := []interface{}{
			e.Name,
			string(e.Kind),
			e.Base.StringFixed(2),
			e.Beverage.StringFixed(2),
			e.Chocolate.StringFixed(2),
			e.Total.StringFixed(2),
			e.CreatedAt.Format("15:04:05"),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeTotalsSheet(f *excelize.File, t models.Totals) error {
	const sheet = "Totaux"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Menus", t.Menus},
		{"Élèves", t.Students},
		{"Profs", t.Staff},
		{"Sandwiches", t.Sandwiches},
		{"Boissons", t.Beverages},
		{"Chocolats", t.Chocolates},
		{"Fond de caisse", models.CashFloat.StringFixed(2)},
		{"Encaissements cash", t.Cash.StringFixed(2)},
		{"Total en caisse attendu", t.ExpectedInTill().StringFixed(2)},
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
