// Package dates converts between the two date text forms used at the
// boundary: the dd.mm.yyyy display form shown to users and the canonical
// yyyy-mm-dd form used as the storage key.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02.01.2006"
)

// Weekdays holds the French day labels, Sunday-first to line up with Go's
// time.Weekday numbering.
var Weekdays = [7]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// TodayISO returns the local calendar date in canonical form.
func TodayISO() string {
	return time.Now().Format(isoLayout)
}

// ToCanonical parses dd.mm.yyyy or yyyy-mm-dd into canonical form. Any
// other parseable ISO-like text is accepted too; unparseable or empty
// input falls back to today's local date rather than failing, so a bad
// date from the till UI can never block a sale.
func ToCanonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return TodayISO()
	}
	if t, err := time.ParseInLocation(displayLayout, s, time.Local); err == nil {
		return t.Format(isoLayout)
	}
	if t, err := time.ParseInLocation(isoLayout, s, time.Local); err == nil {
		return t.Format(isoLayout)
	}
	if t, err := time.ParseInLocation(time.RFC3339, s, time.Local); err == nil {
		return t.Format(isoLayout)
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t.Format(isoLayout)
	}
	return TodayISO()
}

// ToDisplay renders a canonical date as dd.mm.yyyy. Input that is not a
// valid canonical date is returned unchanged.
func ToDisplay(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	return t.Format(displayLayout)
}

// Parse parses a canonical yyyy-mm-dd date.
func Parse(iso string) (time.Time, error) {
	t, err := time.ParseInLocation(isoLayout, iso, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", iso, err)
	}
	return t, nil
}

// Format renders a time as a canonical date.
func Format(t time.Time) string {
	return t.Format(isoLayout)
}

// WeekdayLabel returns the French weekday name for a canonical date.
// time.Weekday is Sunday-based, so the Sunday-first label table is
// indexed directly.
func WeekdayLabel(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return ""
	}
	return Weekdays[int(t.Weekday())]
}

// WeekdayIndex maps a French day label to its Monday-based offset used by
// the next-occurrence computation. Unknown labels map to Monday.
func WeekdayIndex(label string) int {
	switch label {
	case "Lundi":
		return 0
	case "Mardi":
		return 1
	case "Mercredi":
		return 2
	case "Jeudi":
		return 3
	case "Vendredi":
		return 4
	case "Samedi":
		return 5
	case "Dimanche":
		return 6
	}
	return 0
}

// NextOccurrence returns the next calendar date with the given French
// weekday label, strictly after today: when today already is that weekday
// the result is next week, never today.
func NextOccurrence(today time.Time, label string) time.Time {
	want := WeekdayIndex(label)
	// Go Monday-based offset of today.
	have := (int(today.Weekday()) + 6) % 7
	delta := (want - have) % 7
	if delta <= 0 {
		delta += 7
	}
	return today.AddDate(0, 0, delta)
}

// PrettyHeader renders "Jour dd.mm" for mail subjects and report headers.
func PrettyHeader(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s %02d.%02d", Weekdays[int(t.Weekday())], t.Day(), int(t.Month()))
}
