// Package models defines the cantine domain entities shared by the
// storage backends and the service layer.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed business constants. Prices are in CHF.
var (
	PriceStudent   = decimal.NewFromInt(8)
	PriceStaff     = decimal.NewFromInt(12)
	PriceSandwich  = decimal.NewFromInt(6)
	PriceBeverage  = decimal.NewFromInt(2)
	PriceChocolate = decimal.RequireFromString("1.50")

	// CashFloat is the opening cash amount placed in the till each day.
	CashFloat = decimal.NewFromInt(150)
)

const (
	// MaxReservations is the registration quota per serving date.
	MaxReservations = 40
	// MaxMenus is the number of meals that can be served per date.
	MaxMenus = 45
)

// ScheduleEntry is one row of the serving calendar. Entries are maintained
// by the admin import and read-only for the rest of the system.
type ScheduleEntry struct {
	DateISO   string // yyyy-mm-dd
	Weekday   string // French label: Lundi, Mardi, ...
	Menu      string
	Open      bool
	Suspended bool // shown struck-out on the registration board
}

// Reservation is a pre-registration of one person for one serving date.
// Seq is the monotonic insertion ordinal; it defines the FIFO order used
// by the till reconciliation.
type Reservation struct {
	ID        string // uuid, stable across backends
	DateISO   string
	Name      string // raw display text as entered
	Seq       int64
	CreatedAt time.Time
}

// EntryKind labels a till row. The string values double as the storage
// representation (till table / Caisse worksheet), so they match what the
// cashiers have always seen in the spreadsheet.
type EntryKind string

const (
	KindStudentCash EntryKind = "Eleve (CASH)"
	KindStudentCard EntryKind = "Eleve (CARD)"
	KindStaffCash   EntryKind = "Prof (CASH)"
	KindStaffCard   EntryKind = "Prof (CARD)"
	KindSandwich    EntryKind = "Sandwich"
	KindBeverage    EntryKind = "Boisson"
	KindChocolate   EntryKind = "Chocolat"
	KindClosed      EntryKind = "Closed"
)

// IsMeal reports whether the kind is a served menu (student or staff).
func (k EntryKind) IsMeal() bool {
	switch k {
	case KindStudentCash, KindStudentCard, KindStaffCash, KindStaffCard:
		return true
	}
	return false
}

// IsStudent reports whether a meal row was sold at the student price.
// Matching is tolerant of legacy rows imported from the old spreadsheet,
// where only the "Eleve" prefix is reliable.
func (k EntryKind) IsStudent() bool {
	return strings.Contains(strings.ToLower(string(k)), "eleve")
}

// IsCard reports whether a meal row was paid with a pre-purchased card.
func (k EntryKind) IsCard() bool {
	return k == KindStudentCard || k == KindStaffCard
}

// MealKind builds the till kind for a meal sale.
func MealKind(student, card bool) EntryKind {
	switch {
	case student && card:
		return KindStudentCard
	case student:
		return KindStudentCash
	case card:
		return KindStaffCard
	default:
		return KindStaffCash
	}
}

// TillEntry is one point-of-sale transaction line. Rows are append-only;
// they are the audit trail of the day and are never mutated or deleted.
type TillEntry struct {
	DateISO   string
	Name      string // "" or "Anonyme" for walk-ins
	Kind      EntryKind
	Base      decimal.Decimal
	Beverage  decimal.Decimal
	Chocolate decimal.Decimal
	// Total is the cash actually collected for the row: add-ons only for
	// CARD meals, base plus add-ons for CASH meals, the item price for
	// standalone add-on rows, zero for the closing marker.
	Total     decimal.Decimal
	CreatedAt time.Time
}

// ClosingEntry builds the sentinel row that seals a date.
func ClosingEntry(dateISO string, now time.Time) TillEntry {
	return TillEntry{
		DateISO:   dateISO,
		Kind:      KindClosed,
		Base:      decimal.Zero,
		Beverage:  decimal.Zero,
		Chocolate: decimal.Zero,
		Total:     decimal.Zero,
		CreatedAt: now,
	}
}

// Totals is the aggregate view of one day's till. It is always derived
// from the till rows and never persisted, so it cannot drift from the
// ledger.
type Totals struct {
	Menus      int
	Students   int
	Staff      int
	Sandwiches int
	Beverages  int
	Chocolates int
	Cash       decimal.Decimal
}

// NewTotals returns a zeroed Totals with a valid Cash decimal.
func NewTotals() Totals {
	return Totals{Cash: decimal.Zero}
}

// ExpectedInTill is the cash expected when counting the till at close:
// opening float plus collected cash.
func (t Totals) ExpectedInTill() decimal.Decimal {
	return CashFloat.Add(t.Cash)
}

// NormalizeName canonicalizes a free-text name for matching: trim,
// upper-case, collapse whitespace runs. Two names refer to the same person
// iff their normalized keys are equal. The empty key never matches a
// registered name, which keeps walk-ins out of the reconciliation.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
