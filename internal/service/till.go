package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"cantine/internal/dates"
	"cantine/internal/events"
	"cantine/internal/metrics"
	"cantine/internal/models"
)

// TillState is the cashier view of one date: aggregate totals and the
// ordered list of registered people still waiting to be served.
type TillState struct {
	DateISO string
	Closed  bool
	Names   []string
	Totals  models.Totals
}

// CheckoutRequest is one meal sale at the till.
type CheckoutRequest struct {
	DateISO   string
	Name      string
	Person    string // "ELEVE" | "PROF"
	Method    string // "CASH" | "CARD"
	Beverage  bool
	Chocolate bool
}

// TillBoard recomputes the till state for a date from the ledger. Totals
// are never cached; the till rows are the single source of truth.
func (s *Service) TillBoard(ctx context.Context, dateStr string) (TillState, error) {
	iso := dates.ToCanonical(dateStr)

	till, err := s.store.ListTillEntries(ctx, iso)
	if err != nil {
		return TillState{}, errStorage(err)
	}
	totals, credits := computeTotals(till)

	if hasClosingMarker(till) {
		return TillState{DateISO: iso, Closed: true, Names: []string{}, Totals: totals}, nil
	}

	ordered, err := s.store.ListReservations(ctx, iso)
	if err != nil {
		return TillState{}, errStorage(err)
	}
	return TillState{
		DateISO: iso,
		Names:   remainingQueue(ordered, credits),
		Totals:  totals,
	}, nil
}

// Checkout records one meal sale. The capacity check and the append run
// under the per-date lock.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (TillState, error) {
	iso := dates.ToCanonical(req.DateISO)
	display := dates.ToDisplay(iso)

	lk := s.locks.get(iso)
	lk.Lock()
	defer lk.Unlock()

	till, err := s.store.ListTillEntries(ctx, iso)
	if err != nil {
		return TillState{}, errStorage(err)
	}
	if hasClosingMarker(till) {
		return TillState{}, errTillClosed(display)
	}
	totals, _ := computeTotals(till)
	if totals.Menus >= models.MaxMenus {
		return TillState{}, errCapacity(dates.PrettyHeader(iso))
	}

	student := strings.ToUpper(strings.TrimSpace(req.Person)) == "ELEVE"
	card := strings.ToUpper(strings.TrimSpace(req.Method)) == "CARD"

	base := models.PriceStaff
	if student {
		base = models.PriceStudent
	}
	bev, choc := decimal.Zero, decimal.Zero
	if req.Beverage {
		bev = models.PriceBeverage
	}
	if req.Chocolate {
		choc = models.PriceChocolate
	}
	// Card meals are pre-paid: only the add-ons hit the till cash.
	total := base.Add(bev).Add(choc)
	if card {
		total = bev.Add(choc)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Anonyme"
	}

	entry := models.TillEntry{
		DateISO:   iso,
		Name:      name,
		Kind:      models.MealKind(student, card),
		Base:      base,
		Beverage:  bev,
		Chocolate: choc,
		Total:     total,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendTillEntry(ctx, entry); err != nil {
		return TillState{}, errStorage(err)
	}

	metrics.IncCheckout(string(entry.Kind), strings.ToUpper(req.Method))
	s.logger.Info().
		Str("date", iso).
		Str("name", name).
		Str("kind", string(entry.Kind)).
		Str("cash", total.StringFixed(2)).
		Msg("meal checked out")

	return s.TillBoard(ctx, iso)
}

// AddItem appends qty standalone add-on rows (sandwich, beverage or
// chocolate) at the fixed price. There is no capacity rule for add-ons.
func (s *Service) AddItem(ctx context.Context, item, dateStr string, qty int) (TillState, error) {
	iso := dates.ToCanonical(dateStr)
	display := dates.ToDisplay(iso)

	kind, price, err := addOnKind(item)
	if err != nil {
		return TillState{}, err
	}
	if qty < 1 {
		qty = 1
	}

	lk := s.locks.get(iso)
	lk.Lock()
	defer lk.Unlock()

	till, err := s.store.ListTillEntries(ctx, iso)
	if err != nil {
		return TillState{}, errStorage(err)
	}
	if hasClosingMarker(till) {
		return TillState{}, errTillClosed(display)
	}

	for i := 0; i < qty; i++ {
		entry := models.TillEntry{
			DateISO:   iso,
			Kind:      kind,
			Base:      decimal.Zero,
			Beverage:  decimal.Zero,
			Chocolate: decimal.Zero,
			Total:     price,
			CreatedAt: s.now(),
		}
		switch kind {
		case models.KindSandwich:
			entry.Base = price
		case models.KindBeverage:
			entry.Beverage = price
		case models.KindChocolate:
			entry.Chocolate = price
		}
		if err := s.store.AppendTillEntry(ctx, entry); err != nil {
			return TillState{}, errStorage(err)
		}
		metrics.IncAddOn(string(kind))
	}

	s.logger.Info().Str("date", iso).Str("kind", string(kind)).Int("qty", qty).Msg("add-on sold")
	return s.TillBoard(ctx, iso)
}

// CloseDay seals a date: it computes the final totals, appends the
// closing marker and hands the summary to the closing subscribers. The
// close itself always succeeds; a failed notification is logged by its
// subscriber and never propagates. Appending a second marker leaves the
// date just as closed, so retrying a close is harmless.
func (s *Service) CloseDay(ctx context.Context, dateStr string) (models.Totals, error) {
	iso := dates.ToCanonical(dateStr)

	lk := s.locks.get(iso)
	lk.Lock()
	defer lk.Unlock()

	till, err := s.store.ListTillEntries(ctx, iso)
	if err != nil {
		return models.Totals{}, errStorage(err)
	}
	totals, _ := computeTotals(till)

	if err := s.store.AppendTillEntry(ctx, models.ClosingEntry(iso, s.now())); err != nil {
		return models.Totals{}, errStorage(err)
	}
	metrics.IncDayClosed()
	s.logger.Info().
		Str("date", iso).
		Int("menus", totals.Menus).
		Str("cash", totals.Cash.StringFixed(2)).
		Msg("till closed")

	if s.bus != nil {
		summary := events.DayClosed{DateISO: iso, Totals: totals, ClosedAt: s.now()}
		go s.bus.Publish(events.TypeDayClosed, summary)
	}
	return totals, nil
}

// isDayClosed reports whether the date's till carries a closing marker.
func (s *Service) isDayClosed(ctx context.Context, iso string) (bool, error) {
	till, err := s.store.ListTillEntries(ctx, iso)
	if err != nil {
		return false, errStorage(err)
	}
	return hasClosingMarker(till), nil
}

func hasClosingMarker(till []models.TillEntry) bool {
	for _, e := range till {
		if e.Kind == models.KindClosed {
			return true
		}
	}
	return false
}

// computeTotals folds the till rows for a date into aggregate counters
// and collects per-name paid-meal credits for the queue derivation.
//
// Meal rows always contribute their own stored amounts to cash, so card
// rows add only their add-on cash and the pre-paid base is never double
// counted. A meal's beverage or chocolate add-on bumps the standalone
// counter too: for inventory a drink is a drink however it was sold.
func computeTotals(till []models.TillEntry) (models.Totals, map[string]int) {
	t := models.NewTotals()
	credits := make(map[string]int)
	for _, row := range till {
		switch {
		case row.Kind == models.KindClosed:
			continue
		case row.Kind == models.KindSandwich:
			t.Sandwiches++
		case row.Kind == models.KindBeverage:
			t.Beverages++
		case row.Kind == models.KindChocolate:
			t.Chocolates++
		default:
			t.Menus++
			if row.Kind.IsStudent() {
				t.Students++
			} else {
				t.Staff++
			}
			if key := models.NormalizeName(row.Name); key != "" {
				credits[key]++
			}
			if row.Beverage.IsPositive() {
				t.Beverages++
			}
			if row.Chocolate.IsPositive() {
				t.Chocolates++
			}
		}
		t.Cash = t.Cash.Add(row.Total)
	}
	return t, credits
}

// remainingQueue walks the reservations in registration order and skips
// each one that still has a paid-meal credit for its normalized name,
// consuming one credit per skip. Duplicate names are handled FIFO:
// credits cannot go negative, so someone registered twice and paid once
// still appears once. Walk-ins have an empty key and never consume a
// reservation credit.
func remainingQueue(ordered []models.Reservation, credits map[string]int) []string {
	left := make(map[string]int, len(credits))
	for k, v := range credits {
		left[k] = v
	}
	remaining := make([]string, 0, len(ordered))
	for _, r := range ordered {
		key := models.NormalizeName(r.Name)
		if key != "" && left[key] > 0 {
			left[key]--
			continue
		}
		remaining = append(remaining, r.Name)
	}
	return remaining
}

func addOnKind(item string) (models.EntryKind, decimal.Decimal, error) {
	switch strings.ToLower(strings.TrimSpace(item)) {
	case "sandwich":
		return models.KindSandwich, models.PriceSandwich, nil
	case "beverage", "boisson":
		return models.KindBeverage, models.PriceBeverage, nil
	case "chocolate", "chocolat":
		return models.KindChocolate, models.PriceChocolate, nil
	}
	return "", decimal.Zero, &DomainError{
		Kind:    KindNotFound,
		Message: "Article inconnu: " + item,
	}
}
