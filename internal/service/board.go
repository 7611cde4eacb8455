package service

import (
	"context"
	"sort"
	"time"

	"cantine/internal/dates"
	"cantine/internal/models"
)

// TrackedWeekdays are the serving days shown on the registration board,
// one card each, open or not.
var TrackedWeekdays = []string{"Lundi", "Mardi", "Jeudi", "Vendredi"}

// DayCard is one weekday card on the registration board.
type DayCard struct {
	Date      string `json:"date"` // display form dd.mm.yyyy
	Weekday   string `json:"jour"`
	Menu      string `json:"menu"`
	Open      bool   `json:"open"`
	Suspended bool   `json:"disabled"`
}

// Board is the registration surface: the weekday cards plus the current
// reservation names per display date.
type Board struct {
	Days         []DayCard           `json:"days"`
	Reservations map[string][]string `json:"reservations"`
}

// HomeBoard resolves the next serving date for every tracked weekday and
// collects all reservation names keyed by display date.
func (s *Service) HomeBoard(ctx context.Context) (Board, error) {
	entries, err := s.store.ListScheduleEntries(ctx)
	if err != nil {
		return Board{}, errStorage(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].DateISO < entries[j].DateISO })

	today := s.now()
	todayISO := dates.Format(today)

	board := Board{Reservations: make(map[string][]string)}
	for _, weekday := range TrackedWeekdays {
		board.Days = append(board.Days, resolveNextOpenDay(entries, weekday, today, todayISO))
	}

	all, err := s.store.ListAllReservations(ctx)
	if err != nil {
		return Board{}, errStorage(err)
	}
	for _, r := range all {
		key := dates.ToDisplay(r.DateISO)
		board.Reservations[key] = append(board.Reservations[key], r.Name)
	}
	return board, nil
}

// resolveNextOpenDay picks the earliest open calendar entry for the
// weekday at or after today. When none is open the card shows the next
// calendar occurrence of that weekday, closed with a blank menu, so the
// board always shows exactly one card per tracked weekday.
func resolveNextOpenDay(entries []models.ScheduleEntry, weekday string, today time.Time, todayISO string) DayCard {
	for _, e := range entries {
		if e.Weekday != weekday || !e.Open || e.DateISO < todayISO {
			continue
		}
		return DayCard{
			Date:      dates.ToDisplay(e.DateISO),
			Weekday:   e.Weekday,
			Menu:      e.Menu,
			Open:      true,
			Suspended: e.Suspended,
		}
	}
	next := dates.NextOccurrence(today, weekday)
	return DayCard{
		Date:    dates.ToDisplay(dates.Format(next)),
		Weekday: weekday,
	}
}
