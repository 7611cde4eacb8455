package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cantine/internal/dates"
	"cantine/internal/metrics"
	"cantine/internal/models"
)

// Register appends a reservation for a serving date. The date must have
// an open calendar entry and must not be sealed; the quota check and the
// append run under the per-date lock so concurrent registrations cannot
// overshoot the cap.
func (s *Service) Register(ctx context.Context, dateStr, name string) (string, error) {
	iso := dates.ToCanonical(dateStr)
	display := dates.ToDisplay(iso)
	name = strings.TrimSpace(name)

	lk := s.locks.get(iso)
	lk.Lock()
	defer lk.Unlock()

	open, err := s.isOpenForRegistration(ctx, iso)
	if err != nil {
		return "", err
	}
	if !open {
		metrics.IncReservationCreated("rejected_closed")
		return "", errDayNotOpen(display)
	}

	existing, err := s.store.ListReservations(ctx, iso)
	if err != nil {
		return "", errStorage(err)
	}
	if len(existing) >= models.MaxReservations {
		metrics.IncReservationCreated("rejected_quota")
		return "", errQuota(display)
	}

	r, err := s.store.AppendReservation(ctx, iso, name)
	if err != nil {
		return "", errStorage(err)
	}

	metrics.IncReservationCreated("ok")
	s.logger.Info().Str("date", iso).Str("name", name).Int64("seq", r.Seq).Msg("reservation added")
	return fmt.Sprintf("Merci %s, réservation confirmée pour le %s !", name, display), nil
}

// Unregister removes the first reservation whose normalized name matches,
// in registration order. Matching is case and whitespace insensitive, so
// "  john   smith " unregisters "JOHN SMITH".
func (s *Service) Unregister(ctx context.Context, dateStr, name string) (string, error) {
	iso := dates.ToCanonical(dateStr)
	display := dates.ToDisplay(iso)

	lk := s.locks.get(iso)
	lk.Lock()
	defer lk.Unlock()

	closed, err := s.isDayClosed(ctx, iso)
	if err != nil {
		return "", err
	}
	if closed {
		return "", errTillClosed(display)
	}

	key := models.NormalizeName(name)
	if key == "" {
		return "", errNotFound(name, display)
	}

	list, err := s.store.ListReservations(ctx, iso)
	if err != nil {
		return "", errStorage(err)
	}
	for _, r := range list {
		if models.NormalizeName(r.Name) != key {
			continue
		}
		if err := s.store.DeleteReservation(ctx, r.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", errNotFound(name, display)
			}
			return "", errStorage(err)
		}
		metrics.IncReservationRemoved()
		s.logger.Info().Str("date", iso).Str("name", r.Name).Msg("reservation removed")
		return fmt.Sprintf("Vous êtes désinscrit pour le %s.", display), nil
	}
	return "", errNotFound(name, display)
}

// isOpenForRegistration reports whether the date has an open calendar
// entry and has not been sealed by a closing marker. A sealed date stays
// closed forever; there is no reopen.
func (s *Service) isOpenForRegistration(ctx context.Context, iso string) (bool, error) {
	entries, err := s.store.ListScheduleEntries(ctx)
	if err != nil {
		return false, errStorage(err)
	}
	open := false
	for _, e := range entries {
		if e.DateISO == iso && e.Open {
			open = true
			break
		}
	}
	if !open {
		return false, nil
	}
	closed, err := s.isDayClosed(ctx, iso)
	if err != nil {
		return false, err
	}
	return !closed, nil
}
