// Package notify delivers the day-closing summary to the configured
// channels. Delivery is best effort: the close operation has already
// succeeded by the time a notifier runs, and a channel failure is logged
// and counted, never surfaced.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"cantine/internal/dates"
	"cantine/internal/events"
	"cantine/internal/metrics"
	"cantine/internal/models"
)

const sendTimeout = 30 * time.Second

// Notifier delivers one closing summary.
type Notifier interface {
	Name() string
	SendClosingSummary(ctx context.Context, dateISO string, t models.Totals) error
}

// Fanout sends the summary through every configured channel, throttled by
// a shared token bucket so a burst of manual re-closes cannot hammer the
// external APIs.
type Fanout struct {
	notifiers []Notifier
	limiter   *rate.Limiter
	logger    *zerolog.Logger
}

// NewFanout builds a fanout over the given channels.
func NewFanout(logger *zerolog.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{
		notifiers: notifiers,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
		logger:    logger,
	}
}

// Handler adapts the fanout to the closing-event bus.
func (f *Fanout) Handler() events.Handler {
	return func(e events.DayClosed) error {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		for _, n := range f.notifiers {
			if err := f.limiter.Wait(ctx); err != nil {
				f.logger.Error().Err(err).Str("channel", n.Name()).Msg("closing summary send aborted")
				metrics.IncNotifyFailure(n.Name())
				continue
			}
			if err := n.SendClosingSummary(ctx, e.DateISO, e.Totals); err != nil {
				f.logger.Error().Err(err).Str("channel", n.Name()).Str("date", e.DateISO).
					Msg("closing summary delivery failed")
				metrics.IncNotifyFailure(n.Name())
				continue
			}
			f.logger.Info().Str("channel", n.Name()).Str("date", e.DateISO).Msg("closing summary sent")
		}
		return nil
	}
}

// Subject renders the mail subject / message title for a closing summary.
func Subject(dateISO string) string {
	return fmt.Sprintf("Comptabilité cafétéria — %s", dates.PrettyHeader(dateISO))
}

// SummaryBody renders the French accounting summary sent at closing time.
// The wording matches the mail the accountant has always received.
func SummaryBody(dateISO string, t models.Totals) string {
	lines := []string{
		fmt.Sprintf("Date : %s", dates.PrettyHeader(dateISO)),
		"",
		fmt.Sprintf("Menus : %d (élèves %d, profs %d)", t.Menus, t.Students, t.Staff),
		fmt.Sprintf("Sandwiches : %d", t.Sandwiches),
		fmt.Sprintf("Boissons : %d", t.Beverages),
		fmt.Sprintf("Chocolats : %d", t.Chocolates),
		"",
		fmt.Sprintf("Fond de caisse initial : %s CHF", models.CashFloat.StringFixed(2)),
		fmt.Sprintf("Encaissements cash : %s CHF", t.Cash.StringFixed(2)),
		fmt.Sprintf("Total en caisse attendu : %s CHF", t.ExpectedInTill().StringFixed(2)),
	}
	return strings.Join(lines, "\n")
}
