package notify

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cantine/internal/events"
	"cantine/internal/models"
)

func sampleTotals() models.Totals {
	t := models.NewTotals()
	t.Menus = 3
	t.Students = 2
	t.Staff = 1
	t.Sandwiches = 2
	t.Beverages = 1
	t.Chocolates = 1
	t.Cash = decimal.RequireFromString("43.50")
	return t
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Comptabilité cafétéria — Jeudi 20.03", Subject("2025-03-20"))
}

func TestSummaryBody(t *testing.T) {
	body := SummaryBody("2025-03-20", sampleTotals())

	want := strings.Join([]string{
		"Date : Jeudi 20.03",
		"",
		"Menus : 3 (élèves 2, profs 1)",
		"Sandwiches : 2",
		"Boissons : 1",
		"Chocolats : 1",
		"",
		"Fond de caisse initial : 150.00 CHF",
		"Encaissements cash : 43.50 CHF",
		"Total en caisse attendu : 193.50 CHF",
	}, "\n")
	assert.Equal(t, want, body)
}

type stubNotifier struct {
	name  string
	err   error
	calls int
	last  string
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) SendClosingSummary(ctx context.Context, dateISO string, t models.Totals) error {
	s.calls++
	s.last = dateISO
	return s.err
}

func TestFanoutBestEffort(t *testing.T) {
	logger := zerolog.New(io.Discard)
	broken := &stubNotifier{name: "telegram", err: errors.New("api down")}
	healthy := &stubNotifier{name: "smtp"}

	f := NewFanout(&logger, broken, healthy)
	handler := f.Handler()

	// A failing channel never stops the others, and the handler itself
	// reports success either way.
	err := handler(events.DayClosed{DateISO: "2025-03-20", Totals: sampleTotals(), ClosedAt: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, healthy.calls)
	assert.Equal(t, "2025-03-20", healthy.last)
}

func TestSMTPNotifier(t *testing.T) {
	cfg := SMTPConfig{
		Host: "mail.example.org",
		Port: 2525,
		From: "cafeteria@example.org",
		To:   "compta@example.org, direction@example.org",
	}

	t.Run("sends one multi-recipient mail", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte
		n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		}

		err := n.SendClosingSummary(context.Background(), "2025-03-20", sampleTotals())
		assert.NoError(t, err)
		assert.Equal(t, "mail.example.org:2525", gotAddr)
		assert.Equal(t, "cafeteria@example.org", gotFrom)
		assert.Equal(t, []string{"compta@example.org", "direction@example.org"}, gotTo)
		assert.Contains(t, string(gotMsg), "Subject: "+Subject("2025-03-20"))
		assert.Contains(t, string(gotMsg), "Total en caisse attendu : 193.50 CHF")
	})

	t.Run("send failure is wrapped", func(t *testing.T) {
		n := NewSMTPNotifier(cfg)
		n.send = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		}

		err := n.SendClosingSummary(context.Background(), "2025-03-20", sampleTotals())
		assert.ErrorContains(t, err, "mail.example.org:2525")
	})

	t.Run("no recipients", func(t *testing.T) {
		n := NewSMTPNotifier(SMTPConfig{Host: "mail.example.org"})
		err := n.SendClosingSummary(context.Background(), "2025-03-20", sampleTotals())
		assert.Error(t, err)
	})
}

func TestSMTPConfigEnabled(t *testing.T) {
	assert.False(t, SMTPConfig{}.Enabled())
	assert.False(t, SMTPConfig{Host: "h"}.Enabled())
	assert.True(t, SMTPConfig{Host: "h", To: "a@b"}.Enabled())
}
