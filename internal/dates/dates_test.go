package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToCanonical(t *testing.T) {
	t.Run("display form", func(t *testing.T) {
		assert.Equal(t, "2025-03-15", ToCanonical("15.03.2025"))
	})

	t.Run("already canonical", func(t *testing.T) {
		assert.Equal(t, "2025-03-15", ToCanonical("2025-03-15"))
	})

	t.Run("timestamp forms", func(t *testing.T) {
		assert.Equal(t, "2025-03-15", ToCanonical("2025-03-15T08:30:00"))
		assert.Equal(t, "2025-03-15", ToCanonical("2025-03-15T08:30:00Z"))
	})

	t.Run("garbage falls back to today", func(t *testing.T) {
		today := time.Now().Format("2006-01-02")
		assert.Equal(t, today, ToCanonical("pas une date"))
		assert.Equal(t, today, ToCanonical(""))
	})
}

func TestToDisplay(t *testing.T) {
	assert.Equal(t, "15.03.2025", ToDisplay("2025-03-15"))
	// Invalid input passes through untouched.
	assert.Equal(t, "n/a", ToDisplay("n/a"))
}

func TestWeekdayLabel(t *testing.T) {
	cases := map[string]string{
		"2025-03-17": "Lundi",
		"2025-03-18": "Mardi",
		"2025-03-19": "Mercredi",
		"2025-03-20": "Jeudi",
		"2025-03-21": "Vendredi",
		"2025-03-22": "Samedi",
		"2025-03-23": "Dimanche",
	}
	for iso, want := range cases {
		assert.Equal(t, want, WeekdayLabel(iso), iso)
	}
	assert.Equal(t, "", WeekdayLabel("bogus"))
}

func TestNextOccurrence(t *testing.T) {
	monday := time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local)

	t.Run("later in the same week", func(t *testing.T) {
		got := NextOccurrence(monday, "Jeudi")
		assert.Equal(t, "2025-03-20", Format(got))
	})

	t.Run("same weekday means next week", func(t *testing.T) {
		got := NextOccurrence(monday, "Lundi")
		assert.Equal(t, "2025-03-24", Format(got))
	})

	t.Run("wraps past the weekend", func(t *testing.T) {
		friday := time.Date(2025, 3, 21, 0, 0, 0, 0, time.Local)
		got := NextOccurrence(friday, "Mardi")
		assert.Equal(t, "2025-03-25", Format(got))
	})
}

func TestPrettyHeader(t *testing.T) {
	assert.Equal(t, "Jeudi 20.03", PrettyHeader("2025-03-20"))
	assert.Equal(t, "oops", PrettyHeader("oops"))
}
