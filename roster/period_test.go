package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCalculator(t *testing.T) *roster.Calculator {
	calc, err := roster.NewCalculator(
		roster.MustParseDate("2025-01-01"),
		roster.DefaultPeriodLengthDays,
		roster.DefaultPeriodsPerYear,
	)
	require.NoError(t, err)
	return calc
}

// =============================================================================
// PERIOD RESOLUTION
// =============================================================================

func TestPeriodForDate_AnchorPeriod(t *testing.T) {
	// GIVEN: the production calculator anchored at 2025-01-01
	// WHEN: resolving dates across the first 28 days
	// THEN: all of them land in RP1/2025 spanning Jan 1 - Jan 28

	calc := newTestCalculator(t)

	for _, date := range []string{"2025-01-01", "2025-01-15", "2025-01-28"} {
		p := calc.PeriodForDate(roster.MustParseDate(date))
		assert.Equal(t, "RP1/2025", p.Code, "date %s", date)
		assert.Equal(t, 1, p.Number)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, "2025-01-01", p.Start.String())
		assert.Equal(t, "2025-01-28", p.End.String())
	}

	// The very next day rolls into period 2.
	p2 := calc.PeriodForDate(roster.MustParseDate("2025-01-29"))
	assert.Equal(t, "RP2/2025", p2.Code)
	assert.Equal(t, "2025-01-29", p2.Start.String())
}

func TestPeriodForDate_Totality(t *testing.T) {
	// GIVEN: any calendar date, including dates well before the anchor
	// THEN: exactly one period contains it

	calc := newTestCalculator(t)

	for _, date := range []string{
		"1999-12-31", "2024-12-31", "2025-01-01", "2025-06-15",
		"2025-12-31", "2026-01-01", "2030-07-04",
	} {
		d := roster.MustParseDate(date)
		p := calc.PeriodForDate(d)
		assert.True(t, p.Contains(d), "period %s should contain %s", p.Code, date)
		assert.Equal(t, calc.PeriodLengthDays(), roster.InclusiveDays(p.Start, p.End))
	}
}

func TestPeriodForDate_BeforeAnchor(t *testing.T) {
	// GIVEN: the day before the anchor
	// THEN: it resolves to the last period of the previous roster year

	calc := newTestCalculator(t)

	p := calc.PeriodForDate(roster.MustParseDate("2024-12-31"))
	assert.Equal(t, "RP13/2024", p.Code)
	assert.Equal(t, 13, p.Number)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, "2024-12-31", p.End.String())
}

func TestPeriodForDate_Idempotent(t *testing.T) {
	calc := newTestCalculator(t)
	d := roster.MustParseDate("2025-03-11")

	first := calc.PeriodForDate(d)
	second := calc.PeriodForDate(d)
	assert.Equal(t, first, second)
}

func TestPeriods_Contiguity(t *testing.T) {
	// GIVEN: a run of consecutive periods starting at the anchor
	// THEN: each period starts the day after the previous one ends,
	//       with no gap and no overlap

	calc := newTestCalculator(t)

	p := calc.PeriodForDate(calc.Anchor())
	for i := 0; i < 30; i++ {
		next := calc.Next(p)
		assert.Equal(t, p.End.AddDays(1), next.Start,
			"gap between %s and %s", p.Code, next.Code)
		assert.Equal(t, p, calc.Previous(next))
		p = next
	}
}

func TestPeriods_YearRollover(t *testing.T) {
	// GIVEN: 13 periods of 28 days = 364 days per roster year
	// WHEN: stepping past period 13
	// THEN: the number wraps to 1 and the year increments

	calc := newTestCalculator(t)

	p := calc.PeriodForDate(calc.Anchor())
	for p.Number < 13 {
		p = calc.Next(p)
	}
	assert.Equal(t, "RP13/2025", p.Code)

	next := calc.Next(p)
	assert.Equal(t, "RP1/2026", next.Code)
	// Roster years drift: 2026's first period starts 364 days after the anchor.
	assert.Equal(t, "2025-12-31", next.Start.String())
}

func TestPeriod_Days(t *testing.T) {
	calc := newTestCalculator(t)
	p := calc.PeriodForDate(roster.MustParseDate("2025-01-01"))

	var days []roster.Date
	for d := range p.Days() {
		days = append(days, d)
	}
	require.Len(t, days, 28)
	assert.Equal(t, p.Start, days[0])
	assert.Equal(t, p.End, days[27])
}

// =============================================================================
// RANGE QUERIES
// =============================================================================

func TestPeriodsOverlapping(t *testing.T) {
	calc := newTestCalculator(t)

	t.Run("range within one period", func(t *testing.T) {
		periods, err := calc.PeriodsOverlapping(
			roster.MustParseDate("2025-01-05"), roster.MustParseDate("2025-01-20"))
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.Equal(t, "RP1/2025", periods[0].Code)
	})

	t.Run("range spanning a boundary", func(t *testing.T) {
		periods, err := calc.PeriodsOverlapping(
			roster.MustParseDate("2025-01-27"), roster.MustParseDate("2025-01-30"))
		require.NoError(t, err)
		require.Len(t, periods, 2)
		assert.Equal(t, "RP1/2025", periods[0].Code)
		assert.Equal(t, "RP2/2025", periods[1].Code)
	})

	t.Run("zero-length range", func(t *testing.T) {
		d := roster.MustParseDate("2025-02-10")
		periods, err := calc.PeriodsOverlapping(d, d)
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.True(t, periods[0].Contains(d))
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := calc.PeriodsOverlapping(
			roster.MustParseDate("2025-03-12"), roster.MustParseDate("2025-03-10"))
		require.Error(t, err)
		assert.ErrorIs(t, err, roster.ErrInvalidRange)
	})

	t.Run("long range is chronological", func(t *testing.T) {
		periods, err := calc.PeriodsOverlapping(
			roster.MustParseDate("2025-01-01"), roster.MustParseDate("2025-12-31"))
		require.NoError(t, err)
		assert.Len(t, periods, 14)
		for i := 1; i < len(periods); i++ {
			assert.True(t, periods[i-1].End.Before(periods[i].Start))
		}
	})
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestNewCalculator_Validation(t *testing.T) {
	anchor := roster.MustParseDate("2025-01-01")

	cases := []struct {
		name           string
		anchor         roster.Date
		lengthDays     int
		periodsPerYear int
	}{
		{"zero anchor", roster.Date{}, 28, 13},
		{"zero length", anchor, 0, 13},
		{"negative length", anchor, -28, 13},
		{"zero periods per year", anchor, 28, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := roster.NewCalculator(tc.anchor, tc.lengthDays, tc.periodsPerYear)
			require.Error(t, err)
			assert.ErrorIs(t, err, roster.ErrConfiguration)
		})
	}
}

func TestNewCalculator_NonDefaultGeometry(t *testing.T) {
	// GIVEN: a 14-day period, 26 per roster year
	// THEN: the arithmetic follows the configured geometry

	calc, err := roster.NewCalculator(roster.MustParseDate("2025-01-01"), 14, 26)
	require.NoError(t, err)

	p := calc.PeriodForDate(roster.MustParseDate("2025-01-15"))
	assert.Equal(t, "RP2/2025", p.Code)
	assert.Equal(t, "2025-01-15", p.Start.String())
	assert.Equal(t, "2025-01-28", p.End.String())
}
