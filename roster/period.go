/*
period.go - Roster periods and the period calculator

PURPOSE:
  An operational roster period is a fixed-length scheduling window
  (28 days in production) anchored to a known reference start date.
  Duty, leave, and crewing all hang off these windows, so the mapping
  from calendar date to period must be total, deterministic, and cheap.

THE ARITHMETIC:
  index  = floor((date - anchor) / lengthDays)
  start  = anchor + index * lengthDays
  number = floorMod(index, periodsPerYear) + 1
  year   = anchorYear + floorDiv(index, periodsPerYear)
  code   = "RP<number>/<year>"

  Flooring (not truncating) division keeps the mapping correct for
  dates before the anchor, so historical lookups need no special case.

INVARIANTS:
  - Every calendar date belongs to exactly one period (totality)
  - Consecutive periods satisfy P(n).End + 1 day == P(n+1).Start
  - The same inputs always produce the same period (idempotence)

CONCURRENCY:
  Calculator is an immutable value after construction. Safe to share
  and call from any number of goroutines.

SEE ALSO:
  - date.go: the Date type
  - leave/conflict.go: attaches period codes to conflict reports
*/
package roster

import (
	"fmt"
	"iter"
)

// =============================================================================
// PERIOD - A fixed-length operational scheduling window
// =============================================================================

// Period is one roster period. Bounds are inclusive.
// Periods are computed values; they are never persisted or mutated.
type Period struct {
	Code   string // e.g. "RP11/2025"
	Number int    // 1-based sequence within the roster year
	Year   int    // roster year the period belongs to
	Start  Date
	End    Date
}

// Contains reports whether d falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days yields every calendar day of the period in order.
func (p Period) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (p Period) String() string {
	return fmt.Sprintf("%s [%s, %s]", p.Code, p.Start, p.End)
}

// =============================================================================
// CALCULATOR - Maps dates to periods
// =============================================================================

// DefaultPeriodLengthDays is the production roster period length.
const DefaultPeriodLengthDays = 28

// DefaultPeriodsPerYear is how many periods make up a roster year.
// 13 periods of 28 days cover 364 days; the roster year drifts slowly
// against the calendar year, which is why the year is derived from the
// period index rather than from the period's start date.
const DefaultPeriodsPerYear = 13

// Calculator maps calendar dates onto roster periods.
// It is pure arithmetic over the anchor date and period length;
// construct once via NewCalculator and share freely.
type Calculator struct {
	anchor         Date // first day of period 1 of the anchor year
	lengthDays     int
	periodsPerYear int
}

// NewCalculator builds a Calculator. The anchor date must be the first
// day of the first period of its roster year.
func NewCalculator(anchor Date, lengthDays, periodsPerYear int) (*Calculator, error) {
	c := &Calculator{anchor: anchor, lengthDays: lengthDays, periodsPerYear: periodsPerYear}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the calculator configuration.
// Faults here are startup-class, not per-request conditions.
func (c *Calculator) Validate() error {
	if c.anchor.IsZero() {
		return &ConfigurationError{Field: "anchor", Reason: "anchor date is required"}
	}
	if c.lengthDays <= 0 {
		return &ConfigurationError{Field: "period_length_days", Reason: "must be positive"}
	}
	if c.periodsPerYear <= 0 {
		return &ConfigurationError{Field: "periods_per_year", Reason: "must be positive"}
	}
	return nil
}

// Anchor returns the configured anchor date.
func (c *Calculator) Anchor() Date { return c.anchor }

// PeriodLengthDays returns the configured period length.
func (c *Calculator) PeriodLengthDays() int { return c.lengthDays }

// PeriodForDate returns the period containing d.
// Total over all dates: dates before the anchor resolve to periods with
// negative indices, which floor arithmetic handles without special cases.
func (c *Calculator) PeriodForDate(d Date) Period {
	index := floorDiv(DaysBetween(c.anchor, d), c.lengthDays)
	return c.periodAt(index)
}

// PeriodsOverlapping returns every period intersecting [from, to] in
// chronological order. A range inside one period returns a single
// element; a zero-length range returns the enclosing period.
func (c *Calculator) PeriodsOverlapping(from, to Date) ([]Period, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}

	first := floorDiv(DaysBetween(c.anchor, from), c.lengthDays)
	last := floorDiv(DaysBetween(c.anchor, to), c.lengthDays)

	periods := make([]Period, 0, last-first+1)
	for i := first; i <= last; i++ {
		periods = append(periods, c.periodAt(i))
	}
	return periods, nil
}

// Next returns the period following p.
func (c *Calculator) Next(p Period) Period {
	return c.PeriodForDate(p.End.AddDays(1))
}

// Previous returns the period preceding p.
func (c *Calculator) Previous(p Period) Period {
	return c.PeriodForDate(p.Start.AddDays(-1))
}

// periodAt materializes the period with the given index relative to the anchor.
func (c *Calculator) periodAt(index int) Period {
	start := c.anchor.AddDays(index * c.lengthDays)
	number := floorMod(index, c.periodsPerYear) + 1
	year := c.anchor.Year() + floorDiv(index, c.periodsPerYear)
	return Period{
		Code:   fmt.Sprintf("RP%d/%d", number, year),
		Number: number,
		Year:   year,
		Start:  start,
		End:    start.AddDays(c.lengthDays - 1),
	}
}

// floorDiv is integer division rounding toward negative infinity.
// Go's `/` truncates toward zero, which would mis-bucket pre-anchor dates.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder paired with floorDiv; always in [0, b).
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
