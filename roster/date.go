/*
Package roster provides the roster-period calendar engine.

PURPOSE:
  This package contains the pure date arithmetic that maps arbitrary
  calendar dates onto the airline's fixed-length operational roster
  periods. Everything here is computed on demand from two constants
  (the anchor date and the period length) - periods are never created,
  stored, or mutated.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: A day-granular civil date, always UTC-normalized
  - Comparison and arithmetic helpers used throughout the engine

DESIGN PRINCIPLES:
  1. Purity: No I/O, no globals, no mutable state
  2. Totality: Every function is defined for every date, past or future
  3. Day granularity: Leave is taken in whole calendar days; hours and
     time zones have no meaning inside the engine

SEE ALSO:
  - period.go: Period type and the Calculator
  - errors.go: InvalidRangeError and ConfigurationError
*/
package roster

import "time"

// =============================================================================
// DATE - Day-granular civil date
// =============================================================================

// Date is a calendar day. The zero value is the zero Date.
// All Dates are normalized to midnight UTC so that equality and ordering
// behave as civil-date comparisons regardless of how they were built.
type Date struct {
	t time.Time
}

// DateLayout is the wire/display format for dates across the system.
const DateLayout = "2006-01-02"

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day (in UTC).
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date in DateLayout ("2006-01-02") format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for compile-time-known literals (tests, defaults).
// It panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler so Dates serialize as
// "2006-01-02" in JSON and YAML.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed number of days from `from` to `to`.
// DaysBetween(d, d) == 0.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// InclusiveDays returns the number of calendar days in [from, to].
// The caller is responsible for from <= to.
func InclusiveDays(from, to Date) int {
	return DaysBetween(from, to) + 1
}
