/*
conflict.go - Crew-minimum conflict detection

PURPOSE:
  Walks every calendar day of a candidate request and asks: would
  admitting this pilot push the on-leave count to the point where
  available crew falls at or below the configured minimum?

THE CHECK (per day):
  1. Count pilots on leave from the existing records, EXCLUDING the
     candidate's own records (a pilot must not conflict with himself)
  2. Add 1 for the candidate's role - the post-admission state
  3. Breach when the post-admission count reaches the threshold

  The post-admission framing protects the candidate's own admission
  from causing a shortfall. Days that are already at the threshold
  before the candidate is counted are additionally marked as
  pre-existing breaches for operator context.

PERIOD BOUNDARIES:
  The detector is uniform across roster-period boundaries: it operates
  on the raw calendar-day range. Period codes are attached to the
  report for display only and never change the arithmetic.

SEVERITY:
  Derived from the share of requested days that breach and the number
  of roles affected. Ratios use decimal arithmetic so a 1/3 share is
  not quietly 0.33333334.

SEE ALSO:
  - availability.go: the counting substrate
  - eligibility.go: folds the report into a verdict
*/
package leave

import (
	"github.com/shopspring/decimal"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// CREW THRESHOLD - Configuration
// =============================================================================

// DefaultMinimumCrew is the production combined crew minimum.
const DefaultMinimumCrew = 18

// CrewThreshold is the minimum-crew configuration, applied uniformly
// per calendar day. The combined minimum is always enforced; per-role
// minima are optional refinements.
type CrewThreshold struct {
	// MinimumCrew is the combined on-leave ceiling: a day breaches when
	// the post-admission on-leave total reaches this value.
	MinimumCrew int

	// PerRole optionally tightens the check for individual roles.
	PerRole map[Role]int
}

// Validate rejects missing or non-positive thresholds.
// This is a fatal precondition, not a recoverable business case.
func (t CrewThreshold) Validate() error {
	if t.MinimumCrew <= 0 {
		return &roster.ConfigurationError{Field: "minimum_crew", Reason: "must be positive"}
	}
	for role, n := range t.PerRole {
		if !role.Valid() {
			return &roster.ConfigurationError{Field: "minimum_crew_per_role", Reason: "unknown role " + string(role)}
		}
		if n <= 0 {
			return &roster.ConfigurationError{Field: "minimum_crew_per_role", Reason: "must be positive for " + string(role)}
		}
	}
	return nil
}

// breachedBy reports whether the given post-admission counts breach
// the threshold for the candidate's role.
func (t CrewThreshold) breachedBy(counts RoleCounts, role Role) bool {
	if counts.Total() >= t.MinimumCrew {
		return true
	}
	if roleMin, ok := t.PerRole[role]; ok && counts[role] >= roleMin {
		return true
	}
	return false
}

// =============================================================================
// CONFLICT REPORT
// =============================================================================

// Severity grades how badly a candidate collides with crew minimums.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeverityCritical Severity = "CRITICAL"
)

// DayConflict is the per-date detail of a conflict check.
type DayConflict struct {
	Date              roster.Date
	Counts            RoleCounts // post-admission on-leave counts
	ThresholdBreached bool
	// PreExistingBreach marks days already at the threshold before the
	// candidate is counted - informational, from other pending requests.
	PreExistingBreach bool
	// OverlappingPilots lists every other same-role pilot on leave that
	// day, for operator review. Populated only on breached days.
	OverlappingPilots []PilotID
}

// ConflictReport is the full result of a conflict check.
// A pure value, produced fresh per call.
type ConflictReport struct {
	HasConflict   bool
	ConflictDates []roster.Date // ordered
	Severity      Severity
	// BreachRatio is breached days over requested days, for display.
	BreachRatio decimal.Decimal
	Days        []DayConflict
	// AffectedPeriods are the roster periods the candidate touches,
	// attached for display; they play no part in the arithmetic.
	AffectedPeriods []roster.Period
}

// =============================================================================
// DETECTOR
// =============================================================================

// Detector runs crew-minimum conflict checks. The calculator is used
// only to decorate reports with roster-period codes.
type Detector struct {
	Calculator *roster.Calculator
}

// Detect compares the candidate against the existing records and the
// threshold, one calendar day at a time. Fails only on invalid
// configuration or a malformed candidate range.
func (d *Detector) Detect(candidate CandidateRequest, existing []LeaveRecord, threshold CrewThreshold) (*ConflictReport, error) {
	if err := threshold.Validate(); err != nil {
		return nil, err
	}
	if err := roster.ValidateRange(candidate.StartDate, candidate.EndDate); err != nil {
		return nil, err
	}

	// The candidate must not conflict with its own prior paperwork.
	others := excludePilot(existing, candidate.PilotID)

	days, err := CountOnLeaveRange(candidate.StartDate, candidate.EndDate, others)
	if err != nil {
		return nil, err
	}

	report := &ConflictReport{Severity: SeverityNone}
	rolesBreached := make(map[Role]bool)

	for day, counts := range days {
		preExisting := threshold.breachedBy(counts, candidate.Role)

		// Simulate admission: the candidate occupies one seat of their role.
		post := counts.Clone()
		post[candidate.Role]++

		dc := DayConflict{
			Date:              day,
			Counts:            post,
			ThresholdBreached: threshold.breachedBy(post, candidate.Role),
			PreExistingBreach: preExisting,
		}
		if dc.ThresholdBreached {
			dc.OverlappingPilots = PilotsOnLeave(day, candidate.Role, others)
			report.HasConflict = true
			report.ConflictDates = append(report.ConflictDates, day)
			rolesBreached[candidate.Role] = true
			for role := range post {
				if roleMin, ok := threshold.PerRole[role]; ok && post[role] >= roleMin {
					rolesBreached[role] = true
				}
			}
		}
		report.Days = append(report.Days, dc)
	}

	report.BreachRatio, report.Severity = gradeSeverity(len(report.ConflictDates), len(report.Days), len(rolesBreached))

	if d.Calculator != nil {
		// Display decoration only; the range was validated above.
		report.AffectedPeriods, _ = d.Calculator.PeriodsOverlapping(candidate.StartDate, candidate.EndDate)
	}

	return report, nil
}

// excludePilot filters out the pilot's own records.
func excludePilot(records []LeaveRecord, pilot PilotID) []LeaveRecord {
	out := make([]LeaveRecord, 0, len(records))
	for _, rec := range records {
		if rec.PilotID != pilot {
			out = append(out, rec)
		}
	}
	return out
}

// gradeSeverity maps breach extent onto a severity level.
// Ratio thresholds: >= 1/2 of days or more than one role -> CRITICAL,
// >= 1/5 -> MODERATE, anything breached -> MINOR.
func gradeSeverity(breached, total, rolesAffected int) (decimal.Decimal, Severity) {
	if total == 0 || breached == 0 {
		return decimal.Zero, SeverityNone
	}
	ratio := decimal.NewFromInt(int64(breached)).Div(decimal.NewFromInt(int64(total)))
	switch {
	case rolesAffected > 1 || ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return ratio, SeverityCritical
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.2)):
		return ratio, SeverityModerate
	default:
		return ratio, SeverityMinor
	}
}
