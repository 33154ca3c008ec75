/*
availability.go - Crew availability aggregation

PURPOSE:
  Computes how many pilots are on leave per role for a given day, or
  for every day in a range. This is the counting substrate under the
  conflict detector: a day is in trouble when these counts, plus the
  candidate, meet the crew minimum.

COUNTING RULES:
  - Only PENDING and APPROVED records occupy crew capacity
  - A pilot with two overlapping records on the same day counts ONCE
    (dedupe by PilotID) - double-booked paperwork is an upstream
    problem, not extra absence
  - The caller supplies the record snapshot; no storage access here

LAZINESS:
  CountOnLeaveRange returns an iter.Seq2 so long ranges stream one day
  at a time instead of materializing a slice. The sequence is
  restartable: ranging over it twice re-runs the counting.

SEE ALSO:
  - conflict.go: consumes these counts
  - store/: collaborators that supply the record snapshot
*/
package leave

import (
	"iter"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// ROLE COUNTS
// =============================================================================

// RoleCounts is the number of distinct pilots on leave per role for one day.
type RoleCounts map[Role]int

// Total returns the combined on-leave count across roles.
func (rc RoleCounts) Total() int {
	total := 0
	for _, n := range rc {
		total += n
	}
	return total
}

// Clone returns an independent copy. Counts flow into reports that
// outlive the aggregation loop, so shared maps would be a footgun.
func (rc RoleCounts) Clone() RoleCounts {
	out := make(RoleCounts, len(rc))
	for role, n := range rc {
		out[role] = n
	}
	return out
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// CountOnLeave returns the per-role count of distinct pilots on leave
// on the given day. Records not in PENDING/APPROVED are ignored.
func CountOnLeave(day roster.Date, records []LeaveRecord) RoleCounts {
	counts := make(RoleCounts, 2)
	seen := make(map[PilotID]bool)
	for _, rec := range records {
		if !rec.Status.CountsTowardAvailability() {
			continue
		}
		if !rec.ContainsDate(day) {
			continue
		}
		if seen[rec.PilotID] {
			continue
		}
		seen[rec.PilotID] = true
		counts[rec.Role]++
	}
	return counts
}

// CountOnLeaveRange yields (day, counts) for every calendar day in
// [from, to]. The range is validated up front; iteration itself cannot
// fail. The returned sequence is finite and restartable.
func CountOnLeaveRange(from, to roster.Date, records []LeaveRecord) (iter.Seq2[roster.Date, RoleCounts], error) {
	if err := roster.ValidateRange(from, to); err != nil {
		return nil, err
	}

	// Pre-filter once: only countable records overlapping the range
	// matter, and the filtered slice is shared by every restart.
	relevant := make([]LeaveRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status.CountsTowardAvailability() && rec.Overlaps(from, to) {
			relevant = append(relevant, rec)
		}
	}

	return func(yield func(roster.Date, RoleCounts) bool) {
		for day := from; day.BeforeOrEqual(to); day = day.AddDays(1) {
			if !yield(day, CountOnLeave(day, relevant)) {
				return
			}
		}
	}, nil
}

// PilotsOnLeave returns the distinct pilots of the given role on leave
// on the given day, in record order. Used for conflict overlap detail.
func PilotsOnLeave(day roster.Date, role Role, records []LeaveRecord) []PilotID {
	var pilots []PilotID
	seen := make(map[PilotID]bool)
	for _, rec := range records {
		if rec.Role != role || !rec.Status.CountsTowardAvailability() {
			continue
		}
		if !rec.ContainsDate(day) || seen[rec.PilotID] {
			continue
		}
		seen[rec.PilotID] = true
		pilots = append(pilots, rec.PilotID)
	}
	return pilots
}
