/*
store.go - Persistence collaborator contracts

PURPOSE:
  The engine is pure: it never touches storage. These interfaces are
  the contracts its collaborators must honor, defined here so the
  engine package owns the semantics and implementations plug in.

THE READ-THEN-DECIDE RACE:
  Evaluation is a pure function of a record snapshot. Two concurrent
  evaluations over overlapping dates can both see the same
  pre-admission state and both come back ELIGIBLE - together breaching
  the threshold once persisted. The engine cannot prevent this; the
  admission layer must. The contract here is optimistic concurrency:
  every roster period carries a version counter, the caller snapshots
  the versions alongside the records, and Admit rejects the write with
  ErrConcurrentAdmission when any affected period's version has moved.

IMPLEMENTATIONS:
  - store/memory:   mutex-guarded, for tests and the dev server
  - store/sqlite:   single-node production, version check in one tx
  - store/postgres: pgx-backed, adds a per-period advisory lock

SEE ALSO:
  - eligibility.go: the decision the admission protects
*/
package leave

import (
	"context"
	"errors"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrConcurrentAdmission is returned by Admit when another request
	// was admitted into an affected roster period after the caller's
	// snapshot was taken. The caller should re-fetch and re-evaluate.
	ErrConcurrentAdmission = errors.New("concurrent admission: roster period changed since snapshot")

	// ErrRecordNotFound is returned when a referenced leave record
	// does not exist.
	ErrRecordNotFound = errors.New("leave record not found")
)

// =============================================================================
// STORE CONTRACTS
// =============================================================================

// RecordStore supplies leave-record snapshots. Implementations must
// not silently omit status-relevant records: the engine filters by
// status itself and needs the complete overlapping set.
type RecordStore interface {
	// RecordsOverlapping returns every record whose date range
	// intersects [from, to], in any status.
	RecordsOverlapping(ctx context.Context, from, to roster.Date) ([]LeaveRecord, error)

	// Record returns a single record by ID, or ErrRecordNotFound.
	Record(ctx context.Context, id string) (LeaveRecord, error)
}

// AdmissionStore serializes admission per roster period so the
// read-then-decide race cannot land two conflicting eligible requests.
type AdmissionStore interface {
	RecordStore

	// PeriodVersions returns the current version counter for each of
	// the given roster-period codes. Unseen periods report version 0.
	PeriodVersions(ctx context.Context, codes []string) (map[string]int64, error)

	// Admit persists the record and bumps the version of every roster
	// period in expectedVersions, provided each still matches.
	// Returns ErrConcurrentAdmission on any mismatch; nothing is
	// written in that case. The returned record carries the assigned ID.
	Admit(ctx context.Context, record LeaveRecord, expectedVersions map[string]int64) (LeaveRecord, error)

	// UpdateStatus transitions a record's lifecycle state and bumps
	// the versions of the periods it touches, so in-flight snapshots
	// that counted (or ignored) the record go stale.
	UpdateStatus(ctx context.Context, id string, status LeaveStatus) (LeaveRecord, error)
}
