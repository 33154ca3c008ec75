/*
Package leave implements the leave scheduling and conflict engine.

PURPOSE:
  Given a pilot's candidate leave request and the current set of leave
  records, decide whether the request can be granted without breaching
  minimum-crew staffing rules. The engine is the decision core only:
  it consumes a read-only snapshot of records plus configuration and
  emits verdicts and conflict reports. Storage, notifications, and
  rendering are external collaborators.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role: Captain or First Officer (closed enum)
  - LeaveStatus: PENDING | APPROVED | DENIED | CANCELLED
  - RequestType: ANNUAL, RDO, SDO, SICK, ... (closed enum)
  - LeaveRecord: a persisted leave entry, read-only to the engine
  - CandidateRequest: the not-yet-persisted request under evaluation

DESIGN PRINCIPLES:
  1. Statelessness: every evaluation re-derives from the full record
     snapshot; the engine holds nothing between calls
  2. Closed enums: role and status strings from the boundary are parsed
     once, so illegal states are unrepresentable inside the engine
  3. Values over errors: business outcomes (conflict, override, late
     request) are verdict fields, never error returns

SEE ALSO:
  - availability.go: per-day on-leave counting
  - conflict.go: threshold breach detection
  - eligibility.go: the decision service
*/
package leave

import (
	"fmt"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// IDENTIFIERS AND ENUMS
// =============================================================================

// PilotID identifies a pilot. Type-safe so it can't be mixed with
// record IDs or free-form strings.
type PilotID string

// Role is a pilot's crew role. The fleet runs two seats.
type Role string

const (
	RoleCaptain      Role = "Captain"
	RoleFirstOfficer Role = "First Officer"
)

// Roles lists all valid roles in display order.
func Roles() []Role { return []Role{RoleCaptain, RoleFirstOfficer} }

// ParseRole maps a boundary string onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCaptain, RoleFirstOfficer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleCaptain || r == RoleFirstOfficer
}

// LeaveStatus is the lifecycle state of a leave record.
type LeaveStatus string

const (
	StatusPending   LeaveStatus = "PENDING"
	StatusApproved  LeaveStatus = "APPROVED"
	StatusDenied    LeaveStatus = "DENIED"
	StatusCancelled LeaveStatus = "CANCELLED"
)

// ParseStatus maps a boundary string onto a LeaveStatus.
func ParseStatus(s string) (LeaveStatus, error) {
	switch LeaveStatus(s) {
	case StatusPending, StatusApproved, StatusDenied, StatusCancelled:
		return LeaveStatus(s), nil
	}
	return "", fmt.Errorf("unknown leave status %q", s)
}

// CountsTowardAvailability reports whether a record in this status
// occupies crew capacity. Only PENDING and APPROVED do; a denied or
// cancelled record frees its days.
func (s LeaveStatus) CountsTowardAvailability() bool {
	return s == StatusPending || s == StatusApproved
}

// RequestType classifies a leave request. Which types are exempt from
// crew-minimum denial is policy, not typing - see policy.go.
type RequestType string

const (
	TypeAnnual        RequestType = "ANNUAL"
	TypeRDO           RequestType = "RDO" // rostered day off
	TypeSDO           RequestType = "SDO" // special day off
	TypeSick          RequestType = "SICK"
	TypeCompassionate RequestType = "COMPASSIONATE"
	TypeLongService   RequestType = "LSL"
	TypeUnpaid        RequestType = "LWOP"
	TypeMaternity     RequestType = "MATERNITY"
)

// RequestTypes lists all valid request types.
func RequestTypes() []RequestType {
	return []RequestType{
		TypeAnnual, TypeRDO, TypeSDO, TypeSick,
		TypeCompassionate, TypeLongService, TypeUnpaid, TypeMaternity,
	}
}

// ParseRequestType maps a boundary string onto a RequestType.
func ParseRequestType(s string) (RequestType, error) {
	for _, t := range RequestTypes() {
		if RequestType(s) == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown request type %q", s)
}

// =============================================================================
// LEAVE RECORD - Persisted leave entry, read-only to the engine
// =============================================================================

// LeaveRecord is a leave entry owned by the leave-request store.
// The engine never mutates records; it only counts them.
type LeaveRecord struct {
	ID        string
	PilotID   PilotID
	Role      Role
	StartDate roster.Date // inclusive
	EndDate   roster.Date // inclusive
	Status    LeaveStatus
	Type      RequestType

	// SubmittedAt feeds the late-request rule; zero when unknown.
	SubmittedAt roster.Date
}

// ContainsDate reports whether d falls within the record's date range.
func (r LeaveRecord) ContainsDate(d roster.Date) bool {
	return d.AfterOrEqual(r.StartDate) && d.BeforeOrEqual(r.EndDate)
}

// Overlaps reports whether the record's range intersects [from, to].
func (r LeaveRecord) Overlaps(from, to roster.Date) bool {
	return !r.EndDate.Before(from) && !r.StartDate.After(to)
}

// =============================================================================
// CANDIDATE REQUEST - The subject of an eligibility check
// =============================================================================

// CandidateRequest has the shape of a LeaveRecord but is not yet
// persisted. Its range may span one or more roster periods.
type CandidateRequest struct {
	PilotID     PilotID
	Role        Role
	StartDate   roster.Date // inclusive
	EndDate     roster.Date // inclusive
	Type        RequestType
	SubmittedAt roster.Date
}

// Validate checks the candidate's structural integrity.
// Returns InvalidRangeError for an inverted range; other faults are
// plain errors. The eligibility service converts these to INELIGIBLE
// verdicts rather than surfacing them to the caller.
func (c CandidateRequest) Validate() error {
	if c.PilotID == "" {
		return fmt.Errorf("candidate has no pilot id")
	}
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role %q", string(c.Role))
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("candidate has incomplete date range")
	}
	if err := roster.ValidateRange(c.StartDate, c.EndDate); err != nil {
		return err
	}
	if _, err := ParseRequestType(string(c.Type)); err != nil {
		return err
	}
	return nil
}

// ToRecord converts an admitted candidate into a PENDING leave record.
// The persistence collaborator assigns the ID.
func (c CandidateRequest) ToRecord() LeaveRecord {
	return LeaveRecord{
		PilotID:     c.PilotID,
		Role:        c.Role,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Status:      StatusPending,
		Type:        c.Type,
		SubmittedAt: c.SubmittedAt,
	}
}
