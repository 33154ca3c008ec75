/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP boundary. They decouple the engine's
  domain types from the wire contract: dates travel as "2006-01-02"
  strings, enums as their canonical strings, and validator tags catch
  malformed bodies before the engine sees them.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients

SEE ALSO:
  - handlers.go: mapping between DTOs and domain types
*/
package api

import (
	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO represents a roster period in API responses.
type PeriodDTO struct {
	Code      string `json:"code"`
	Number    int    `json:"number"`
	Year      int    `json:"year"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func toPeriodDTO(p roster.Period) PeriodDTO {
	return PeriodDTO{
		Code:      p.Code,
		Number:    p.Number,
		Year:      p.Year,
		StartDate: p.Start.String(),
		EndDate:   p.End.String(),
	}
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// DayAvailabilityDTO is the per-day on-leave breakdown.
type DayAvailabilityDTO struct {
	Date    string         `json:"date"`
	OnLeave map[string]int `json:"on_leave"`
	Total   int            `json:"total"`
}

func toDayAvailabilityDTO(day roster.Date, counts leave.RoleCounts) DayAvailabilityDTO {
	// Every role appears in the breakdown, zero or not, so clients
	// render stable columns.
	onLeave := make(map[string]int, len(leave.Roles()))
	for _, role := range leave.Roles() {
		onLeave[string(role)] = counts[role]
	}
	return DayAvailabilityDTO{Date: day.String(), OnLeave: onLeave, Total: counts.Total()}
}

// =============================================================================
// REQUESTS AND VERDICTS
// =============================================================================

// CandidateRequestDTO is the request body for evaluation/submission.
type CandidateRequestDTO struct {
	PilotID     string `json:"pilot_id" validate:"required"`
	Role        string `json:"role" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	RequestType string `json:"request_type" validate:"required"`
	SubmittedAt string `json:"submitted_at,omitempty"`

	// OverrideAuthority: the caller acts for an approver who may
	// override crew-minimum conflicts.
	OverrideAuthority bool `json:"override_authority,omitempty"`
}

// RecordDTO represents a persisted leave record.
type RecordDTO struct {
	ID          string `json:"id"`
	PilotID     string `json:"pilot_id"`
	Role        string `json:"role"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	RequestType string `json:"request_type"`
	SubmittedAt string `json:"submitted_at,omitempty"`
}

func toRecordDTO(rec leave.LeaveRecord) RecordDTO {
	dto := RecordDTO{
		ID:          rec.ID,
		PilotID:     string(rec.PilotID),
		Role:        string(rec.Role),
		StartDate:   rec.StartDate.String(),
		EndDate:     rec.EndDate.String(),
		Status:      string(rec.Status),
		RequestType: string(rec.Type),
	}
	if !rec.SubmittedAt.IsZero() {
		dto.SubmittedAt = rec.SubmittedAt.String()
	}
	return dto
}

// DayConflictDTO is the per-date conflict detail.
type DayConflictDTO struct {
	Date              string         `json:"date"`
	Counts            map[string]int `json:"counts"`
	ThresholdBreached bool           `json:"threshold_breached"`
	PreExistingBreach bool           `json:"pre_existing_breach,omitempty"`
	OverlappingPilots []string       `json:"overlapping_pilots,omitempty"`
}

// ConflictReportDTO is the aggregated conflict report.
type ConflictReportDTO struct {
	HasConflict     bool             `json:"has_conflict"`
	ConflictDates   []string         `json:"conflict_dates,omitempty"`
	Severity        string           `json:"severity"`
	BreachRatio     string           `json:"breach_ratio"`
	Days            []DayConflictDTO `json:"days,omitempty"`
	AffectedPeriods []PeriodDTO      `json:"affected_periods,omitempty"`
}

func toConflictReportDTO(r *leave.ConflictReport) *ConflictReportDTO {
	if r == nil {
		return nil
	}
	dto := &ConflictReportDTO{
		HasConflict: r.HasConflict,
		Severity:    string(r.Severity),
		BreachRatio: r.BreachRatio.String(),
	}
	for _, d := range r.ConflictDates {
		dto.ConflictDates = append(dto.ConflictDates, d.String())
	}
	for _, day := range r.Days {
		counts := make(map[string]int, len(day.Counts))
		for role, n := range day.Counts {
			counts[string(role)] = n
		}
		dc := DayConflictDTO{
			Date:              day.Date.String(),
			Counts:            counts,
			ThresholdBreached: day.ThresholdBreached,
			PreExistingBreach: day.PreExistingBreach,
		}
		for _, p := range day.OverlappingPilots {
			dc.OverlappingPilots = append(dc.OverlappingPilots, string(p))
		}
		dto.Days = append(dto.Days, dc)
	}
	for _, p := range r.AffectedPeriods {
		dto.AffectedPeriods = append(dto.AffectedPeriods, toPeriodDTO(p))
	}
	return dto
}

// VerdictDTO represents an eligibility verdict.
type VerdictDTO struct {
	Decision         string             `json:"decision"`
	Eligible         bool               `json:"eligible"`
	RequiresOverride bool               `json:"requires_override"`
	Reasons          []string           `json:"reasons,omitempty"`
	Conflicts        *ConflictReportDTO `json:"conflict_report,omitempty"`
}

func toVerdictDTO(v *leave.EligibilityVerdict) VerdictDTO {
	return VerdictDTO{
		Decision:         string(v.Decision),
		Eligible:         v.Eligible,
		RequiresOverride: v.RequiresOverride,
		Reasons:          v.Reasons,
		Conflicts:        toConflictReportDTO(v.Conflicts),
	}
}

// SubmitResponseDTO pairs the verdict with the admitted record (when
// the request was actually persisted).
type SubmitResponseDTO struct {
	Verdict VerdictDTO `json:"verdict"`
	Record  *RecordDTO `json:"record,omitempty"`
}

// UpdateStatusRequest transitions a record's lifecycle state.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED DENIED CANCELLED"`
}

// ErrorDTO is the uniform error envelope.
type ErrorDTO struct {
	Error string `json:"error"`
}
