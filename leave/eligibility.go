/*
eligibility.go - The eligibility decision service

PURPOSE:
  Orchestrates the period calculator, the availability aggregator, and
  the conflict detector, then folds in the business rules to produce a
  structured accept/deny/override-required verdict.

EVALUATION FLOW (per call, nothing persisted):

  INITIATED -> RULES_EVALUATED -> { ELIGIBLE, INELIGIBLE, OVERRIDE_REQUIRED }

  1. Structural validation (inverted range, unknown pilot/role/type)
     -> INELIGIBLE, reason recorded, no further rules
  2. Conflict detection (conflict.go)
  3. Conflict + policy-exempt type -> ELIGIBLE, conflict attached
  4. Conflict + override authority -> OVERRIDE_REQUIRED; the approval
     workflow makes the final call with the evidence in hand
  5. Conflict otherwise -> INELIGIBLE
  6. Late-request flag: recorded as a reason on any verdict, never
     changes eligibility on its own

ERRORS vs OUTCOMES:
  Structural failures are expected business outcomes and come back as
  INELIGIBLE verdicts. The error return is reserved for configuration
  faults (bad threshold, bad calculator) - conditions no request can
  recover from.

CONCURRENCY:
  Pure function of its inputs. Any number of callers may evaluate
  simultaneously against their own snapshots. The read-then-decide
  race between two concurrent evaluations is real and belongs to the
  persistence collaborator - see store/ and AdmissionStore.

SEE ALSO:
  - conflict.go: the detector
  - policy.go: request-type rules
  - store/: admission serialization
*/
package leave

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// VERDICT
// =============================================================================

// Decision is the terminal state of an evaluation.
type Decision string

const (
	DecisionEligible         Decision = "ELIGIBLE"
	DecisionIneligible       Decision = "INELIGIBLE"
	DecisionOverrideRequired Decision = "OVERRIDE_REQUIRED"
)

// EligibilityVerdict is the full, reason-annotated outcome of an
// evaluation. Always complete - callers never get a bare boolean, so
// the approval workflow can explain why.
type EligibilityVerdict struct {
	Decision Decision
	Eligible bool
	// RequiresOverride: a conflict exists but an authorized approver
	// may admit the request anyway.
	RequiresOverride bool
	// Reasons are ordered, human-readable rule outcomes.
	Reasons []string
	// Conflicts is the underlying report, for audit and display.
	// Populated whenever detection ran, even on eligible verdicts.
	Conflicts *ConflictReport
}

// DefaultLateCutoffDays is how far before the roster period start a
// request must be submitted to avoid the late flag.
const DefaultLateCutoffDays = 21

// EvaluationContext carries rule inputs the engine cannot infer from
// the candidate or the record set.
type EvaluationContext struct {
	// HasOverrideAuthority: the evaluating approver may override
	// crew-minimum conflicts.
	HasOverrideAuthority bool

	// LateCutoffDays before the first affected roster period starts.
	// Zero means DefaultLateCutoffDays.
	LateCutoffDays int

	// KnownPilots is the roster of valid pilots. Nil skips the check
	// (the caller vouches for the pilot).
	KnownPilots map[PilotID]bool
}

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator is the eligibility decision service. Stateless; share one
// instance across goroutines.
type Evaluator struct {
	Calculator *roster.Calculator
	Policies   PolicyTable
}

// NewEvaluator builds an Evaluator with the default policy table.
func NewEvaluator(calc *roster.Calculator) *Evaluator {
	return &Evaluator{Calculator: calc, Policies: DefaultPolicies()}
}

// Evaluate runs the full rule chain for one candidate against a record
// snapshot. The error return fires only for configuration faults.
func (e *Evaluator) Evaluate(candidate CandidateRequest, existing []LeaveRecord, threshold CrewThreshold, ectx EvaluationContext) (*EligibilityVerdict, error) {
	if e.Calculator == nil {
		return nil, &roster.ConfigurationError{Field: "calculator", Reason: "evaluator has no period calculator"}
	}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}

	policies := e.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	policy := policies.For(candidate.Type)

	// Rule 1: structural validation. Failures are verdicts, not errors.
	if err := candidate.Validate(); err != nil {
		return ineligible(fmt.Sprintf("structural validation failed: %v", err)), nil
	}
	if ectx.KnownPilots != nil && !ectx.KnownPilots[candidate.PilotID] {
		return ineligible(fmt.Sprintf("structural validation failed: unknown pilot %q", candidate.PilotID)), nil
	}

	// Rule 2: conflict detection. The range is valid by now, so an
	// error here is a configuration fault and propagates.
	detector := &Detector{Calculator: e.Calculator}
	report, err := detector.Detect(candidate, existing, threshold)
	if err != nil {
		return nil, err
	}

	verdict := &EligibilityVerdict{Conflicts: report}

	switch {
	case !report.HasConflict:
		verdict.Decision = DecisionEligible
		verdict.Eligible = true

	// Rule 3: policy-exempt types are never denied on crew minimums,
	// but the conflict stays visible.
	case policy.ExemptFromCrewMinimum:
		verdict.Decision = DecisionEligible
		verdict.Eligible = true
		verdict.Reasons = append(verdict.Reasons,
			fmt.Sprintf("%s leave is exempt from crew-minimum denial; conflict retained for visibility", candidate.Type))
		verdict.Reasons = append(verdict.Reasons, breachReason(report))

	// Rule 4: with override authority, deny nothing outright - hand
	// the evidence to the approval workflow.
	case ectx.HasOverrideAuthority:
		verdict.Decision = DecisionOverrideRequired
		verdict.RequiresOverride = true
		verdict.Reasons = append(verdict.Reasons, breachReason(report))
		verdict.Reasons = append(verdict.Reasons, "override authority present: approver decision required")

	// Rule 5: plain denial.
	default:
		verdict.Decision = DecisionIneligible
		verdict.Reasons = append(verdict.Reasons, breachReason(report))
	}

	// Rule 6: the late flag is informational on every verdict.
	if policy.SubjectToLateFlag {
		if reason, late := e.lateRequestReason(candidate, ectx); late {
			verdict.Reasons = append(verdict.Reasons, reason)
		}
	}

	return verdict, nil
}

// lateRequestReason checks the candidate's submission date against the
// cutoff before the first affected roster period starts.
func (e *Evaluator) lateRequestReason(candidate CandidateRequest, ectx EvaluationContext) (string, bool) {
	if candidate.SubmittedAt.IsZero() {
		return "", false
	}
	cutoffDays := ectx.LateCutoffDays
	if cutoffDays <= 0 {
		cutoffDays = DefaultLateCutoffDays
	}

	periodStart := e.Calculator.PeriodForDate(candidate.StartDate).Start
	deadline := periodStart.AddDays(-cutoffDays)
	if candidate.SubmittedAt.BeforeOrEqual(deadline) {
		return "", false
	}

	notice := roster.DaysBetween(candidate.SubmittedAt, periodStart)
	return fmt.Sprintf("late request: submitted %d day(s) before roster period start (cutoff %d days)", notice, cutoffDays), true
}

func ineligible(reason string) *EligibilityVerdict {
	return &EligibilityVerdict{
		Decision: DecisionIneligible,
		Reasons:  []string{reason},
	}
}

func breachReason(report *ConflictReport) string {
	dates := make([]string, len(report.ConflictDates))
	for i, d := range report.ConflictDates {
		dates[i] = d.String()
	}
	return fmt.Sprintf("would breach minimum crew on date(s) %s", strings.Join(dates, ", "))
}

// IsConfigurationError reports whether err is a startup-class
// configuration fault rather than a business outcome.
func IsConfigurationError(err error) bool {
	return errors.Is(err, roster.ErrConfiguration)
}
