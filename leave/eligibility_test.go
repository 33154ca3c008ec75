package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEvaluator(t *testing.T) *leave.Evaluator {
	calc, err := roster.NewCalculator(
		roster.MustParseDate("2025-01-01"),
		roster.DefaultPeriodLengthDays,
		roster.DefaultPeriodsPerYear,
	)
	require.NoError(t, err)
	return leave.NewEvaluator(calc)
}

func annualCandidate(pilot string, start, end string) leave.CandidateRequest {
	return leave.CandidateRequest{
		PilotID:   leave.PilotID(pilot),
		Role:      leave.RoleCaptain,
		StartDate: roster.MustParseDate(start),
		EndDate:   roster.MustParseDate(end),
		Type:      leave.TypeAnnual,
	}
}

var defaultThreshold = leave.CrewThreshold{MinimumCrew: 18}

// =============================================================================
// THE RULE CHAIN
// =============================================================================

func TestEvaluate_NoConflict_Eligible(t *testing.T) {
	// GIVEN: plenty of crew headroom
	// WHEN: evaluating an annual leave request
	// THEN: ELIGIBLE, with the (clean) conflict report attached

	evaluator := newTestEvaluator(t)

	verdict, err := evaluator.Evaluate(
		annualCandidate("cpt-x", "2025-03-10", "2025-03-12"),
		captains(5, "2025-03-10", "2025-03-12"),
		defaultThreshold,
		leave.EvaluationContext{},
	)
	require.NoError(t, err)

	assert.Equal(t, leave.DecisionEligible, verdict.Decision)
	assert.True(t, verdict.Eligible)
	assert.False(t, verdict.RequiresOverride)
	require.NotNil(t, verdict.Conflicts)
	assert.False(t, verdict.Conflicts.HasConflict)
}

func TestEvaluate_Conflict_Ineligible(t *testing.T) {
	// GIVEN: the candidate would be the 18th captain on leave
	// WHEN: evaluating without override authority
	// THEN: INELIGIBLE with the breach dates in the reasons

	evaluator := newTestEvaluator(t)

	verdict, err := evaluator.Evaluate(
		annualCandidate("cpt-x", "2025-03-10", "2025-03-12"),
		captains(17, "2025-03-11", "2025-03-11"),
		defaultThreshold,
		leave.EvaluationContext{},
	)
	require.NoError(t, err)

	assert.Equal(t, leave.DecisionIneligible, verdict.Decision)
	assert.False(t, verdict.Eligible)
	require.NotEmpty(t, verdict.Reasons)
	assert.Contains(t, verdict.Reasons[0], "would breach minimum crew")
	assert.Contains(t, verdict.Reasons[0], "2025-03-11")
}

func TestEvaluate_SickLeave_ExemptDespiteConflict(t *testing.T) {
	// GIVEN: a crew-minimum conflict
	// WHEN: the request type is SICK
	// THEN: ELIGIBLE - policy-exempt types are never denied on crew
	//       minimums - but the conflict stays visible for operations

	evaluator := newTestEvaluator(t)

	sick := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
	sick.Type = leave.TypeSick

	verdict, err := evaluator.Evaluate(
		sick,
		captains(17, "2025-03-11", "2025-03-11"),
		defaultThreshold,
		leave.EvaluationContext{},
	)
	require.NoError(t, err)

	assert.Equal(t, leave.DecisionEligible, verdict.Decision)
	assert.True(t, verdict.Eligible)
	require.NotNil(t, verdict.Conflicts)
	assert.True(t, verdict.Conflicts.HasConflict, "conflict retained for visibility")
	assert.Contains(t, verdict.Reasons[0], "exempt")
}

func TestEvaluate_ExemptionConsistency(t *testing.T) {
	// GIVEN: identical conflicting requests differing only in type
	// THEN: exempt types pass, non-exempt types are denied

	evaluator := newTestEvaluator(t)
	existing := captains(17, "2025-03-11", "2025-03-11")

	exempt := map[leave.RequestType]bool{
		leave.TypeSick:          true,
		leave.TypeCompassionate: true,
		leave.TypeMaternity:     true,
		leave.TypeAnnual:        false,
		leave.TypeRDO:           false,
		leave.TypeSDO:           false,
		leave.TypeLongService:   false,
		leave.TypeUnpaid:        false,
	}

	for reqType, wantEligible := range exempt {
		c := annualCandidate("cpt-x", "2025-03-11", "2025-03-11")
		c.Type = reqType

		verdict, err := evaluator.Evaluate(c, existing, defaultThreshold, leave.EvaluationContext{})
		require.NoError(t, err)
		assert.Equal(t, wantEligible, verdict.Eligible, "type %s", reqType)
	}
}

func TestEvaluate_OverrideAuthority(t *testing.T) {
	// GIVEN: a crew-minimum conflict
	// WHEN: the evaluating approver holds override authority
	// THEN: OVERRIDE_REQUIRED, not a flat denial

	evaluator := newTestEvaluator(t)

	verdict, err := evaluator.Evaluate(
		annualCandidate("cpt-x", "2025-03-10", "2025-03-12"),
		captains(17, "2025-03-11", "2025-03-11"),
		defaultThreshold,
		leave.EvaluationContext{HasOverrideAuthority: true},
	)
	require.NoError(t, err)

	assert.Equal(t, leave.DecisionOverrideRequired, verdict.Decision)
	assert.False(t, verdict.Eligible)
	assert.True(t, verdict.RequiresOverride)
}

func TestEvaluate_OverrideAuthority_NoConflict(t *testing.T) {
	// Override authority without a conflict changes nothing.

	evaluator := newTestEvaluator(t)

	verdict, err := evaluator.Evaluate(
		annualCandidate("cpt-x", "2025-03-10", "2025-03-12"),
		nil,
		defaultThreshold,
		leave.EvaluationContext{HasOverrideAuthority: true},
	)
	require.NoError(t, err)
	assert.Equal(t, leave.DecisionEligible, verdict.Decision)
	assert.False(t, verdict.RequiresOverride)
}

// =============================================================================
// LATE-REQUEST FLAG
// =============================================================================

func TestEvaluate_LateRequest_InformationalOnly(t *testing.T) {
	// GIVEN: leave starting 2025-03-10 (inside RP3/2025, which starts
	//        2025-02-26) with a 14-day cutoff, submitted 2 days before
	//        the period start
	// THEN: still ELIGIBLE; the late flag is a reason, never a denial

	evaluator := newTestEvaluator(t)

	c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
	c.SubmittedAt = roster.MustParseDate("2025-02-24")

	verdict, err := evaluator.Evaluate(c, nil, defaultThreshold,
		leave.EvaluationContext{LateCutoffDays: 14})
	require.NoError(t, err)

	assert.True(t, verdict.Eligible)
	require.Len(t, verdict.Reasons, 1)
	assert.Contains(t, verdict.Reasons[0], "late request")
	assert.Contains(t, verdict.Reasons[0], "2 day(s) before roster period start")
}

func TestEvaluate_OnTimeRequest_NoFlag(t *testing.T) {
	// Submitted exactly on the cutoff deadline: not late.

	evaluator := newTestEvaluator(t)

	c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
	c.SubmittedAt = roster.MustParseDate("2025-02-12") // period starts 02-26, cutoff 14 days

	verdict, err := evaluator.Evaluate(c, nil, defaultThreshold,
		leave.EvaluationContext{LateCutoffDays: 14})
	require.NoError(t, err)

	assert.True(t, verdict.Eligible)
	assert.Empty(t, verdict.Reasons)
}

func TestEvaluate_SickLeave_NotLateFlagged(t *testing.T) {
	// Sick leave cannot be planned ahead; no late flag regardless of notice.

	evaluator := newTestEvaluator(t)

	c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
	c.Type = leave.TypeSick
	c.SubmittedAt = roster.MustParseDate("2025-03-10")

	verdict, err := evaluator.Evaluate(c, nil, defaultThreshold,
		leave.EvaluationContext{LateCutoffDays: 14})
	require.NoError(t, err)

	assert.True(t, verdict.Eligible)
	assert.Empty(t, verdict.Reasons)
}

func TestEvaluate_UnknownSubmissionDate_NoFlag(t *testing.T) {
	evaluator := newTestEvaluator(t)

	c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
	// SubmittedAt left zero.

	verdict, err := evaluator.Evaluate(c, nil, defaultThreshold,
		leave.EvaluationContext{LateCutoffDays: 14})
	require.NoError(t, err)
	assert.Empty(t, verdict.Reasons)
}

// =============================================================================
// STRUCTURAL VALIDATION - verdicts, not errors
// =============================================================================

func TestEvaluate_StructuralFailures(t *testing.T) {
	evaluator := newTestEvaluator(t)

	cases := []struct {
		name   string
		mutate func(*leave.CandidateRequest)
		ectx   leave.EvaluationContext
	}{
		{"inverted range", func(c *leave.CandidateRequest) {
			c.StartDate = roster.MustParseDate("2025-03-12")
			c.EndDate = roster.MustParseDate("2025-03-10")
		}, leave.EvaluationContext{}},
		{"missing pilot id", func(c *leave.CandidateRequest) {
			c.PilotID = ""
		}, leave.EvaluationContext{}},
		{"unknown role", func(c *leave.CandidateRequest) {
			c.Role = "Navigator"
		}, leave.EvaluationContext{}},
		{"unknown request type", func(c *leave.CandidateRequest) {
			c.Type = "GARDENING"
		}, leave.EvaluationContext{}},
		{"zero dates", func(c *leave.CandidateRequest) {
			c.StartDate = roster.Date{}
			c.EndDate = roster.Date{}
		}, leave.EvaluationContext{}},
		{"unknown pilot", func(c *leave.CandidateRequest) {},
			leave.EvaluationContext{KnownPilots: map[leave.PilotID]bool{"someone-else": true}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")
			tc.mutate(&c)

			verdict, err := evaluator.Evaluate(c, nil, defaultThreshold, tc.ectx)
			require.NoError(t, err, "structural failures are verdicts, not errors")

			assert.Equal(t, leave.DecisionIneligible, verdict.Decision)
			require.NotEmpty(t, verdict.Reasons)
			assert.Contains(t, verdict.Reasons[0], "structural validation failed")
		})
	}
}

// =============================================================================
// CONFIGURATION FAULTS - errors, not verdicts
// =============================================================================

func TestEvaluate_ConfigurationFaults(t *testing.T) {
	evaluator := newTestEvaluator(t)
	c := annualCandidate("cpt-x", "2025-03-10", "2025-03-12")

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := evaluator.Evaluate(c, nil, leave.CrewThreshold{MinimumCrew: 0}, leave.EvaluationContext{})
		require.Error(t, err)
		assert.True(t, leave.IsConfigurationError(err))
	})

	t.Run("missing calculator", func(t *testing.T) {
		broken := &leave.Evaluator{}
		_, err := broken.Evaluate(c, nil, defaultThreshold, leave.EvaluationContext{})
		require.Error(t, err)
		assert.True(t, leave.IsConfigurationError(err))
	})
}

// =============================================================================
// SNAPSHOT SEMANTICS
// =============================================================================

func TestEvaluate_PureFunctionOfSnapshot(t *testing.T) {
	// GIVEN: two pilots evaluating against the same record snapshot,
	//        with capacity left for exactly one more admission
	// THEN: both come back ELIGIBLE - the evaluator is a pure function
	//       and the read-then-decide race belongs to the admission store

	evaluator := newTestEvaluator(t)
	snapshot := captains(16, "2025-03-11", "2025-03-11")

	for _, pilot := range []string{"cpt-x", "cpt-y"} {
		verdict, err := evaluator.Evaluate(
			annualCandidate(pilot, "2025-03-11", "2025-03-11"),
			snapshot, defaultThreshold, leave.EvaluationContext{})
		require.NoError(t, err)
		assert.True(t, verdict.Eligible, "pilot %s", pilot)
	}
}
