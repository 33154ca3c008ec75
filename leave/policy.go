/*
policy.go - Request-type policy table

PURPOSE:
  Captures the per-request-type business rules the eligibility service
  folds into its verdicts. The prominent one: statutory leave types
  (sick, compassionate) cannot be denied on crew-minimum grounds - a
  sick pilot is off the roster whether or not the numbers work - but
  their conflicts are still reported so operations can plan cover.

CUSTOMIZATION:
  DefaultPolicies() encodes the production rules. Operators with
  different awards can build their own table; the engine treats the
  table as read-only configuration.

SEE ALSO:
  - eligibility.go: consumes the table
  - types.go: RequestType definitions
*/
package leave

// =============================================================================
// REQUEST POLICY
// =============================================================================

// RequestPolicy is the rule set for one request type.
type RequestPolicy struct {
	Type RequestType

	// ExemptFromCrewMinimum: a conflict never denies this type on its
	// own. The conflict report still rides on the verdict.
	ExemptFromCrewMinimum bool

	// SubjectToLateFlag: whether the late-request rule applies. Sick
	// leave is by nature unplanned, so flagging it as "late" is noise.
	SubjectToLateFlag bool
}

// PolicyTable maps request types to their policies.
type PolicyTable map[RequestType]RequestPolicy

// For returns the policy for the given type, falling back to a
// non-exempt default for unknown or unlisted types.
func (pt PolicyTable) For(t RequestType) RequestPolicy {
	if p, ok := pt[t]; ok {
		return p
	}
	return RequestPolicy{Type: t, SubjectToLateFlag: true}
}

// =============================================================================
// STANDARD TABLES
// =============================================================================

// DefaultPolicies returns the production policy table.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		TypeAnnual:        {Type: TypeAnnual, SubjectToLateFlag: true},
		TypeRDO:           {Type: TypeRDO, SubjectToLateFlag: true},
		TypeSDO:           {Type: TypeSDO, SubjectToLateFlag: true},
		TypeSick:          {Type: TypeSick, ExemptFromCrewMinimum: true},
		TypeCompassionate: {Type: TypeCompassionate, ExemptFromCrewMinimum: true},
		TypeLongService:   {Type: TypeLongService, SubjectToLateFlag: true},
		TypeUnpaid:        {Type: TypeUnpaid, SubjectToLateFlag: true},
		TypeMaternity:     {Type: TypeMaternity, ExemptFromCrewMinimum: true},
	}
}
