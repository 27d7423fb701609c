package typing

import "fmt"

// FailureKind names the expectation a failed constraint violated.
type FailureKind int

const (
	FailTupleArityMismatch FailureKind = iota
	FailTupleNameMismatch
	FailTupleNamePositionMismatch
	FailTupleVariadicMismatch
	FailTupleUnusedElement
	FailLValueNotAllowed
	FailLValueQualifier
	FailNotConstructible
	FailDoesNotConform
	FailDoesNotHaveMember
	FailNotGenericSlot
	FailNotClass
	FailNotDynamicLookup
	FailAutoClosureMismatch
	FailNoReturnMismatch
	FailNotCallable
	FailUnsupportedCast
	FailTypesNotEqual
	FailTypesNotTrivialSubtypes
	FailTypesNotSubtypes
	FailTypesNotConvertible
)

var failureKindMessages = map[FailureKind]string{
	FailTupleArityMismatch:        "tuple arities do not match",
	FailTupleNameMismatch:         "tuple element names do not match",
	FailTupleNamePositionMismatch: "tuple element label appears at the wrong position",
	FailTupleVariadicMismatch:     "tuple variadic elements do not match",
	FailTupleUnusedElement:        "tuple element is never used",
	FailLValueNotAllowed:          "reference to storage is not permitted here",
	FailLValueQualifier:           "storage reference qualifiers do not match",
	FailNotConstructible:          "type cannot be constructed",
	FailDoesNotConform:            "type does not conform to protocol",
	FailDoesNotHaveMember:         "type has no such member",
	FailNotGenericSlot:            "type is not an opened generic parameter",
	FailNotClass:                  "type is not a class",
	FailNotDynamicLookup:          "type does not support dynamic lookup",
	FailAutoClosureMismatch:       "function autoclosure attributes do not match",
	FailNoReturnMismatch:          "function noreturn attributes do not match",
	FailNotCallable:               "type cannot be called",
	FailUnsupportedCast:           "checked cast can never be classified",
	FailTypesNotEqual:             "types are not equal",
	FailTypesNotTrivialSubtypes:   "type is not a trivial subtype",
	FailTypesNotSubtypes:          "type is not a subtype",
	FailTypesNotConvertible:       "type is not convertible",
}

// relationalFailureKinds maps a failed match kind to its failure kind
var relationalFailureKinds = map[MatchKind]FailureKind{
	MatchBind:           FailTypesNotEqual,
	MatchEqual:          FailTypesNotEqual,
	MatchTrivialSubtype: FailTypesNotTrivialSubtypes,
	MatchSubtype:        FailTypesNotSubtypes,
	MatchConversion:     FailTypesNotConvertible,
}

// Failure is a structured record of one violated expectation, kept so a
// search that yields no solutions can still produce a diagnosis.
type Failure struct {
	Kind          FailureKind
	First, Second DataType
	Member        string
	Loc           *Locator
}

// Message renders the failure for diagnostics.
func (f *Failure) Message() string {
	msg := failureKindMessages[f.Kind]

	switch {
	case f.Kind == FailDoesNotHaveMember:
		return fmt.Sprintf("%s: `%s` has no member `%s`", msg, f.First.Repr(), f.Member)
	case f.Second != nil:
		return fmt.Sprintf("%s: `%s` v. `%s`", msg, f.First.Repr(), f.Second.Repr())
	default:
		return fmt.Sprintf("%s: `%s`", msg, f.First.Repr())
	}
}

// -----------------------------------------------------------------------------

// recordFailure appends a failure record when failure recording is enabled
// for the current attempt.  Only the first failure encountered during
// straight-line simplification is retained as the representative failure.
func (s *Solver) recordFailure(kind FailureKind, first, second DataType, member string, loc *Locator) matchResult {
	if s.recordFailures && s.failure == nil {
		s.failure = &Failure{Kind: kind, First: first, Second: second, Member: member, Loc: loc}
	}

	return matchError
}

// Failure returns the representative failure of the last solve, if the
// search produced no solutions.
func (s *Solver) Failure() *Failure {
	return s.failure
}
