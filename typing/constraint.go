package typing

import (
	"strconv"
	"strings"

	"vela/logging"
)

// ConstraintKind enumerates every kind of constraint the solver understands.
type ConstraintKind int

const (
	// relational constraints, in increasing order of permissiveness
	ConsBind ConstraintKind = iota
	ConsEqual
	ConsTrivialSubtype
	ConsSubtype
	ConsConversion

	// call-site argument/result matching
	ConsApplicableFunc

	// member constraints
	ConsValueMember
	ConsTypeMember

	// conformance constraints
	ConsConformsTo
	ConsSelfConformsTo

	ConsConstruction
	ConsCheckedCast
	ConsBindOverload

	// type-property predicates
	ConsIsGenericSlot
	ConsIsClass
	ConsIsDynamicLookup

	// structural constraints
	ConsConjunction
	ConsDisjunction
)

var constraintKindNames = map[ConstraintKind]string{
	ConsBind:            "bind",
	ConsEqual:           "equal",
	ConsTrivialSubtype:  "trivial subtype",
	ConsSubtype:         "subtype",
	ConsConversion:      "conversion",
	ConsApplicableFunc:  "applicable fn",
	ConsValueMember:     "value member",
	ConsTypeMember:      "type member",
	ConsConformsTo:      "conforms to",
	ConsSelfConformsTo:  "self conforms to",
	ConsConstruction:    "construction",
	ConsCheckedCast:     "checked cast",
	ConsBindOverload:    "bind overload",
	ConsIsGenericSlot:   "is generic slot",
	ConsIsClass:         "is class",
	ConsIsDynamicLookup: "is dynamic lookup",
	ConsConjunction:     "conjunction",
	ConsDisjunction:     "disjunction",
}

// IsRelational returns whether the kind is one of the five relational
// constraint kinds handled by the type matcher.
func (ck ConstraintKind) IsRelational() bool {
	return ck <= ConsConversion
}

// -----------------------------------------------------------------------------

// ConversionRestriction tags which specific non-structural conversion was
// used to satisfy a relational constraint.
type ConversionRestriction int

const (
	RestrictionNone ConversionRestriction = iota
	RestrictionDeepEquality
	RestrictionSuperclass
	RestrictionExistential
	RestrictionLValueToRValue
	RestrictionValueToOptional
	RestrictionOptionalToOptional
	RestrictionTupleToScalar
	RestrictionScalarToTuple
	RestrictionAutoClosure
	RestrictionArrayUpcast
	RestrictionUserConversion
)

var restrictionNames = map[ConversionRestriction]string{
	RestrictionNone:               "none",
	RestrictionDeepEquality:       "deep equality",
	RestrictionSuperclass:         "superclass",
	RestrictionExistential:        "existential",
	RestrictionLValueToRValue:     "load",
	RestrictionValueToOptional:    "value to optional",
	RestrictionOptionalToOptional: "optional to optional",
	RestrictionTupleToScalar:      "tuple to scalar",
	RestrictionScalarToTuple:      "scalar to tuple",
	RestrictionAutoClosure:        "autoclosure",
	RestrictionArrayUpcast:        "array upcast",
	RestrictionUserConversion:     "user conversion",
}

func (cr ConversionRestriction) String() string {
	return restrictionNames[cr]
}

// -----------------------------------------------------------------------------

// OverloadChoiceKind discriminates what an overload choice refers to.
type OverloadChoiceKind int

const (
	// ChoiceDecl references a declaration found by ordinary lookup
	ChoiceDecl OverloadChoiceKind = iota

	// ChoiceDynamicDecl references a declaration found via dynamic lookup
	ChoiceDynamicDecl

	// ChoiceTypeDecl references a nested type declaration
	ChoiceTypeDecl

	// ChoiceBaseType references the identity of the base type itself
	ChoiceBaseType

	// ChoiceTupleIndex references a tuple element by position
	ChoiceTupleIndex
)

// OverloadChoice is one alternative the member resolver produced for a
// member reference, together with the base type it was resolved against.
type OverloadChoice struct {
	Base     DataType
	Kind     OverloadChoiceKind
	Decl     *ValueDecl
	TypeDecl *TypeDecl
	Index    int
}

func (oc *OverloadChoice) Repr() string {
	switch oc.Kind {
	case ChoiceDecl:
		return oc.Base.Repr() + "." + oc.Decl.Name
	case ChoiceDynamicDecl:
		return oc.Base.Repr() + "." + oc.Decl.Name + " (dynamic)"
	case ChoiceTypeDecl:
		return oc.Base.Repr() + "." + oc.TypeDecl.Name
	case ChoiceBaseType:
		return oc.Base.Repr() + ".self"
	default:
		return oc.Base.Repr() + "." + strconv.Itoa(oc.Index)
	}
}

// -----------------------------------------------------------------------------

// Constraint is one unresolved requirement on the types of the expression.
// Which fields are meaningful depends on the kind.
type Constraint struct {
	Kind ConstraintKind

	// First and Second are the type operands.  Relational constraints
	// require First to relate to Second; member constraints look up on
	// First and bind the member's type to Second.
	First, Second DataType

	// Member is the member name for member constraints
	Member string

	// Protocol is the target for conformance constraints
	Protocol *ProtocolDecl

	// Restriction is a pre-selected conversion restriction, set when this
	// constraint is the committed alternative of a conversion disjunction
	Restriction ConversionRestriction

	// Choice is the overload alternative for bind-overload constraints
	Choice *OverloadChoice

	// Nested holds the sub-constraints of a conjunction or disjunction
	Nested []*Constraint

	// Loc records where in the expression the constraint originated
	Loc *Locator
}

func (c *Constraint) Repr() string {
	b := strings.Builder{}
	b.WriteString(constraintKindNames[c.Kind])

	switch c.Kind {
	case ConsValueMember, ConsTypeMember:
		b.WriteString(": " + c.First.Repr() + "." + c.Member + " == " + c.Second.Repr())
	case ConsConformsTo, ConsSelfConformsTo:
		b.WriteString(": " + c.First.Repr() + " : " + c.Protocol.Name)
	case ConsBindOverload:
		b.WriteString(": " + c.First.Repr() + " := " + c.Choice.Repr())
	case ConsConjunction, ConsDisjunction:
		parts := make([]string, len(c.Nested))
		for i, nested := range c.Nested {
			parts[i] = nested.Repr()
		}

		sep := " and "
		if c.Kind == ConsDisjunction {
			sep = " or "
		}

		b.WriteString(": " + strings.Join(parts, sep))
	case ConsIsGenericSlot, ConsIsClass, ConsIsDynamicLookup:
		b.WriteString(": " + c.First.Repr())
	default:
		b.WriteString(": " + c.First.Repr() + " to " + c.Second.Repr())
		if c.Restriction != RestrictionNone {
			b.WriteString(" [" + c.Restriction.String() + "]")
		}
	}

	return b.String()
}

// conKey is the generated-set key preventing duplicate re-derivation of the
// same constraint at the same locator within one simplification round.
type conKey struct {
	kind          ConstraintKind
	first, second DataType
	member        string
	loc           *Locator
}

// -----------------------------------------------------------------------------
// Constraint store: the ordered worklist of unresolved constraints plus the
// generated set and the retired list.

// addConstraint appends a constraint to the active worklist unless an
// identical constraint was already generated since the last snapshot.
func (s *Solver) addConstraint(c *Constraint) {
	if c.Kind == ConsDisjunction && len(c.Nested) == 0 {
		logging.LogFatal("disjunction constraint with no alternatives")
	}

	if c.Loc != nil && c.Kind != ConsBindOverload {
		key := conKey{kind: c.Kind, first: c.First, second: c.Second, member: c.Member, loc: c.Loc}
		if s.generated[key] {
			return
		}

		s.generated[key] = true
	}

	s.active = append(s.active, c)
}

// retire moves a fully simplified constraint to the retired list so the
// dump can still show it.
func (s *Solver) retire(c *Constraint) {
	s.retired = append(s.retired, c)
}

// AddConstraint records a relational constraint between two types.
func (s *Solver) AddConstraint(kind ConstraintKind, first, second DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: kind, First: first, Second: second, Loc: loc})
}

// AddRestrictedConstraint records a relational constraint that must be
// satisfied by one specific conversion restriction.
func (s *Solver) AddRestrictedConstraint(kind ConstraintKind, first, second DataType, restriction ConversionRestriction, loc *Locator) {
	s.addConstraint(&Constraint{Kind: kind, First: first, Second: second, Restriction: restriction, Loc: loc})
}

// AddValueMemberConstraint requires `base` to have a value member named
// `member` whose (opened) type is `memberType`.
func (s *Solver) AddValueMemberConstraint(base DataType, member string, memberType DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsValueMember, First: base, Second: memberType, Member: member, Loc: loc})
}

// AddTypeMemberConstraint requires `base` to have a type member named
// `member` bound to `memberType`.
func (s *Solver) AddTypeMemberConstraint(base DataType, member string, memberType DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsTypeMember, First: base, Second: memberType, Member: member, Loc: loc})
}

// AddConformsConstraint requires the type to conform to the protocol.
func (s *Solver) AddConformsConstraint(kind ConstraintKind, dt DataType, proto *ProtocolDecl, loc *Locator) {
	s.addConstraint(&Constraint{Kind: kind, First: dt, Protocol: proto, Loc: loc})
}

// AddApplicableFuncConstraint requires `fnType` (the type of the callee) to
// be applicable as the call-site function type `callType`.
func (s *Solver) AddApplicableFuncConstraint(callType, fnType DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsApplicableFunc, First: callType, Second: fnType, Loc: loc})
}

// AddConstructionConstraint requires `valueType` to be constructible from an
// argument of type `argType`.
func (s *Solver) AddConstructionConstraint(argType, valueType DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsConstruction, First: argType, Second: valueType, Loc: loc})
}

// AddCheckedCastConstraint requires the cast `fromType as toType` to be
// classifiable.
func (s *Solver) AddCheckedCastConstraint(fromType, toType DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsCheckedCast, First: fromType, Second: toType, Loc: loc})
}

// AddPropertyConstraint records one of the type-property predicates.
func (s *Solver) AddPropertyConstraint(kind ConstraintKind, dt DataType, loc *Locator) {
	s.addConstraint(&Constraint{Kind: kind, First: dt, Loc: loc})
}

// AddDisjunction records a disjunction over the given alternatives; exactly
// one of them must be chosen by the search.
func (s *Solver) AddDisjunction(alternatives []*Constraint, loc *Locator) {
	s.addConstraint(&Constraint{Kind: ConsDisjunction, Nested: alternatives, Loc: loc})
}
