package typing

// CastKind classifies a checked cast by what the solver could prove about
// its operand types.
type CastKind int

const (
	// CastCoercion marks a cast whose source is already a subtype of the
	// target; it always succeeds at runtime
	CastCoercion CastKind = iota

	// CastDowncast marks a cast from a superclass down to one of its
	// subclasses
	CastDowncast

	// CastSlotToSlot marks a cast between two still-open generic slots
	CastSlotToSlot

	// CastFromExistential marks a cast out of an existential, to a generic
	// slot or a concrete type
	CastFromExistential

	// CastSuperToSlot marks a cast from a class to a generic slot bounded
	// by that class or one of its subclasses
	CastSuperToSlot

	// CastSlotConcrete marks a cast between a generic slot and a concrete
	// type, in either direction
	CastSlotConcrete

	// CastToExistential marks a cast from a concrete type to an existential
	// it is not statically known to conform to
	CastToExistential
)

var castKindNames = map[CastKind]string{
	CastCoercion:        "coercion",
	CastDowncast:        "downcast",
	CastSlotToSlot:      "slot to slot",
	CastFromExistential: "from existential",
	CastSuperToSlot:     "super to slot",
	CastSlotConcrete:    "slot and concrete",
	CastToExistential:   "to existential",
}

func (ck CastKind) String() string {
	return castKindNames[ck]
}

// -----------------------------------------------------------------------------

// simplifyConstraint attempts to discharge one constraint against the
// current bindings.  Disjunctions are never simplified here: the search
// driver owns them.
func (s *Solver) simplifyConstraint(c *Constraint) matchResult {
	switch c.Kind {
	case ConsBind, ConsEqual, ConsTrivialSubtype, ConsSubtype, ConsConversion:
		if c.Restriction != RestrictionNone {
			return s.simplifyRestriction(c.Restriction, c.First, c.Second, c.Kind.matchKind(), mtTopLevel, c.Loc)
		}

		return s.matchTypes(c.First, c.Second, c.Kind.matchKind(), mtTopLevel, c.Loc)

	case ConsApplicableFunc:
		return s.simplifyApplicableFunc(c)

	case ConsValueMember, ConsTypeMember:
		return s.simplifyMemberConstraint(c)

	case ConsConformsTo:
		return s.simplifyConformsTo(c)

	case ConsSelfConformsTo:
		return s.simplifySelfConformsTo(c)

	case ConsConstruction:
		return s.simplifyConstruction(c)

	case ConsCheckedCast:
		return s.simplifyCheckedCast(c)

	case ConsBindOverload:
		return s.resolveOverload(c.First, c.Choice, c.Loc)

	case ConsIsGenericSlot, ConsIsClass, ConsIsDynamicLookup:
		return s.simplifyProperty(c)

	case ConsConjunction:
		for _, nested := range c.Nested {
			s.addConstraint(nested)
		}

		return matchSolved

	default:
		return matchUnsolved
	}
}

// simplifyApplicableFunc checks that the callee type can be applied with
// the call-site shape in c.First.  Arguments convert into parameters; the
// result binds exactly.
func (s *Solver) simplifyApplicableFunc(c *Constraint) matchResult {
	call, ok := Desugar(c.First).(*FuncType)
	if !ok {
		return s.recordFailure(FailNotCallable, c.First, c.Second, "", c.Loc)
	}

	callee := Desugar(StripLValue(s.resolveType(c.Second)))

	switch v := callee.(type) {
	case *TypeVariable:
		return matchUnsolved

	case ErrorType:
		return matchSolved

	case *FuncType:
		if r := s.matchTypes(call.Input, v.Input, MatchConversion, 0,
			s.LocateStep(c.Loc, StepFunctionInput, 0)); r == matchError {
			return r
		}

		return s.matchTypes(v.Result, call.Result, MatchBind, 0,
			s.LocateStep(c.Loc, StepFunctionResult, 0))

	case *MetaType:
		// applying a bare type is construction sugar: T(args)
		s.AddConstructionConstraint(call.Input, v.Instance, c.Loc)
		return s.matchTypes(call.Result, v.Instance, MatchBind, 0,
			s.LocateStep(c.Loc, StepFunctionResult, 0))

	default:
		return s.recordFailure(FailNotCallable, callee, c.First, "", c.Loc)
	}
}

// simplifyConformsTo checks protocol conformance of a resolved type.
func (s *Solver) simplifyConformsTo(c *Constraint) matchResult {
	dt := Desugar(StripLValue(s.resolveType(c.First)))

	if _, ok := dt.(*TypeVariable); ok {
		return matchUnsolved
	}

	if IsErrorType(dt) {
		return matchSolved
	}

	if s.typeConformsTo(dt, c.Protocol) {
		return matchSolved
	}

	return s.recordFailure(FailDoesNotConform, dt, nil, c.Protocol.Name, c.Loc)
}

// simplifySelfConformsTo checks that a protocol type conforms to itself,
// which holds only when the protocol has no static requirements and no
// member mentions Self or an associated type.
func (s *Solver) simplifySelfConformsTo(c *Constraint) matchResult {
	dt := Desugar(StripLValue(s.resolveType(c.First)))

	if _, ok := dt.(*TypeVariable); ok {
		return matchUnsolved
	}

	if IsErrorType(dt) {
		return matchSolved
	}

	protos, ok := existentialProtocols(dt)
	if !ok {
		return s.recordFailure(FailDoesNotConform, dt, nil, c.Protocol.Name, c.Loc)
	}

	found := false
	for _, p := range protos {
		if p == c.Protocol || p.InheritsFrom(c.Protocol) {
			found = true
			break
		}
	}

	if !found || !protocolSelfConforms(c.Protocol) {
		return s.recordFailure(FailDoesNotConform, dt, nil, c.Protocol.Name, c.Loc)
	}

	return matchSolved
}

func protocolSelfConforms(proto *ProtocolDecl) bool {
	if len(proto.AssociatedTypes) > 0 {
		return false
	}

	for _, m := range proto.Members {
		if m.Static || m.MentionsSelf {
			return false
		}
	}

	for _, inherited := range proto.Inherits {
		if !protocolSelfConforms(inherited) {
			return false
		}
	}

	return true
}

// simplifyConstruction resolves `T(args)` by routing the argument tuple
// through the type's initializer set.
func (s *Solver) simplifyConstruction(c *Constraint) matchResult {
	value := Desugar(StripLValue(s.resolveType(c.Second)))

	switch value.(type) {
	case *TypeVariable:
		return matchUnsolved

	case ErrorType:
		return matchSolved

	case *FuncType, *MetaType, *LValueType:
		return s.recordFailure(FailNotConstructible, value, nil, "", c.Loc)
	}

	// a one-element construction of a tuple type is just a coercion
	if tt, ok := value.(*TupleType); ok {
		return s.matchTypes(c.First, tt, MatchConversion, mtTopLevel, c.Loc)
	}

	memberLoc := s.LocateStep(c.Loc, StepConstructorMember, 0)
	initType := s.vars.newVar(s, memberLoc, 0)

	s.AddValueMemberConstraint(&MetaType{Instance: value}, InitializerName, initType, memberLoc)
	s.AddApplicableFuncConstraint(&FuncType{Input: c.First, Result: value}, initType, c.Loc)
	return matchSolved
}

// simplifyCheckedCast classifies `from as to` once both sides resolve.
func (s *Solver) simplifyCheckedCast(c *Constraint) matchResult {
	from := Desugar(StripLValue(s.resolveType(c.First)))
	to := Desugar(StripLValue(s.resolveType(c.Second)))

	if _, ok := from.(*TypeVariable); ok {
		return matchUnsolved
	}
	if _, ok := to.(*TypeVariable); ok {
		return matchUnsolved
	}

	if IsErrorType(from) || IsErrorType(to) {
		return matchSolved
	}

	// casting through optionals inspects the payloads
	for {
		fo, fok := from.(*OptionalType)
		too, tok := to.(*OptionalType)
		if fok {
			from = Desugar(fo.Value)
		}
		if tok {
			to = Desugar(too.Value)
		}
		if !fok && !tok {
			break
		}
	}

	switch {
	case Equals(from, to) || s.canMatch(from, to, MatchTrivialSubtype):
		s.recordCastKind(c.Loc, CastCoercion)

	case isGenericSlot(from) && isGenericSlot(to):
		s.recordCastKind(c.Loc, CastSlotToSlot)

	case isExistential(from):
		s.recordCastKind(c.Loc, CastFromExistential)

	case s.isSuperclassOfSlot(from, to):
		s.recordCastKind(c.Loc, CastSuperToSlot)

	case isGenericSlot(from) || isGenericSlot(to):
		s.recordCastKind(c.Loc, CastSlotConcrete)

	case isExistential(to):
		s.recordCastKind(c.Loc, CastToExistential)

	case s.hasSuperclass(to, from):
		// the static guarantee runs the other way; the runtime check
		// carries the rest
		s.recordCastKind(c.Loc, CastDowncast)
		s.AddConstraint(ConsSubtype, to, from, c.Loc)

	default:
		return s.recordFailure(FailUnsupportedCast, from, to, "", c.Loc)
	}

	return matchSolved
}

func isGenericSlot(dt DataType) bool {
	_, ok := dt.(*GenericSlotType)
	return ok
}

// isSuperclassOfSlot reports whether from lies on the superclass chain of
// to's class bound, so the cast narrows a class value into a slot.
func (s *Solver) isSuperclassOfSlot(from, to DataType) bool {
	slot, ok := to.(*GenericSlotType)
	if !ok || slot.Super == nil {
		return false
	}

	super := Desugar(slot.Super)
	return Equals(super, from) || s.hasSuperclass(super, from)
}

func (s *Solver) recordCastKind(loc *Locator, kind CastKind) {
	if loc != nil {
		s.castKinds[loc] = kind
	}
}

// simplifyProperty discharges the type-property predicates.
func (s *Solver) simplifyProperty(c *Constraint) matchResult {
	dt := Desugar(StripLValue(s.resolveType(c.First)))

	if _, ok := dt.(*TypeVariable); ok {
		return matchUnsolved
	}

	if IsErrorType(dt) {
		return matchSolved
	}

	switch c.Kind {
	case ConsIsGenericSlot:
		if !isGenericSlot(dt) {
			return s.recordFailure(FailNotGenericSlot, dt, nil, "", c.Loc)
		}

	case ConsIsClass:
		if !s.isClassLike(dt) {
			return s.recordFailure(FailNotClass, dt, nil, "", c.Loc)
		}

	case ConsIsDynamicLookup:
		if !isDynamicLookupType(dt) {
			return s.recordFailure(FailNotDynamicLookup, dt, nil, "", c.Loc)
		}
	}

	return matchSolved
}

// isClassLike accepts class instances plus the reference-like types that
// behave as one: class-bounded slots and class-bounded existentials.
func (s *Solver) isClassLike(dt DataType) bool {
	if isClassType(dt) {
		return true
	}

	if slot, ok := dt.(*GenericSlotType); ok {
		return slot.IsClassBounded()
	}

	if protos, ok := existentialProtocols(dt); ok {
		return existentialClassBounded(protos)
	}

	return false
}
