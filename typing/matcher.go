package typing

import (
	"vela/logging"
)

// MatchKind is the strictness a type match is requested at.  The kinds form
// a total order of increasing permissiveness; any pair solved at one kind is
// solved at every weaker kind.
type MatchKind int

const (
	MatchBind MatchKind = iota
	MatchEqual
	MatchTrivialSubtype
	MatchSubtype
	MatchConversion
)

// matchKind maps a relational constraint kind onto its match kind.  The two
// enumerations share their first five values.
func (ck ConstraintKind) matchKind() MatchKind {
	if !ck.IsRelational() {
		logging.LogFatal("match kind requested for non-relational constraint")
	}

	return MatchKind(ck)
}

// matchResult is the outcome of simplifying one constraint.  Deferred
// (unsolved) is not an error: it means "try again after more variables are
// bound".
type matchResult int

const (
	matchSolved matchResult = iota
	matchUnsolved
	matchError
)

// matchFlags adjust matcher behavior along one call chain.
type matchFlags uint8

const (
	// mtTopLevel marks the outermost matchTypes call for a worklist
	// constraint: deferral must report Unsolved there instead of re-deriving
	// the constraint it came from
	mtTopLevel matchFlags = 1 << iota
)

// -----------------------------------------------------------------------------

// resolveType resolves a type through desugaring and fixed-type chains to
// its concrete form, or to the representative of a still-unbound variable.
func (s *Solver) resolveType(dt DataType) DataType {
	dt = Desugar(dt)
	for {
		tv, ok := dt.(*TypeVariable)
		if !ok {
			return dt
		}

		fixed := s.vars.fixedType(tv)
		if fixed == nil {
			return tv.Representative()
		}

		dt = Desugar(fixed)
	}
}

// matchTypes is the unification engine: it compares two types under a
// requested strictness and either solves the relation, defers it until more
// variables are bound, or reports that it can never hold.
func (s *Solver) matchTypes(a, b DataType, kind MatchKind, flags matchFlags, loc *Locator) matchResult {
	a, b = s.resolveType(a), s.resolveType(b)

	// error types satisfy every relation so bad declarations don't cascade
	if IsErrorType(a) || IsErrorType(b) {
		return matchSolved
	}

	avar, _ := a.(*TypeVariable)
	bvar, _ := b.(*TypeVariable)
	if avar != nil || bvar != nil {
		return s.matchTypeVariables(avar, bvar, a, b, kind, flags, loc)
	}

	// both sides are now concrete
	if a.equals(b) {
		return matchSolved
	}

	// structural decomposition when both sides share an outer kind
	switch at := a.(type) {
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			return s.matchTupleTypes(at, bt, kind, flags, loc)
		}

	case *FuncType:
		if bf, ok := b.(*FuncType); ok {
			return s.matchFuncTypes(at, bf, kind, flags, loc)
		}

	case *MetaType:
		if bm, ok := b.(*MetaType); ok {
			// instance types match at the requested kind, which permits
			// class covariance above Bind
			return s.matchTypes(at.Instance, bm.Instance, kind, flags&^mtTopLevel,
				s.LocateStep(loc, StepInstanceType, 0))
		}

	case *BoundGenericType:
		if bg, ok := b.(*BoundGenericType); ok && at.Decl == bg.Decl {
			if len(at.Args) != len(bg.Args) {
				logging.LogFatal("bound generic types with one declaration but differing argument counts")
			}

			// generic arguments are invariant: same-type match each pair
			for i := range at.Args {
				if r := s.matchTypes(at.Args[i], bg.Args[i], MatchEqual, flags&^mtTopLevel,
					s.LocateStep(loc, StepGenericArgument, i)); r == matchError {
					return r
				}
			}

			return matchSolved
		}

	case *ArrayType:
		if ba, ok := b.(*ArrayType); ok {
			if kind >= MatchConversion {
				return s.simplifyRestriction(RestrictionArrayUpcast, a, b, kind, flags, loc)
			}

			return s.matchTypes(at.ElemType, ba.ElemType, MatchEqual, flags&^mtTopLevel,
				s.LocateStep(loc, StepArrayElement, 0))
		}

	case *OptionalType:
		if bo, ok := b.(*OptionalType); ok && kind <= MatchEqual {
			return s.matchTypes(at.Value, bo.Value, kind, flags&^mtTopLevel,
				s.LocateStep(loc, StepOptionalPayload, 0))
		}

	case *LValueType:
		if blv, ok := b.(*LValueType); ok {
			// a reference may satisfy a settable requirement only if it is
			// itself settable
			if blv.Settable && !at.Settable {
				return s.recordFailure(FailLValueQualifier, a, b, "", loc)
			}

			return s.matchTypes(at.Object, blv.Object, MatchEqual, flags&^mtTopLevel,
				s.LocateStep(loc, StepLValueObject, 0))
		}
	}

	// a mutable reference can never be produced from a plain value
	if _, ok := b.(*LValueType); ok {
		return s.recordFailure(FailLValueNotAllowed, a, b, "", loc)
	}

	// collect the potential non-structural conversions for this match kind
	candidates := s.conversionCandidates(a, b, kind)

	switch len(candidates) {
	case 0:
		return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
	case 1:
		return s.simplifyRestriction(candidates[0], a, b, kind, flags, loc)
	default:
		// more than one candidate: the search chooses among them
		alternatives := make([]*Constraint, len(candidates))
		for i, restriction := range candidates {
			alternatives[i] = &Constraint{
				Kind:        ConstraintKind(kind),
				First:       a,
				Second:      b,
				Restriction: restriction,
				Loc:         loc,
			}
		}

		s.AddDisjunction(alternatives, loc)
		return matchSolved
	}
}

// matchTypeVariables handles matches where at least one side is an unbound
// type variable.
func (s *Solver) matchTypeVariables(avar, bvar *TypeVariable, a, b DataType, kind MatchKind, flags matchFlags, loc *Locator) matchResult {
	if kind > MatchEqual {
		// weaker relations give no binding information: defer until one
		// side becomes fixed.  At the top level the constraint is already
		// queued, so report Unsolved rather than re-deriving it.
		if flags&mtTopLevel != 0 {
			return matchUnsolved
		}

		s.AddConstraint(ConstraintKind(kind), a, b, loc)
		return matchSolved
	}

	if avar != nil && bvar != nil {
		if avar.Representative() == bvar.Representative() {
			return matchSolved
		}

		// merging must not silently lose lvalue-ness: when exactly one
		// class may bind to a mutable reference the merge is rejected in
		// favor of a deferred constraint
		if (avar.Flags&TVCanBindLValue != 0) != (bvar.Flags&TVCanBindLValue != 0) {
			if flags&mtTopLevel != 0 {
				return matchUnsolved
			}

			s.AddConstraint(ConsEqual, a, b, loc)
			return matchSolved
		}

		s.vars.merge(avar, bvar)
		return matchSolved
	}

	// exactly one side is a variable: bind it to the concrete side
	tv, other := avar, b
	if tv == nil {
		tv, other = bvar, a
	}

	if _, ok := other.(*LValueType); ok && tv.Flags&TVCanBindLValue == 0 {
		return s.recordFailure(FailLValueNotAllowed, a, b, "", loc)
	}

	s.vars.assignFixed(tv, other)
	return matchSolved
}

// matchFuncTypes matches two function types: contravariantly on input,
// covariantly on result, with attribute compatibility checks.
func (s *Solver) matchFuncTypes(af, bf *FuncType, kind MatchKind, flags matchFlags, loc *Locator) matchResult {
	if af.AutoClosure != bf.AutoClosure {
		// the autoclosure attribute may only be dropped, and only below
		// equality strictness
		if kind <= MatchEqual || !af.AutoClosure {
			return s.recordFailure(FailAutoClosureMismatch, af, bf, "", loc)
		}
	}

	if af.NoReturn != bf.NoReturn {
		// a function that never returns may stand in for one that does
		if kind <= MatchEqual || !af.NoReturn {
			return s.recordFailure(FailNoReturnMismatch, af, bf, "", loc)
		}
	}

	sub := flags &^ mtTopLevel

	// input is contravariant: the parameter of the target must convert to
	// the parameter of the source
	if r := s.matchTypes(bf.Input, af.Input, kind, sub, s.LocateStep(loc, StepFunctionInput, 0)); r == matchError {
		return r
	}

	return s.matchTypes(af.Result, bf.Result, kind, sub, s.LocateStep(loc, StepFunctionResult, 0))
}

// -----------------------------------------------------------------------------

// conversionCandidates collects the set of potential non-structural
// conversions applicable to the pair at the given match kind.  Each
// candidate is gated by its concrete preconditions; the caller turns two or
// more surviving candidates into a disjunction.
func (s *Solver) conversionCandidates(a, b DataType, kind MatchKind) []ConversionRestriction {
	var candidates []ConversionRestriction

	// unwrapping a 1-element unnamed tuple
	if at, ok := a.(*TupleType); ok && kind >= MatchConversion {
		if len(at.Elements) == 1 && at.Elements[0].Name == "" && !at.Elements[0].Variadic {
			candidates = append(candidates, RestrictionTupleToScalar)
		}
	}

	// wrapping a scalar into a tuple with exactly one required element
	if bt, ok := b.(*TupleType); ok && kind >= MatchConversion {
		if _, isTuple := a.(*TupleType); !isTuple && scalarInitElement(bt) >= 0 {
			candidates = append(candidates, RestrictionScalarToTuple)
		}
	}

	// superclass widening
	if kind >= MatchTrivialSubtype && s.hasSuperclass(a, b) {
		candidates = append(candidates, RestrictionSuperclass)
	}

	// existential containment
	if protos, ok := existentialProtocols(b); ok {
		if kind >= MatchConversion ||
			(kind == MatchSubtype && (isExistential(a) || existentialClassBounded(protos))) {
			candidates = append(candidates, RestrictionExistential)
		}
	}

	// loading a value out of a mutable reference
	if _, ok := a.(*LValueType); ok && kind >= MatchTrivialSubtype {
		candidates = append(candidates, RestrictionLValueToRValue)
	}

	// wrapping a value in an implicit thunk
	if bf, ok := b.(*FuncType); ok && bf.AutoClosure && kind >= MatchConversion {
		if _, isFunc := a.(*FuncType); !isFunc {
			candidates = append(candidates, RestrictionAutoClosure)
		}
	}

	// optional injections are conversions only
	if _, ok := b.(*OptionalType); ok && kind >= MatchConversion {
		if _, isOpt := a.(*OptionalType); isOpt {
			candidates = append(candidates, RestrictionOptionalToOptional)
		} else {
			candidates = append(candidates, RestrictionValueToOptional)
		}
	}

	// user-defined conversion members
	if kind >= MatchConversion && s.env != nil && isNominal(a) && len(s.env.LookupConversions(a)) > 0 {
		candidates = append(candidates, RestrictionUserConversion)
	}

	return candidates
}

// simplifyRestriction invokes the matcher for one specific conversion
// restriction and, on success, records the restriction against the active
// solver state.
func (s *Solver) simplifyRestriction(restriction ConversionRestriction, a, b DataType, kind MatchKind, flags matchFlags, loc *Locator) matchResult {
	a, b = s.resolveType(a), s.resolveType(b)
	sub := flags &^ mtTopLevel

	var result matchResult
	switch restriction {
	case RestrictionDeepEquality:
		result = s.matchTypes(a, b, MatchEqual, sub, loc)

	case RestrictionSuperclass:
		result = s.matchSuperclass(a, b, flags, loc)

	case RestrictionExistential:
		result = s.matchExistential(a, b, loc)

	case RestrictionLValueToRValue:
		lv, ok := a.(*LValueType)
		if !ok {
			return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
		}

		result = s.matchTypes(lv.Object, b, kind, sub, s.LocateStep(loc, StepLValueObject, 0))

	case RestrictionValueToOptional:
		bo, ok := b.(*OptionalType)
		if !ok {
			return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
		}

		result = s.matchTypes(a, bo.Value, MatchConversion, sub, s.LocateStep(loc, StepOptionalPayload, 0))

	case RestrictionOptionalToOptional:
		ao, aok := a.(*OptionalType)
		bo, bok := b.(*OptionalType)
		if !aok || !bok {
			return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
		}

		result = s.matchTypes(ao.Value, bo.Value, MatchConversion, sub, s.LocateStep(loc, StepOptionalPayload, 0))

	case RestrictionTupleToScalar:
		at, ok := a.(*TupleType)
		if !ok || len(at.Elements) != 1 {
			return s.recordFailure(FailTupleArityMismatch, a, b, "", loc)
		}

		result = s.matchTypes(at.Elements[0].Type, b, kind, sub, s.LocateStep(loc, StepTupleElement, 0))

	case RestrictionScalarToTuple:
		bt, ok := b.(*TupleType)
		if !ok {
			return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
		}

		scalar := scalarInitElement(bt)
		if scalar < 0 {
			return s.recordFailure(FailTupleArityMismatch, a, b, "", loc)
		}

		result = s.matchTypes(a, bt.Elements[scalar].Type, kind, sub, s.LocateStep(loc, StepTupleElement, scalar))

	case RestrictionAutoClosure:
		bf, ok := b.(*FuncType)
		if !ok || !bf.AutoClosure {
			return s.recordFailure(FailAutoClosureMismatch, a, b, "", loc)
		}

		result = s.matchTypes(a, bf.Result, MatchConversion, sub, s.LocateStep(loc, StepFunctionResult, 0))

	case RestrictionArrayUpcast:
		aa, aok := a.(*ArrayType)
		ba, bok := b.(*ArrayType)
		if !aok || !bok {
			return s.recordFailure(relationalFailureKinds[kind], a, b, "", loc)
		}

		result = s.matchTypes(aa.ElemType, ba.ElemType, MatchConversion, sub, s.LocateStep(loc, StepArrayElement, 0))

	case RestrictionUserConversion:
		result = s.matchUserConversion(a, b, loc)

	default:
		logging.LogFatal("unknown conversion restriction")
		return matchError
	}

	if result == matchSolved && loc != nil {
		s.restrictions[loc] = restriction
		if restriction == RestrictionUserConversion {
			s.score++
		}
	}

	return result
}

// matchSuperclass walks a's superclass chain looking for b.
func (s *Solver) matchSuperclass(a, b DataType, flags matchFlags, loc *Locator) matchResult {
	for super := superclassOf(a); super != nil; super = superclassOf(super) {
		if Equals(super, b) {
			return matchSolved
		}

		// generic superclasses may still need same-type argument matching
		if sg, ok := Desugar(super).(*BoundGenericType); ok {
			if bg, ok := b.(*BoundGenericType); ok && sg.Decl == bg.Decl {
				return s.matchTypes(super, b, MatchEqual, flags&^mtTopLevel, loc)
			}
		}
	}

	return s.recordFailure(FailTypesNotSubtypes, a, b, "", loc)
}

// matchExistential checks that a satisfies every protocol of the
// existential b.
func (s *Solver) matchExistential(a, b DataType, loc *Locator) matchResult {
	protos, ok := existentialProtocols(b)
	if !ok {
		return s.recordFailure(FailDoesNotConform, a, b, "", loc)
	}

	for _, proto := range protos {
		if !s.typeConformsTo(a, proto) {
			return s.recordFailure(FailDoesNotConform, a, &ProtocolType{Decl: proto}, "", loc)
		}
	}

	return matchSolved
}

// matchUserConversion resolves a user-defined conversion from a to b.  Each
// conversion member whose result can produce b is one alternative.
func (s *Solver) matchUserConversion(a, b DataType, loc *Locator) matchResult {
	if s.env == nil {
		return s.recordFailure(FailTypesNotConvertible, a, b, "", loc)
	}

	convLoc := s.LocateStep(loc, StepConversionMember, 0)

	var alternatives []*Constraint
	for _, conv := range s.env.LookupConversions(a) {
		if conv.Invalid {
			continue
		}

		fn, ok := Desugar(conv.Type).(*FuncType)
		if !ok {
			continue
		}

		result := s.openType(fn.Result, convLoc, nil)
		if !s.canMatch(result, b, MatchConversion) {
			continue
		}

		alternatives = append(alternatives, &Constraint{
			Kind:   ConsConversion,
			First:  result,
			Second: b,
			Loc:    convLoc,
		})
	}

	switch len(alternatives) {
	case 0:
		return s.recordFailure(FailTypesNotConvertible, a, b, "", loc)
	case 1:
		s.addConstraint(alternatives[0])
		return matchSolved
	default:
		s.AddDisjunction(alternatives, convLoc)
		return matchSolved
	}
}

// canMatch speculatively checks whether two types could match at the given
// kind, rolling back every side effect of the attempt.
func (s *Solver) canMatch(a, b DataType, kind MatchKind) bool {
	snap := s.pushSnapshot()
	recording := s.recordFailures
	s.recordFailures = false

	result := s.matchTypes(a, b, kind, 0, nil)
	ok := result != matchError

	s.recordFailures = recording
	s.restoreSnapshot(snap)
	return ok
}

// -----------------------------------------------------------------------------
// structural helpers

// existentialProtocols returns the protocol set of an existential type.
func existentialProtocols(dt DataType) ([]*ProtocolDecl, bool) {
	switch v := dt.(type) {
	case *ProtocolType:
		return []*ProtocolDecl{v.Decl}, true
	case *CompositionType:
		return v.Protocols, true
	default:
		return nil, false
	}
}

func isExistential(dt DataType) bool {
	_, ok := existentialProtocols(dt)
	return ok
}

// existentialClassBounded returns whether any protocol of the set restricts
// conformers to classes.
func existentialClassBounded(protos []*ProtocolDecl) bool {
	for _, p := range protos {
		if p.ClassBound {
			return true
		}
	}

	return false
}

func isNominal(dt DataType) bool {
	switch dt.(type) {
	case *NominalType, *BoundGenericType:
		return true
	default:
		return false
	}
}

// nominalDecl extracts the defining declaration of a nominal type.
func nominalDecl(dt DataType) *TypeDecl {
	switch v := Desugar(dt).(type) {
	case *NominalType:
		return v.Decl
	case *BoundGenericType:
		return v.Decl
	default:
		return nil
	}
}

// isClassType returns whether the type is a class instance type.
func isClassType(dt DataType) bool {
	if decl := nominalDecl(dt); decl != nil {
		return decl.Kind == TypeDeclClass
	}

	if slot, ok := Desugar(dt).(*GenericSlotType); ok {
		return slot.IsClassBounded()
	}

	return false
}

// superclassOf returns the immediate superclass of a class type, with
// generic arguments substituted, or nil.
func superclassOf(dt DataType) DataType {
	switch v := Desugar(dt).(type) {
	case *NominalType:
		if v.Decl.Kind == TypeDeclClass {
			return v.Decl.Super
		}
	case *BoundGenericType:
		if v.Decl.Kind == TypeDeclClass && v.Decl.Super != nil {
			return substituteGenericParams(v.Decl.Super, v.Decl, v.Args)
		}
	case *GenericSlotType:
		return v.Super
	}

	return nil
}

// hasSuperclass returns whether b appears on a's superclass chain.
func (s *Solver) hasSuperclass(a, b DataType) bool {
	if !isClassType(a) || !isClassType(b) {
		return false
	}

	bDecl := nominalDecl(b)
	for super := superclassOf(a); super != nil; super = superclassOf(super) {
		if decl := nominalDecl(super); decl != nil && decl == bDecl {
			return true
		}
	}

	return false
}

// typeConformsTo checks conformance structurally for existentials and
// generic slots, and through the conformance oracle otherwise.
func (s *Solver) typeConformsTo(dt DataType, proto *ProtocolDecl) bool {
	// an existential is contained in another when any of its protocols
	// equals or refines the target
	if protos, ok := existentialProtocols(dt); ok {
		for _, p := range protos {
			if p.InheritsFrom(proto) {
				return true
			}
		}

		return false
	}

	if slot, ok := Desugar(dt).(*GenericSlotType); ok {
		for _, p := range slot.Protocols {
			if p.InheritsFrom(proto) {
				return true
			}
		}

		if slot.Super != nil {
			return s.typeConformsTo(slot.Super, proto)
		}

		return false
	}

	if s.env == nil {
		return false
	}

	_, ok := s.env.ConformsTo(dt, proto)
	return ok
}

// scalarInitElement returns the index of the single element a scalar could
// initialize in the tuple, or -1.  Exactly one element may lack a default
// value, and it must not be variadic.
func scalarInitElement(tt *TupleType) int {
	scalar := -1
	for i, elem := range tt.Elements {
		if elem.HasDefault || elem.Variadic {
			continue
		}

		if scalar >= 0 {
			return -1
		}

		scalar = i
	}

	return scalar
}
