package typing

import (
	"strconv"

	"vela/logging"
)

// InitializerName is the member name initializer lookup resolves.
const InitializerName = "init"

// ConversionName is the reserved name of user-defined conversion members.
const ConversionName = "__conversion"

// SelfName is the member name that resolves to the base itself.
const SelfName = "self"

// simplifyMemberConstraint resolves a value-member or type-member
// constraint.  Member lookup never blocks on unresolved variables once the
// base type is concrete: an empty candidate set is an error, not a
// deferral.  Only a still-variable base defers the whole constraint.
func (s *Solver) simplifyMemberConstraint(c *Constraint) matchResult {
	base := s.resolveType(c.First)
	if _, ok := base.(*TypeVariable); ok {
		return matchUnsolved
	}

	if IsErrorType(base) {
		return s.matchTypes(c.Second, ErrorType{}, MatchBind, 0, c.Loc)
	}

	baseObj := Desugar(StripLValue(base))

	if c.Kind == ConsTypeMember {
		return s.resolveTypeMember(base, baseObj, c)
	}

	// `self` names the base itself; it never goes through lookup
	if c.Member == SelfName {
		choice := &OverloadChoice{Base: base, Kind: ChoiceBaseType}
		return s.resolveOverload(c.Second, choice, c.Loc)
	}

	// tuple bases resolve the name as a field name or a decimal index
	if tt, ok := baseObj.(*TupleType); ok {
		return s.resolveTupleMember(base, tt, c)
	}

	if c.Member == InitializerName {
		return s.resolveInitializerMember(base, baseObj, c)
	}

	return s.resolveGeneralMember(base, baseObj, c)
}

// -----------------------------------------------------------------------------

// resolveTupleMember resolves a member reference on a tuple base.  Exactly
// one element may match the name, by label or by decimal position.
func (s *Solver) resolveTupleMember(base DataType, tt *TupleType, c *Constraint) matchResult {
	index := tt.ElementNamed(c.Member)
	if index < 0 {
		if n, err := strconv.Atoi(c.Member); err == nil && n >= 0 && n < len(tt.Elements) {
			index = n
		}
	}

	if index < 0 {
		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)
	}

	choice := &OverloadChoice{Base: base, Kind: ChoiceTupleIndex, Index: index}
	return s.resolveOverload(c.Second, choice, c.Loc)
}

// resolveTypeMember resolves a nested-type reference on a base.
func (s *Solver) resolveTypeMember(base, baseObj DataType, c *Constraint) matchResult {
	if mt, ok := baseObj.(*MetaType); ok {
		baseObj = Desugar(mt.Instance)
	}

	// a type member of a generic slot is one of its bound protocols'
	// associated types, supplied by the conformance witness; defer to the
	// environment when absent and otherwise leave the member variable open
	if slot, ok := baseObj.(*GenericSlotType); ok {
		for _, proto := range slot.Protocols {
			for _, assoc := range proto.AssociatedTypes {
				if assoc == c.Member {
					return matchSolved
				}
			}
		}

		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)
	}

	// a type member of a still-open dependent base waits for its owner
	if _, ok := baseObj.(*TypeVariable); ok {
		return matchUnsolved
	}

	if s.env == nil {
		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)
	}

	decls := s.env.LookupTypeMember(baseObj, c.Member)

	var choices []*OverloadChoice
	for _, decl := range decls {
		if decl.Invalid {
			continue
		}

		choices = append(choices, &OverloadChoice{Base: base, Kind: ChoiceTypeDecl, TypeDecl: decl})
	}

	return s.installChoices(choices, base, c)
}

// resolveInitializerMember gathers the visible initializers of the base.
func (s *Solver) resolveInitializerMember(base, baseObj DataType, c *Constraint) matchResult {
	instance := baseObj
	if mt, ok := baseObj.(*MetaType); ok {
		instance = Desugar(mt.Instance)
	}

	if s.env == nil {
		return s.recordFailure(FailNotConstructible, base, nil, c.Member, c.Loc)
	}

	_, existential := existentialProtocols(instance)

	var choices []*OverloadChoice
	for _, decl := range s.env.LookupInitializers(instance) {
		if decl.Invalid {
			continue
		}

		// an existential base excludes initializers whose signature leaks
		// associated types or Self
		if existential && decl.MentionsSelf {
			continue
		}

		choices = append(choices, &OverloadChoice{Base: base, Kind: ChoiceDecl, Decl: decl})
	}

	if len(choices) == 0 {
		return s.recordFailure(FailNotConstructible, base, nil, c.Member, c.Loc)
	}

	return s.installChoices(choices, base, c)
}

// resolveGeneralMember performs general member lookup on the base and
// filters the candidates by context rules.
func (s *Solver) resolveGeneralMember(base, baseObj DataType, c *Constraint) matchResult {
	instance := baseObj
	metatypeBase := false
	if mt, ok := baseObj.(*MetaType); ok {
		instance = Desugar(mt.Instance)
		metatypeBase = true
	}

	if s.env == nil {
		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)
	}

	decls := s.env.LookupMember(instance, c.Member)

	// dynamic-lookup existential bases keep only instance (or only static)
	// members matching the query shape and tag them for the ranker
	dynamic := isDynamicLookupType(instance)

	var choices []*OverloadChoice
	for _, decl := range decls {
		if decl.Invalid {
			continue
		}

		if metatypeBase {
			// a bare type exposes its static members; referencing an
			// instance member on the type yields the curried form, which
			// existential instances cannot supply
			if !decl.Static && isExistential(instance) {
				continue
			}
		} else {
			if decl.Static {
				continue
			}

			if existentialProtocolsMentionSelf(instance, decl) {
				continue
			}
		}

		kind := ChoiceDecl
		if dynamic && !decl.Static && !metatypeBase {
			kind = ChoiceDynamicDecl
		}

		choices = append(choices, &OverloadChoice{Base: base, Kind: kind, Decl: decl})
	}

	if len(choices) == 0 {
		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)
	}

	return s.installChoices(choices, base, c)
}

// existentialProtocolsMentionSelf reports whether a member is unusable on
// an existential base because its signature mentions Self or an associated
// type.
func existentialProtocolsMentionSelf(instance DataType, decl *ValueDecl) bool {
	if !isExistential(instance) {
		return false
	}

	return decl.MentionsSelf
}

// isDynamicLookupType reports whether the type is a dynamic-lookup
// existential or an instance of a dynamic-lookup class.
func isDynamicLookupType(dt DataType) bool {
	if protos, ok := existentialProtocols(dt); ok {
		for _, p := range protos {
			if p.DynamicLookup {
				return true
			}
		}

		return false
	}

	if decl := nominalDecl(dt); decl != nil {
		return decl.DynamicLookup
	}

	return false
}

// installChoices turns the surviving candidates into a direct binding or a
// bind-overload disjunction.
func (s *Solver) installChoices(choices []*OverloadChoice, base DataType, c *Constraint) matchResult {
	switch len(choices) {
	case 0:
		return s.recordFailure(FailDoesNotHaveMember, base, nil, c.Member, c.Loc)

	case 1:
		return s.resolveOverload(c.Second, choices[0], c.Loc)

	default:
		alternatives := make([]*Constraint, len(choices))
		for i, choice := range choices {
			alternatives[i] = &Constraint{
				Kind:   ConsBindOverload,
				First:  c.Second,
				Choice: choice,
				Loc:    c.Loc,
			}
		}

		s.AddDisjunction(alternatives, c.Loc)
		return matchSolved
	}
}

// AddOverloadSet requires the reference type to bind to exactly one of the
// given overload choices.  Name and operator references use this directly;
// member constraints derive their own sets during simplification.
func (s *Solver) AddOverloadSet(refType DataType, choices []*OverloadChoice, loc *Locator) {
	if len(choices) == 0 {
		logging.LogFatal("overload set with no choices")
	}

	alternatives := make([]*Constraint, len(choices))
	for i, choice := range choices {
		alternatives[i] = &Constraint{
			Kind:   ConsBindOverload,
			First:  refType,
			Choice: choice,
			Loc:    loc,
		}
	}

	if len(alternatives) == 1 {
		s.addConstraint(alternatives[0])
		return
	}

	s.AddDisjunction(alternatives, loc)
}

// -----------------------------------------------------------------------------

// resolveOverload commits one overload choice: it opens the chosen
// declaration's type, applies the base, and binds the member type.
func (s *Solver) resolveOverload(memberType DataType, choice *OverloadChoice, loc *Locator) matchResult {
	var opened DataType

	switch choice.Kind {
	case ChoiceDecl, ChoiceDynamicDecl:
		opened = s.openMemberType(choice.Decl, choice.Base, loc, nil)

		baseObj := Desugar(StripLValue(choice.Base))
		_, metatypeBase := baseObj.(*MetaType)

		if !choice.Decl.Static && !metatypeBase {
			// instance member on an instance base: peel the curried self
			// parameter by converting the base to it
			fn, ok := Desugar(opened).(*FuncType)
			if !ok {
				return s.recordFailure(FailNotCallable, opened, nil, choice.Decl.Name, loc)
			}

			if r := s.matchTypes(choice.Base, fn.Input, MatchConversion, 0,
				s.LocateStep(loc, StepMemberRefBase, 0)); r == matchError {
				return r
			}

			opened = fn.Result
		}

	case ChoiceTypeDecl:
		var instance DataType
		if choice.TypeDecl.IsGeneric() {
			instance = s.openType(&UnboundGenericType{Decl: choice.TypeDecl}, loc, nil)
		} else {
			instance = &NominalType{Decl: choice.TypeDecl}
		}

		opened = &MetaType{Instance: instance}

	case ChoiceBaseType:
		opened = choice.Base

	case ChoiceTupleIndex:
		tt, ok := Desugar(StripLValue(choice.Base)).(*TupleType)
		if !ok || choice.Index >= len(tt.Elements) {
			return s.recordFailure(FailDoesNotHaveMember, choice.Base, nil, strconv.Itoa(choice.Index), loc)
		}

		opened = tt.Elements[choice.Index].Type

		// element references through a settable reference are themselves
		// settable storage
		if lv, ok := Desugar(choice.Base).(*LValueType); ok {
			opened = &LValueType{Object: opened, Settable: lv.Settable, Implicit: true}
		}
	}

	if r := s.matchTypes(memberType, opened, MatchBind, 0, loc); r == matchError {
		return r
	}

	if loc != nil {
		s.overloads[loc] = choice
	}

	if choice.Kind == ChoiceDynamicDecl {
		s.score++
	}

	return matchSolved
}
