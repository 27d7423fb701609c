package typing

import (
	"github.com/benbjohnson/immutable"
)

// Solution is one complete, consistent assignment produced by the search.
// It is immutable: the solver's mutable state is materialized into it at
// collection time, so solutions survive the rollbacks of later branches.
type Solution struct {
	// Score counts the hacks the solution needed (user conversions,
	// dynamic-lookup member accesses); lower is better
	Score int

	// bindings maps variable root IDs to fully resolved types
	bindings *immutable.SortedMap

	overloads    map[*Locator]*OverloadChoice
	restrictions map[*Locator]ConversionRestriction
	castKinds    map[*Locator]CastKind
}

// buildSolution materializes the current bindings into a Solution, or
// returns nil if variables remain unbound and free variables are not
// allowed.
func (s *Solver) buildSolution() *Solution {
	bindings := immutable.NewSortedMap(nil)

	for id := 0; id < s.vars.count(); id++ {
		root := s.vars.rootID(id)
		if root != id {
			continue
		}

		fixed := s.vars.fixed[root]
		if fixed == nil {
			if !s.AllowFreeVariables {
				return nil
			}

			continue
		}

		bindings = bindings.Set(root, s.resolveDeep(fixed, make(map[int]bool)))
	}

	return &Solution{
		Score:        s.score,
		bindings:     bindings,
		overloads:    copyOverloads(s.overloads),
		restrictions: copyRestrictions(s.restrictions),
		castKinds:    copyCastKinds(s.castKinds),
	}
}

// resolveDeep rewrites every bound variable inside t to its fixed type,
// recursively.  Variables on the active resolution path are left in place
// so a self-referential binding cannot recurse forever.
func (s *Solver) resolveDeep(t DataType, visiting map[int]bool) DataType {
	switch v := Desugar(t).(type) {
	case *TypeVariable:
		root := s.vars.rootID(v.ID)
		if visiting[root] {
			return v.Representative()
		}

		fixed := s.vars.fixed[root]
		if fixed == nil {
			return v.Representative()
		}

		visiting[root] = true
		resolved := s.resolveDeep(fixed, visiting)
		delete(visiting, root)
		return resolved

	case *TupleType:
		elems := make([]TupleElement, len(v.Elements))
		for i, elem := range v.Elements {
			elem.Type = s.resolveDeep(elem.Type, visiting)
			elems[i] = elem
		}

		return &TupleType{Elements: elems}

	case *FuncType:
		return &FuncType{
			Input:       s.resolveDeep(v.Input, visiting),
			Result:      s.resolveDeep(v.Result, visiting),
			AutoClosure: v.AutoClosure,
			NoReturn:    v.NoReturn,
		}

	case *BoundGenericType:
		args := make([]DataType, len(v.Args))
		for i, arg := range v.Args {
			args[i] = s.resolveDeep(arg, visiting)
		}

		return &BoundGenericType{Decl: v.Decl, Args: args}

	case *OptionalType:
		return &OptionalType{Value: s.resolveDeep(v.Value, visiting)}

	case *ArrayType:
		return &ArrayType{ElemType: s.resolveDeep(v.ElemType, visiting)}

	case *MetaType:
		return &MetaType{Instance: s.resolveDeep(v.Instance, visiting)}

	case *LValueType:
		return &LValueType{Object: s.resolveDeep(v.Object, visiting), Settable: v.Settable, Implicit: v.Implicit}

	case *DependentType:
		return &DependentType{Base: s.resolveDeep(v.Base, visiting), Name: v.Name}

	default:
		return v
	}
}

// -----------------------------------------------------------------------------

// TypeOf returns the solution's resolved type for a variable.  An unbound
// variable under AllowFreeVariables reports its representative and false.
func (sol *Solution) TypeOf(tv *TypeVariable) (DataType, bool) {
	root := tv.s.vars.rootID(tv.ID)
	if v, ok := sol.bindings.Get(root); ok {
		return v.(DataType), true
	}

	return tv.Representative(), false
}

// Bindings returns the solution's (root ID, type) pairs in ID order.
func (sol *Solution) Bindings() []SolutionBinding {
	out := make([]SolutionBinding, 0, sol.bindings.Len())
	for itr := sol.bindings.Iterator(); !itr.Done(); {
		k, v := itr.Next()
		out = append(out, SolutionBinding{ID: k.(int), Type: v.(DataType)})
	}

	return out
}

// SolutionBinding is one resolved variable of a solution.
type SolutionBinding struct {
	ID   int
	Type DataType
}

// Resolve rewrites every variable inside t to the solution's binding for
// it, structurally.  Unbound variables stay in place.
func (sol *Solution) Resolve(t DataType) DataType {
	switch v := Desugar(t).(type) {
	case *TypeVariable:
		if resolved, ok := sol.TypeOf(v); ok {
			return resolved
		}

		return v.Representative()

	case *TupleType:
		elems := make([]TupleElement, len(v.Elements))
		for i, elem := range v.Elements {
			elem.Type = sol.Resolve(elem.Type)
			elems[i] = elem
		}

		return &TupleType{Elements: elems}

	case *FuncType:
		return &FuncType{
			Input:       sol.Resolve(v.Input),
			Result:      sol.Resolve(v.Result),
			AutoClosure: v.AutoClosure,
			NoReturn:    v.NoReturn,
		}

	case *BoundGenericType:
		args := make([]DataType, len(v.Args))
		for i, arg := range v.Args {
			args[i] = sol.Resolve(arg)
		}

		return &BoundGenericType{Decl: v.Decl, Args: args}

	case *OptionalType:
		return &OptionalType{Value: sol.Resolve(v.Value)}

	case *ArrayType:
		return &ArrayType{ElemType: sol.Resolve(v.ElemType)}

	case *MetaType:
		return &MetaType{Instance: sol.Resolve(v.Instance)}

	case *LValueType:
		return &LValueType{Object: sol.Resolve(v.Object), Settable: v.Settable, Implicit: v.Implicit}

	default:
		return v
	}
}

// ChoiceAt returns the overload choice committed at a locator.
func (sol *Solution) ChoiceAt(loc *Locator) (*OverloadChoice, bool) {
	choice, ok := sol.overloads[loc]
	return choice, ok
}

// RestrictionAt returns the conversion restriction applied at a locator.
func (sol *Solution) RestrictionAt(loc *Locator) (ConversionRestriction, bool) {
	restriction, ok := sol.restrictions[loc]
	return restriction, ok
}

// CastAt returns the cast classification recorded at a locator.
func (sol *Solution) CastAt(loc *Locator) (CastKind, bool) {
	kind, ok := sol.castKinds[loc]
	return kind, ok
}
