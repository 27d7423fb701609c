package typing

import (
	"testing"
)

// common primitive shorthands for tests
var (
	intType    = PrimType(PrimKindInt)
	boolType   = PrimType(PrimKindBool)
	charType   = PrimType(PrimKindChar)
	stringType = PrimType(PrimKindString)
	doubleType = PrimType(PrimKindDouble)
)

// tupleOf builds an unnamed tuple over the given element types
func tupleOf(elems ...DataType) *TupleType {
	tt := &TupleType{Elements: make([]TupleElement, len(elems))}
	for i, elem := range elems {
		tt.Elements[i] = TupleElement{Type: elem}
	}

	return tt
}

// fnOf builds a function from positional parameters to a result
func fnOf(result DataType, params ...DataType) *FuncType {
	return &FuncType{Input: tupleOf(params...), Result: result}
}

// testEnv is a minimal declaration oracle over a fixed set of nominal
// declarations.  Conformance is whatever the declarations themselves state.
type testEnv struct{}

func (testEnv) LookupMember(base DataType, name string) []*ValueDecl {
	var decls []*ValueDecl
	for decl := nominalDecl(base); decl != nil; decl = nominalDecl(decl.Super) {
		for _, member := range decl.Members {
			if member.Name == name {
				decls = append(decls, member)
			}
		}

		if decl.Super == nil {
			break
		}
	}

	return decls
}

func (testEnv) LookupInitializers(base DataType) []*ValueDecl {
	if decl := nominalDecl(base); decl != nil {
		return decl.Initializers
	}

	return nil
}

func (testEnv) LookupTypeMember(base DataType, name string) []*TypeDecl {
	decl := nominalDecl(base)
	if decl == nil {
		return nil
	}

	var out []*TypeDecl
	for _, nested := range decl.TypeMembers {
		if nested.Name == name {
			out = append(out, nested)
		}
	}

	return out
}

func (testEnv) LookupConversions(base DataType) []*ValueDecl {
	if decl := nominalDecl(base); decl != nil {
		return decl.Conversions
	}

	return nil
}

func (testEnv) ConformsTo(dt DataType, proto *ProtocolDecl) (*Conformance, bool) {
	for decl := nominalDecl(dt); decl != nil; decl = nominalDecl(decl.Super) {
		for _, p := range decl.Protocols {
			if p.InheritsFrom(proto) {
				return &Conformance{Type: dt, Protocol: proto}, true
			}
		}

		if decl.Super == nil {
			break
		}
	}

	return nil, false
}

// classChain declares Base <- Middle <- Derived
func classChain() (base, middle, derived *TypeDecl) {
	base = &TypeDecl{Name: "Base", Kind: TypeDeclClass}
	middle = &TypeDecl{Name: "Middle", Kind: TypeDeclClass, Super: &NominalType{Decl: base}}
	derived = &TypeDecl{Name: "Derived", Kind: TypeDeclClass, Super: &NominalType{Decl: middle}}
	return
}

// -----------------------------------------------------------------------------

func TestSolveBindsVariable(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	tv := s.NewTypeVariable(s.Locate(0), 0)
	s.AddConstraint(ConsEqual, tv, intType, s.Locate(0))

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	bound, ok := solutions[0].TypeOf(tv)
	if !ok || !Equals(bound, intType) {
		t.Errorf("variable bound to %s, want Int", bound.Repr())
	}
}

func TestSolveRejectsFreeVariablesByDefault(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.NewTypeVariable(s.Locate(0), 0)

	if got := len(s.Solve()); got != 0 {
		t.Fatalf("got %d solutions over an unbound variable, want 0", got)
	}

	s = NewSolver(nil)
	s.AllowFreeVariables = true
	tv := s.NewTypeVariable(s.Locate(0), 0)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions with free variables allowed, want 1", len(solutions))
	}

	if _, bound := solutions[0].TypeOf(tv); bound {
		t.Error("free variable reported as bound")
	}
}

func TestConversionOnlyVariableBinds(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	elem := s.NewTypeVariable(s.Locate(0), 0)

	s.AddConstraint(ConsConversion, intType, elem, s.Locate(1))
	s.AddConstraint(ConsConversion, intType, elem, s.Locate(2))

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if bound, ok := solutions[0].TypeOf(elem); !ok || !Equals(bound, intType) {
		t.Errorf("variable bound to %s, want Int", bound.Repr())
	}
}

func TestDeferredConversionsSearchCandidates(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	elem := s.NewTypeVariable(s.Locate(0), 0)

	// Int? admits both sources; Int rejects the optional one
	s.AddConstraint(ConsConversion, intType, elem, s.Locate(1))
	s.AddConstraint(ConsConversion, &OptionalType{Value: intType}, elem, s.Locate(2))

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	want := &OptionalType{Value: intType}
	if bound, _ := solutions[0].TypeOf(elem); !Equals(bound, want) {
		t.Errorf("variable bound to %s, want Int?", bound.Repr())
	}
}

func TestSolveReportsRepresentativeFailure(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.AddConstraint(ConsConversion, intType, boolType, s.Locate(0))

	if got := len(s.Solve()); got != 0 {
		t.Fatalf("got %d solutions, want 0", got)
	}

	failure := s.Failure()
	if failure == nil {
		t.Fatal("no failure recorded for an unsolvable system")
	}

	if failure.Kind != FailTypesNotConvertible {
		t.Errorf("got failure kind %d, want FailTypesNotConvertible", failure.Kind)
	}
}

func TestOverloadSelection(t *testing.T) {
	t.Parallel()
	intVersion := &ValueDecl{Name: "f", Type: fnOf(boolType, intType), Static: true}
	strVersion := &ValueDecl{Name: "f", Type: fnOf(charType, stringType), Static: true}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	fnVar := s.NewTypeVariable(loc, 0)

	s.AddOverloadSet(fnVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: intVersion},
		{Kind: ChoiceDecl, Decl: strVersion},
	}, loc)

	callLoc := s.Locate(1)
	result := s.NewTypeVariable(callLoc, 0)
	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result}, fnVar, callLoc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if bound, _ := solutions[0].TypeOf(result); !Equals(bound, boolType) {
		t.Errorf("call result bound to %s, want Bool", bound.Repr())
	}

	choice, ok := solutions[0].ChoiceAt(loc)
	if !ok || choice.Decl != intVersion {
		t.Error("solution committed the wrong overload")
	}
}

func TestDisjunctionsBranchInOrder(t *testing.T) {
	t.Parallel()
	a := &ValueDecl{Name: "a", Type: intType, Static: true}
	b := &ValueDecl{Name: "a", Type: boolType, Static: true}
	c := &ValueDecl{Name: "a", Type: stringType, Static: true}
	d := &ValueDecl{Name: "b", Type: charType, Static: true}
	e := &ValueDecl{Name: "b", Type: intType, Static: true}

	s := NewSolver(testEnv{})
	first := s.Locate(0)
	firstVar := s.NewTypeVariable(first, 0)
	s.AddOverloadSet(firstVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: a},
		{Kind: ChoiceDecl, Decl: b},
		{Kind: ChoiceDecl, Decl: c},
	}, first)

	second := s.Locate(1)
	secondVar := s.NewTypeVariable(second, 0)
	s.AddOverloadSet(secondVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: d},
		{Kind: ChoiceDecl, Decl: e},
	}, second)

	solutions := s.Solve()
	if len(solutions) != 6 {
		t.Fatalf("got %d solutions, want 6", len(solutions))
	}

	// the disjunction installed first is the outer branch, even though it
	// has more alternatives
	wantOuter := []*ValueDecl{a, a, b, b, c, c}
	for i, sol := range solutions {
		if choice, _ := sol.ChoiceAt(first); choice.Decl != wantOuter[i] {
			t.Fatalf("solution %d committed the wrong outer overload", i)
		}
	}
}

func TestSpecializationPreference(t *testing.T) {
	t.Parallel()
	param := &GenericParamDecl{Name: "T"}
	generic := &ValueDecl{
		Name:          "f",
		Type:          fnOf(&GenericParamType{Param: param}, &GenericParamType{Param: param}),
		Static:        true,
		GenericParams: []*GenericParamDecl{param},
	}
	concrete := &ValueDecl{Name: "f", Type: fnOf(intType, intType), Static: true}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	fnVar := s.NewTypeVariable(loc, 0)

	s.AddOverloadSet(fnVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: generic},
		{Kind: ChoiceDecl, Decl: concrete},
	}, loc)

	callLoc := s.Locate(1)
	result := s.NewTypeVariable(callLoc, 0)
	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result}, fnVar, callLoc)

	solutions := s.Solve()
	if len(solutions) != 2 {
		t.Fatalf("got %d solutions, want 2", len(solutions))
	}

	best, ok := s.FindBestSolution(solutions)
	if !ok {
		t.Fatal("ranking failed to break the tie")
	}

	if choice, _ := best.ChoiceAt(loc); choice.Decl != concrete {
		t.Error("ranking preferred the generic overload over the concrete one")
	}

	if !s.isDeclMoreSpecialized(concrete, generic) {
		t.Error("concrete overload not reported as more specialized")
	}

	if s.isDeclMoreSpecialized(generic, concrete) {
		t.Error("generic overload reported as more specialized")
	}
}

func TestAmbiguousOverloadsFindNoBest(t *testing.T) {
	t.Parallel()
	a := &ValueDecl{Name: "f", Type: fnOf(boolType, intType), Static: true}
	b := &ValueDecl{Name: "f", Type: fnOf(boolType, &OptionalType{Value: intType}), Static: true}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	fnVar := s.NewTypeVariable(loc, 0)

	s.AddOverloadSet(fnVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: a},
		{Kind: ChoiceDecl, Decl: b},
	}, loc)

	callLoc := s.Locate(1)
	result := s.NewTypeVariable(callLoc, 0)
	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result}, fnVar, callLoc)

	solutions := s.Solve()
	if len(solutions) != 2 {
		t.Fatalf("got %d solutions, want 2", len(solutions))
	}

	if _, ok := s.FindBestSolution(solutions); ok {
		t.Error("incomparable solutions ranked as unambiguous")
	}
}

func TestNarrowestBindingWins(t *testing.T) {
	t.Parallel()
	exact := &ValueDecl{Name: "g", Type: fnOf(intType, intType), Static: true}
	lifted := &ValueDecl{Name: "g", Type: fnOf(&OptionalType{Value: intType}, intType), Static: true}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	fnVar := s.NewTypeVariable(loc, 0)

	s.AddOverloadSet(fnVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: exact},
		{Kind: ChoiceDecl, Decl: lifted},
	}, loc)

	callLoc := s.Locate(1)
	result := s.NewTypeVariable(callLoc, TVPrefersSubtype)
	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result}, fnVar, callLoc)

	solutions := s.Solve()
	if len(solutions) != 2 {
		t.Fatalf("got %d solutions, want 2", len(solutions))
	}

	best, ok := s.FindBestSolution(solutions)
	if !ok {
		t.Fatal("binding difference did not break the tie")
	}

	if bound, _ := best.TypeOf(result); !Equals(bound, intType) {
		t.Errorf("ranking chose %s, want Int", bound.Repr())
	}
}

func TestDominatedSolutionsAreDiscarded(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	v1 := s.NewTypeVariable(s.Locate(0), TVPrefersSubtype)
	v2 := s.NewTypeVariable(s.Locate(1), TVPrefersSubtype)

	solve := func(t1, t2 DataType) *Solution {
		snap := s.pushSnapshot()
		defer s.restoreSnapshot(snap)

		s.AddConstraint(ConsBind, v1, t1, nil)
		s.AddConstraint(ConsBind, v2, t2, nil)
		if !s.simplify() {
			t.Fatal("binding fresh variables failed")
		}

		return s.buildSolution()
	}

	a := solve(intType, stringType)
	b := solve(&OptionalType{Value: intType}, boolType)
	c := solve(stringType, &OptionalType{Value: boolType})

	// a beats b on the first variable, b beats c on the second, and a and
	// c share no comparable binding
	if s.CompareSolutions(a, b) != -1 || s.CompareSolutions(b, c) != -1 || s.CompareSolutions(a, c) != 0 {
		t.Fatal("pairwise ordering not as constructed")
	}

	best, ok := s.FindBestSolution([]*Solution{a, b, c})
	if !ok || best != a {
		t.Error("the solution nothing beats was not selected")
	}
}

func TestForeignFuncBeatsForeignType(t *testing.T) {
	t.Parallel()
	fromFunc := &ValueDecl{Name: "abs", Type: fnOf(intType, intType), Static: true, ForeignFunc: true}
	fromType := &ValueDecl{Name: "abs", Type: fnOf(intType, &OptionalType{Value: intType}), Static: true, ForeignType: true}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	fnVar := s.NewTypeVariable(loc, 0)

	s.AddOverloadSet(fnVar, []*OverloadChoice{
		{Kind: ChoiceDecl, Decl: fromType},
		{Kind: ChoiceDecl, Decl: fromFunc},
	}, loc)

	callLoc := s.Locate(1)
	result := s.NewTypeVariable(callLoc, 0)
	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result}, fnVar, callLoc)

	solutions := s.Solve()
	if len(solutions) != 2 {
		t.Fatalf("got %d solutions, want 2", len(solutions))
	}

	best, ok := s.FindBestSolution(solutions)
	if !ok {
		t.Fatal("foreign preference failed to break the tie")
	}

	if choice, _ := best.ChoiceAt(loc); choice.Decl != fromFunc {
		t.Error("ranking preferred the foreign-type member over the foreign function")
	}
}

func TestConstructionThroughInitializers(t *testing.T) {
	t.Parallel()
	box := &TypeDecl{Name: "Box"}
	boxType := &NominalType{Decl: box}
	box.Initializers = []*ValueDecl{
		{Name: InitializerName, Type: fnOf(boxType, intType)},
	}

	s := NewSolver(testEnv{})
	s.AddConstructionConstraint(tupleOf(intType), boxType, s.Locate(0))

	if got := len(s.Solve()); got != 1 {
		t.Fatalf("got %d solutions, want 1", got)
	}

	// wrong argument type
	s = NewSolver(testEnv{})
	s.AddConstructionConstraint(tupleOf(boolType), boxType, s.Locate(0))

	if got := len(s.Solve()); got != 0 {
		t.Errorf("got %d solutions for a bad argument, want 0", got)
	}
}

func TestApplyingMetatypeIsConstructionSugar(t *testing.T) {
	t.Parallel()
	box := &TypeDecl{Name: "Box"}
	boxType := &NominalType{Decl: box}
	box.Initializers = []*ValueDecl{
		{Name: InitializerName, Type: fnOf(boxType, intType)},
	}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	result := s.NewTypeVariable(loc, 0)

	s.AddApplicableFuncConstraint(&FuncType{Input: tupleOf(intType), Result: result},
		&MetaType{Instance: boxType}, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if bound, _ := solutions[0].TypeOf(result); !Equals(bound, boxType) {
		t.Errorf("construction result bound to %s, want Box", bound.Repr())
	}
}

func TestCheckedCastClassification(t *testing.T) {
	t.Parallel()
	base, _, derived := classChain()
	shape := &ProtocolDecl{Name: "Shape"}
	square := &TypeDecl{Name: "Square", Protocols: []*ProtocolDecl{shape}}

	tests := []struct {
		name     string
		from, to DataType
		kind     CastKind
		ok       bool
	}{
		{
			name: "identity is a coercion",
			from: intType, to: intType,
			kind: CastCoercion, ok: true,
		},
		{
			name: "upcast is a coercion",
			from: &NominalType{Decl: derived}, to: &NominalType{Decl: base},
			kind: CastCoercion, ok: true,
		},
		{
			name: "downcast",
			from: &NominalType{Decl: base}, to: &NominalType{Decl: derived},
			kind: CastDowncast, ok: true,
		},
		{
			name: "into an existential",
			from: &NominalType{Decl: square}, to: &ProtocolType{Decl: shape},
			kind: CastToExistential, ok: true,
		},
		{
			name: "out of an existential",
			from: &ProtocolType{Decl: shape}, to: &NominalType{Decl: square},
			kind: CastFromExistential, ok: true,
		},
		{
			name: "between two open slots",
			from: &GenericSlotType{Name: "T", Index: 0}, to: &GenericSlotType{Name: "U", Index: 1},
			kind: CastSlotToSlot, ok: true,
		},
		{
			name: "between a slot and a concrete type",
			from: &GenericSlotType{Name: "T", Index: 0}, to: intType,
			kind: CastSlotConcrete, ok: true,
		},
		{
			name: "class into a slot it bounds",
			from: &NominalType{Decl: base},
			to:   &GenericSlotType{Name: "T", Index: 0, Super: &NominalType{Decl: derived}},
			kind: CastSuperToSlot, ok: true,
		},
		{
			name: "optional payloads are inspected",
			from: &OptionalType{Value: intType}, to: intType,
			kind: CastCoercion, ok: true,
		},
		{
			name: "unrelated types never classify",
			from: intType, to: boolType,
			ok: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			s := NewSolver(testEnv{})
			loc := s.Locate(0)
			s.AddCheckedCastConstraint(test.from, test.to, loc)

			solutions := s.Solve()
			if (len(solutions) > 0) != test.ok {
				t.Fatalf("got %d solutions, want solvable=%v", len(solutions), test.ok)
			}

			if !test.ok {
				if s.Failure() == nil || s.Failure().Kind != FailUnsupportedCast {
					t.Error("unclassifiable cast did not report FailUnsupportedCast")
				}

				return
			}

			if kind, _ := solutions[0].CastAt(loc); kind != test.kind {
				t.Errorf("got cast kind %s, want %s", kind, test.kind)
			}
		})
	}
}

func TestDynamicLookupMemberCostsScore(t *testing.T) {
	t.Parallel()
	widget := &TypeDecl{Name: "Widget", Kind: TypeDeclClass, DynamicLookup: true}
	widgetType := &NominalType{Decl: widget}
	widget.Members = []*ValueDecl{
		{Name: "title", Type: fnOf(stringType, widgetType)},
	}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	member := s.NewTypeVariable(loc, 0)
	s.AddValueMemberConstraint(widgetType, "title", member, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if solutions[0].Score != 1 {
		t.Errorf("got score %d, want 1", solutions[0].Score)
	}

	if choice, _ := solutions[0].ChoiceAt(loc); choice.Kind != ChoiceDynamicDecl {
		t.Error("dynamic-lookup member not tagged as a dynamic choice")
	}
}

func TestTupleMemberByLabelAndIndex(t *testing.T) {
	t.Parallel()
	pair := &TupleType{Elements: []TupleElement{
		{Name: "first", Type: intType},
		{Type: boolType},
	}}

	for _, test := range []struct {
		member string
		want   DataType
	}{
		{member: "first", want: intType},
		{member: "1", want: boolType},
	} {
		s := NewSolver(nil)
		loc := s.Locate(0)
		member := s.NewTypeVariable(loc, 0)
		s.AddValueMemberConstraint(pair, test.member, member, loc)

		solutions := s.Solve()
		if len(solutions) != 1 {
			t.Fatalf("member %q: got %d solutions, want 1", test.member, len(solutions))
		}

		if bound, _ := solutions[0].TypeOf(member); !Equals(bound, test.want) {
			t.Errorf("member %q bound to %s, want %s", test.member, bound.Repr(), test.want.Repr())
		}
	}
}

func TestSelfMemberBindsBase(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	loc := s.Locate(0)
	member := s.NewTypeVariable(loc, 0)
	s.AddValueMemberConstraint(intType, "self", member, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if bound, _ := solutions[0].TypeOf(member); !Equals(bound, intType) {
		t.Errorf("self bound to %s, want Int", bound.Repr())
	}

	choice, ok := solutions[0].ChoiceAt(loc)
	if !ok || choice.Kind != ChoiceBaseType {
		t.Error("self did not resolve to the base type itself")
	}
}

func TestConformanceConstraint(t *testing.T) {
	t.Parallel()
	shape := &ProtocolDecl{Name: "Shape"}
	solid := &ProtocolDecl{Name: "Solid", Inherits: []*ProtocolDecl{shape}}
	cube := &TypeDecl{Name: "Cube", Protocols: []*ProtocolDecl{solid}}

	s := NewSolver(testEnv{})
	s.AddConformsConstraint(ConsConformsTo, &NominalType{Decl: cube}, shape, s.Locate(0))
	if len(s.Solve()) != 1 {
		t.Error("inherited conformance not recognized")
	}

	s = NewSolver(testEnv{})
	s.AddConformsConstraint(ConsConformsTo, intType, shape, s.Locate(0))
	if len(s.Solve()) != 0 {
		t.Error("nonconforming type accepted")
	}
}

func TestGenericOpeningSharesParameterVariables(t *testing.T) {
	t.Parallel()
	param := &GenericParamDecl{Name: "T"}
	pairType := fnOf(
		tupleOf(&GenericParamType{Param: param}, &GenericParamType{Param: param}),
		&GenericParamType{Param: param},
	)

	s := NewSolver(nil)
	opened, ok := Desugar(s.OpenType(pairType, s.Locate(0), nil)).(*FuncType)
	if !ok {
		t.Fatal("opening did not preserve the function structure")
	}

	result := Desugar(opened.Result).(*TupleType)
	input := Desugar(opened.Input).(*TupleType)

	rv := result.Elements[0].Type.(*TypeVariable)
	if result.Elements[1].Type.(*TypeVariable) != rv || input.Elements[0].Type.(*TypeVariable) != rv {
		t.Error("one generic parameter opened to distinct variables")
	}
}
