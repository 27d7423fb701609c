package typing

import (
	"testing"
)

// relationalKinds in increasing order of permissiveness, excluding Bind
var relationalKinds = []ConstraintKind{ConsEqual, ConsTrivialSubtype, ConsSubtype, ConsConversion}

// TestMatchKindMonotonicity checks that every pair either never matches or
// matches at exactly its minimum kind and everything weaker.
func TestMatchKindMonotonicity(t *testing.T) {
	t.Parallel()
	base, _, derived := classChain()
	shape := &ProtocolDecl{Name: "Shape"}
	drawable := &ProtocolDecl{Name: "Drawable", ClassBound: true}
	square := &TypeDecl{Name: "Square", Protocols: []*ProtocolDecl{shape}}
	sprite := &TypeDecl{Name: "Sprite", Kind: TypeDeclClass, Protocols: []*ProtocolDecl{drawable}}

	tests := []struct {
		name string
		a, b DataType
		min  ConstraintKind
	}{
		{
			name: "identical primitives",
			a:    intType, b: intType,
			min: ConsEqual,
		},
		{
			name: "subclass to superclass",
			a:    &NominalType{Decl: derived}, b: &NominalType{Decl: base},
			min: ConsTrivialSubtype,
		},
		{
			name: "loading a reference",
			a:    &LValueType{Object: intType, Settable: true}, b: intType,
			min: ConsTrivialSubtype,
		},
		{
			name: "unclaimed tuple rename",
			a:    &TupleType{Elements: []TupleElement{{Name: "x", Type: intType}}},
			b:    &TupleType{Elements: []TupleElement{{Name: "y", Type: intType}}},
			min:  ConsTrivialSubtype,
		},
		{
			name: "class into a class-bound existential",
			a:    &NominalType{Decl: sprite}, b: &ProtocolType{Decl: drawable},
			min: ConsSubtype,
		},
		{
			name: "struct into an existential",
			a:    &NominalType{Decl: square}, b: &ProtocolType{Decl: shape},
			min: ConsConversion,
		},
		{
			name: "optional injection",
			a:    intType, b: &OptionalType{Value: intType},
			min: ConsConversion,
		},
		{
			name: "one-tuple unwrap",
			a:    tupleOf(intType), b: intType,
			min: ConsConversion,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			for _, kind := range relationalKinds {
				s := NewSolver(testEnv{})
				s.AddConstraint(kind, test.a, test.b, s.Locate(0))

				got := len(s.Solve()) > 0
				want := kind >= test.min
				if got != want {
					t.Errorf("kind %d: got solvable=%v, want %v", kind, got, want)
				}
			}
		})
	}
}

func TestValueNeverBecomesReference(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.AddConstraint(ConsConversion, intType, &LValueType{Object: intType, Settable: true}, s.Locate(0))

	if len(s.Solve()) != 0 {
		t.Fatal("plain value converted to a mutable reference")
	}

	if s.Failure() == nil || s.Failure().Kind != FailLValueNotAllowed {
		t.Error("missing FailLValueNotAllowed")
	}
}

func TestMultiElementTupleNeverUnwraps(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.AddConstraint(ConsConversion, tupleOf(intType, intType), intType, s.Locate(0))

	if len(s.Solve()) != 0 {
		t.Fatal("two-element tuple converted to a scalar")
	}
}

func TestFunctionInputContravariance(t *testing.T) {
	t.Parallel()
	base, _, derived := classChain()
	wide := fnOf(intType, &NominalType{Decl: base})
	narrow := fnOf(intType, &NominalType{Decl: derived})

	s := NewSolver(nil)
	s.AddConstraint(ConsSubtype, wide, narrow, s.Locate(0))
	if len(s.Solve()) != 1 {
		t.Error("function over the superclass is not a subtype of one over the subclass")
	}

	s = NewSolver(nil)
	s.AddConstraint(ConsSubtype, narrow, wide, s.Locate(0))
	if len(s.Solve()) != 0 {
		t.Error("contravariance accepted the covariant direction")
	}
}

func TestNoReturnDropsOnlyDownward(t *testing.T) {
	t.Parallel()
	never := &FuncType{Input: tupleOf(), Result: intType, NoReturn: true}
	plain := &FuncType{Input: tupleOf(), Result: intType}

	s := NewSolver(nil)
	s.AddConstraint(ConsSubtype, never, plain, s.Locate(0))
	if len(s.Solve()) != 1 {
		t.Error("noreturn function cannot stand in for a returning one")
	}

	s = NewSolver(nil)
	s.AddConstraint(ConsSubtype, plain, never, s.Locate(0))
	if len(s.Solve()) != 0 {
		t.Error("returning function stood in for a noreturn one")
	}
}

func TestAutoClosureWrapsValues(t *testing.T) {
	t.Parallel()
	thunk := &FuncType{Input: tupleOf(), Result: intType, AutoClosure: true}

	s := NewSolver(nil)
	loc := s.Locate(0)
	s.AddConstraint(ConsConversion, intType, thunk, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if r, _ := solutions[0].RestrictionAt(loc); r != RestrictionAutoClosure {
		t.Errorf("got restriction %s, want autoclosure", r)
	}

	// an actual function is never implicitly wrapped
	s = NewSolver(nil)
	s.AddConstraint(ConsConversion, fnOf(intType), thunk, s.Locate(0))
	if len(s.Solve()) != 0 {
		t.Error("function value wrapped in an implicit thunk")
	}
}

func TestOptionalInjectionRecordsRestriction(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	loc := s.Locate(0)
	s.AddConstraint(ConsConversion, intType, &OptionalType{Value: intType}, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if r, _ := solutions[0].RestrictionAt(loc); r != RestrictionValueToOptional {
		t.Errorf("got restriction %s, want value to optional", r)
	}
}

func TestOptionalDepthWidening(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.AddConstraint(ConsConversion,
		&OptionalType{Value: intType},
		&OptionalType{Value: &OptionalType{Value: intType}},
		s.Locate(0))

	if len(s.Solve()) == 0 {
		t.Error("T? failed to convert to T??")
	}
}

func TestUserConversionCostsScore(t *testing.T) {
	t.Parallel()
	celsius := &TypeDecl{Name: "Celsius"}
	celsiusType := &NominalType{Decl: celsius}
	celsius.Conversions = []*ValueDecl{
		{Name: ConversionName, Type: &FuncType{Input: celsiusType, Result: doubleType}},
	}

	s := NewSolver(testEnv{})
	loc := s.Locate(0)
	s.AddConstraint(ConsConversion, celsiusType, doubleType, loc)

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if r, _ := solutions[0].RestrictionAt(loc); r != RestrictionUserConversion {
		t.Errorf("got restriction %s, want user conversion", r)
	}

	if solutions[0].Score != 1 {
		t.Errorf("got score %d, want 1", solutions[0].Score)
	}
}

func TestArrayUpcastConvertsElements(t *testing.T) {
	t.Parallel()
	base, _, derived := classChain()

	s := NewSolver(nil)
	s.AddConstraint(ConsConversion,
		&ArrayType{ElemType: &NominalType{Decl: derived}},
		&ArrayType{ElemType: &NominalType{Decl: base}},
		s.Locate(0))
	if len(s.Solve()) != 1 {
		t.Error("array of the subclass failed to convert")
	}

	// below conversion strictness array elements are invariant
	s = NewSolver(nil)
	s.AddConstraint(ConsSubtype,
		&ArrayType{ElemType: &NominalType{Decl: derived}},
		&ArrayType{ElemType: &NominalType{Decl: base}},
		s.Locate(0))
	if len(s.Solve()) != 0 {
		t.Error("array elements covariant below conversion strictness")
	}
}

func TestGenericArgumentsAreInvariant(t *testing.T) {
	t.Parallel()
	base, _, derived := classChain()
	param := &GenericParamDecl{Name: "T"}
	box := &TypeDecl{Name: "Box", GenericParams: []*GenericParamDecl{param}}

	s := NewSolver(nil)
	s.AddConstraint(ConsConversion,
		&BoundGenericType{Decl: box, Args: []DataType{&NominalType{Decl: derived}}},
		&BoundGenericType{Decl: box, Args: []DataType{&NominalType{Decl: base}}},
		s.Locate(0))

	if len(s.Solve()) != 0 {
		t.Error("generic arguments matched covariantly")
	}
}

func TestCanMatchRollsBack(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	tv := s.NewTypeVariable(s.Locate(0), 0)

	if !s.canMatch(tv, intType, MatchEqual) {
		t.Fatal("speculative match failed")
	}

	if s.vars.fixedType(tv) != nil {
		t.Error("speculative match leaked a binding")
	}

	if len(s.restrictions) != 0 {
		t.Error("speculative match leaked a restriction")
	}
}

func TestErrorTypesSatisfyEverything(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	s.AddConstraint(ConsEqual, ErrorType{}, intType, s.Locate(0))
	s.AddConstraint(ConsConversion, boolType, ErrorType{}, s.Locate(1))

	if len(s.Solve()) != 1 {
		t.Error("error type did not absorb its constraints")
	}
}

func TestAliasesAreTransparent(t *testing.T) {
	t.Parallel()
	alias := &AliasType{Name: "Id", Underlying: intType}

	s := NewSolver(nil)
	tv := s.NewTypeVariable(s.Locate(0), 0)
	s.AddConstraint(ConsEqual, tv, alias, s.Locate(0))

	solutions := s.Solve()
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want 1", len(solutions))
	}

	if bound, _ := solutions[0].TypeOf(tv); !Equals(bound, intType) {
		t.Errorf("variable bound to %s through an alias, want Int", bound.Repr())
	}
}
