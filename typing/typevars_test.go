package typing

import (
	"testing"
)

func TestMergeIsOrderIndependent(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	a := s.NewTypeVariable(nil, 0)
	b := s.NewTypeVariable(nil, 0)
	s.vars.merge(b, a)

	if a.Representative() != a || b.Representative() != a {
		t.Error("merge did not pick the lower root as representative")
	}

	// merging an already merged pair is a no-op
	undos := len(s.vars.undo)
	s.vars.merge(a, b)
	if len(s.vars.undo) != undos {
		t.Error("self-merge appended undo records")
	}
}

func TestMergeCarriesFixedBinding(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	a := s.NewTypeVariable(nil, 0)
	b := s.NewTypeVariable(nil, 0)

	s.vars.assignFixed(b, intType)
	s.vars.merge(a, b)

	if fixed := s.vars.fixedType(a); fixed == nil || !Equals(fixed, intType) {
		t.Error("fixed binding lost when the bound class was absorbed")
	}
}

func TestUndoLogRestoresStore(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	a := s.NewTypeVariable(nil, 0)
	b := s.NewTypeVariable(nil, 0)

	mark := s.vars.mark()
	count := s.vars.count()

	c := s.NewTypeVariable(nil, 0)
	s.vars.merge(a, b)
	s.vars.assignFixed(a, boolType)
	s.vars.assignFixed(c, intType)

	if s.vars.fixedType(b) == nil {
		t.Fatal("binding not visible through the merged class")
	}

	s.vars.rewind(mark)
	s.vars.truncate(count)

	if s.vars.count() != count {
		t.Fatalf("got %d variables after truncate, want %d", s.vars.count(), count)
	}

	if a.Representative() != a || b.Representative() != b {
		t.Error("rewind did not split the merged classes")
	}

	if s.vars.fixedType(a) != nil || s.vars.fixedType(b) != nil {
		t.Error("rewind did not clear the fixed bindings")
	}
}

func TestVariableReprFollowsBinding(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	a := s.NewTypeVariable(nil, 0)
	b := s.NewTypeVariable(nil, 0)

	if a.Repr() != "$T0" || b.Repr() != "$T1" {
		t.Fatalf("unexpected unbound reprs %s, %s", a.Repr(), b.Repr())
	}

	s.vars.merge(a, b)
	if b.Repr() != "$T0" {
		t.Errorf("merged variable repr is %s, want $T0", b.Repr())
	}

	s.vars.assignFixed(a, intType)
	if a.Repr() != "Int" || b.Repr() != "Int" {
		t.Error("bound variables do not display their fixed type")
	}
}

func TestSearchStateRollback(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	loc := s.Locate(0)
	tv := s.NewTypeVariable(loc, 0)

	snap := s.pushSnapshot()

	inner := s.NewTypeVariable(loc, 0)
	s.vars.merge(tv, inner)
	s.vars.assignFixed(tv, intType)
	s.restrictions[loc] = RestrictionValueToOptional
	s.castKinds[loc] = CastDowncast
	s.score += 3

	s.restoreSnapshot(snap)

	if s.vars.count() != 1 {
		t.Errorf("got %d variables after rollback, want 1", s.vars.count())
	}

	if s.vars.fixedType(tv) != nil {
		t.Error("rollback kept a branch binding")
	}

	if len(s.restrictions) != 0 || len(s.castKinds) != 0 {
		t.Error("rollback kept branch map entries")
	}

	if s.score != 0 {
		t.Errorf("got score %d after rollback, want 0", s.score)
	}
}

func TestLocatorsAreInterned(t *testing.T) {
	t.Parallel()
	s := NewSolver(nil)
	root := s.Locate(7)

	if s.Locate(7) != root {
		t.Error("same anchor produced distinct locators")
	}

	step := s.LocateStep(root, StepFunctionInput, 0)
	if s.LocateStep(root, StepFunctionInput, 0) != step {
		t.Error("same path produced distinct locators")
	}

	if s.LocateStep(root, StepFunctionResult, 0) == step {
		t.Error("distinct paths interned to one locator")
	}

	if s.LocateStep(nil, StepFunctionInput, 0) != nil {
		t.Error("step off a nil locator is not nil")
	}
}
