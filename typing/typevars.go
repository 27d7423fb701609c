package typing

import (
	"strconv"

	"vela/logging"
)

// TypeVarFlags is a bit set of per-variable options.
type TypeVarFlags uint8

const (
	// TVCanBindLValue permits the variable to be bound to a
	// mutable-reference type
	TVCanBindLValue TypeVarFlags = 1 << iota

	// TVPrefersSubtype marks the variable for the ranker: among valid
	// solutions, the narrowest binding of this variable is preferred
	TVPrefersSubtype
)

// TypeVariable is an identity-bearing placeholder for an unknown type to be
// determined by the solver.  Variables are allocated by and owned by one
// Solver; they are meaningless outside it.
type TypeVariable struct {
	// s is the parent solver of this type variable
	s *Solver

	// ID is the dense index identifying this variable within its solver
	ID int

	// Flags are the variable's option flags
	Flags TypeVarFlags

	// Loc is the locator the variable originated at, if any
	Loc *Locator
}

// type variables have identity: distinct variables are never equal as
// types, even across solvers
func (tv *TypeVariable) equals(other DataType) bool {
	return tv == other
}

func (tv *TypeVariable) Repr() string {
	root := tv.s.vars.rootID(tv.ID)
	if fixed := tv.s.vars.fixed[root]; fixed != nil {
		return fixed.Repr()
	}

	return "$T" + strconv.Itoa(root)
}

// Representative returns the canonical member of the variable's union-find
// equivalence class.  It is stable under repeated calls.
func (tv *TypeVariable) Representative() *TypeVariable {
	return tv.s.vars.vars[tv.s.vars.rootID(tv.ID)]
}

// -----------------------------------------------------------------------------

// The variable store is an index-based union-find forest: variables are
// identified by dense integer IDs, with representative pointers and fixed
// bindings held in parallel arrays keyed by ID.  Every mutation appends an
// undo record so restoring a snapshot exactly reverses all merges and
// fixed-type assignments made since it was taken.

type undoKind int

const (
	undoParent undoKind = iota
	undoFixed
)

// undoRecord remembers one (id, previous value) pair
type undoRecord struct {
	kind      undoKind
	id        int
	prevID    int
	prevFixed DataType
}

type varStore struct {
	vars   []*TypeVariable
	parent []int
	fixed  []DataType
	undo   []undoRecord
}

// newVar allocates a fresh, self-representing variable with no fixed type.
func (vs *varStore) newVar(s *Solver, loc *Locator, flags TypeVarFlags) *TypeVariable {
	tv := &TypeVariable{s: s, ID: len(vs.vars), Flags: flags, Loc: loc}
	vs.vars = append(vs.vars, tv)
	vs.parent = append(vs.parent, tv.ID)
	vs.fixed = append(vs.fixed, nil)
	return tv
}

// rootID chases representative indices to the canonical root.  Chains are
// acyclic by construction; path compression is deliberately omitted so the
// undo log stays a faithful inverse.
func (vs *varStore) rootID(id int) int {
	for vs.parent[id] != id {
		id = vs.parent[id]
	}

	return id
}

// fixedType returns the fixed binding of the variable's equivalence class,
// or nil if the class is still open.
func (vs *varStore) fixedType(tv *TypeVariable) DataType {
	return vs.fixed[vs.rootID(tv.ID)]
}

// merge joins the equivalence classes of two variables.  The smaller root
// ID becomes the representative so merging is order-independent.  Merging a
// class with itself is a no-op.  Capability checks between the two classes
// are the caller's responsibility.
func (vs *varStore) merge(a, b *TypeVariable) {
	ra, rb := vs.rootID(a.ID), vs.rootID(b.ID)
	if ra == rb {
		return
	}

	if rb < ra {
		ra, rb = rb, ra
	}

	// carry a fixed binding on the absorbed root over to the representative
	if vs.fixed[rb] != nil {
		if vs.fixed[ra] != nil {
			logging.LogFatal("merged two type variables with fixed bindings")
		}

		vs.undo = append(vs.undo, undoRecord{kind: undoFixed, id: ra, prevFixed: vs.fixed[ra]})
		vs.fixed[ra] = vs.fixed[rb]
	}

	vs.undo = append(vs.undo, undoRecord{kind: undoParent, id: rb, prevID: vs.parent[rb]})
	vs.parent[rb] = ra
}

// assignFixed records a fixed type on the variable's representative.  It is
// a programmer error to assign twice without an intervening restore.
func (vs *varStore) assignFixed(tv *TypeVariable, dt DataType) {
	root := vs.rootID(tv.ID)
	if vs.fixed[root] != nil {
		logging.LogFatal("fixed type assigned twice to one type variable")
	}

	vs.undo = append(vs.undo, undoRecord{kind: undoFixed, id: root, prevFixed: vs.fixed[root]})
	vs.fixed[root] = dt
}

// count returns the number of allocated variables.
func (vs *varStore) count() int {
	return len(vs.vars)
}

// truncate discards variables allocated after the first n.  Only valid
// after rewinding past every mutation that touched the discarded tail.
func (vs *varStore) truncate(n int) {
	vs.vars = vs.vars[:n]
	vs.parent = vs.parent[:n]
	vs.fixed = vs.fixed[:n]
}

// mark returns the current undo-log position for a snapshot.
func (vs *varStore) mark() int {
	return len(vs.undo)
}

// rewind reverses every mutation made since the given mark, in reverse
// order, leaving the representative graph and fixed-type map exactly as
// they were when the mark was taken.
func (vs *varStore) rewind(mark int) {
	for i := len(vs.undo) - 1; i >= mark; i-- {
		rec := vs.undo[i]
		switch rec.kind {
		case undoParent:
			vs.parent[rec.id] = rec.prevID
		case undoFixed:
			vs.fixed[rec.id] = rec.prevFixed
		}
	}

	vs.undo = vs.undo[:mark]
}
