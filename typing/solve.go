package typing

// The solver proper: it owns the variable store, the constraint worklist,
// and the search.  Solving alternates two phases: simplification discharges
// constraints against the current bindings to a fixpoint, and the search
// branches on one disjunction at a time, solving each alternative under a
// snapshot and rolling back before the next.

// Solver is one expression-level constraint-solving session.  A Solver and
// everything it allocates (variables, locators, constraints) are valid only
// for that session; it is not safe for concurrent use.
type Solver struct {
	// AllowFreeVariables permits solutions in which some type variables
	// remain unbound; they stay variables in the solution's bindings.
	// Diagnostics-oriented callers set this to salvage partial information.
	AllowFreeVariables bool

	env Environment

	vars     varStore
	locators map[string]*Locator

	active    []*Constraint
	retired   []*Constraint
	generated map[conKey]bool

	restrictions map[*Locator]ConversionRestriction
	overloads    map[*Locator]*OverloadChoice
	castKinds    map[*Locator]CastKind
	openings     map[openKey]*opening

	score int

	failure        *Failure
	recordFailures bool
}

// NewSolver creates an empty solving session over the given environment.
func NewSolver(env Environment) *Solver {
	return &Solver{
		env:            env,
		locators:       make(map[string]*Locator),
		generated:      make(map[conKey]bool),
		restrictions:   make(map[*Locator]ConversionRestriction),
		overloads:      make(map[*Locator]*OverloadChoice),
		castKinds:      make(map[*Locator]CastKind),
		openings:       make(map[openKey]*opening),
		recordFailures: true,
	}
}

// NewTypeVariable allocates a fresh type variable owned by this solver.
func (s *Solver) NewTypeVariable(loc *Locator, flags TypeVarFlags) *TypeVariable {
	return s.vars.newVar(s, loc, flags)
}

// OpenType opens a possibly generic type, replacing its generic parameters
// and dependent references with fresh variables and queueing their bound
// constraints.
func (s *Solver) OpenType(t DataType, loc *Locator, opener Opener) DataType {
	return s.openType(t, loc, opener)
}

// -----------------------------------------------------------------------------
// Snapshots

// snapshot captures everything a search branch may mutate.  The variable
// store restores through its undo log; the slices restore by length; the
// maps restore by handing the branch fresh copies to scribble on.
type snapshot struct {
	varsMark int
	varCount int

	active  []*Constraint
	retired int

	generated    map[conKey]bool
	restrictions map[*Locator]ConversionRestriction
	overloads    map[*Locator]*OverloadChoice
	castKinds    map[*Locator]CastKind
	openings     map[openKey]*opening

	score   int
	failure *Failure
}

func (s *Solver) pushSnapshot() *snapshot {
	snap := &snapshot{
		varsMark:     s.vars.mark(),
		varCount:     s.vars.count(),
		active:       append([]*Constraint(nil), s.active...),
		retired:      len(s.retired),
		generated:    s.generated,
		restrictions: s.restrictions,
		overloads:    s.overloads,
		castKinds:    s.castKinds,
		openings:     s.openings,
		score:        s.score,
		failure:      s.failure,
	}

	s.generated = copyGenerated(s.generated)
	s.restrictions = copyRestrictions(s.restrictions)
	s.overloads = copyOverloads(s.overloads)
	s.castKinds = copyCastKinds(s.castKinds)
	s.openings = copyOpenings(s.openings)
	return snap
}

func (s *Solver) restoreSnapshot(snap *snapshot) {
	s.vars.rewind(snap.varsMark)
	s.vars.truncate(snap.varCount)

	s.active = snap.active
	s.retired = s.retired[:snap.retired]

	s.generated = snap.generated
	s.restrictions = snap.restrictions
	s.overloads = snap.overloads
	s.castKinds = snap.castKinds
	s.openings = snap.openings

	s.score = snap.score
	s.failure = snap.failure
}

func copyGenerated(m map[conKey]bool) map[conKey]bool {
	c := make(map[conKey]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyRestrictions(m map[*Locator]ConversionRestriction) map[*Locator]ConversionRestriction {
	c := make(map[*Locator]ConversionRestriction, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyOverloads(m map[*Locator]*OverloadChoice) map[*Locator]*OverloadChoice {
	c := make(map[*Locator]*OverloadChoice, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyCastKinds(m map[*Locator]CastKind) map[*Locator]CastKind {
	c := make(map[*Locator]CastKind, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// opening contexts are cloned deeply: a branch may extend a context created
// before the snapshot, and its additions reference variables the rollback
// discards.
func copyOpenings(m map[openKey]*opening) map[openKey]*opening {
	c := make(map[openKey]*opening, len(m))
	for k, o := range m {
		params := make(map[*GenericParamDecl]DataType, len(o.params))
		for pk, pv := range o.params {
			params[pk] = pv
		}

		dependents := make(map[string]*TypeVariable, len(o.dependents))
		for dk, dv := range o.dependents {
			dependents[dk] = dv
		}

		c[k] = &opening{s: o.s, loc: o.loc, opener: o.opener, params: params, dependents: dependents}
	}
	return c
}

// -----------------------------------------------------------------------------
// Simplification

// simplify discharges active constraints against the current bindings until
// no more progress can be made.  Disjunctions are skipped: the search owns
// them.  It returns false as soon as any constraint fails.
func (s *Solver) simplify() bool {
	for {
		queue := s.active
		s.active = nil

		progress := false
		var remaining []*Constraint

		for _, c := range queue {
			if c.Kind == ConsDisjunction {
				remaining = append(remaining, c)
				continue
			}

			switch s.simplifyConstraint(c) {
			case matchSolved:
				s.retire(c)
				progress = true

			case matchError:
				s.retire(c)
				s.active = append(remaining, s.active...)
				return false

			case matchUnsolved:
				remaining = append(remaining, c)
			}
		}

		// constraints derived during this pass are in s.active now
		if len(s.active) > 0 {
			progress = true
		}

		s.active = append(remaining, s.active...)
		if !progress {
			return true
		}
	}
}

// -----------------------------------------------------------------------------
// Search

// Solve runs simplification and disjunction search to completion and
// returns every consistent solution.  When no solution exists, Failure
// reports a representative failure from the first failing branch.
func (s *Solver) Solve() []*Solution {
	var solutions []*Solution
	var representative *Failure

	s.solveRec(&solutions, &representative)

	if len(solutions) == 0 && s.failure == nil {
		s.failure = representative
	}

	return solutions
}

func (s *Solver) solveRec(solutions *[]*Solution, representative **Failure) {
	if !s.simplify() {
		if *representative == nil {
			*representative = s.failure
		}

		return
	}

	disjunction := s.selectDisjunction()
	if disjunction == nil {
		// deferred relational constraints can leave a variable unbound even
		// with no disjunction left; try bindings drawn from those constraints
		if target, candidates := s.candidateBindings(); target != nil {
			for _, candidate := range candidates {
				snap := s.pushSnapshot()
				s.AddConstraint(ConsBind, target, candidate, target.Loc)
				s.solveRec(solutions, representative)
				s.restoreSnapshot(snap)
			}

			return
		}

		if sol := s.buildSolution(); sol != nil {
			*solutions = append(*solutions, sol)
		}

		return
	}

	s.removeActive(disjunction)
	s.retire(disjunction)

	for _, alternative := range disjunction.Nested {
		snap := s.pushSnapshot()
		s.addConstraint(alternative)
		s.solveRec(solutions, representative)
		s.restoreSnapshot(snap)
	}
}

// selectDisjunction picks the disjunction to branch on next: the first
// outstanding one, so alternatives are tried in the order the constraints
// were generated.
func (s *Solver) selectDisjunction() *Constraint {
	for _, c := range s.active {
		if c.Kind == ConsDisjunction {
			return c
		}
	}

	return nil
}

// candidateBindings finds an unbound variable that deferred relational
// constraints relate to at least one non-variable type and collects those
// types as binding candidates.  A variable with no relational constraints
// at all yields no target; it stays free.
func (s *Solver) candidateBindings() (*TypeVariable, []DataType) {
	var target *TypeVariable

	for _, c := range s.active {
		if !c.Kind.IsRelational() {
			continue
		}

		first := s.resolveType(c.First)
		second := s.resolveType(c.Second)

		if tv, ok := first.(*TypeVariable); ok {
			if _, other := second.(*TypeVariable); !other {
				target = tv
				break
			}
		}

		if tv, ok := second.(*TypeVariable); ok {
			if _, other := first.(*TypeVariable); !other {
				target = tv
				break
			}
		}
	}

	if target == nil {
		return nil, nil
	}

	var candidates []DataType
	for _, c := range s.active {
		if !c.Kind.IsRelational() {
			continue
		}

		first := s.resolveType(c.First)
		second := s.resolveType(c.Second)

		var candidate DataType
		if tv, ok := first.(*TypeVariable); ok && tv == target {
			candidate = second
		} else if tv, ok := second.(*TypeVariable); ok && tv == target {
			candidate = first
		}

		if candidate == nil {
			continue
		}

		if _, stillVar := candidate.(*TypeVariable); stillVar {
			continue
		}

		candidate = Desugar(StripLValue(candidate))

		duplicate := false
		for _, existing := range candidates {
			if Equals(existing, candidate) {
				duplicate = true
				break
			}
		}

		if !duplicate {
			candidates = append(candidates, candidate)
		}
	}

	return target, candidates
}

func (s *Solver) removeActive(target *Constraint) {
	for i, c := range s.active {
		if c == target {
			s.active = append(s.active[:i:i], s.active[i+1:]...)
			return
		}
	}
}
