package typing

// Solution ranking.  When the search finds several solutions the checker
// still wants to commit one: a solution wins when its score is lower, or
// when every overload choice it disagrees on picked the more specialized
// declaration.

// slotOpener replaces generic parameters with rigid slots instead of fresh
// variables, so a specialization probe can hold one side's parameters fixed
// while the other side's are free.
type slotOpener struct{}

func (slotOpener) ReplaceGenericParam(param *GenericParamDecl) DataType {
	return &GenericSlotType{
		Name:      param.Name,
		Index:     param.Index,
		Super:     param.Super,
		Protocols: param.Protocols,
	}
}

func (slotOpener) ShouldBindAssociatedType(name string) bool { return false }

// isDeclMoreSpecialized probes whether declaration a is at least as
// specialized as b: holding a's generic parameters rigid, can a's type
// still be a subtype of b's freshly opened type?
func (s *Solver) isDeclMoreSpecialized(a, b *ValueDecl) bool {
	sub := NewSolver(s.env)
	sub.recordFailures = false
	sub.AllowFreeVariables = true

	ta := sub.OpenType(a.Type, nil, slotOpener{})
	tb := sub.OpenType(b.Type, nil, nil)

	sub.AddConstraint(ConsSubtype, ta, tb, nil)
	return len(sub.Solve()) > 0
}

// CompareSolutions orders two solutions of this solver: -1 when a is
// strictly better, 1 when b is, 0 when they are incomparable.
func (s *Solver) CompareSolutions(a, b *Solution) int {
	if a.Score != b.Score {
		if a.Score < b.Score {
			return -1
		}

		return 1
	}

	aBetter, bBetter := 0, 0
	for loc, ca := range a.overloads {
		cb, ok := b.overloads[loc]
		if !ok || ca == cb {
			continue
		}

		if ca.Decl == nil || cb.Decl == nil || ca.Decl == cb.Decl {
			continue
		}

		// a function imported from a foreign module beats a member imported
		// through a foreign type wrapper
		if ca.Decl.ForeignFunc && cb.Decl.ForeignType {
			aBetter++
			continue
		}
		if cb.Decl.ForeignFunc && ca.Decl.ForeignType {
			bBetter++
			continue
		}

		aMore := s.isDeclMoreSpecialized(ca.Decl, cb.Decl)
		bMore := s.isDeclMoreSpecialized(cb.Decl, ca.Decl)

		switch {
		case aMore && !bMore:
			aBetter++
		case bMore && !aMore:
			bBetter++
		}
	}

	// a variable marked as preferring its narrowest binding breaks ties
	// between solutions that bound it differently
	for _, tv := range s.vars.vars {
		if tv.Flags&TVPrefersSubtype == 0 {
			continue
		}

		root := s.vars.rootID(tv.ID)
		av, aok := a.bindings.Get(root)
		bv, bok := b.bindings.Get(root)
		if !aok || !bok {
			continue
		}

		ta := stripBindingMetadata(av.(DataType))
		tb := stripBindingMetadata(bv.(DataType))
		if Equals(ta, tb) {
			continue
		}

		switch {
		case s.bindingIsNarrower(ta, tb):
			aBetter++
		case s.bindingIsNarrower(tb, ta):
			bBetter++
		}
	}

	switch {
	case aBetter > 0 && bBetter == 0:
		return -1
	case bBetter > 0 && aBetter == 0:
		return 1
	default:
		return 0
	}
}

// stripBindingMetadata removes the parts of a binding that ranking ignores:
// sugar and tuple default-value markers.
func stripBindingMetadata(dt DataType) DataType {
	dt = Desugar(dt)
	if tt, ok := dt.(*TupleType); ok {
		return tt.StripDefaults()
	}

	return dt
}

// bindingIsNarrower reports whether binding a is strictly narrower than
// binding b.  A concrete type is narrower than a generic slot; an unlabeled
// tuple is narrower than a labeled tuple of the same element types; beyond
// that, narrower means convertible one way but not the other.
func (s *Solver) bindingIsNarrower(a, b DataType) bool {
	if isGenericSlot(b) && !isGenericSlot(a) {
		return true
	}
	if isGenericSlot(a) {
		return false
	}

	if ta, ok := a.(*TupleType); ok {
		if tb, ok := b.(*TupleType); ok && len(ta.Elements) == len(tb.Elements) {
			sameTypes := true
			aLabeled, bLabeled := false, false
			for i := range ta.Elements {
				if ta.Elements[i].Name != "" {
					aLabeled = true
				}
				if tb.Elements[i].Name != "" {
					bLabeled = true
				}
				if !Equals(ta.Elements[i].Type, tb.Elements[i].Type) {
					sameTypes = false
				}
			}

			if sameTypes && aLabeled != bLabeled {
				return !aLabeled
			}
		}
	}

	return s.canMatch(a, b, MatchConversion) && !s.canMatch(b, a, MatchConversion)
}

// FindBestSolution returns the unique solution that beats or ties every
// other one while beating at least one of them outright, or reports
// ambiguity.  A single solution is trivially best.
func (s *Solver) FindBestSolution(solutions []*Solution) (*Solution, bool) {
	switch len(solutions) {
	case 0:
		return nil, false
	case 1:
		return solutions[0], true
	}

	for i, candidate := range solutions {
		dominates := true
		for j, other := range solutions {
			if i == j {
				continue
			}

			if s.CompareSolutions(candidate, other) != -1 {
				dominates = false
				break
			}
		}

		if dominates {
			return candidate, true
		}
	}

	// no outright winner: discard every solution some other solution beats
	// and see whether exactly one survives
	var unbeaten []*Solution
	for i, candidate := range solutions {
		beaten := false
		for j, other := range solutions {
			if i != j && s.CompareSolutions(other, candidate) == -1 {
				beaten = true
				break
			}
		}

		if !beaten {
			unbeaten = append(unbeaten, candidate)
		}
	}

	if len(unbeaten) == 1 {
		return unbeaten[0], true
	}

	return nil, false
}
