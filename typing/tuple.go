package typing

// Tuple matching.  Below conversion strictness tuples match positionally
// with exact arity; at conversion strictness an explicit shuffle is computed
// first, reordering elements by label and filling defaulted or variadic
// positions, and element-wise conversion matching proceeds only if the
// shuffle succeeds.

// mapping values for destination elements that consume no single source
const (
	// shuffleDefault marks a destination element filled by its default value
	shuffleDefault = -1

	// shuffleVariadic marks the destination's variadic element; its sources
	// are listed separately
	shuffleVariadic = -2
)

// tupleShuffle is an explicit reordering of source tuple elements onto
// destination positions.
type tupleShuffle struct {
	// mapping holds, per destination element, the consumed source index or
	// one of the sentinel values above
	mapping []int

	// variadic holds the source indices absorbed by the destination's
	// variadic element, in order
	variadic []int
}

// shuffleTupleElements computes the shuffle from src onto dst.  Named
// destination elements are matched by name first; remaining destination
// slots are filled left-to-right from the remaining sources; a variadic
// destination element absorbs every remaining unconsumed, unnamed source; a
// destination element with a default may be left unfilled.  Reordering a
// labeled element out of source order, a leftover source element, or (when
// labels are mandatory) positionally consuming a labeled source are all
// shuffle failures.
func shuffleTupleElements(src, dst *TupleType, labelsMandatory bool) (*tupleShuffle, FailureKind, bool) {
	shuffle := &tupleShuffle{mapping: make([]int, len(dst.Elements))}
	claimed := make([]bool, len(src.Elements))

	for i := range shuffle.mapping {
		shuffle.mapping[i] = shuffleDefault
	}

	// first pass: match destination labels against source labels
	for i, delem := range dst.Elements {
		if delem.Name == "" || delem.Variadic {
			continue
		}

		if j := src.ElementNamed(delem.Name); j >= 0 {
			shuffle.mapping[i] = j
			claimed[j] = true
		}
	}

	// second pass: fill the remaining destination slots left-to-right
	next := 0
	for i, delem := range dst.Elements {
		if delem.Variadic {
			shuffle.mapping[i] = shuffleVariadic
			continue
		}

		if shuffle.mapping[i] != shuffleDefault {
			continue
		}

		for next < len(src.Elements) && claimed[next] {
			next++
		}

		if next < len(src.Elements) {
			selem := src.Elements[next]
			if labelsMandatory && selem.Name != "" && selem.Name != delem.Name {
				return nil, FailTupleNameMismatch, false
			}

			shuffle.mapping[i] = next
			claimed[next] = true
			continue
		}

		// no source remains: only a defaulted element may stay unfilled
		if !delem.HasDefault {
			return nil, FailTupleArityMismatch, false
		}
	}

	// a variadic destination element absorbs the remaining unnamed sources
	if vi := variadicElement(dst); vi >= 0 {
		for j, selem := range src.Elements {
			if claimed[j] {
				continue
			}

			if selem.Name != "" {
				return nil, FailTupleNameMismatch, false
			}

			shuffle.variadic = append(shuffle.variadic, j)
			claimed[j] = true
		}
	}

	// every source element must be consumed
	for _, c := range claimed {
		if !c {
			return nil, FailTupleUnusedElement, false
		}
	}

	// labeled elements must not move backwards: consumption order across
	// destination positions must be increasing
	last := -1
	for _, j := range shuffle.mapping {
		if j < 0 {
			continue
		}

		if j < last {
			return nil, FailTupleNamePositionMismatch, false
		}

		last = j
	}

	return shuffle, 0, true
}

// variadicElement returns the index of the tuple's variadic element or -1.
func variadicElement(tt *TupleType) int {
	for i, elem := range tt.Elements {
		if elem.Variadic {
			return i
		}
	}

	return -1
}

// -----------------------------------------------------------------------------

// matchTupleTypes matches two tuple types at the given strictness.
func (s *Solver) matchTupleTypes(at, bt *TupleType, kind MatchKind, flags matchFlags, loc *Locator) matchResult {
	if kind >= MatchConversion {
		return s.convertTupleTypes(at, bt, flags, loc)
	}

	if len(at.Elements) != len(bt.Elements) {
		return s.recordFailure(FailTupleArityMismatch, at, bt, "", loc)
	}

	for i := range at.Elements {
		ae, be := at.Elements[i], bt.Elements[i]

		if ae.Variadic != be.Variadic {
			return s.recordFailure(FailTupleVariadicMismatch, at, bt, "", loc)
		}

		if ae.Name != be.Name {
			// names must agree exactly under equality; under weaker kinds a
			// name may differ only if it is not claimed by another position
			if kind <= MatchEqual {
				return s.recordFailure(FailTupleNameMismatch, at, bt, "", loc)
			}

			if (ae.Name != "" && bt.ElementNamed(ae.Name) >= 0) ||
				(be.Name != "" && at.ElementNamed(be.Name) >= 0) {
				return s.recordFailure(FailTupleNamePositionMismatch, at, bt, "", loc)
			}
		}

		if r := s.matchTypes(ae.Type, be.Type, kind, flags&^mtTopLevel,
			s.LocateStep(loc, StepTupleElement, i)); r == matchError {
			return r
		}
	}

	return matchSolved
}

// convertTupleTypes computes the shuffle from at onto bt and then matches
// the consumed element types pairwise at conversion strictness.
func (s *Solver) convertTupleTypes(at, bt *TupleType, flags matchFlags, loc *Locator) matchResult {
	shuffle, failKind, ok := shuffleTupleElements(at, bt, false)
	if !ok {
		return s.recordFailure(failKind, at, bt, "", loc)
	}

	sub := flags &^ mtTopLevel
	for i, j := range shuffle.mapping {
		elemLoc := s.LocateStep(loc, StepTupleElement, i)

		switch j {
		case shuffleDefault:
			// filled by the declaration's default value

		case shuffleVariadic:
			for _, k := range shuffle.variadic {
				if r := s.matchTypes(at.Elements[k].Type, bt.Elements[i].Type, MatchConversion, sub, elemLoc); r == matchError {
					return r
				}
			}

		default:
			if r := s.matchTypes(at.Elements[j].Type, bt.Elements[i].Type, MatchConversion, sub, elemLoc); r == matchError {
				return r
			}
		}
	}

	return matchSolved
}
