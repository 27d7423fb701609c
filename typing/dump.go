package typing

import (
	"fmt"
	"io"
)

// Dump writes a human-readable snapshot of the solver's state: every
// variable with its binding, the unresolved constraints, and the bookkeeping
// the search has committed so far.
func (s *Solver) Dump(w io.Writer) {
	fmt.Fprintf(w, "score: %d\n", s.score)

	fmt.Fprintln(w, "type variables:")
	for id := 0; id < s.vars.count(); id++ {
		root := s.vars.rootID(id)

		switch {
		case root != id:
			fmt.Fprintf(w, "  $T%d -> $T%d\n", id, root)
		case s.vars.fixed[root] != nil:
			fmt.Fprintf(w, "  $T%d = %s\n", id, s.vars.fixed[root].Repr())
		default:
			fmt.Fprintf(w, "  $T%d (unbound)\n", id)
		}
	}

	fmt.Fprintln(w, "active constraints:")
	for _, c := range s.active {
		fmt.Fprintf(w, "  %s\n", c.Repr())
	}

	if len(s.retired) > 0 {
		fmt.Fprintf(w, "retired constraints: %d\n", len(s.retired))
	}

	for loc, restriction := range s.restrictions {
		fmt.Fprintf(w, "restriction %s: %s\n", loc, restriction)
	}

	for loc, choice := range s.overloads {
		fmt.Fprintf(w, "overload %s: %s\n", loc, choice.Repr())
	}

	for loc, kind := range s.castKinds {
		fmt.Fprintf(w, "cast %s: %s\n", loc, kind)
	}

	if s.failure != nil {
		fmt.Fprintf(w, "failure: %s\n", s.failure.Message())
	}
}

// Dump writes the solution's bindings and committed choices.
func (sol *Solution) Dump(w io.Writer) {
	fmt.Fprintf(w, "solution (score %d):\n", sol.Score)

	for _, binding := range sol.Bindings() {
		fmt.Fprintf(w, "  $T%d = %s\n", binding.ID, binding.Type.Repr())
	}

	for loc, choice := range sol.overloads {
		fmt.Fprintf(w, "  overload %s: %s\n", loc, choice.Repr())
	}

	for loc, restriction := range sol.restrictions {
		fmt.Fprintf(w, "  restriction %s: %s\n", loc, restriction)
	}

	for loc, kind := range sol.castKinds {
		fmt.Fprintf(w, "  cast %s: %s\n", loc, kind)
	}
}
