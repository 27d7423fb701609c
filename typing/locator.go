package typing

import (
	"strconv"
	"strings"
)

// PathStepKind enumerates the kinds of steps a constraint locator may take
// from its anchor expression down to the position the constraint applies to.
type PathStepKind int

// Enumeration of locator path step kinds
const (
	StepFunctionInput PathStepKind = iota
	StepFunctionResult
	StepTupleElement
	StepMember
	StepMemberRefBase
	StepGenericArgument
	StepOptionalPayload
	StepArrayElement
	StepConstructorMember
	StepConversionMember
	StepInstanceType
	StepLValueObject
)

var pathStepNames = map[PathStepKind]string{
	StepFunctionInput:     "input",
	StepFunctionResult:    "result",
	StepTupleElement:      "tuple element",
	StepMember:            "member",
	StepMemberRefBase:     "member base",
	StepGenericArgument:   "generic argument",
	StepOptionalPayload:   "optional payload",
	StepArrayElement:      "array element",
	StepConstructorMember: "constructor",
	StepConversionMember:  "conversion",
	StepInstanceType:      "instance type",
	StepLValueObject:      "lvalue object",
}

// PathStep is one step of a locator path.  Index carries the element or
// argument number for indexed steps and is zero otherwise.
type PathStep struct {
	Kind  PathStepKind
	Index int
}

// Locator identifies where in the expression a constraint originated: an
// anchor expression node plus a path of derivation steps.  Locators are
// interned per solver; two derivations of "the same" constraint site share
// one Locator object, which is what stops duplicate re-derivation.
type Locator struct {
	// Anchor is the caller-assigned ID of the anchoring expression node
	Anchor int

	// Path is the derivation path from the anchor, outermost step first
	Path []PathStep

	// key is the interning key; set once by the interner
	key string
}

func (l *Locator) String() string {
	b := strings.Builder{}
	b.WriteRune('@')
	b.WriteString(strconv.Itoa(l.Anchor))

	for _, step := range l.Path {
		b.WriteString(" > ")
		b.WriteString(pathStepNames[step.Kind])

		if step.Kind == StepTupleElement || step.Kind == StepGenericArgument {
			b.WriteString(" #" + strconv.Itoa(step.Index))
		}
	}

	return b.String()
}

// locatorKey builds the interning key for an (anchor, path) pair
func locatorKey(anchor int, path []PathStep) string {
	b := strings.Builder{}
	b.WriteString(strconv.Itoa(anchor))

	for _, step := range path {
		b.WriteRune(';')
		b.WriteString(strconv.Itoa(int(step.Kind)))
		b.WriteRune(',')
		b.WriteString(strconv.Itoa(step.Index))
	}

	return b.String()
}

// -----------------------------------------------------------------------------

// Locate interns the locator for an anchor with no path.
func (s *Solver) Locate(anchor int) *Locator {
	return s.internLocator(anchor, nil)
}

// LocateStep interns the locator formed by extending a parent locator with
// one more path step.  A nil parent yields a nil locator.
func (s *Solver) LocateStep(parent *Locator, kind PathStepKind, index int) *Locator {
	if parent == nil {
		return nil
	}

	path := make([]PathStep, len(parent.Path), len(parent.Path)+1)
	copy(path, parent.Path)
	path = append(path, PathStep{Kind: kind, Index: index})
	return s.internLocator(parent.Anchor, path)
}

// internLocator canonicalizes an (anchor, path) pair.  Repeated requests
// for the same pair return the same object.
func (s *Solver) internLocator(anchor int, path []PathStep) *Locator {
	key := locatorKey(anchor, path)
	if loc, ok := s.locators[key]; ok {
		return loc
	}

	loc := &Locator{Anchor: anchor, Path: path, key: key}
	s.locators[key] = loc
	return loc
}
