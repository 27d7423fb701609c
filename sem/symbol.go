package sem

import (
	"vela/typing"
)

// Symbol represents a globally declared name together with every overload
// declared for it
type Symbol struct {
	// Name is the name of the symbol (as it is referenced in scenarios)
	Name string

	// Overloads is the list of declarations sharing this name.  Most symbols
	// have exactly one; functions may have several.
	Overloads []*typing.ValueDecl

	// Mutability indicates whether or not this symbol can be mutated
	Mutability int
}

// Enumeration of mutabilities
const (
	Immutable    = iota // Cannot be mutated
	NeverMutated        // Can be mutated, never has been
	Mutable             // Can and has been mutated
)

// AddOverload adds a declaration to the symbol's overload set, rejecting
// exact duplicates of an existing overload's type
func (sym *Symbol) AddOverload(decl *typing.ValueDecl) bool {
	for _, existing := range sym.Overloads {
		if typing.Equals(existing.Type, decl.Type) {
			return false
		}
	}

	sym.Overloads = append(sym.Overloads, decl)
	return true
}

// Settable reports whether a reference to this symbol is assignable
func (sym *Symbol) Settable() bool {
	return sym.Mutability != Immutable
}
