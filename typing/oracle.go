package typing

// This file specifies the boundary between the solver and its environment.
// Every oracle is a pure query: implementations must not observe or mutate
// solver state, and results for a given (base, name) pair must be stable
// for the lifetime of one solve so the solver may cache them.

// Environment supplies the name-lookup and conformance oracles the solver
// consults while simplifying member and conformance constraints.
type Environment interface {
	// LookupMember returns the ordered set of value declarations named
	// `name` visible on the given base type, walking superclasses and
	// protocol refinements as the surface language requires.
	LookupMember(base DataType, name string) []*ValueDecl

	// LookupInitializers returns every initializer of the given type
	LookupInitializers(base DataType) []*ValueDecl

	// LookupTypeMember returns the nested type declarations named `name`
	// on the given base type
	LookupTypeMember(base DataType, name string) []*TypeDecl

	// LookupConversions returns the user-defined conversion members of the
	// given type
	LookupConversions(base DataType) []*ValueDecl

	// ConformsTo reports whether the type conforms to the protocol,
	// returning a witness handle when it does
	ConformsTo(dt DataType, proto *ProtocolDecl) (*Conformance, bool)
}

// Conformance is the witness-table handle the conformance oracle returns
// for a successful conformance query.
type Conformance struct {
	Type     DataType
	Protocol *ProtocolDecl
}

// -----------------------------------------------------------------------------

// Opener is the capability a caller may supply to control how generic
// parameters are opened.  The default opener replaces every parameter with
// a fresh type variable; specialization-ordering and reflective callers
// supply concrete replacements instead.
type Opener interface {
	// ReplaceGenericParam may supply an immediate concrete replacement for
	// an opened generic parameter.  Returning nil requests a fresh type
	// variable.
	ReplaceGenericParam(param *GenericParamDecl) DataType

	// ShouldBindAssociatedType reports whether an opened associated type
	// should be tied to its owner with a type-member binding constraint.
	ShouldBindAssociatedType(name string) bool
}

// defaultOpener is the no-op Opener used when the caller supplies none.
type defaultOpener struct{}

func (defaultOpener) ReplaceGenericParam(param *GenericParamDecl) DataType { return nil }

func (defaultOpener) ShouldBindAssociatedType(name string) bool { return true }
