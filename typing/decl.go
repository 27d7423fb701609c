package typing

// This file defines the declaration metadata the solver consumes.  The
// solver never creates declarations; they are built by the semantic
// environment (or by tests) and handed in through the Environment oracle.

// ValueDecl describes a value declaration: a function, method, initializer,
// property, or operator the member resolver can choose among.
type ValueDecl struct {
	// Name is the declared name.  Initializers use the name "init";
	// conversion members use the name "__conversion".
	Name string

	// Type is the declaration's unopened interface type.  For instance
	// members it is curried: `(Self) -> memberType`.
	Type DataType

	// Static indicates the member is accessed on the type itself rather
	// than on an instance
	Static bool

	// Invalid indicates the declaration failed its own checking and must be
	// excluded from overload sets
	Invalid bool

	// ForeignFunc and ForeignType record that the declaration was imported
	// from a foreign (C) module as a function or as a member of a foreign
	// type.  The ranker prefers foreign functions over foreign types when
	// both appear at one locator.
	ForeignFunc bool
	ForeignType bool

	// GenericParams is the declaration's generic parameter list, in
	// declaration order.  Empty for non-generic declarations.
	GenericParams []*GenericParamDecl

	// MentionsSelf indicates the declaration's signature refers to Self or
	// to an associated type, which makes it unusable on existential bases.
	MentionsSelf bool
}

// TypeDeclKind discriminates the kinds of nominal type declarations
type TypeDeclKind int

// Enumeration of nominal declaration kinds
const (
	TypeDeclStruct TypeDeclKind = iota
	TypeDeclEnum
	TypeDeclClass
)

// TypeDecl describes a nominal type declaration: a struct, enum, or class,
// possibly generic.
type TypeDecl struct {
	Name string
	Kind TypeDeclKind

	// Super is the superclass type for class declarations; nil otherwise.
	// It may reference the declaration's own generic parameters.
	Super DataType

	// Protocols lists the protocols the declaration directly conforms to
	Protocols []*ProtocolDecl

	// Members are the declaration's value members, excluding initializers
	Members []*ValueDecl

	// Initializers are the declaration's constructors
	Initializers []*ValueDecl

	// Conversions are user-defined conversion members: nullary instance
	// members whose result is the conversion's target type
	Conversions []*ValueDecl

	// TypeMembers are nested type declarations
	TypeMembers []*TypeDecl

	// GenericParams is the declaration's generic parameter list
	GenericParams []*GenericParamDecl

	// Invalid indicates the declaration failed checking
	Invalid bool

	// DynamicLookup marks a class whose instances support reflection-style
	// dynamic member lookup
	DynamicLookup bool
}

// IsGeneric returns whether the declaration has generic parameters
func (td *TypeDecl) IsGeneric() bool {
	return len(td.GenericParams) > 0
}

// ProtocolDecl describes an interface ("protocol") declaration.
type ProtocolDecl struct {
	Name string

	// Inherits lists protocols this protocol refines
	Inherits []*ProtocolDecl

	// AssociatedTypes are the names of the protocol's associated types
	AssociatedTypes []string

	// Members are the protocol's requirements
	Members []*ValueDecl

	// ClassBound restricts conforming types to classes
	ClassBound bool

	// DynamicLookup marks the special dynamic-lookup protocol: members of
	// its existential are resolved reflectively
	DynamicLookup bool
}

// InheritsFrom returns whether the protocol equals or (transitively)
// refines the given protocol.
func (pd *ProtocolDecl) InheritsFrom(other *ProtocolDecl) bool {
	if pd == other {
		return true
	}

	for _, parent := range pd.Inherits {
		if parent.InheritsFrom(other) {
			return true
		}
	}

	return false
}

// GenericParamDecl describes one generic parameter of a declaration along
// with its declared bounds.
type GenericParamDecl struct {
	Name  string
	Index int

	// Super is the parameter's superclass bound, if any
	Super DataType

	// Protocols are the parameter's conformance bounds
	Protocols []*ProtocolDecl
}
