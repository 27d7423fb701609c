package sem

import (
	"vela/typing"
)

// Universe is the full set of declarations a scenario is checked against: a
// table of global names, operators, nominal types, and protocols.  It
// implements the solver's Environment oracle.
type Universe struct {
	// GlobalTable is the table of globally declared symbols
	GlobalTable map[string]*Symbol

	// GlobalOperators is the table of globally declared operators.  This is a
	// map of slices because some operators have multiple forms: for example,
	// minus can be binary and unary depending on context.
	GlobalOperators map[string][]*Operator

	// Types is the table of nominal type declarations by name
	Types map[string]*typing.TypeDecl

	// Protocols is the table of protocol declarations by name
	Protocols map[string]*typing.ProtocolDecl

	// conformances holds the declared conformances of non-nominal types
	// (primitives, tuples) keyed by canonical type representation; nominal
	// conformances live on their declarations
	conformances map[string][]*typing.ProtocolDecl

	// witnesses caches conformance handles so repeated queries return the
	// same object
	witnesses map[witnessKey]*typing.Conformance
}

type witnessKey struct {
	repr  string
	proto *typing.ProtocolDecl
}

// NewUniverse creates an empty universe
func NewUniverse() *Universe {
	return &Universe{
		GlobalTable:     make(map[string]*Symbol),
		GlobalOperators: make(map[string][]*Operator),
		Types:           make(map[string]*typing.TypeDecl),
		Protocols:       make(map[string]*typing.ProtocolDecl),
		conformances:    make(map[string][]*typing.ProtocolDecl),
		witnesses:       make(map[witnessKey]*typing.Conformance),
	}
}

// DefineSymbol adds a global declaration under its name, creating the symbol
// on first use.  It returns false when the declaration collides with an
// existing overload.
func (u *Universe) DefineSymbol(decl *typing.ValueDecl) bool {
	sym, ok := u.GlobalTable[decl.Name]
	if !ok {
		sym = &Symbol{Name: decl.Name}
		u.GlobalTable[decl.Name] = sym
	}

	return sym.AddOverload(decl)
}

// DefineOperator adds an operator overload under the operator's name and
// arity, creating the operator on first use.
func (u *Universe) DefineOperator(name string, arity int, decl *typing.ValueDecl) bool {
	op, ok := GetOperatorFromTable(u.GlobalOperators, name, arity)
	if !ok {
		op = &Operator{Name: name, Arity: arity}
		u.GlobalOperators[name] = append(u.GlobalOperators[name], op)
	}

	return op.AddOverload(decl)
}

// DeclareConformance records that a non-nominal type conforms to a protocol
func (u *Universe) DeclareConformance(dt typing.DataType, proto *typing.ProtocolDecl) {
	repr := dt.Repr()
	u.conformances[repr] = append(u.conformances[repr], proto)
}

// -----------------------------------------------------------------------------
// Environment oracle

// declOf extracts the nominal declaration a type is an instance of
func declOf(dt typing.DataType) *typing.TypeDecl {
	switch v := typing.Desugar(dt).(type) {
	case *typing.NominalType:
		return v.Decl
	case *typing.BoundGenericType:
		return v.Decl
	default:
		return nil
	}
}

// protocolsOf extracts the protocol set of an existential type
func protocolsOf(dt typing.DataType) []*typing.ProtocolDecl {
	switch v := typing.Desugar(dt).(type) {
	case *typing.ProtocolType:
		return []*typing.ProtocolDecl{v.Decl}
	case *typing.CompositionType:
		return v.Protocols
	default:
		return nil
	}
}

// LookupMember returns every value declaration named `name` visible on the
// base type, walking superclasses, protocol refinements, and generic slot
// bounds.
func (u *Universe) LookupMember(base typing.DataType, name string) []*typing.ValueDecl {
	base = typing.Desugar(base)

	if protos := protocolsOf(base); protos != nil {
		if protocolsAllowDynamicLookup(protos) {
			return u.lookupDynamicMember(name)
		}

		return lookupProtocolMember(protos, name, nil)
	}

	if slot, ok := base.(*typing.GenericSlotType); ok {
		decls := lookupProtocolMember(slot.Protocols, name, nil)
		if slot.Super != nil {
			decls = append(decls, u.LookupMember(slot.Super, name)...)
		}

		return decls
	}

	var decls []*typing.ValueDecl
	for decl := declOf(base); decl != nil; decl = declOf(decl.Super) {
		for _, member := range decl.Members {
			if member.Name == name {
				decls = append(decls, member)
			}
		}

		if decl.DynamicLookup {
			// a dynamic-lookup class also exposes every same-named member
			// of every other class, found reflectively
			return append(decls, u.lookupDynamicMember(name)...)
		}

		if decl.Super == nil {
			break
		}
	}

	return decls
}

func protocolsAllowDynamicLookup(protos []*typing.ProtocolDecl) bool {
	for _, p := range protos {
		if p.DynamicLookup {
			return true
		}
	}

	return false
}

// lookupProtocolMember gathers the requirements named `name` across a
// protocol set and everything those protocols refine
func lookupProtocolMember(protos []*typing.ProtocolDecl, name string, seen map[*typing.ProtocolDecl]bool) []*typing.ValueDecl {
	if seen == nil {
		seen = make(map[*typing.ProtocolDecl]bool)
	}

	var decls []*typing.ValueDecl
	for _, proto := range protos {
		if seen[proto] {
			continue
		}
		seen[proto] = true

		for _, member := range proto.Members {
			if member.Name == name {
				decls = append(decls, member)
			}
		}

		decls = append(decls, lookupProtocolMember(proto.Inherits, name, seen)...)
	}

	return decls
}

// lookupDynamicMember searches every class declaration for instance members
// with the given name; this is the reflective lookup backing dynamic-lookup
// bases
func (u *Universe) lookupDynamicMember(name string) []*typing.ValueDecl {
	var decls []*typing.ValueDecl
	for _, decl := range u.Types {
		if decl.Kind != typing.TypeDeclClass {
			continue
		}

		for _, member := range decl.Members {
			if member.Name == name && !member.Static {
				decls = append(decls, member)
			}
		}
	}

	return decls
}

// LookupInitializers returns the initializers declared on the base type.
// Initializers are not inherited from superclasses.
func (u *Universe) LookupInitializers(base typing.DataType) []*typing.ValueDecl {
	decl := declOf(base)
	if decl == nil {
		return nil
	}

	return decl.Initializers
}

// LookupTypeMember returns the nested type declarations named `name` on the
// base type, walking superclasses.
func (u *Universe) LookupTypeMember(base typing.DataType, name string) []*typing.TypeDecl {
	var decls []*typing.TypeDecl
	for decl := declOf(base); decl != nil; decl = declOf(decl.Super) {
		for _, nested := range decl.TypeMembers {
			if nested.Name == name {
				decls = append(decls, nested)
			}
		}

		if decl.Super == nil {
			break
		}
	}

	return decls
}

// LookupConversions returns the user-defined conversion members of the base
// type.
func (u *Universe) LookupConversions(base typing.DataType) []*typing.ValueDecl {
	decl := declOf(base)
	if decl == nil {
		return nil
	}

	return decl.Conversions
}

// ConformsTo reports whether the type conforms to the protocol, returning a
// cached witness handle when it does.
func (u *Universe) ConformsTo(dt typing.DataType, proto *typing.ProtocolDecl) (*typing.Conformance, bool) {
	if !u.conforms(dt, proto) {
		return nil, false
	}

	key := witnessKey{repr: dt.Repr(), proto: proto}
	if w, ok := u.witnesses[key]; ok {
		return w, true
	}

	w := &typing.Conformance{Type: dt, Protocol: proto}
	u.witnesses[key] = w
	return w, true
}

func (u *Universe) conforms(dt typing.DataType, proto *typing.ProtocolDecl) bool {
	dt = typing.Desugar(dt)

	// an existential conforms when its protocol set covers the requirement
	for _, p := range protocolsOf(dt) {
		if p.InheritsFrom(proto) {
			return true
		}
	}

	// nominal conformance is declared, and inherited along the superclass
	// chain
	for decl := declOf(dt); decl != nil; decl = declOf(decl.Super) {
		for _, p := range decl.Protocols {
			if p.InheritsFrom(proto) {
				return true
			}
		}

		if decl.Super == nil {
			break
		}
	}

	// declared conformances of non-nominal types
	for _, p := range u.conformances[dt.Repr()] {
		if p.InheritsFrom(proto) {
			return true
		}
	}

	return false
}
