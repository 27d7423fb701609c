package typing

import (
	"strconv"
	"strings"
)

// PrimType represents a primitive (builtin) Vela type such as an `Int` or a
// `String`.  Its value must be one of the enumerated primitive kinds below.
type PrimType uint

// Enumeration of primitive types
const (
	PrimKindUnit = iota
	PrimKindBool
	PrimKindInt
	PrimKindInt64
	PrimKindFloat
	PrimKindDouble
	PrimKindChar
	PrimKindString
)

// equals for primitives is an integer comparison
func (pt PrimType) equals(other DataType) bool {
	if opt, ok := other.(PrimType); ok {
		return pt == opt
	}

	return false
}

// Repr of a primitive type is just its source-level name
func (pt PrimType) Repr() string {
	switch pt {
	case PrimKindUnit:
		return "Unit"
	case PrimKindBool:
		return "Bool"
	case PrimKindInt:
		return "Int"
	case PrimKindInt64:
		return "Int64"
	case PrimKindFloat:
		return "Float"
	case PrimKindDouble:
		return "Double"
	case PrimKindChar:
		return "Char"
	default:
		return "String"
	}
}

// -----------------------------------------------------------------------------

// TupleElement is a single element of a tuple type.  Elements may carry a
// name, may be variadic (at most one per tuple), and may record that the
// originating declaration supplies a default value for the position.
type TupleElement struct {
	Name       string
	Type       DataType
	Variadic   bool
	HasDefault bool
}

// TupleType represents a named or positional tuple type such as
// `(Int, label: String)`.
type TupleType struct {
	Elements []TupleElement
}

func (tt *TupleType) equals(other DataType) bool {
	ott, ok := other.(*TupleType)
	if !ok || len(tt.Elements) != len(ott.Elements) {
		return false
	}

	for i, elem := range tt.Elements {
		oelem := ott.Elements[i]
		if elem.Name != oelem.Name || elem.Variadic != oelem.Variadic || elem.HasDefault != oelem.HasDefault {
			return false
		}

		if !Equals(elem.Type, oelem.Type) {
			return false
		}
	}

	return true
}

func (tt *TupleType) Repr() string {
	b := strings.Builder{}
	b.WriteRune('(')

	for i, elem := range tt.Elements {
		if i > 0 {
			b.WriteString(", ")
		}

		if elem.Name != "" {
			b.WriteString(elem.Name + ": ")
		}

		b.WriteString(elem.Type.Repr())

		if elem.Variadic {
			b.WriteString("...")
		}
	}

	b.WriteRune(')')
	return b.String()
}

// ElementNamed returns the index of the element with the given name or -1.
func (tt *TupleType) ElementNamed(name string) int {
	for i, elem := range tt.Elements {
		if elem.Name == name {
			return i
		}
	}

	return -1
}

// StripDefaults returns a copy of the tuple type with all default-value
// metadata removed.  The ranker compares bindings without this metadata.
func (tt *TupleType) StripDefaults() *TupleType {
	elems := make([]TupleElement, len(tt.Elements))
	for i, elem := range tt.Elements {
		elem.HasDefault = false
		elems[i] = elem
	}

	return &TupleType{Elements: elems}
}

// -----------------------------------------------------------------------------

// FuncType represents a Vela function type.  The input is a single type: a
// tuple for functions of more than one parameter.  The flags record whether
// the function is an auto-closure (its argument expression is implicitly
// wrapped in a thunk) and whether it never returns.
type FuncType struct {
	Input       DataType
	Result      DataType
	AutoClosure bool
	NoReturn    bool
}

func (ft *FuncType) equals(other DataType) bool {
	oft, ok := other.(*FuncType)
	if !ok {
		return false
	}

	return ft.AutoClosure == oft.AutoClosure &&
		ft.NoReturn == oft.NoReturn &&
		Equals(ft.Input, oft.Input) &&
		Equals(ft.Result, oft.Result)
}

func (ft *FuncType) Repr() string {
	b := strings.Builder{}

	if ft.AutoClosure {
		b.WriteString("@auto ")
	}

	if ft.NoReturn {
		b.WriteString("@noreturn ")
	}

	if _, ok := ft.Input.(*TupleType); ok {
		b.WriteString(ft.Input.Repr())
	} else {
		b.WriteRune('(')
		b.WriteString(ft.Input.Repr())
		b.WriteRune(')')
	}

	b.WriteString(" -> ")
	b.WriteString(ft.Result.Repr())
	return b.String()
}

// -----------------------------------------------------------------------------

// NominalType represents a named struct, enum, or class type with no generic
// arguments.  Two nominal types are equal exactly when they share a defining
// declaration.
type NominalType struct {
	Decl *TypeDecl
}

func (nt *NominalType) equals(other DataType) bool {
	if ont, ok := other.(*NominalType); ok {
		return nt.Decl == ont.Decl
	}

	return false
}

func (nt *NominalType) Repr() string {
	return nt.Decl.Name
}

// BoundGenericType represents a generic nominal type applied to a full set
// of generic arguments, eg. `Dict[String, Int]`.
type BoundGenericType struct {
	Decl *TypeDecl
	Args []DataType
}

func (bgt *BoundGenericType) equals(other DataType) bool {
	obgt, ok := other.(*BoundGenericType)
	if !ok || bgt.Decl != obgt.Decl || len(bgt.Args) != len(obgt.Args) {
		return false
	}

	for i, arg := range bgt.Args {
		if !Equals(arg, obgt.Args[i]) {
			return false
		}
	}

	return true
}

func (bgt *BoundGenericType) Repr() string {
	reprs := make([]string, len(bgt.Args))
	for i, arg := range bgt.Args {
		reprs[i] = arg.Repr()
	}

	return bgt.Decl.Name + "[" + strings.Join(reprs, ", ") + "]"
}

// UnboundGenericType represents a reference to a generic nominal declaration
// with its arguments not yet supplied.  The generic opener replaces these
// with bound-generic types over fresh type variables.
type UnboundGenericType struct {
	Decl *TypeDecl
}

func (ugt *UnboundGenericType) equals(other DataType) bool {
	if ougt, ok := other.(*UnboundGenericType); ok {
		return ugt.Decl == ougt.Decl
	}

	return false
}

func (ugt *UnboundGenericType) Repr() string {
	return ugt.Decl.Name + "[_]"
}

// -----------------------------------------------------------------------------

// ProtocolType represents a single interface ("protocol") used as a type: the
// existential of exactly one protocol.
type ProtocolType struct {
	Decl *ProtocolDecl
}

func (pt *ProtocolType) equals(other DataType) bool {
	if opt, ok := other.(*ProtocolType); ok {
		return pt.Decl == opt.Decl
	}

	return false
}

func (pt *ProtocolType) Repr() string {
	return pt.Decl.Name
}

// CompositionType represents an interface-composition existential: "some
// value conforming to all of these protocols".  An empty composition is the
// top type every value converts to.
type CompositionType struct {
	Protocols []*ProtocolDecl
}

func (ct *CompositionType) equals(other DataType) bool {
	oct, ok := other.(*CompositionType)
	if !ok || len(ct.Protocols) != len(oct.Protocols) {
		return false
	}

	for i, p := range ct.Protocols {
		if p != oct.Protocols[i] {
			return false
		}
	}

	return true
}

func (ct *CompositionType) Repr() string {
	if len(ct.Protocols) == 0 {
		return "Any"
	}

	names := make([]string, len(ct.Protocols))
	for i, p := range ct.Protocols {
		names[i] = p.Name
	}

	return strings.Join(names, " & ")
}

// -----------------------------------------------------------------------------

// OptionalType represents `T?`: either a value of the payload type or none.
type OptionalType struct {
	Value DataType
}

func (ot *OptionalType) equals(other DataType) bool {
	if oot, ok := other.(*OptionalType); ok {
		return Equals(ot.Value, oot.Value)
	}

	return false
}

func (ot *OptionalType) Repr() string {
	return ot.Value.Repr() + "?"
}

// ArrayType represents `[T]`, a homogeneous dynamic array.
type ArrayType struct {
	ElemType DataType
}

func (at *ArrayType) equals(other DataType) bool {
	if oat, ok := other.(*ArrayType); ok {
		return Equals(at.ElemType, oat.ElemType)
	}

	return false
}

func (at *ArrayType) Repr() string {
	return "[" + at.ElemType.Repr() + "]"
}

// -----------------------------------------------------------------------------

// MetaType is the type of a type value itself: the base of static member
// accesses and type-as-value expressions.
type MetaType struct {
	Instance DataType
}

func (mt *MetaType) equals(other DataType) bool {
	if omt, ok := other.(*MetaType); ok {
		return Equals(mt.Instance, omt.Instance)
	}

	return false
}

func (mt *MetaType) Repr() string {
	return mt.Instance.Repr() + ".Type"
}

// LValueType marks a type as denoting a settable storage location.  The
// qualifiers record whether assignment through the reference is permitted
// and whether the reference was materialized implicitly by the checker.
type LValueType struct {
	Object   DataType
	Settable bool
	Implicit bool
}

func (lv *LValueType) equals(other DataType) bool {
	if olv, ok := other.(*LValueType); ok {
		return lv.Settable == olv.Settable && lv.Implicit == olv.Implicit && Equals(lv.Object, olv.Object)
	}

	return false
}

func (lv *LValueType) Repr() string {
	if lv.Settable {
		return "@lvalue " + lv.Object.Repr()
	}

	return "@lvalue(const) " + lv.Object.Repr()
}

// -----------------------------------------------------------------------------

// GenericParamType is a reference to a declaration's generic parameter as
// written in its interface type, before opening.
type GenericParamType struct {
	Param *GenericParamDecl
}

func (gp *GenericParamType) equals(other DataType) bool {
	if ogp, ok := other.(*GenericParamType); ok {
		return gp.Param == ogp.Param
	}

	return false
}

func (gp *GenericParamType) Repr() string {
	return gp.Param.Name
}

// DependentType is a name dependent on another type: `Base.Member` where
// Member is an associated type of one of Base's protocols.  Dependent types
// only appear in unopened declaration types; the opener replaces them with
// fresh variables tied to their base.
type DependentType struct {
	Base DataType
	Name string
}

func (dt *DependentType) equals(other DataType) bool {
	if odt, ok := other.(*DependentType); ok {
		return dt.Name == odt.Name && Equals(dt.Base, odt.Base)
	}

	return false
}

func (dt *DependentType) Repr() string {
	return dt.Base.Repr() + "." + dt.Name
}

// GenericSlotType is the placeholder standing for one declaration's generic
// parameter within a specific instantiation context ("archetype").  A slot
// carries the bounds of the parameter it was opened from.
type GenericSlotType struct {
	Name      string
	Index     int
	Super     DataType
	Protocols []*ProtocolDecl
}

// generic slots have identity: two slots are the same type only if they are
// the same opened placeholder
func (gs *GenericSlotType) equals(other DataType) bool {
	return gs == other
}

func (gs *GenericSlotType) Repr() string {
	return "$" + gs.Name + strconv.Itoa(gs.Index)
}

// IsClassBounded returns whether the slot is known to be a class: it has a
// superclass bound or one of its protocol bounds is class-bound.
func (gs *GenericSlotType) IsClassBounded() bool {
	if gs.Super != nil {
		return true
	}

	for _, p := range gs.Protocols {
		if p.ClassBound {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// AliasType is sugar: a named alias for another type.  Aliases are erased by
// Desugar before any matching.
type AliasType struct {
	Name       string
	Underlying DataType
}

func (at *AliasType) equals(other DataType) bool {
	// aliases are desugared before equals is ever reached
	return Equals(at.Underlying, other)
}

func (at *AliasType) Repr() string {
	return at.Name
}

// ErrorType is the type of expressions whose declarations failed checking.
type ErrorType struct{}

func (et ErrorType) equals(other DataType) bool {
	_, ok := other.(ErrorType)
	return ok
}

func (et ErrorType) Repr() string {
	return "<error>"
}
