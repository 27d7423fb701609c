package typing

// The generic opener instantiates a declaration's generic parameters and
// dependent (associated-type) references as fresh type variables within one
// context, emitting the bound constraints the parameters declare.  Openings
// are memoized per (base, member) pair so repeated references to the same
// dependent type share a single variable.

// opening is one memoized opening context.
type opening struct {
	s      *Solver
	loc    *Locator
	opener Opener

	// params maps each opened generic parameter to its replacement
	params map[*GenericParamDecl]DataType

	// dependents maps an opened dependent-type key to its variable
	dependents map[string]*TypeVariable
}

// openKey identifies an opening context for memoization.
type openKey struct {
	base   DataType
	member string
}

func (s *Solver) openingFor(base DataType, member string, loc *Locator, opener Opener) *opening {
	if opener == nil {
		opener = defaultOpener{}
	}

	key := openKey{base: base, member: member}
	if o, ok := s.openings[key]; ok {
		return o
	}

	o := &opening{
		s:          s,
		loc:        loc,
		opener:     opener,
		params:     make(map[*GenericParamDecl]DataType),
		dependents: make(map[string]*TypeVariable),
	}
	s.openings[key] = o
	return o
}

// -----------------------------------------------------------------------------

// openType opens a (possibly generic) type in a throwaway context: every
// generic parameter and dependent reference becomes a fresh variable.
func (s *Solver) openType(t DataType, loc *Locator, opener Opener) DataType {
	if opener == nil {
		opener = defaultOpener{}
	}

	o := &opening{
		s:          s,
		loc:        loc,
		opener:     opener,
		params:     make(map[*GenericParamDecl]DataType),
		dependents: make(map[string]*TypeVariable),
	}
	return o.open(t)
}

// openMemberType opens a member declaration's unopened interface type
// against the given base type.  Generic parameters of the base's defining
// declaration are substituted with the base's generic arguments first; the
// member's own parameters are then opened as fresh variables, memoized per
// (base, member).
func (s *Solver) openMemberType(decl *ValueDecl, base DataType, loc *Locator, opener Opener) DataType {
	t := decl.Type

	baseObj := Desugar(StripLValue(base))
	if mt, ok := baseObj.(*MetaType); ok {
		baseObj = Desugar(mt.Instance)
	}

	if bg, ok := baseObj.(*BoundGenericType); ok {
		t = substituteGenericParams(t, bg.Decl, bg.Args)
	}

	o := s.openingFor(baseObj, decl.Name, loc, opener)
	return o.open(t)
}

// open walks a type, replacing generic parameters and dependent references.
func (o *opening) open(t DataType) DataType {
	switch v := Desugar(t).(type) {
	case *GenericParamType:
		return o.openParam(v.Param)

	case *DependentType:
		base := o.open(v.Base)
		return o.openDependent(base, v.Name)

	case *UnboundGenericType:
		// opening an unbound generic reference opens its declaration's
		// parameters and rebuilds a bound form over the replacements
		args := make([]DataType, len(v.Decl.GenericParams))
		for i, param := range v.Decl.GenericParams {
			args[i] = o.openParam(param)
		}

		return &BoundGenericType{Decl: v.Decl, Args: args}

	case *TupleType:
		elems := make([]TupleElement, len(v.Elements))
		for i, elem := range v.Elements {
			elem.Type = o.open(elem.Type)
			elems[i] = elem
		}

		return &TupleType{Elements: elems}

	case *FuncType:
		return &FuncType{
			Input:       o.open(v.Input),
			Result:      o.open(v.Result),
			AutoClosure: v.AutoClosure,
			NoReturn:    v.NoReturn,
		}

	case *BoundGenericType:
		args := make([]DataType, len(v.Args))
		for i, arg := range v.Args {
			args[i] = o.open(arg)
		}

		return &BoundGenericType{Decl: v.Decl, Args: args}

	case *OptionalType:
		return &OptionalType{Value: o.open(v.Value)}

	case *ArrayType:
		return &ArrayType{ElemType: o.open(v.ElemType)}

	case *MetaType:
		return &MetaType{Instance: o.open(v.Instance)}

	case *LValueType:
		return &LValueType{Object: o.open(v.Object), Settable: v.Settable, Implicit: v.Implicit}

	default:
		return v
	}
}

// openParam replaces one generic parameter, emitting a conformance or
// subtype constraint for each declared bound.  The opener capability may
// supply a concrete replacement in place of a fresh variable.
func (o *opening) openParam(param *GenericParamDecl) DataType {
	if repl, ok := o.params[param]; ok {
		return repl
	}

	var repl DataType
	if supplied := o.opener.ReplaceGenericParam(param); supplied != nil {
		repl = supplied
	} else {
		repl = o.s.vars.newVar(o.s, o.loc, 0)
	}

	o.params[param] = repl

	if param.Super != nil {
		o.s.AddConstraint(ConsSubtype, repl, o.open(param.Super), o.loc)
	}

	for _, proto := range param.Protocols {
		o.s.AddConformsConstraint(ConsConformsTo, repl, proto, o.loc)

		// tie each associated type of the bound to its opened owner
		for _, assoc := range proto.AssociatedTypes {
			if !o.opener.ShouldBindAssociatedType(assoc) {
				continue
			}

			o.openDependent(repl, assoc)
		}
	}

	return repl
}

// openDependent replaces a dependent reference `base.name`, binding the
// fresh variable to its owner with a type-member constraint.
func (o *opening) openDependent(base DataType, name string) DataType {
	key := base.Repr() + "." + name
	if tv, ok := o.dependents[key]; ok {
		return tv
	}

	tv := o.s.vars.newVar(o.s, o.loc, 0)
	o.dependents[key] = tv
	o.s.AddTypeMemberConstraint(base, name, tv, o.loc)
	return tv
}

// -----------------------------------------------------------------------------

// substituteGenericParams replaces references to decl's generic parameters
// in t with the corresponding arguments.
func substituteGenericParams(t DataType, decl *TypeDecl, args []DataType) DataType {
	return substituteType(t, func(param *GenericParamDecl) DataType {
		for i, dp := range decl.GenericParams {
			if dp == param && i < len(args) {
				return args[i]
			}
		}

		return nil
	})
}

// substituteType structurally rebuilds t, replacing generic parameter
// references for which the callback supplies a type.
func substituteType(t DataType, replace func(*GenericParamDecl) DataType) DataType {
	switch v := t.(type) {
	case *GenericParamType:
		if repl := replace(v.Param); repl != nil {
			return repl
		}

		return v

	case *DependentType:
		return &DependentType{Base: substituteType(v.Base, replace), Name: v.Name}

	case *TupleType:
		elems := make([]TupleElement, len(v.Elements))
		for i, elem := range v.Elements {
			elem.Type = substituteType(elem.Type, replace)
			elems[i] = elem
		}

		return &TupleType{Elements: elems}

	case *FuncType:
		return &FuncType{
			Input:       substituteType(v.Input, replace),
			Result:      substituteType(v.Result, replace),
			AutoClosure: v.AutoClosure,
			NoReturn:    v.NoReturn,
		}

	case *BoundGenericType:
		args := make([]DataType, len(v.Args))
		for i, arg := range v.Args {
			args[i] = substituteType(arg, replace)
		}

		return &BoundGenericType{Decl: v.Decl, Args: args}

	case *OptionalType:
		return &OptionalType{Value: substituteType(v.Value, replace)}

	case *ArrayType:
		return &ArrayType{ElemType: substituteType(v.ElemType, replace)}

	case *MetaType:
		return &MetaType{Instance: substituteType(v.Instance, replace)}

	case *LValueType:
		return &LValueType{Object: substituteType(v.Object, replace), Settable: v.Settable, Implicit: v.Implicit}

	case *AliasType:
		return substituteType(v.Underlying, replace)

	default:
		return v
	}
}
