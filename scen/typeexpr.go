package scen

import (
	"fmt"
	"strings"

	"vela/logging"
	"vela/sem"
	"vela/typing"
)

// This file implements the compact type notation scenarios use to write
// types as strings, eg. `(x: Int, y: Int = _) -> [Shape]?`.  The grammar:
//
//   type     := attr* postfix
//   attr     := '@auto' | '@noreturn' | '@lvalue'
//   postfix  := atom {'?' | '.' NAME}
//   atom     := '(' [elem {',' elem}] ')' ['->' type]
//            | '[' type ']'
//            | NAME ['<' type {',' type} '>'] {'&' NAME}
//   elem     := [NAME ':'] type ['...'] ['=' '_']
//
// `T.Type` is the metatype of T; `T.Name` on a generic parameter is a
// dependent type; `P & Q` is a protocol composition.

// notationError is a parse error with the offending span of the source
type notationError struct {
	msg        string
	start, end int
}

func (ne *notationError) Error() string {
	return ne.msg
}

// Span converts the error's range into a logging span
func (ne *notationError) Span() *logging.TextSpan {
	return &logging.TextSpan{Start: ne.start, End: ne.end}
}

// typeParser is a recursive-descent parser over one notation string
type typeParser struct {
	src string
	pos int

	uni *sem.Universe

	// scope maps generic parameter names visible in this notation
	scope map[string]*typing.GenericParamDecl
}

var primNames = map[string]typing.PrimType{
	"Unit":   typing.PrimType(typing.PrimKindUnit),
	"Bool":   typing.PrimType(typing.PrimKindBool),
	"Int":    typing.PrimType(typing.PrimKindInt),
	"Int64":  typing.PrimType(typing.PrimKindInt64),
	"Float":  typing.PrimType(typing.PrimKindFloat),
	"Double": typing.PrimType(typing.PrimKindDouble),
	"Char":   typing.PrimType(typing.PrimKindChar),
	"String": typing.PrimType(typing.PrimKindString),
}

// ParseType parses a type notation string against the universe's declared
// names.  `scope` supplies the generic parameters in scope, if any.
func ParseType(src string, uni *sem.Universe, scope map[string]*typing.GenericParamDecl) (typing.DataType, error) {
	p := &typeParser{src: src, uni: uni, scope: scope}

	dt, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorAt(p.pos, len(p.src), "unexpected trailing text")
	}

	return dt, nil
}

func (p *typeParser) errorAt(start, end int, format string, args ...interface{}) error {
	return &notationError{msg: fmt.Sprintf(format, args...), start: start, end: end}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// accept consumes the literal token if it is next
func (p *typeParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}

	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return p.errorAt(p.pos, p.pos+1, "expected `%s`", tok)
	}

	return nil
}

func isNameByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_':
		return true
	case b >= '0' && b <= '9':
		return !first
	default:
		return false
	}
}

// name consumes an identifier, returning it and its start offset
func (p *typeParser) name() (string, int, bool) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}

	return p.src[start:p.pos], start, p.pos > start
}

// peekName reports whether an identifier is next without consuming it
func (p *typeParser) peekName() bool {
	p.skipSpace()
	return p.pos < len(p.src) && isNameByte(p.src[p.pos], true)
}

// -----------------------------------------------------------------------------

func (p *typeParser) parseType() (typing.DataType, error) {
	auto, noReturn, lvalue := false, false, false

	for p.accept("@") {
		attr, start, ok := p.name()
		if !ok {
			return nil, p.errorAt(start, start+1, "expected attribute name after `@`")
		}

		switch attr {
		case "auto":
			auto = true
		case "noreturn":
			noReturn = true
		case "lvalue":
			lvalue = true
		default:
			return nil, p.errorAt(start, p.pos, "unknown type attribute `%s`", attr)
		}
	}

	dt, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if auto || noReturn {
		fn, ok := dt.(*typing.FuncType)
		if !ok {
			return nil, p.errorAt(0, p.pos, "function attribute on a non-function type")
		}

		fn.AutoClosure = auto
		fn.NoReturn = noReturn
	}

	if lvalue {
		dt = &typing.LValueType{Object: dt, Settable: true}
	}

	return dt, nil
}

func (p *typeParser) parsePostfix() (typing.DataType, error) {
	dt, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		// a variadic marker belongs to the enclosing tuple element
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "...") {
			return dt, nil
		}

		switch {
		case p.accept("?"):
			dt = &typing.OptionalType{Value: dt}

		case p.accept("."):
			member, start, ok := p.name()
			if !ok {
				return nil, p.errorAt(start, start+1, "expected name after `.`")
			}

			if member == "Type" {
				dt = &typing.MetaType{Instance: dt}
				continue
			}

			switch dt.(type) {
			case *typing.GenericParamType, *typing.DependentType:
				dt = &typing.DependentType{Base: dt, Name: member}
			default:
				return nil, p.errorAt(start, p.pos, "`%s` is not a dependent type position", member)
			}

		default:
			return dt, nil
		}
	}
}

func (p *typeParser) parseAtom() (typing.DataType, error) {
	if p.accept("(") {
		return p.parseTupleOrFunc()
	}

	if p.accept("[") {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}

		if err := p.expect("]"); err != nil {
			return nil, err
		}

		return &typing.ArrayType{ElemType: elem}, nil
	}

	return p.parseNamed()
}

// parseTupleOrFunc parses the remainder of a parenthesized element list,
// yielding a function type when `->` follows, a bare grouped type for a
// single plain element, and a tuple type otherwise.
func (p *typeParser) parseTupleOrFunc() (typing.DataType, error) {
	var elems []typing.TupleElement
	plainSingle := false

	if !p.accept(")") {
		for {
			elem, plain, err := p.parseElement()
			if err != nil {
				return nil, err
			}

			elems = append(elems, elem)
			plainSingle = plain

			if p.accept(",") {
				continue
			}

			if err := p.expect(")"); err != nil {
				return nil, err
			}

			break
		}
	}

	input := &typing.TupleType{Elements: elems}

	if p.accept("->") {
		result, err := p.parseType()
		if err != nil {
			return nil, err
		}

		return &typing.FuncType{Input: input, Result: result}, nil
	}

	// `(T)` is grouping, not a one-tuple
	if len(elems) == 1 && plainSingle {
		return elems[0].Type, nil
	}

	return input, nil
}

// parseElement parses one tuple element; it reports whether the element was
// a plain unnamed, unqualified type
func (p *typeParser) parseElement() (typing.TupleElement, bool, error) {
	var elem typing.TupleElement

	// a label is a name followed by `:`
	save := p.pos
	if name, _, ok := p.name(); ok && p.accept(":") {
		elem.Name = name
	} else {
		p.pos = save
	}

	dt, err := p.parseType()
	if err != nil {
		return elem, false, err
	}

	elem.Type = dt
	plain := elem.Name == ""

	if p.accept("...") {
		elem.Variadic = true
		plain = false
	}

	if p.accept("=") {
		if err := p.expect("_"); err != nil {
			return elem, false, err
		}

		elem.HasDefault = true
		plain = false
	}

	return elem, plain, nil
}

func (p *typeParser) parseNamed() (typing.DataType, error) {
	name, start, ok := p.name()
	if !ok {
		return nil, p.errorAt(start, start+1, "expected a type")
	}

	dt, err := p.resolveName(name, start)
	if err != nil {
		return nil, err
	}

	// protocol composition
	if p.accept("&") {
		protos, perr := composedProtocols(dt)
		if perr != nil {
			return nil, p.errorAt(start, p.pos, "`%s` cannot appear in a composition", name)
		}

		for {
			rhsName, rhsStart, ok := p.name()
			if !ok {
				return nil, p.errorAt(rhsStart, rhsStart+1, "expected a protocol name after `&`")
			}

			proto, ok := p.uni.Protocols[rhsName]
			if !ok {
				return nil, p.errorAt(rhsStart, p.pos, "`%s` is not a protocol", rhsName)
			}

			protos = append(protos, proto)
			if !p.accept("&") {
				break
			}
		}

		return &typing.CompositionType{Protocols: protos}, nil
	}

	return dt, nil
}

func composedProtocols(dt typing.DataType) ([]*typing.ProtocolDecl, error) {
	switch v := dt.(type) {
	case *typing.ProtocolType:
		return []*typing.ProtocolDecl{v.Decl}, nil
	case *typing.CompositionType:
		return v.Protocols, nil
	default:
		return nil, fmt.Errorf("not a protocol")
	}
}

func (p *typeParser) resolveName(name string, start int) (typing.DataType, error) {
	if param, ok := p.scope[name]; ok {
		return &typing.GenericParamType{Param: param}, nil
	}

	if prim, ok := primNames[name]; ok {
		return prim, nil
	}

	if decl, ok := p.uni.Types[name]; ok {
		if p.accept("<") {
			var args []typing.DataType
			for {
				arg, err := p.parseType()
				if err != nil {
					return nil, err
				}

				args = append(args, arg)
				if !p.accept(",") {
					break
				}
			}

			if err := p.expect(">"); err != nil {
				return nil, err
			}

			if len(args) != len(decl.GenericParams) {
				return nil, p.errorAt(start, p.pos,
					"`%s` takes %d generic arguments, not %d", name, len(decl.GenericParams), len(args))
			}

			return &typing.BoundGenericType{Decl: decl, Args: args}, nil
		}

		if decl.IsGeneric() {
			return &typing.UnboundGenericType{Decl: decl}, nil
		}

		return &typing.NominalType{Decl: decl}, nil
	}

	if proto, ok := p.uni.Protocols[name]; ok {
		return &typing.ProtocolType{Decl: proto}, nil
	}

	return nil, p.errorAt(start, p.pos, "undefined type name `%s`", name)
}
