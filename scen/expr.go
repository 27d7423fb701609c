package scen

import (
	"fmt"

	"vela/sem"
)

// buildExpr converts a decoded TOML expression node into the checker's
// expression form.
func (l *scenarioLoader) buildExpr(te *tomlExpr) (sem.Expr, error) {
	switch te.Kind {
	case "lit":
		prim, ok := primNames[te.Type]
		if !ok {
			return nil, fmt.Errorf("literal of unknown primitive type `%s`", te.Type)
		}

		return &sem.Literal{Value: te.Value, Kind: prim}, nil

	case "name":
		if te.Name == "" {
			return nil, fmt.Errorf("name expression missing a name")
		}

		return &sem.NameRef{Name: te.Name}, nil

	case "member":
		if te.Root == nil || te.Name == "" {
			return nil, fmt.Errorf("member expression missing its root or member name")
		}

		root, err := l.buildExpr(te.Root)
		if err != nil {
			return nil, err
		}

		return &sem.MemberAccess{Root: root, MemberName: te.Name}, nil

	case "call":
		if te.Fn == nil {
			return nil, fmt.Errorf("call expression missing its callee")
		}

		fn, err := l.buildExpr(te.Fn)
		if err != nil {
			return nil, err
		}

		args, err := l.buildArgs(te.Args)
		if err != nil {
			return nil, err
		}

		return &sem.Call{Fn: fn, Args: args}, nil

	case "oper":
		op, ok := sem.GetOperatorFromTable(l.uni.GlobalOperators, te.Name, len(te.Operands))
		if !ok {
			return nil, fmt.Errorf("no operator `%s` over %d operands", te.Name, len(te.Operands))
		}

		operands := make([]sem.Expr, len(te.Operands))
		for i, to := range te.Operands {
			operand, err := l.buildExpr(to)
			if err != nil {
				return nil, err
			}

			operands[i] = operand
		}

		return &sem.OperApp{Oper: op, Operands: operands}, nil

	case "tuple":
		fields, err := l.buildArgs(te.Fields)
		if err != nil {
			return nil, err
		}

		return &sem.TupleLit{Fields: fields}, nil

	case "array":
		elems := make([]sem.Expr, len(te.Elements))
		for i, tel := range te.Elements {
			elem, err := l.buildExpr(tel)
			if err != nil {
				return nil, err
			}

			elems[i] = elem
		}

		return &sem.ArrayLit{Elements: elems}, nil

	case "cast":
		if te.Src == nil || te.Dest == "" {
			return nil, fmt.Errorf("cast expression missing its source or destination")
		}

		src, err := l.buildExpr(te.Src)
		if err != nil {
			return nil, err
		}

		dest, err := l.parseType(te.Dest, nil)
		if err != nil {
			return nil, err
		}

		return &sem.Cast{Src: src, Dest: dest, Conditional: te.Conditional}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind `%s`", te.Kind)
	}
}

func (l *scenarioLoader) buildArgs(targs []*tomlArg) ([]sem.Arg, error) {
	args := make([]sem.Arg, len(targs))
	for i, ta := range targs {
		if ta.Value == nil {
			return nil, fmt.Errorf("argument %d missing its value", i)
		}

		value, err := l.buildExpr(ta.Value)
		if err != nil {
			return nil, err
		}

		args[i] = sem.Arg{Name: ta.Label, Value: value}
	}

	return args, nil
}
