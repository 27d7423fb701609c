package sem

import (
	"vela/logging"
	"vela/typing"
)

// Checker generates typing constraints for one expression tree and drives
// the solver over them.  One Checker checks one expression; its anchors and
// variables belong to the solver it owns.
type Checker struct {
	uni  *Universe
	lctx *logging.LogContext

	solver *typing.Solver

	// nextAnchor numbers expression nodes for constraint locators
	nextAnchor int
}

// NewChecker creates a checker for one expression against a universe
func NewChecker(uni *Universe, lctx *logging.LogContext) *Checker {
	return &Checker{
		uni:    uni,
		lctx:   lctx,
		solver: typing.NewSolver(uni),
	}
}

// Solver exposes the checker's solver, mainly for dumping its state
func (c *Checker) Solver() *typing.Solver {
	return c.solver
}

// Check generates constraints for the expression, solves them, and applies
// the best solution back onto the expression tree.  When `expected` is not
// nil the expression must additionally convert to it.
func (c *Checker) Check(expr Expr, expected typing.DataType) (*typing.Solution, bool) {
	exprType := c.GenerateConstraints(expr)

	if expected != nil {
		c.solver.AddConstraint(typing.ConsConversion, exprType, expected, c.freshLoc())
	}

	solutions := c.solver.Solve()
	if len(solutions) == 0 {
		if failure := c.solver.Failure(); failure != nil {
			logging.LogCheckError(c.lctx, failure.Message(), logging.LMKTyping)
		} else {
			logging.LogCheckError(c.lctx, "expression is ambiguous without more context", logging.LMKTyping)
		}

		return nil, false
	}

	best, ok := c.solver.FindBestSolution(solutions)
	if !ok {
		logging.LogCheckError(c.lctx, "ambiguous use of overloaded name", logging.LMKOverload)
		return nil, false
	}

	c.applySolution(expr, best)
	return best, true
}

func (c *Checker) freshLoc() *typing.Locator {
	loc := c.solver.Locate(c.nextAnchor)
	c.nextAnchor++
	return loc
}

// -----------------------------------------------------------------------------

// GenerateConstraints walks the expression bottom-up, assigning each node a
// type (usually a fresh variable) and queueing the constraints relating it
// to its children.
func (c *Checker) GenerateConstraints(expr Expr) typing.DataType {
	switch v := expr.(type) {
	case *Literal:
		v.SetType(v.Kind)
		return v.Kind

	case *NameRef:
		return c.generateNameRef(v)

	case *MemberAccess:
		rootType := c.GenerateConstraints(v.Root)
		loc := c.freshLoc()

		tv := c.solver.NewTypeVariable(loc, typing.TVCanBindLValue)
		c.solver.AddValueMemberConstraint(rootType, v.MemberName, tv,
			c.solver.LocateStep(loc, typing.StepMember, 0))

		v.SetType(tv)
		return tv

	case *Call:
		fnType := c.GenerateConstraints(v.Fn)

		elems := make([]typing.TupleElement, len(v.Args))
		for i, arg := range v.Args {
			elems[i] = typing.TupleElement{
				Name: arg.Name,
				Type: c.GenerateConstraints(arg.Value),
			}
		}

		loc := c.freshLoc()
		resultType := c.solver.NewTypeVariable(loc, 0)

		c.solver.AddApplicableFuncConstraint(&typing.FuncType{
			Input:  &typing.TupleType{Elements: elems},
			Result: resultType,
		}, fnType, loc)

		v.SetType(resultType)
		return resultType

	case *OperApp:
		return c.generateOperApp(v)

	case *TupleLit:
		elems := make([]typing.TupleElement, len(v.Fields))
		for i, field := range v.Fields {
			elems[i] = typing.TupleElement{
				Name: field.Name,
				Type: c.GenerateConstraints(field.Value),
			}
		}

		tt := &typing.TupleType{Elements: elems}
		v.SetType(tt)
		return tt

	case *ArrayLit:
		loc := c.freshLoc()
		elemType := c.solver.NewTypeVariable(loc, typing.TVPrefersSubtype)

		// every element must convert to one shared element type; the ranker
		// prefers the narrowest type that admits them all
		for i, elem := range v.Elements {
			c.solver.AddConstraint(typing.ConsConversion, c.GenerateConstraints(elem), elemType,
				c.solver.LocateStep(loc, typing.StepArrayElement, i))
		}

		at := &typing.ArrayType{ElemType: elemType}
		v.SetType(at)
		return at

	case *Cast:
		srcType := c.GenerateConstraints(v.Src)
		loc := c.freshLoc()

		c.solver.AddCheckedCastConstraint(srcType, v.Dest, loc)

		var resultType typing.DataType = v.Dest
		if v.Conditional {
			resultType = &typing.OptionalType{Value: v.Dest}
		}

		v.SetType(resultType)
		return resultType

	default:
		logging.LogFatal("constraint generation over an unknown expression form")
		return nil
	}
}

func (c *Checker) generateNameRef(v *NameRef) typing.DataType {
	loc := c.freshLoc()

	if sym, ok := c.uni.GlobalTable[v.Name]; ok {
		v.Sym = sym
		if sym.Settable() {
			v.cat = LValue
		}

		tv := c.solver.NewTypeVariable(loc, typing.TVCanBindLValue)

		choices := make([]*typing.OverloadChoice, len(sym.Overloads))
		for i, decl := range sym.Overloads {
			choices[i] = &typing.OverloadChoice{Kind: typing.ChoiceDecl, Decl: decl}
		}

		c.solver.AddOverloadSet(tv, choices, loc)
		v.SetType(tv)
		return tv
	}

	// a bare type name yields the type itself, enabling `T(args)` and
	// static member access
	if decl, ok := c.uni.Types[v.Name]; ok {
		var instance typing.DataType
		if decl.IsGeneric() {
			instance = &typing.UnboundGenericType{Decl: decl}
		} else {
			instance = &typing.NominalType{Decl: decl}
		}

		mt := &typing.MetaType{Instance: instance}
		v.SetType(mt)
		return mt
	}

	logging.LogCheckError(c.lctx, "undefined name: "+v.Name, logging.LMKScenario)
	v.SetType(typing.ErrorType{})
	return typing.ErrorType{}
}

func (c *Checker) generateOperApp(v *OperApp) typing.DataType {
	loc := c.freshLoc()

	fnVar := c.solver.NewTypeVariable(loc, 0)
	choices := make([]*typing.OverloadChoice, len(v.Oper.Overloads))
	for i, decl := range v.Oper.Overloads {
		choices[i] = &typing.OverloadChoice{Kind: typing.ChoiceDecl, Decl: decl}
	}

	c.solver.AddOverloadSet(fnVar, choices, loc)

	elems := make([]typing.TupleElement, len(v.Operands))
	for i, operand := range v.Operands {
		elems[i] = typing.TupleElement{Type: c.GenerateConstraints(operand)}
	}

	resultType := c.solver.NewTypeVariable(loc, 0)
	c.solver.AddApplicableFuncConstraint(&typing.FuncType{
		Input:  &typing.TupleType{Elements: elems},
		Result: resultType,
	}, fnVar, loc)

	v.SetType(resultType)
	return resultType
}

// -----------------------------------------------------------------------------

// applySolution rewrites every node's type variable to the solution's
// resolved type
func (c *Checker) applySolution(expr Expr, sol *typing.Solution) {
	switch v := expr.(type) {
	case *Literal:

	case *NameRef:
		c.applyNodeType(&v.ExprBase, sol)

	case *MemberAccess:
		c.applySolution(v.Root, sol)
		c.applyNodeType(&v.ExprBase, sol)

	case *Call:
		c.applySolution(v.Fn, sol)
		for _, arg := range v.Args {
			c.applySolution(arg.Value, sol)
		}

		c.applyNodeType(&v.ExprBase, sol)

	case *OperApp:
		for _, operand := range v.Operands {
			c.applySolution(operand, sol)
		}

		c.applyNodeType(&v.ExprBase, sol)

	case *TupleLit:
		for _, field := range v.Fields {
			c.applySolution(field.Value, sol)
		}

		c.applyNodeType(&v.ExprBase, sol)

	case *ArrayLit:
		for _, elem := range v.Elements {
			c.applySolution(elem, sol)
		}

		c.applyNodeType(&v.ExprBase, sol)

	case *Cast:
		c.applySolution(v.Src, sol)
	}
}

func (c *Checker) applyNodeType(eb *ExprBase, sol *typing.Solution) {
	eb.SetType(sol.Resolve(eb.Type()))
}
