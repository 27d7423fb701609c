package sem

import (
	"vela/typing"
)

// Operator represents a global operator definition.  All operators are
// "consistent" across definitions which essentially means they can be
// accumulated into one overload set: every overload of `+` takes the same
// number of operands, so applications can treat the operator as one
// overloaded function and let the solver choose among its overloads.
type Operator struct {
	// Name is the name of the operator as a string
	Name string

	// Arity is the operand count every overload must share
	Arity int

	// Overloads is the list of defined overloads for this operator
	Overloads []*typing.ValueDecl
}

// AddOverload adds a new operator overload to this operator, rejecting
// overloads that collide with an existing one
func (op *Operator) AddOverload(newOverload *typing.ValueDecl) bool {
	for _, overload := range op.Overloads {
		if typing.Equals(overload.Type, newOverload.Type) {
			return false
		}
	}

	op.Overloads = append(op.Overloads, newOverload)
	return true
}

// GetOperatorFromTable looks up an operator by name and arity and returns it
// if it exists in an operator table.
func GetOperatorFromTable(table map[string][]*Operator, name string, arity int) (*Operator, bool) {
	if operatorSet, ok := table[name]; ok {
		for _, operator := range operatorSet {
			if operator.Arity == arity {
				return operator, true
			}
		}
	}

	return nil, false
}
