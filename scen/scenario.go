package scen

import (
	"vela/sem"
	"vela/typing"
)

// Scenario is one loaded solving scenario: a universe of declarations, one
// expression to check against it, and optionally the type the expression is
// expected to convert to.
type Scenario struct {
	// ID is a unique identifier for the scenario based on its file path
	ID uint

	// Name is the scenario's display name
	Name string

	// Path is the absolute path the scenario was loaded from
	Path string

	// Uni holds every declaration the scenario made
	Uni *sem.Universe

	// Expr is the expression to check
	Expr sem.Expr

	// Expected is the contextual type of the expression; nil when the
	// scenario leaves the expression free
	Expected typing.DataType
}
