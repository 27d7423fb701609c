package typing

// DataType is the interface for all data types in Vela.  Every type the
// solver manipulates -- including placeholders such as type variables and
// opened generic slots -- implements this interface.
type DataType interface {
	// Repr returns a string representing the data type
	Repr() string

	// equals takes in another DataType and returns whether the two data
	// types are exactly equal.  Both receiver and argument must already be
	// desugared.  It is meant to only be called internally.
	equals(other DataType) bool
}

// -----------------------------------------------------------------------------

// Equals computes equality between two data types after desugaring both
// sides.  This is the only equality test the matcher relies on: sugared
// aliases never influence matching.
func Equals(a, b DataType) bool {
	return Desugar(a).equals(Desugar(b))
}

// Desugar maps a possibly sugared type to its canonical form.  Aliases are
// expanded recursively; all other types are already canonical.  Desugaring
// never resolves type variables -- that is the solver's job.
func Desugar(dt DataType) DataType {
	for {
		alias, ok := dt.(*AliasType)
		if !ok {
			return dt
		}
		dt = alias.Underlying
	}
}

// StripLValue removes any outer mutable-reference wrapper from a type,
// yielding the underlying object type.
func StripLValue(dt DataType) DataType {
	if lv, ok := Desugar(dt).(*LValueType); ok {
		return lv.Object
	}
	return dt
}

// IsErrorType returns whether the given type is (after desugaring) the
// error type produced by failed declaration checking.  Error types silently
// satisfy every constraint so that one bad declaration does not cascade
// into a storm of derived diagnostics.
func IsErrorType(dt DataType) bool {
	_, ok := Desugar(dt).(ErrorType)
	return ok
}
