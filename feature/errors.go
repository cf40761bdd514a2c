package feature

// Error represents the categories of errors shared by the
// packages of this module. Callers are expected to compare
// wrapped errors against them with errors.Is.
type Error string

const (
	// ErrConfiguration is returned when a schema, tree or
	// split cannot be constructed because of an unknown
	// or unsupported setting.
	ErrConfiguration = Error("configuration error")
	// ErrSchemaMismatch is returned when an instance or a
	// label does not conform to the schema. It is
	// recoverable: the rejected input leaves no trace.
	ErrSchemaMismatch = Error("schema mismatch")
	// ErrTypeMismatch is the ErrSchemaMismatch returned
	// when a single value does not belong to the domain of
	// its feature.
	ErrTypeMismatch = Error("type mismatch")
	// ErrInvariantViolation reports internal state that
	// disagrees with itself. It signals a defect, not a
	// condition callers are expected to recover from.
	ErrInvariantViolation = Error("invariant violation")
)

func (e Error) Error() string {
	return string(e)
}

// Is allows ErrTypeMismatch to match ErrSchemaMismatch.
func (e Error) Is(target error) bool {
	return e == ErrTypeMismatch && target == ErrSchemaMismatch
}
