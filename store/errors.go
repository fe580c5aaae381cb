package store

import "errors"

var (
	// ErrInvalidSchema is returned when a schema declaration or lookup is given
	// malformed input, such as a blank table, attribute, or index name.
	ErrInvalidSchema = errors.New("facet: invalid schema declaration")

	// ErrDuplicateDeclaration is returned when a second, conflicting structural
	// declaration is made for the same entity type (a second table name, a
	// second partition key, or a second per-index key of the same kind).
	ErrDuplicateDeclaration = errors.New("facet: duplicate schema declaration")

	// ErrMissingSchema is returned when an operation requires a structural fact
	// (table name, partition key, or a referenced sort key) that was never
	// declared for the entity type.
	ErrMissingSchema = errors.New("facet: schema not declared")

	// ErrNotFound is returned when a point read finds no item at the given key.
	ErrNotFound = errors.New("facet: item not found")

	// ErrInvalidInput is returned when a required argument is absent, such as a
	// nil item passed to Create or Put.
	ErrInvalidInput = errors.New("facet: invalid input")
)
