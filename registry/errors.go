package registry

import "errors"

// ErrNotFound is returned by ResolveSingle when a match identifier
// resolves to zero entries.
var ErrNotFound = errors.New("registry: not found")

// ErrMalformedIdentifier is returned when a match identifier's tag
// predicate syntax is malformed (unclosed or out-of-order angle brackets).
var ErrMalformedIdentifier = errors.New("registry: malformed match identifier")

// TypeMismatchError is returned by Set when a key is type-associated and
// the supplied value is not assignable to that type.
type TypeMismatchError struct {
	Key      string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return "registry: key " + e.Key + " expects type " + e.Expected + ", got " + e.Got
}
