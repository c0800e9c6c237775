package keys

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentityNotFound is returned by Lookup for names never generated.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityExists is returned when a name is generated twice.
	ErrIdentityExists = errors.New("identity already exists")
)

// ParseError reports wallet output that does not have the expected shape.
type ParseError struct {
	Op     string
	Output string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected output from wallet %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UserMessage includes the raw output so format changes are easy to spot.
func (e *ParseError) UserMessage() string {
	return fmt.Sprintf("%s\n  output: %q", e.Error(), e.Output)
}
