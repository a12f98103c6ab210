package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for a collection with no records.
	ErrEmpty = errors.New("collection is empty")
	// ErrDuplicateID is returned when two records share an ID.
	ErrDuplicateID = errors.New("duplicate record id")
)

// LoadError describes a failed collection load. It is memoised by the
// Loader, so every later Load returns the same error.
type LoadError struct {
	// Op is the step that failed: "fetch", "decode" or "validate".
	Op string
	// Source is where the collection was read from.
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load collection %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
