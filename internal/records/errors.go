package records

import (
	"errors"
	"fmt"
)

// IndexError reports a position that does not exist in the store, usually
// a UI that rendered an older version of the list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("records: index %d out of range [0,%d)", e.Index, e.Len)
}

// PersistenceError reports a failed read or write of the backing store.
// On a failed write the in-memory sequence is still correct.
type PersistenceError struct {
	Op  string // "load" or "persist"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("records: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsIndexError reports whether err carries an *IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}

// IsPersistenceError reports whether err carries a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
