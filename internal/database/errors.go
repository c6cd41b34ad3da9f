package database

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a document or vocabulary entry does not exist
var ErrNotFound = errors.New("not found")

// PersistenceError reports a failed durable write of a document
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
