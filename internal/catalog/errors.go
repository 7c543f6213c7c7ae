// internal/catalog/errors.go
package catalog

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched with errors.Is. The typed errors below carry the
// offending ISBN and unwrap to one of these.
var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// DuplicateKeyError is returned by AddItem when the ISBN is already cataloged.
type DuplicateKeyError struct {
	ID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("Book with ISBN %s already exists.", e.ID)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// NotFoundError is returned when no item has the ISBN.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Book with ISBN %s not found.", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError is returned when a borrow or return does not match the
// item's current state.
type InvalidStateError struct {
	ID      string
	Current State
}

func (e *InvalidStateError) Error() string {
	if e.Current == StateBorrowed {
		return fmt.Sprintf("Book with ISBN %s is already borrowed.", e.ID)
	}
	return fmt.Sprintf("Book with ISBN %s is not borrowed.", e.ID)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ErrorID extracts the ISBN from any of the catalog error kinds.
func ErrorID(err error) (string, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.ID, true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.ID, true
	}
	var inv *InvalidStateError
	if errors.As(err, &inv) {
		return inv.ID, true
	}
	return "", false
}
