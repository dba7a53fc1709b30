package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates that no resolver provides the requested identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidIdentifier indicates an identifier a resolver cannot address.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrConflict indicates that more than one resolver provides the same version.
	ErrConflict = errors.New("conflicting package sources")
)

// Error is the error every resolver reports, wrapping the underlying cause
// with the operation and source that failed.
type Error struct {
	Op     string // Operation that failed, e.g. "get package"
	Source string // Name of the resolver
	ID     string // Identifier being resolved, if any
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("resolve: ")
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConflictError reports a version provided by several resolvers at once.
// Only Chain produces it, always wrapped in an *Error.
type ConflictError struct {
	ID      VersionID
	Count   int
	Sources []string
}

func (e *ConflictError) Error() string {
	if len(e.Sources) == 0 {
		return fmt.Sprintf("found %d sources of package %s", e.Count, e.ID)
	}
	return fmt.Sprintf("found %d sources of package %s (%s)", e.Count, e.ID, strings.Join(e.Sources, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewError wraps err as a resolver error for the given operation. Errors
// that already carry resolver context are returned unchanged.
func NewError(op, source, id string, err error) error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{Op: op, Source: source, ID: id, Err: err}
}
