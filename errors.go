package omnifs

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotFound is returned when a file or directory does not exist.
	//
	// Backends return an error satisfying `errors.Is(err, ErrNotFound)`.
	// The default maps to `os.ErrNotExist`.
	ErrNotFound = os.ErrNotExist

	// ErrNotSupported is returned for operations a backend cannot provide,
	// e.g. Glob on object storage or writes into an archive.
	ErrNotSupported = errors.New("operation not supported")

	// ErrForked is returned when a backend resource cannot be safely
	// recreated in a forked child process.
	ErrForked = errors.New("process forked while holding an unsafe resource")

	// ErrCreateNotSupported is returned when the create option is combined
	// with an archive-wrapped target.
	ErrCreateNotSupported = errors.New(`"create" option is not supported for archive targets`)
)

// UnknownSchemeError indicates a URL scheme that maps to no registered
// backend, directly or through the custom scheme configuration.
type UnknownSchemeError struct {
	Scheme string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("scheme %q is not supported", e.Scheme)
}

// SchemeMismatchError indicates a forced backend type that contradicts the
// scheme parsed from the URL.
type SchemeMismatchError struct {
	Forced string
	Parsed string
}

func (e *SchemeMismatchError) Error() string {
	return fmt.Sprintf("URL scheme %q mismatch with forced type %q", e.Parsed, e.Forced)
}

// InvalidPathError indicates a path rejected by SubFS validation.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// OutOfRangeError indicates a cache index outside the valid domain
// [0, Length).
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Length)
}
