// Package errs collects the sentinel errors shared by writer, reader, and
// combiner, following the teacher's convention (visible throughout
// blob/numeric_encoder.go) of wrapping a package-level sentinel with
// fmt.Errorf("%w: ...", errs.ErrXxx) rather than defining ad-hoc error types
// per call site.
package errs

import "errors"

// Format/content errors — spec.md §7's InvalidFormat taxon.
var (
	// ErrInvalidMagic is returned when a file's header magic does not match
	// the configured one.
	ErrInvalidMagic = errors.New("msglc: invalid magic")
	// ErrMalformedTOC is returned when a decoded TOC value does not match any
	// recognized node shape.
	ErrMalformedTOC = errors.New("msglc: malformed table of contents")
	// ErrNotCombined is returned when an operation that requires a combined
	// archive (e.g. Combiner append) is given an ordinary file.
	ErrNotCombined = errors.New("msglc: not a combined archive")
)

// Caller-input errors — spec.md §7's InputError taxon.
var (
	// ErrAlreadyWritten is returned by a second Writer.Write call.
	ErrAlreadyWritten = errors.New("msglc: writer already wrote its value")
	// ErrKeyNotFound is returned when a dict lookup misses.
	ErrKeyNotFound = errors.New("msglc: key not found")
	// ErrEmptyList is returned when an empty list is indexed.
	ErrEmptyList = errors.New("msglc: index into an empty list")
	// ErrNamingMismatch is returned when Combiner inputs disagree on whether
	// every entry is named.
	ErrNamingMismatch = errors.New("msglc: combiner inputs must be all named or all unnamed")
	// ErrDuplicateName is returned when two Combiner inputs share a name.
	ErrDuplicateName = errors.New("msglc: duplicate combiner input name")
	// ErrSourceMissing is returned when a Combiner input path does not exist.
	ErrSourceMissing = errors.New("msglc: combiner source file is missing")
	// ErrInvalidPath is returned when a path segment cannot be applied: a
	// token that is not a list index or slice, a zero slice step, or a
	// segment that tries to navigate into a scalar.
	ErrInvalidPath = errors.New("msglc: invalid path argument")
)

// ErrClosed is the sentinel for spec.md §7's ClosedBuffer taxon. No Store,
// Reader, Writer or Combiner in this module checks whether its storage has
// been closed, so nothing here returns it.
var ErrClosed = errors.New("msglc: operation on a closed buffer")
