package plist

import "errors"

// Sentinel errors forming the taxonomy described in the design notes.
// Callers distinguish failure classes with errors.Is, matching the
// fmt.Errorf("%w: ...") wrapping used throughout this codebase.
var (
	// ErrMalformedInput reports a structural violation discovered while
	// decoding a binary or XML document: bad magic, truncation, an
	// unknown marker byte, a non-string dictionary key, a reference
	// cycle, or an out-of-range offset/reference.
	ErrMalformedInput = errors.New("plist: malformed input")

	// ErrOverflow reports an integer payload that cannot be represented
	// in 64 bits.
	ErrOverflow = errors.New("plist: integer overflow")

	// ErrWrongType reports a typed getter invoked against a Node whose
	// tag does not match.
	ErrWrongType = errors.New("plist: wrong type")

	// ErrAlreadyParented reports an attempt to attach a Node that is
	// already owned by a container.
	ErrAlreadyParented = errors.New("plist: node already has a parent")

	// ErrCallerError reports a contract violation: an out-of-range
	// index, or a missing or duplicate dictionary key where the
	// operation requires the opposite. Nil node arguments are not
	// checked; passing nil where a node is expected panics.
	ErrCallerError = errors.New("plist: caller error")
)
