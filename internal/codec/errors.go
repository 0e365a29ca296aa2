package codec

import "errors"

// Error kinds shared by the text and VF codecs. Callers match them with
// errors.Is; every layer wraps them with its own context.
var (
	// ErrIO reports a short read, short write or a failing stream.
	ErrIO = errors.New("i/o error")

	// ErrCorruptData reports a structurally invalid record, such as a raw
	// value length below the two mandatory framing bytes or a length prefix
	// above the configured limit.
	ErrCorruptData = errors.New("corrupt data")

	// ErrAllocation reports a request for more entries than the collection
	// is allowed to hold.
	ErrAllocation = errors.New("allocation failure")

	// ErrNotImplemented is returned by every text format encode path.
	ErrNotImplemented = errors.New("not implemented")

	// ErrIndexOutOfRange reports a collection access past the entry count.
	ErrIndexOutOfRange = errors.New("index out of range")
)
