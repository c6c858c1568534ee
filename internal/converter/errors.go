package converter

import (
	"errors"
	"fmt"
)

// Failure kinds. A missing input isn't one, it's skipped.
var (
	// ErrDecode is an input that exists but can't be read or isn't a supported image
	ErrDecode = errors.New("decode failure")
	// ErrEncode is a converted image that can't be stored in the output format
	ErrEncode = errors.New("encode failure")
	// ErrWrite is an output that can't be written
	ErrWrite = errors.New("write failure")
)

// Error is a failure converting a single path
type Error struct {
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Err)
}

// Unwrap lets errors.Is match both the kind and the cause
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
