package atom

import (
	"errors"
	"fmt"
)

// ErrInvalidUTF8 is returned when byte content offered for interning
// or decoding is not valid UTF-8. Interning never aborts the process
// on bad input; callers get this error and no atom is created.
var ErrInvalidUTF8 = errors.New("atom: content is not valid UTF-8")

// DecodeError reports a recoverable failure while decoding an atom
// from its binary form. Offset is the position in the input at which
// decoding failed, when known.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("atom: decode failed at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("atom: decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(offset int64, err error) *DecodeError {
	return &DecodeError{Offset: offset, Err: err}
}
