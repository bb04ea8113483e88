package helper

import (
	"errors"
	"strings"
)

// Error wraps an error with the trace of operations that led to it
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the given operation name.
// Wrapping an *Error extends its trace instead of nesting it.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Original: e.Original,
			Trace:    append([]string{trace}, e.Trace...),
		}
	}

	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}

func (e *Error) Error() string {
	return strings.Join(e.Trace, ": ") + ": " + e.Original.Error()
}

func (e *Error) Unwrap() error {
	return e.Original
}
