package pipeline

import (
	"errors"
	"fmt"

	"rostermatch/internal"
)

var (
	ErrMissingInput      = errors.New("missing input file")
	ErrUnreadableTable   = errors.New("unreadable table")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// InputError ties one of the sentinel errors to the file that caused it.
type InputError struct {
	Kind   error
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *InputError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func inputError(kind error, source string, err error) error {
	return &InputError{Kind: kind, Source: source, Err: err}
}

// ErrorKind names the failure class for reports and HTTP status mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrUnreadableTable):
		return "unreadable_table"
	case errors.Is(err, internal.ErrInvalidThreshold):
		return "invalid_options"
	default:
		return "internal"
	}
}

// IsInputError reports whether err was caused by the caller's files or
// options rather than by the service.
func IsInputError(err error) bool {
	return ErrorKind(err) != "internal" && err != nil
}
