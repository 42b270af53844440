package reward

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord means a required markup child or attribute is missing.
	ErrMalformedRecord = errors.New("reward: malformed record")
	// ErrMissingField means a required flat-text key is absent.
	ErrMissingField = errors.New("reward: missing field")
	ErrInvalidInteger = errors.New("reward: invalid integer")
	ErrInvalidFloat   = errors.New("reward: invalid float")
	// ErrIO wraps file open/read/write failures.
	ErrIO = errors.New("reward: io error")
)

// Format names a document representation.
type Format string

const (
	FormatMarkup Format = "markup"
	FormatFlat   Format = "flat"
)

// ParseFormat accepts the format names used by the API and CLI.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "markup", "xml":
		return FormatMarkup, nil
	case "flat", "text", "txt":
		return FormatFlat, nil
	}
	return "", fmt.Errorf("reward: unknown format %q", s)
}

// ParseError locates a parse failure. Record is the zero-based record index.
type ParseError struct {
	Format Format
	Record int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s record %d: field %q", e.Format, e.Record, e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind returns a short label for the wrapped sentinel, used in metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidInteger):
		return "invalid_integer"
	case errors.Is(err, ErrInvalidFloat):
		return "invalid_float"
	case errors.Is(err, ErrIO):
		return "io"
	}
	return "other"
}
