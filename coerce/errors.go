package coerce

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField reports a required field absent from the input mapping
	// with no declared default.
	ErrMissingField = errors.New("coerce: missing required field")
	// ErrWrongType reports a value that fails the type matcher with casting
	// disabled or not applicable.
	ErrWrongType = errors.New("coerce: value does not match declared shape")
	// ErrCast reports a cast that was attempted and failed.
	ErrCast = errors.New("coerce: cast failed")
	// ErrForwardReference reports a named forward reference with no entry in
	// the config's reference table.
	ErrForwardReference = errors.New("coerce: unresolved forward reference")
	// ErrUnexpectedData reports strict-mode input keys that match no declared
	// field.
	ErrUnexpectedData = errors.New("coerce: unexpected input keys")
	// ErrStructure reports a container- or record-shaped field that received
	// a non-container value.
	ErrStructure = errors.New("coerce: malformed input structure")
	// ErrConfig indicates a misconfigured option, e.g. two hooks registered
	// for the same key.
	ErrConfig = errors.New("coerce: config option failed")
)

// ConversionError describes a conversion failure at a specific field path.
// Base carries the taxonomy sentinel so callers can branch with errors.Is
// while still reading Path and Meta via errors.As.
type ConversionError struct {
	Base error
	Path Path
	// Err is the underlying cause when a user hook or cast raised; may be nil.
	Err  error
	Meta map[string]any
	msg  string
}

func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path.IsRoot() {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.msg)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	return e.Base
}

// Is reports whether target matches the taxonomy sentinel or the cause.
func (e *ConversionError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if errors.Is(e.Base, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func convErr(base error, path Path, format string, args ...any) *ConversionError {
	return &ConversionError{
		Base: base,
		Path: path,
		msg:  fmt.Sprintf(format, args...),
	}
}
