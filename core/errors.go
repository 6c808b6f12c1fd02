package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField marks a required schedule field that was absent or empty.
	ErrMissingField = errors.New("missing field")
	// ErrParseFailure marks a required schedule field that did not parse.
	ErrParseFailure = errors.New("parse failure")
)

// FieldError reports which schedule field made a record unbuildable.
type FieldError struct {
	Field string
	Kind  error
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q", e.Kind, e.Field)
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MissingField builds a FieldError of kind ErrMissingField.
func MissingField(field string) *FieldError {
	return &FieldError{Field: field, Kind: ErrMissingField}
}

// ParseFailure builds a FieldError of kind ErrParseFailure wrapping err.
func ParseFailure(field string, err error) *FieldError {
	return &FieldError{Field: field, Kind: ErrParseFailure, Err: err}
}
