package quote

import "errors"

var (
	ErrInvalidLineItem = errors.New("invalid line item")
	ErrInvalidRate     = errors.New("invalid vat rate")
	ErrInvalidDiscount = errors.New("invalid discount")
	ErrIndexOutOfRange = errors.New("line index out of range")
	ErrInvalidStatus   = errors.New("invalid status")
)

// FieldError ties a validation failure to the input field that caused it.
// Err wraps one of the package sentinels, so errors.Is keeps working.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
