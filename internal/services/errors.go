package services

import (
	"errors"

	"github.com/diewo77/go-quotes/internal/quote"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the quote changed since the caller read it.
	ErrConflict         = errors.New("quote was modified concurrently")
	ErrUnknownReference = errors.New("unknown reference")
	ErrDateOrder        = errors.New("valid_until precedes issue_date")
)

func fieldErr(field string, err error) error {
	return &quote.FieldError{Field: field, Err: err}
}
