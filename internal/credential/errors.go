package credential

import (
	"errors"
	"fmt"
)

var (
	// Issuance errors.
	ErrInvalidInput   = errors.New("invalid input")
	ErrIssuanceFailed = errors.New("issuance failed")

	// Validation errors.
	ErrMalformedCredential = errors.New("malformed credential")
	ErrTagMismatch         = errors.New("tag mismatch")

	// Bulk issuance errors.
	ErrBatchTooLarge = errors.New("batch too large")
)

// DecodeError describes why a wire string could not be decoded.
// It always matches ErrMalformedCredential with errors.Is.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedCredential, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedCredential, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedCredential
}

func decodeErr(field, reason string) *DecodeError {
	return &DecodeError{Field: field, Reason: reason}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
