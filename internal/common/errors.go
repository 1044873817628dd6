// Package common defines shared constants, sentinel errors and small helpers
// used across the attendpass server and CLI. Callers should use errors.Is to
// match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal    = errors.New("internal error")
	ErrorUnavailable = errors.New("dependency unavailable")
)
