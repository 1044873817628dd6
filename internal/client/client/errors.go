package client

import "errors"

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRejectedBatch   = errors.New("batch rejected")
	ErrNotFound        = errors.New("not found")
)
