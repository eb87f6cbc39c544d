package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrStorage        = errors.New("storage failure")
	ErrCodec          = errors.New("malformed stored data")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConnectionDone = errors.New("connection already settled")
)
