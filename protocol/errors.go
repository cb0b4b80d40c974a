package protocol

import "errors"

// Decode errors. The text of each is sent back verbatim as an ERROR reason.
var (
	ErrEmptyMessage           = errors.New("empty message")
	ErrInvalidOperationFormat = errors.New("invalid operation format")
	ErrInvalidOperation       = errors.New("invalid operation")
	ErrInvalidNumber          = errors.New("invalid number")
	ErrOperandOutOfRange      = errors.New("operand out of range")
	ErrInvalidErrorFormat     = errors.New("invalid ERROR format")
	ErrInvalidValue           = errors.New("invalid VALUE")
	ErrUnknownMessage         = errors.New("unknown message")
)
