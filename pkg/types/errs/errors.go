package errs

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnknownTransition = errors.New("unknown job transition")
)
