package domain

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

// Is lets errors.Is match the code sentinel as well as the wrapped cause.
func (e *Error) Is(target error) bool {
	return e.code == target
}

func (e *Error) Code() error {
	return e.code
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
	// ErrIncompleteInput will throw if a wire frame ends before all declared fields are read
	ErrIncompleteInput = errors.New("input ended before the declared frame was fully read")
	// ErrInvariantViolation will throw if a core data structure breaks its own contract
	ErrInvariantViolation = errors.New("internal invariant violation")
)

var MessageInternalServerError string = "internal server error"
