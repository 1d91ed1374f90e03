package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

var (
	// ErrMalformedExtraction marks extraction output that is not a valid
	// {"items":[{"name","quantity"}]} object.
	ErrMalformedExtraction = errors.New("usecase: malformed order extraction")
	// ErrEmptyGeneration is returned when the model answered with blank text.
	ErrEmptyGeneration = errors.New("usecase: empty generation")
)

// OutOfStockError reports an ordered item the business cannot fulfil.
type OutOfStockError struct {
	Item      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("usecase: %q out of stock (requested %d, available %d)", e.Item, e.Requested, e.Available)
}
