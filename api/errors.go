// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-chat.

package api

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Common errors used across the library.
var (
	ErrClientClosed    = errors.New("client is closed")
	ErrNotConnected    = errors.New("client is not connected")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownType     = errors.New("unknown payload type")
	ErrEmptyMessage    = errors.New("cannot send an empty message")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeServer
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeServer:
		return "server"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface. Context is rendered as
// key=value pairs sorted by key, e.g. "MessageEmpty (nonce=n1)".
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString(" (")
	for i, k := range slices.Sorted(maps.Keys(e.Context)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
	}
	b.WriteByte(')')
	return b.String()
}

// Unwrap maps codes onto the sentinel errors so callers can use errors.Is.
func (e *Error) Unwrap() error {
	if e.Code == ErrCodeInvalidArgument {
		return ErrInvalidArgument
	}
	return nil
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
