package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithContext(t *testing.T) {
	err := NewError(ErrCodeInvalidArgument, "inbox size must be positive").
		WithContext("field", "InboxSize")

	require.Equal(t, ErrCodeInvalidArgument, err.Code)
	assert.Contains(t, err.Error(), "inbox size must be positive")
	assert.Contains(t, err.Error(), "InboxSize")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestErrorWithoutContext(t *testing.T) {
	err := &Error{Code: ErrCodeServer, Message: "MessageEmpty"}
	assert.Equal(t, "MessageEmpty", err.Error())
	assert.False(t, errors.Is(err, ErrInvalidArgument))

	err.WithContext("nonce", "n-1")
	assert.Equal(t, "n-1", err.Context["nonce"])
	assert.Equal(t, "MessageEmpty (nonce=n-1)", err.Error())
}

func TestErrorContextIsSortedByKey(t *testing.T) {
	err := NewError(ErrCodeInvalidArgument, "outbox size must be positive").
		WithContext("OutboxSize", 0).
		WithContext("Addr", "localhost:8080").
		WithContext("InboxSize", 16)

	want := "outbox size must be positive (Addr=localhost:8080 InboxSize=16 OutboxSize=0)"
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, err.Error())
	}
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "invalid_argument", ErrCodeInvalidArgument.String())
	assert.Equal(t, "server", ErrCodeServer.String())
	assert.Equal(t, "internal", ErrCodeInternal.String())
}
