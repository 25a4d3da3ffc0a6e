// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the messaging interfaces.

package fake

import (
	"slices"
	"sync"

	"github.com/momentics/hioload-chat/api"
)

var _ api.MessageClient[string] = (*MessageClient[string])(nil)

// MessageClient is a fake implementation of api.MessageClient for testing.
// Tests preload the inbound messages with SetMessages and inspect the most
// recent outbound message with GetSent. Polling never consumes the inbound
// messages and each send overwrites the previous one.
type MessageClient[M any] struct {
	mu       sync.Mutex
	messages []M
	sent     M
	hasSent  bool
}

// NewMessageClient creates a fake client with no inbound messages and
// nothing sent.
func NewMessageClient[M any]() *MessageClient[M] {
	return &MessageClient[M]{}
}

// PollMessages implements api.MessageClient.PollMessages.
func (c *MessageClient[M]) PollMessages() []M {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// SendMessage implements api.MessageClient.SendMessage.
func (c *MessageClient[M]) SendMessage(msg M) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = msg
	c.hasSent = true
}

// SetMessages replaces the messages returned by PollMessages.
func (c *MessageClient[M]) SetMessages(messages []M) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = slices.Clone(messages)
}

// GetSent returns the last message passed to SendMessage.
// The boolean is false if nothing has been sent yet.
func (c *MessageClient[M]) GetSent() (M, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.hasSent
}
