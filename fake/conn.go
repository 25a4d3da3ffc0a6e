// Package fake
// Author: momentics <momentics@gmail.com>
//
// Scriptable websocket connection for exercising the chat client without a
// network.

package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/momentics/hioload-chat/api"
)

var _ api.Conn = (*Conn)(nil)

// ErrConnClosed is returned by Conn operations after Close.
var ErrConnClosed = errors.New("fake connection is closed")

// Frame is one message written to or read from a Conn.
type Frame struct {
	Type int
	Data []byte
}

// Conn is a fake implementation of api.Conn for testing.
// ReadMessage blocks until a frame is queued with AddRecvData, a read
// error is injected, or the connection is closed.
type Conn struct {
	mu         sync.Mutex
	sendBuffer []Frame
	recv       chan Frame
	done       chan struct{}
	closed     bool
	sendError  error
	recvError  chan error
	closeError error
	deadline   time.Time
}

// NewConn creates a new fake connection with room for 64 pending frames.
func NewConn() *Conn {
	return &Conn{
		recv:      make(chan Frame, 64),
		recvError: make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// ReadMessage implements api.Conn.ReadMessage.
func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.recv:
		return f.Type, f.Data, nil
	case err := <-c.recvError:
		return 0, nil, err
	case <-c.done:
		return 0, nil, ErrConnClosed
	}
}

// WriteMessage implements api.Conn.WriteMessage.
func (c *Conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	if c.sendError != nil {
		return c.sendError
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	c.sendBuffer = append(c.sendBuffer, Frame{Type: messageType, Data: dataCopy})
	return nil
}

// SetWriteDeadline implements api.Conn.SetWriteDeadline.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

// Close implements api.Conn.Close. Like a real socket, the connection is
// torn down even when an injected close error is returned.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return c.closeError
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SetSendError configures the connection to return an error on WriteMessage.
func (c *Conn) SetSendError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendError = err
}

// SetRecvError makes the next blocked ReadMessage return err.
func (c *Conn) SetRecvError(err error) {
	select {
	case c.recvError <- err:
	default:
	}
}

// SetCloseError configures the connection to return an error on Close.
func (c *Conn) SetCloseError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeError = err
}

// AddRecvData queues a frame to be returned by ReadMessage.
func (c *Conn) AddRecvData(messageType int, data []byte) {
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	c.recv <- Frame{Type: messageType, Data: dataCopy}
}

// GetSentData returns all frames that have been written.
func (c *Conn) GetSentData() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	sent := make([]Frame, len(c.sendBuffer))
	copy(sent, c.sendBuffer)
	return sent
}

// WriteDeadline returns the last deadline passed to SetWriteDeadline.
func (c *Conn) WriteDeadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// ClearSentData clears the recorded frames.
func (c *Conn) ClearSentData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendBuffer = c.sendBuffer[:0]
}
