// File: api/client.go
// Author: momentics <momentics@gmail.com>
//
// Messaging client contract shared by the websocket client, its test
// double and the code that consumes either.

package api

import "time"

// MessageClient is the minimal surface of a chat client.
// PollMessages returns whatever inbound messages are available and
// SendMessage hands one message to the transport.
type MessageClient[M any] interface {
	PollMessages() []M
	SendMessage(msg M)
}

// Conn is the subset of a websocket connection used by the client.
// *websocket.Conn from gorilla/websocket satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}
