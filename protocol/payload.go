// File: protocol/payload.go
// Package protocol implements the chat service JSON wire format.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Every frame is a JSON object whose "type" field selects the payload.
// Requests may carry a client-chosen nonce in "n" which the server echoes
// back on the matching reply.

package protocol

import "encoding/json"

// Payload type discriminators.
const (
	TypeMsgSend      = "msg_send"
	TypeMsgBroadcast = "msg_broadcast"
	TypeMsgHistory   = "msg_history"
	TypeWhoAmI       = "whoami"
	TypeYodelCreate  = "yodel_create"
	TypeYodelGet     = "yodel_get"
	TypeYodel        = "yodel"
	TypeError        = "error"
)

// Payload is any message exchanged with the chat server.
type Payload interface {
	Type() string
	GetNonce() string
}

// MsgSend asks the server to broadcast a message to every client,
// including the sender.
type MsgSend struct {
	Message string `json:"msg"`
	Nonce   string `json:"n,omitempty"`
}

func (MsgSend) Type() string       { return TypeMsgSend }
func (m MsgSend) GetNonce() string { return m.Nonce }

func (m MsgSend) MarshalJSON() ([]byte, error) {
	type alias MsgSend
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.Type(), alias(m)})
}

// Author identifies who sent a broadcast message.
type Author struct {
	ID       string `json:"ID"`
	Username string `json:"Username"`
}

// MsgBroadcast is a chat message delivered by the server.
// Time is the server timestamp in Unix nanoseconds.
type MsgBroadcast struct {
	MessageID string `json:"m_id"`
	Author    Author `json:"author"`
	Message   string `json:"msg"`
	Time      int64  `json:"time"`
	Nonce     string `json:"n,omitempty"`
}

func (MsgBroadcast) Type() string       { return TypeMsgBroadcast }
func (m MsgBroadcast) GetNonce() string { return m.Nonce }

func (m MsgBroadcast) MarshalJSON() ([]byte, error) {
	type alias MsgBroadcast
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.Type(), alias(m)})
}

// StoredMessage is a message as kept in the server's history.
type StoredMessage struct {
	MessageID string `json:"MessageID"`
	Content   string `json:"Content"`
	Timestamp int64  `json:"Timestamp"`
	Author    struct {
		UserID   string `json:"UserID"`
		Username string `json:"Username"`
	} `json:"Author"`
}

// Broadcast converts a history entry to the live message form.
func (s StoredMessage) Broadcast() MsgBroadcast {
	return MsgBroadcast{
		MessageID: s.MessageID,
		Author:    Author{ID: s.Author.UserID, Username: s.Author.Username},
		Message:   s.Content,
		Time:      s.Timestamp,
	}
}

// MsgHistory requests the messages stored between From and To (Unix
// nanoseconds). The server answers with the same type and Messages filled.
type MsgHistory struct {
	From     int64            `json:"from,omitempty"`
	To       int64            `json:"to,omitempty"`
	Messages []*StoredMessage `json:"messages,omitempty"`
	Nonce    string           `json:"n,omitempty"`
}

func (MsgHistory) Type() string       { return TypeMsgHistory }
func (m MsgHistory) GetNonce() string { return m.Nonce }

func (m MsgHistory) MarshalJSON() ([]byte, error) {
	type alias MsgHistory
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.Type(), alias(m)})
}

// WhoAmI asks for the caller's own identity. The reply carries ID and
// Username.
type WhoAmI struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"nick,omitempty"`
	Nonce    string `json:"n,omitempty"`
}

func (WhoAmI) Type() string       { return TypeWhoAmI }
func (w WhoAmI) GetNonce() string { return w.Nonce }

func (w WhoAmI) MarshalJSON() ([]byte, error) {
	type alias WhoAmI
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{w.Type(), alias(w)})
}

// YodelCreate creates a named yodel owned by the caller.
type YodelCreate struct {
	Name  string `json:"name"`
	Nonce string `json:"n,omitempty"`
}

func (YodelCreate) Type() string       { return TypeYodelCreate }
func (y YodelCreate) GetNonce() string { return y.Nonce }

func (y YodelCreate) MarshalJSON() ([]byte, error) {
	type alias YodelCreate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{y.Type(), alias(y)})
}

// YodelGet looks up a yodel by ID.
type YodelGet struct {
	YodelID string `json:"y_id"`
	Nonce   string `json:"n,omitempty"`
}

func (YodelGet) Type() string       { return TypeYodelGet }
func (y YodelGet) GetNonce() string { return y.Nonce }

func (y YodelGet) MarshalJSON() ([]byte, error) {
	type alias YodelGet
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{y.Type(), alias(y)})
}

// Yodel describes a yodel as reported by the server.
type Yodel struct {
	YodelID string `json:"y_id"`
	Name    string `json:"name"`
	Owner   string `json:"o_id"`
	Nonce   string `json:"n,omitempty"`
}

func (Yodel) Type() string       { return TypeYodel }
func (y Yodel) GetNonce() string { return y.Nonce }

func (y Yodel) MarshalJSON() ([]byte, error) {
	type alias Yodel
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{y.Type(), alias(y)})
}

// GenericError is the server's reply to a request it could not serve.
// Error holds a short code such as "MessageEmpty" or "BadFormat".
type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"msg,omitempty"`
	Nonce   string `json:"n,omitempty"`
}

func (GenericError) Type() string       { return TypeError }
func (e GenericError) GetNonce() string { return e.Nonce }

func (e GenericError) MarshalJSON() ([]byte, error) {
	type alias GenericError
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.Type(), alias(e)})
}
