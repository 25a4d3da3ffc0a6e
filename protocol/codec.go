// File: protocol/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Encodes payloads to JSON frames and decodes frames back by "type",
// enforcing a maximum frame size.

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/momentics/hioload-chat/api"
)

// MaxPayloadSize is the largest frame Decode accepts.
const MaxPayloadSize = 1 << 20 // 1 MiB

// ErrPayloadTooLarge is returned for frames above MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

var registry = map[string]func() Payload{
	TypeMsgSend:      func() Payload { return new(MsgSend) },
	TypeMsgBroadcast: func() Payload { return new(MsgBroadcast) },
	TypeMsgHistory:   func() Payload { return new(MsgHistory) },
	TypeWhoAmI:       func() Payload { return new(WhoAmI) },
	TypeYodelCreate:  func() Payload { return new(YodelCreate) },
	TypeYodelGet:     func() Payload { return new(YodelGet) },
	TypeYodel:        func() Payload { return new(Yodel) },
	TypeError:        func() Payload { return new(GenericError) },
}

// Encode serializes p into a JSON frame carrying its type.
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode: %w: nil payload", api.ErrInvalidArgument)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Type(), err)
	}
	return b, nil
}

// Decode parses a JSON frame into its concrete payload type. The result
// is always a value, never a pointer, e.g. MsgBroadcast.
func Decode(b []byte) (Payload, error) {
	if len(b) > MaxPayloadSize {
		return nil, fmt.Errorf("decode: %w: %d bytes", ErrPayloadTooLarge, len(b))
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	newPayload, ok := registry[head.Type]
	if !ok {
		return nil, fmt.Errorf("decode: %w: %q", api.ErrUnknownType, head.Type)
	}

	p := newPayload()
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *MsgSend:
		return *v
	case *MsgBroadcast:
		return *v
	case *MsgHistory:
		return *v
	case *WhoAmI:
		return *v
	case *YodelCreate:
		return *v
	case *YodelGet:
		return *v
	case *Yodel:
		return *v
	case *GenericError:
		return *v
	}
	return p
}
