// File: client/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
)

// Server endpoints. Both upgrade to a websocket; /register creates the
// account first.
const (
	PathLogin    = "/ws"
	PathRegister = "/register"
)

// Config holds client parameters.
type Config struct {
	Addr             string        // server base URL (ws://host:port)
	Path             string        // PathLogin or PathRegister
	Username         string        // sent via HTTP basic auth
	Password         string        // sent via HTTP basic auth
	HandshakeTimeout time.Duration // websocket upgrade deadline
	WriteTimeout     time.Duration // per-frame write deadline, 0 = disabled
	InboxSize        int           // max undelivered inbound payloads
	OutboxSize       int           // max queued outbound frames

	Logger  zerolog.Logger
	Metrics *control.Metrics // nil = unregistered counters
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:             "ws://localhost:8080",
		Path:             PathLogin,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		InboxSize:        1024,
		OutboxSize:       64,
		Logger:           zerolog.Nop(),
	}
}

// Validate checks the fields New and Dial depend on.
func (c *Config) Validate() error {
	if c.InboxSize <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "inbox size must be positive").
			WithContext("InboxSize", c.InboxSize)
	}
	if c.OutboxSize <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "outbox size must be positive").
			WithContext("OutboxSize", c.OutboxSize)
	}
	if c.WriteTimeout < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "write timeout must not be negative").
			WithContext("WriteTimeout", c.WriteTimeout)
	}
	return nil
}

// endpoint builds the websocket URL for Dial.
func (c *Config) endpoint() (string, error) {
	u, err := url.Parse(c.Addr)
	if err != nil {
		return "", api.NewError(api.ErrCodeInvalidArgument, "invalid address: "+err.Error()).
			WithContext("Addr", c.Addr)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", api.NewError(api.ErrCodeInvalidArgument, "address must use ws or wss").
			WithContext("Addr", c.Addr)
	}
	path := c.Path
	if path == "" {
		path = PathLogin
	}
	u.Path = path
	return u.String(), nil
}
