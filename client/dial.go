// File: client/dial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Dial connects to the chat server and returns a running Client.
// Credentials travel as HTTP basic auth on the upgrade request.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoint, err := cfg.endpoint()
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	header := http.Header{}
	if cfg.Username != "" {
		header.Set("Authorization", "Basic "+basicAuth(cfg.Username, cfg.Password))
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	cfg.Logger.Info().Str("endpoint", endpoint).Str("user", cfg.Username).Msg("connected")

	c, err := New(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
