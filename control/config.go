// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Settings loader. Values come from the process environment first, then
// from any .env files given, then from defaults.

package control

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAddr             = "HIOCHAT_ADDR"
	EnvUser             = "HIOCHAT_USER"
	EnvPassword         = "HIOCHAT_PASSWORD"
	EnvRegister         = "HIOCHAT_REGISTER"
	EnvLogLevel         = "HIOCHAT_LOG_LEVEL"
	EnvInboxSize        = "HIOCHAT_INBOX_SIZE"
	EnvOutboxSize       = "HIOCHAT_OUTBOX_SIZE"
	EnvWriteTimeout     = "HIOCHAT_WRITE_TIMEOUT"
	EnvHandshakeTimeout = "HIOCHAT_HANDSHAKE_TIMEOUT"
)

// Settings holds everything needed to connect and run the CLI.
type Settings struct {
	Addr             string
	Username         string
	Password         string
	Register         bool
	LogLevel         string
	InboxSize        int
	OutboxSize       int
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Addr:             "ws://localhost:8080",
		LogLevel:         "info",
		InboxSize:        1024,
		OutboxSize:       64,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// LoadSettings reads settings from the environment and the given .env
// files. Later files override earlier ones; the process environment
// overrides all files.
func LoadSettings(envFiles ...string) (*Settings, error) {
	fileVals := make(map[string]string)
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		maps.Copy(fileVals, vals)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	s := DefaultSettings()
	if v, ok := lookup(EnvAddr); ok {
		s.Addr = v
	}
	if v, ok := lookup(EnvUser); ok {
		s.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		s.Password = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		s.LogLevel = v
	}

	var err error
	if v, ok := lookup(EnvRegister); ok {
		if s.Register, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRegister, err)
		}
	}
	if v, ok := lookup(EnvInboxSize); ok {
		if s.InboxSize, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvInboxSize, err)
		}
	}
	if v, ok := lookup(EnvOutboxSize); ok {
		if s.OutboxSize, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvOutboxSize, err)
		}
	}
	if v, ok := lookup(EnvWriteTimeout); ok {
		if s.WriteTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvWriteTimeout, err)
		}
	}
	if v, ok := lookup(EnvHandshakeTimeout); ok {
		if s.HandshakeTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvHandshakeTimeout, err)
		}
	}
	return s, nil
}
