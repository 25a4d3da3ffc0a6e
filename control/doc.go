// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime settings, metrics and logging for hioload-chat.
//
// Provides:
//   - Settings loaded from HIOCHAT_* environment variables and .env files
//   - Prometheus counters for client traffic
//   - zerolog construction with terminal-aware output format
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
