//go:build !linux
// +build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for platforms without termios probing; always logs JSON.

package control

func isTerminal(uintptr) bool {
	return false
}
