// Package config defines the runtime configuration for the echo
// server and client binaries and provides port-spec parsing.
package config

import (
	"fmt"
	"strconv"
)

// Dispatch strategies for the server.
const (
	// ModeThread runs one goroutine per connection in a shared
	// address space.
	ModeThread = "thread"

	// ModeProcess runs one child process per connection; the
	// accepted socket is moved into the child and the parent keeps
	// no reference to it.
	ModeProcess = "process"
)

// Config holds every tuneable for a single echod or echoc run.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Port        int    // listening port (server) or destination port (client)
	Mode        string // dispatch strategy: ModeThread or ModeProcess
	Line        bool   // line-oriented uppercase echo instead of raw chunks
	MaxSessions int    // concurrent session cap; excess connections are dropped

	// SessionFD is set only in a spawned session child: the file
	// descriptor number of the accepted connection it inherited.
	SessionFD int

	// ── Client ───────────────────────────────────────────────────────
	Host      string
	LocalPort int // optional source-port bind

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ParsePort parses a decimal TCP port, rejecting anything outside
// 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// ValidateServer checks a server configuration for internal
// consistency before any socket work happens.
func (c *Config) ValidateServer() error {
	if c.SessionFD != 0 {
		if c.SessionFD < 3 {
			return fmt.Errorf("session fd %d is not an inheritable descriptor", c.SessionFD)
		}
		return nil
	}
	if c.Port == 0 {
		return fmt.Errorf("listening port is required")
	}
	if c.Mode != ModeThread && c.Mode != ModeProcess {
		return fmt.Errorf("unknown dispatch mode %q (want %q or %q)", c.Mode, ModeThread, ModeProcess)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("max-sessions must be at least 1")
	}
	return nil
}

// ValidateClient checks a client configuration.
func (c *Config) ValidateClient() error {
	if c.Host == "" {
		return fmt.Errorf("hostname is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("destination port is required")
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return fmt.Errorf("local port %d out of range", c.LocalPort)
	}
	return nil
}
