package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across the CLI front-ends and tests.

const (
	// DefaultMode is the dispatch strategy used when -m is absent.
	DefaultMode = ModeThread

	// DefaultMaxSessions caps concurrent sessions; a connection that
	// arrives with the cap reached is closed immediately.
	DefaultMaxSessions = 256

	// DefaultDialTimeout bounds the client's initial connect.
	// Established sessions carry no timeout.
	DefaultDialTimeout = 30 * time.Second
)
