// Package errors provides domain-specific error types for goecho.
//
// These types carry structured context (operation, address,
// retryability) that lets callers separate the failures worth retrying
// (interrupted or temporary socket conditions) from the ones that must
// terminate a session or the whole process.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrServerClosed is returned by the accept loop after a clean,
	// deliberate shutdown.  Callers treat it as success.
	ErrServerClosed = errors.New("server closed")

	// ErrSessionLimit signals that dispatching a new session was
	// refused because the concurrency cap was reached.
	ErrSessionLimit = errors.New("session limit reached")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "listen", "accept", "dial", "read", "write", "spawn"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UsageError represents invalid command-line input.  It is always
// fatal and always reported before any socket work happens.
type UsageError struct {
	Arg     string // offending argument or flag name
	Value   interface{}
	Message string
	Hint    string // suggestion for the user (optional)
}

func (e *UsageError) Error() string {
	msg := e.Arg
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err represents a transient condition
// worth retrying, such as an interrupted accept.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	// net.OpError with Temporary() hint (EINTR, ECONNABORTED, EMFILE …)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}
