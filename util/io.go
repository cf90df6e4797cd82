package util

import (
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the chunk size for session and relay I/O.
const DefaultBufSize = 4096

// WriteFull writes all of p to w, looping on short writes.  A single
// Write on a socket may transfer fewer bytes than requested; callers
// that promise to echo exactly what they read go through this.
func WriteFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// IsBenign returns true for errors that are expected during an orderly
// close or shutdown: peer EOF and operations on a deliberately closed
// socket.  These terminate a loop but are never surfaced as failures.
func IsBenign(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
