// Package echo implements the core of the service: the listener and
// dispatcher, the per-connection session handler in its two protocol
// variants, and the interactive client loop.
package echo

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	neterrors "goecho/internal/errors"
	"goecho/internal/metrics"
	"goecho/util"
)

// Session wraps one accepted connection and echoes until the peer
// stops sending.  It owns the connection exclusively and closes it on
// every exit path.
type Session struct {
	Conn    net.Conn
	Line    bool // line-oriented uppercase echo instead of raw chunks
	Logger  *util.Logger
	Metrics *metrics.Collector

	// ID tags this session's log lines so concurrent sessions stay
	// attributable.
	ID string
}

// NewSession binds a freshly accepted connection to a session.
func NewSession(conn net.Conn, line bool, logger *util.Logger, m *metrics.Collector) *Session {
	return &Session{
		Conn:    conn,
		Line:    line,
		Logger:  logger,
		Metrics: m,
		ID:      uuid.NewString()[:8],
	}
}

// Run echoes until the peer half-closes or an unretryable I/O error
// occurs.  Peer EOF is an orderly shutdown, not an error.
func (s *Session) Run() error {
	defer s.Conn.Close()

	peer := s.Conn.RemoteAddr()
	s.Logger.Info("[%s] client connected: %s", s.ID, peer)
	s.Metrics.SessionOpened()
	defer s.Metrics.SessionClosed()

	var err error
	if s.Line {
		err = s.echoLines()
	} else {
		err = s.echoChunks()
	}

	if err != nil && !util.IsBenign(err) {
		s.Logger.Error("[%s] session with %s: %v", s.ID, peer, err)
		s.Metrics.RecordError(err.Error())
		return err
	}

	s.Logger.Info("[%s] client disconnected: %s", s.ID, peer)
	return nil
}

// echoChunks sends every chunk back verbatim, preserving the byte
// stream exactly (boundaries are immaterial).
func (s *Session) echoChunks() error {
	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	for {
		n, err := s.Conn.Read(buf)
		if n > 0 {
			s.Metrics.BytesReceived(int64(n))
			if werr := util.WriteFull(s.Conn, buf[:n]); werr != nil {
				return neterrors.Wrap("write", s.Conn.RemoteAddr().String(), werr)
			}
			s.Metrics.BytesSent(int64(n))
			s.Logger.Debug("[%s] echoed %d bytes", s.ID, n)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		default:
			return neterrors.Wrap("read", s.Conn.RemoteAddr().String(), err)
		}
	}
}

// echoLines accumulates input up to a newline (or a full buffer) and
// echoes the uppercased line.  A partial final line with no trailing
// newline is still echoed once before the session ends.
func (s *Session) echoLines() error {
	br := bufio.NewReaderSize(s.Conn, util.DefaultBufSize)

	for {
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			s.Metrics.BytesReceived(int64(len(line)))
			upperASCII(line)
			if werr := util.WriteFull(s.Conn, line); werr != nil {
				return neterrors.Wrap("write", s.Conn.RemoteAddr().String(), werr)
			}
			s.Metrics.BytesSent(int64(len(line)))
			s.Logger.Debug("[%s] echoed line of %d bytes", s.ID, len(line))
		}
		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			// Oversized line: the full buffer counts as one line.
		case errors.Is(err, io.EOF):
			return nil
		default:
			return neterrors.Wrap("read", s.Conn.RemoteAddr().String(), err)
		}
	}
}

// upperASCII uppercases alphabetic bytes in place, leaving everything
// else (including the line terminator) untouched.
func upperASCII(b []byte) {
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
}
