package echo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	"goecho/config"
	neterrors "goecho/internal/errors"
	"goecho/internal/metrics"
	"goecho/internal/retry"
	"goecho/util"
)

// Server accepts TCP connections and dispatches each one to an
// independent execution context — a goroutine or a child process —
// running a Session.  The listener is the only resource shared across
// sessions and is never mutated after setup.
type Server struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector

	sem *semaphore.Weighted // bounds concurrent sessions
	wg  sync.WaitGroup      // in-flight sessions / child reapers
}

// NewServer returns a ready-to-run Server.
func NewServer(cfg *config.Config, logger *util.Logger) *Server {
	return &Server{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		sem:     semaphore.NewWeighted(int64(cfg.MaxSessions)),
	}
}

// ListenAndServe binds the wildcard address on the configured port for
// both address families and serves until ctx is cancelled.  Bind and
// listen failures are fatal; everything after that is contained to the
// affected connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Config.Port)
	lc := net.ListenConfig{Control: reuseAddr}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return neterrors.Wrap("listen", addr, err)
	}
	return s.Serve(ctx, ln)
}

// reuseAddr sets SO_REUSEADDR before bind so a restart does not trip
// over sockets lingering in TIME_WAIT.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var soErr error
	err := c.Control(func(fd uintptr) {
		soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return soErr
}

// Serve runs the accept loop on ln until ctx is cancelled.  Shutdown
// stops new accepts but lets in-flight sessions run to natural
// completion before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.Logger.Info("listening on %s (%s mode)", ln.Addr(), s.Config.Mode)

	// Close the listener when the context expires; the pending
	// Accept then returns promptly with net.ErrClosed.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := s.accept(ctx, ln)
		if err != nil {
			if errors.Is(err, neterrors.ErrServerClosed) || ctx.Err() != nil {
				break
			}
			return err
		}
		s.dispatch(conn)
	}

	s.Logger.Info("shutting down listener; waiting for active sessions")
	s.wg.Wait()
	s.Logger.Verbose("run stats:\n%s", s.Metrics.JSON())
	return nil
}

// accept blocks for the next connection, absorbing temporary failures
// (interrupted waits, momentary descriptor exhaustion) with backoff.
// It returns ErrServerClosed once the listener has been shut down.
func (s *Server) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	var conn net.Conn

	err := retry.AcceptBackoff().Do(ctx, func(attempt int) error {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return retry.Permanent(neterrors.ErrServerClosed)
			}
			if neterrors.IsRetryable(err) {
				s.Logger.Warn("accept: %v (attempt %d, retrying)", err, attempt)
				return err
			}
			return retry.Permanent(neterrors.Wrap("accept", ln.Addr().String(), err))
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// dispatch hands conn to a new execution context without waiting for
// it to finish.  A failure to spawn closes the connection and is never
// fatal to the accept loop.
func (s *Server) dispatch(conn net.Conn) {
	if !s.sem.TryAcquire(1) {
		s.Logger.Warn("session limit (%d) reached; dropping %s",
			s.Config.MaxSessions, conn.RemoteAddr())
		s.Metrics.SessionRejected()
		conn.Close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)

		if s.Config.Mode == config.ModeProcess {
			s.runChild(conn)
			return
		}
		sess := NewSession(conn, s.Config.Line, s.Logger, s.Metrics)
		sess.Run() //nolint:errcheck // contained to this session, already logged
	}()
}
