package echo

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"

	"goecho/config"
	neterrors "goecho/internal/errors"
	"goecho/util"
)

// Process-isolation dispatch: each accepted connection is moved into a
// freshly spawned copy of this binary.  The socket travels as an
// inherited file descriptor; the parent closes its copy right after
// the hand-off and keeps no reference, so the child owns the
// connection exclusively.  Only the descriptors listed in ExtraFiles
// are inherited, which is what keeps the listening socket out of the
// child.

// sessionFD is the descriptor number the child finds its connection
// on: stdin, stdout, stderr, then the first extra file.
const sessionFD = 3

// childCommand builds the command that runs one session in a child
// process.  Tests swap this out to re-exec the test binary instead.
var childCommand = func(cfg *config.Config) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own binary: %w", err)
	}

	args := []string{"--session-fd", strconv.Itoa(sessionFD)}
	if cfg.Line {
		args = append(args, "--line")
	}
	for i := 0; i < cfg.Verbose; i++ {
		args = append(args, "-v")
	}
	return exec.Command(exe, args...), nil
}

// runChild moves conn into a child process and reaps the child when it
// terminates.  Called from a dispatch goroutine, so neither the spawn
// nor the reap ever blocks the accept loop.
func (s *Server) runChild(conn net.Conn) {
	// The parent's copy of the connection dies here on every path.
	defer conn.Close()

	peer := conn.RemoteAddr()

	tc, ok := conn.(*net.TCPConn)
	if !ok {
		s.Logger.Error("spawn for %s: connection is not TCP", peer)
		s.Metrics.RecordError("spawn: not a TCP connection")
		return
	}

	// File duplicates the descriptor; the duplicate is what the
	// child inherits.
	file, err := tc.File()
	if err != nil {
		s.Logger.Error("spawn for %s: %v", peer, err)
		s.Metrics.RecordError(err.Error())
		return
	}
	defer file.Close()

	cmd, err := childCommand(s.Config)
	if err != nil {
		s.Logger.Error("spawn for %s: %v", peer, err)
		s.Metrics.RecordError(err.Error())
		return
	}
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{file}

	if err := cmd.Start(); err != nil {
		s.Logger.Error("spawn for %s: %v", peer, err)
		s.Metrics.RecordError(err.Error())
		return
	}

	// The connection now lives only in the child.  Both parent copies
	// must go immediately, or the peer would not see EOF until the
	// child had already been reaped.
	file.Close()
	conn.Close()

	s.Metrics.SessionOpened()
	s.Logger.Verbose("session child %d started for %s", cmd.Process.Pid, peer)

	// Wait collects the child's exit status, so no zombie outlives
	// this goroutine.
	err = cmd.Wait()
	s.Metrics.SessionClosed()
	s.Metrics.ChildReaped()
	if err != nil {
		s.Logger.Warn("session child for %s exited: %v", peer, err)
		s.Metrics.RecordError(err.Error())
		return
	}
	s.Logger.Verbose("session child %d reaped", cmd.Process.Pid)
}

// RunChildSession is the entry point inside a spawned session child:
// rebuild the connection from the inherited descriptor and run the
// session to completion.
func RunChildSession(cfg *config.Config, logger *util.Logger) error {
	file := os.NewFile(uintptr(cfg.SessionFD), "session")
	if file == nil {
		return fmt.Errorf("session fd %d is not open", cfg.SessionFD)
	}

	conn, err := net.FileConn(file)
	// FileConn duplicates the descriptor, so the inherited one can go.
	file.Close()
	if err != nil {
		return neterrors.Wrap("inherit", fmt.Sprintf("fd %d", cfg.SessionFD), err)
	}

	sess := NewSession(conn, cfg.Line, logger, nil)
	return sess.Run()
}
