package echo

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"golang.org/x/term"

	"goecho/config"
	neterrors "goecho/internal/errors"
	"goecho/util"
)

// Client is the interactive companion: it multiplexes local input and
// the socket over one select loop, forwarding bytes both ways.  When
// local input ends it half-closes the connection and keeps draining
// replies until the server closes its side.
type Client struct {
	Config *config.Config
	Logger *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// NewClient returns a ready-to-run Client.
func NewClient(cfg *config.Config, logger *util.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

func (c *Client) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Client) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

// chunk is one read result travelling from a reader goroutine to the
// relay loop.  The buffer goes back to the pool after the data is
// flushed.
type chunk struct {
	buf *[]byte
	n   int
	err error
}

// Run connects and relays until the server closes the connection, the
// context is cancelled, or an unretryable I/O error occurs.  A connect
// failure is the only error it returns; everything later is logged and
// treated as session termination.
func (c *Client) Run(ctx context.Context) error {
	addr := util.FormatAddr(c.Config.Host, c.Config.Port)

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return neterrors.Wrap("dial", addr, err)
	}
	defer conn.Close()

	c.Logger.Info("connected to %s", conn.RemoteAddr())
	if c.Stdin == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		c.Logger.Verbose("interactive mode; Ctrl-D ends input")
	}

	c.relay(ctx, conn)
	return nil
}

// dial connects to addr, optionally binding the configured source port.
func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: config.DefaultDialTimeout}
	if c.Config.LocalPort > 0 {
		local, err := net.ResolveTCPAddr("tcp", util.FormatAddr("", c.Config.LocalPort))
		if err != nil {
			return nil, err
		}
		d.LocalAddr = local
	}
	return d.DialContext(ctx, "tcp", addr)
}

// relay is the event loop.  Both sources are polled every iteration
// until one permanently closes: a nil local channel is simply never
// selected, which is how polling stops after the local half-close.
func (c *Client) relay(ctx context.Context, conn net.Conn) {
	local := readChunks(c.stdin())
	remote := readChunks(conn)

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("interrupted; closing connection")
			return

		case ch := <-remote:
			if ch.n > 0 {
				err := util.WriteFull(c.stdout(), (*ch.buf)[:ch.n])
				util.PutBuf(ch.buf)
				if err != nil {
					c.Logger.Error("local output: %v", err)
					return
				}
			} else {
				util.PutBuf(ch.buf)
			}
			if ch.err != nil {
				if util.IsBenign(ch.err) {
					c.Logger.Info("server closed the connection")
				} else {
					c.Logger.Error("read from server: %v", ch.err)
				}
				return
			}

		case ch := <-local:
			if ch.n > 0 {
				err := util.WriteFull(conn, (*ch.buf)[:ch.n])
				util.PutBuf(ch.buf)
				if err != nil {
					c.Logger.Error("send to server: %v", err)
					return
				}
			} else {
				util.PutBuf(ch.buf)
			}
			if ch.err != nil {
				if !errors.Is(ch.err, io.EOF) {
					c.Logger.Error("local input: %v", ch.err)
					return
				}
				// End of local input: signal EOF to the peer but
				// keep draining its replies.
				if tc, ok := conn.(*net.TCPConn); ok {
					tc.CloseWrite() //nolint:errcheck
				}
				c.Logger.Verbose("local input done; write side half-closed")
				local = nil
			}
		}
	}
}

// readChunks pumps reads from r into a channel of pooled buffers.  The
// final chunk carries the terminating error (io.EOF included); the
// channel is never closed because the goroutine ends with it.
func readChunks(r io.Reader) <-chan chunk {
	ch := make(chan chunk)
	go func() {
		for {
			buf := util.GetBuf()
			n, err := r.Read(*buf)
			ch <- chunk{buf: buf, n: n, err: err}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
