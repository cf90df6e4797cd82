// Package cli wires up the command-line flags for the echod and echoc
// binaries and dispatches into the echo core.
package cli

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"goecho/config"
	"goecho/echo"
	neterrors "goecho/internal/errors"
	"goecho/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X goecho/cli.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// RunServer parses args and runs the echo server (or, in a spawned
// session child, a single inherited session).
func RunServer(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("echod", flag.ContinueOnError)

	fs.StringVarP(&cfg.Mode, "mode", "m", config.DefaultMode,
		"Dispatch strategy: thread or process")
	fs.BoolVarP(&cfg.Line, "line", "L", false,
		"Echo newline-terminated lines, uppercased")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", config.DefaultMaxSessions,
		"Concurrent session cap")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	// Internal: present only in spawned session children.
	fs.IntVar(&cfg.SessionFD, "session-fd", 0, "")
	fs.MarkHidden("session-fd") //nolint:errcheck

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printServerUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printServerUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("echod %s\n", version)
		return nil
	}

	logger := util.NewLogger(cfg.Verbose)

	// Session child: the connection arrives on an inherited fd and
	// there is no listener to set up.
	if cfg.SessionFD != 0 {
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		return echo.RunChildSession(cfg, logger)
	}

	switch len(fs.Args()) {
	case 0:
		return &neterrors.UsageError{
			Arg:     "port",
			Message: "listening port is required",
			Hint:    "usage: echod [options] <port>",
		}
	case 1:
		port, err := config.ParsePort(fs.Args()[0])
		if err != nil {
			return &neterrors.UsageError{Arg: "port", Value: fs.Args()[0], Message: err.Error()}
		}
		cfg.Port = port
	default:
		return &neterrors.UsageError{Arg: "port", Message: "too many arguments"}
	}

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	srv := echo.NewServer(cfg, logger)
	return srv.ListenAndServe(ctx)
}

// RunClient parses args and runs the interactive client.
func RunClient(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("echoc", flag.ContinueOnError)

	fs.IntVarP(&cfg.LocalPort, "local-port", "p", 0, "Local source port to bind")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printClientUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printClientUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("echoc %s\n", version)
		return nil
	}

	rest := fs.Args()
	if len(rest) != 2 {
		return &neterrors.UsageError{
			Arg:     "host port",
			Message: "exactly one host and one port are required",
			Hint:    "usage: echoc [options] <host> <port>",
		}
	}
	cfg.Host = rest[0]
	port, err := config.ParsePort(rest[1])
	if err != nil {
		return &neterrors.UsageError{Arg: "port", Value: rest[1], Message: err.Error()}
	}
	cfg.Port = port

	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	cli := echo.NewClient(cfg, util.NewLogger(cfg.Verbose))
	return cli.Run(ctx)
}

// ── usage ────────────────────────────────────────────────────────────

func printServerUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `echod – concurrent TCP echo server v%s

Usage:
  echod [options] <port>

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  echod 5000                    Raw echo, one goroutine per connection
  echod -L 5000                 Uppercase line echo
  echod -m process 5000         One child process per connection
`)
}

func printClientUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `echoc – interactive echo client v%s

Usage:
  echoc [options] <host> <port>

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  echoc localhost 5000          Type lines, read echoes; Ctrl-D half-closes
  echo "hello" | echoc host 5000
`)
}
