// echoc - an interactive echo client that multiplexes local input and
// the socket, with proper TCP half-close on end of input.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goecho/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.RunClient(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "echoc: %v\n", err)
		os.Exit(1)
	}
}
