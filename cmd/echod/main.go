// echod - a concurrent TCP echo server with selectable dispatch
// strategy (goroutine-per-connection or process-per-connection).
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

	if err := cli.RunServer(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "echod: %v\n", err)
		os.Exit(1)
	}
}
