// Command fsmd exports, inspects and serves FSM designer diagrams.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).rootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
