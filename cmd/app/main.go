// Command app serves the astro HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp()
	if err != nil {
		// the logger is itself wired, so startup failures go to stderr
		fmt.Fprintf(os.Stderr, "astro-api: startup failed: %v\n", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("astro-api stopped with error", "error", err)
		return 1
	}
	return 0
}
