// Command crisislens analyzes crisis reports from the command line using the
// same analysis stack as the service.
//
// Usage:
//
//	crisislens analyze [--source S] [--location L] [--pretty] [text...]
//	crisislens batch [--input FILE] [--output FILE]
//	crisislens lexicon [--category NAME]
//
// Configuration is read from the same environment variables as the service.
// Pass --offline to run on keywords and templates alone.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
