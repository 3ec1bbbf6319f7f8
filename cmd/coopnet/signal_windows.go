//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// notifyContext cancels ctx on Ctrl+C. Windows has no SIGTERM.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
