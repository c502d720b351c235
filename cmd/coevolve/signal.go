package main

import (
	"context"
	"os/signal"
)

// withShutdownSignals returns a context cancelled on the first shutdown signal.
func withShutdownSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, shutdownSignals...)
}
