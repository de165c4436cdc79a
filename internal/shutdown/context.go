// Package shutdown ties the process lifetime to termination signals.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is cancelled on SIGINT or SIGTERM
func New() (context.Context, func()) {
	return InterruptContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// InterruptContext cancels ctx on the first of signals. A second signal is left to the default
// handler so a stuck shutdown can still be killed from the terminal.
func InterruptContext(ctx context.Context, signals ...os.Signal) (context.Context, func()) {
	ctx, stop := signal.NotifyContext(ctx, signals...)

	go func() {
		<-ctx.Done()
		stop()
	}()

	return ctx, stop
}
