package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptContext_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := InterruptContext(context.Background(), syscall.SIGUSR2)
	cancel()

	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestInterruptContext_Signal(t *testing.T) {
	ctx, cancel := InterruptContext(context.Background(), syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
}
