package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext applies timeout to ctx. A non-positive timeout leaves ctx
// without a deadline; the returned cancel function must still be called.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals creates a context that is canceled when the process receives
// SIGINT (Ctrl+C) or SIGTERM. The benchmark then stops between kernel calls.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle combines the optional run deadline and signal handling.
// The returned context ends at whichever comes first.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The hard deadline of the run, or zero for none.
//
// Returns:
//   - context.Context: A context with both deadline and signal handling.
//   - *CancelFuncs: The cancel functions, released by Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := SetupContext(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)
	return ctx, &CancelFuncs{CancelTimeout: cancelTimeout, StopSignals: stopSignals}
}

// CancelFuncs holds the cancel functions of a lifecycle.
type CancelFuncs struct {
	CancelTimeout context.CancelFunc
	StopSignals   context.CancelFunc
}

// Cleanup stops listening for signals and releases the deadline.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
