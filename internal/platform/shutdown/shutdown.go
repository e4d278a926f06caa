package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext cancels the returned context on SIGINT or SIGTERM. A second signal while
// the server is draining exits the process with status 1.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	stopped := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
			return
		case <-stopped:
			return
		}
		select {
		case <-sigCh:
			os.Exit(1)
		case <-stopped:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		select {
		case <-stopped:
		default:
			close(stopped)
		}
		cancel()
	}
}
