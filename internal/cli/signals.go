package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is cancelled on SIGINT/SIGTERM.
// Buffered log output is flushed before the context is cancelled so an
// interrupted watch still leaves a complete log file.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived %s, stopping...\n", sig)
		if activeTee != nil {
			_ = activeTee.Flush()
		}
		cancel()

		// Second signal forces immediate exit
		<-sigChan
		if activeTee != nil {
			_ = activeTee.Close()
		}
		os.Exit(1)
	}()

	return ctx, cancel
}
