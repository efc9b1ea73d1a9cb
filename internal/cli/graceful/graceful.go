package graceful

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Timeout is how long in-flight requests get to finish after the context is
// canceled. Long-lived streams are cut off afterwards.
var Timeout = 2 * time.Second

// Serve the handler on the listener until ctx is canceled
func Serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	shutdown := shutdown(ctx, server)
	if err := server.Serve(listener); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	if err := <-shutdown; err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

// Shutdown the server when the context is canceled
func shutdown(ctx context.Context, server *http.Server) <-chan error {
	shutdown := make(chan error, 1)
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		timeout, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				shutdown <- err
				return
			}
			if err := server.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				shutdown <- err
			}
		}
	}()
	return shutdown
}
