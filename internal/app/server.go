package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds Stop when Run is left by a canceled context.
const DefaultShutdownTimeout = 10 * time.Second

// Run serves HTTP until ctx is done or the listener fails, then stops the
// application within shutdownTimeout.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}

	for _, r := range a.router.Routes() {
		slog.Debug("route registered", "method", r.Method, "path", r.Path)
	}
	slog.Info("http server listening", "address", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := a.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case err = <-serveErr:
		slog.Error("http server stopped", "error", err)
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Stop(stopCtx)

	return err
}

// Stop drains HTTP traffic, cancels background jobs, waits for them and then
// releases resources in reverse order of acquisition.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	a.cancel()

	slog.InfoContext(ctx, "waiting for background jobs", "running", a.goroutine.Running())
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background jobs failed", "error", err)
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
