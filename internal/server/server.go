package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/maruel/jsondb/internal/config"
	"github.com/maruel/jsondb/internal/server/handlers"
	"github.com/maruel/jsondb/internal/server/ratelimit"
	"github.com/maruel/jsondb/internal/storage"
)

// Run serves the document of fs on cfg.Server.Addr until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, fs *storage.FileStore, version string) error {
	store, err := handlers.NewStore(fs)
	if err != nil {
		return err
	}
	limiters := ratelimit.NewConfig(cfg.Server.RateLimits.ReadRatePerMin, cfg.Server.RateLimits.WriteRatePerMin)
	defer limiters.Close()

	if cfg.Server.Watch {
		err := storage.Watch(ctx, fs.Path(), func() {
			if err := store.Reload(); err != nil {
				slog.WarnContext(ctx, "Failed to reload document", "err", err)
			}
		})
		if err != nil {
			return err
		}
	}

	hcfg := &handlers.Config{
		Version:             version,
		JWTSecret:           []byte(cfg.Server.JWTSecret),
		MaxRequestBodyBytes: cfg.Server.MaxRequestBodyBytes,
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(store, hcfg, limiters),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", cfg.Server.Addr, "path", fs.Path(), "auth", len(hcfg.JWTSecret) != 0, "version", version)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		timeout := cfg.Server.ShutdownTimeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}
