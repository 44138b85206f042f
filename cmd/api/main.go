// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"golang.org/x/sync/errgroup"

	"photodrop-backend/internal/config"
	"photodrop-backend/internal/handler"
	"photodrop-backend/internal/hub"
	"photodrop-backend/internal/service"
	"photodrop-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		slog.Error("storage init failed", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	broker := hub.New()
	uploads := &service.UploadService{Store: store, Hub: broker, BaseURL: cfg.BaseURL}
	query := &service.QueryService{Store: store}
	h := &handler.Handler{
		Uploads: uploads,
		Query:   query,
		Store:   store,
		Hub:     broker,
		BaseURL: cfg.BaseURL,
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.AllowedOrigins}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.LoggingHandler(os.Stdout, cors(h.Router())),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // generous for uploads; websockets are hijacked and unaffected
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("photodrop service running",
			"port", cfg.Port,
			"base_url", cfg.BaseURL,
			"upload_dir", cfg.UploadDir,
			"session_ttl", cfg.SessionTTL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.SessionTTL > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ReapInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					n, err := store.Reap(cfg.SessionTTL)
					if err != nil {
						slog.Warn("reap failed", "error", err)
						continue
					}
					if n > 0 {
						slog.Info("reaped expired artifacts", "count", n)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped cleanly")
}
