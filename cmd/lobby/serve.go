package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lobby/internal/game/catalog"
	"lobby/internal/server"
	"lobby/internal/session"
	"lobby/internal/storage"
)

var (
	flagAddr   string
	flagWebDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lobby server",
	Long: `Start the HTTP API and websocket server.

Unfinished rooms are restored from the database on startup, and stale
rooms are cleaned up periodically.

Examples:
  lobby serve
  lobby serve --addr :9000 --db ./lobby.db
  lobby serve --web ./web`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagWebDir, "web", "web", "Directory of static files to serve, if present")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	logger := cfg.Log.Logger(os.Stderr)

	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	registry := catalog.NewRegistry(cfg.Games)

	mgr := session.NewManager(registry, store, logger)
	if cfg.Sessions.AIStepLimit > 0 {
		mgr.AIStepLimit = cfg.Sessions.AIStepLimit
	}
	if err := mgr.Restore(); err != nil {
		logger.Warn().Err(err).Msg("restore sessions")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sessions.CleanupInterval > 0 {
		go mgr.CleanupLoop(ctx, cfg.Sessions.CleanupInterval, cfg.Sessions.MaxAge)
	}

	opts := server.Options{RequestTimeout: cfg.Server.RequestTimeout}
	if info, err := os.Stat(flagWebDir); err == nil && info.IsDir() {
		opts.WebFS = os.DirFS(flagWebDir)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Str("dir", flagWebDir).Msg("static files disabled")
	}
	srv := server.New(registry, mgr, logger, opts)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Int("games", len(registry.List())).Msg("listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
