package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"swaraj/internal/handlers"
	"swaraj/internal/lifecycle"
	"swaraj/internal/server"
	"swaraj/internal/transcription"

	"go.uber.org/zap"
)

// serve loads the model, then serves HTTP until SIGINT/SIGTERM. A load
// failure aborts startup.
func (a *appState) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	if cfg.TempDir != "" {
		if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
			return fmt.Errorf("create temp dir %s: %w", cfg.TempDir, err)
		}
	}

	mgr := lifecycle.New(func(ctx context.Context) (transcription.Backend, error) {
		return a.loadFn(ctx, cfg)
	}, cfg.Workers, a.log())

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			a.log().Warn("failed to release model", zap.Error(err))
		}
	}()

	e := server.New(
		handlers.NewHealthHandler(mgr, cfg.Backend),
		handlers.NewTranscribeHandler(mgr, handlers.TranscribeOptions{
			TempDir:  cfg.TempDir,
			Language: cfg.Language,
		}, a.log()),
		a.log(),
	)

	return a.serveFn(ctx, e)
}
