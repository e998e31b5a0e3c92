package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rise-and-shine/voiceout/cfgloader"
	"github.com/rise-and-shine/voiceout/internal/app"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

func main() {
	cfg := cfgloader.MustLoad[app.Config]()

	logger.SetGlobal(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalx(err)
	}

	if err = a.Run(ctx); err != nil {
		logger.Errorx(err)
		os.Exit(1) //nolint:gocritic // deferred sync is best-effort
	}
	logger.Info("voiceout stopped")
}
