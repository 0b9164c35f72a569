package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/app"
	"github.com/gfredtech/ScheduleBot/internal/config"
	"github.com/gfredtech/ScheduleBot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; exit immediately.
		// We intentionally ignore write errors to avoid shadowing the real cause.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err))
	}

	if err := a.Run(context.Background()); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
