package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ariavoice/aria/config"
	"github.com/ariavoice/aria/internal/app"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	setupLogging()
	slog.Info("starting aria", "version", version, "commit", commit, "built", date)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	service := app.New(cfg, version)
	if err := service.Init(); err != nil {
		slog.Error("init", "error", err)
		os.Exit(1)
	}

	logBindings(cfg)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		slog.Info("shutting down", "signal", sig.String())
		service.Shutdown()
	}()

	service.Run()
}

func setupLogging() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("ARIA_DEBUG"), "1") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func logBindings(cfg *config.Config) {
	for _, m := range cfg.Modes {
		kind := "hold"
		if m.Toggle {
			kind = "toggle"
		} else if cfg.ToggleCapture {
			kind = "press twice"
		}
		fmt.Fprintf(os.Stderr, "  %-10s %-4s (%s)\n", m.ID, m.Label, kind)
	}
}
