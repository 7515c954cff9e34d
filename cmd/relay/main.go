package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livescout/matchrelay/internal/pkg/config"
	"github.com/livescout/matchrelay/internal/pkg/handoff"
	"github.com/livescout/matchrelay/internal/pkg/health"
	"github.com/livescout/matchrelay/internal/pkg/logging"
	"github.com/livescout/matchrelay/internal/pkg/notify"
	"github.com/livescout/matchrelay/internal/pkg/scheduler"
	"github.com/livescout/matchrelay/internal/pkg/scrape"
)

const defaultConfigPath = "configs/local.yaml"

type flags struct {
	configPath string
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Relay failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.Setup(&appConfig.Logging, "relay"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	if appConfig.Scrape.PageURL == "" {
		return fmt.Errorf("scrape.page_url must be specified in config")
	}
	if appConfig.Feed.URL == "" {
		return fmt.Errorf("feed.url must be specified in config")
	}

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	// Hand-off store is optional: without it the sent counter simply
	// restarts at 0 after every view reload.
	var store *handoff.Store
	if appConfig.Handoff.Addr != "" {
		store, err = handoff.NewStore(appConfig.Handoff.Addr, appConfig.Handoff.Password,
			appConfig.Handoff.DB, appConfig.Handoff.TTL)
		if err != nil {
			slog.Warn("Handoff store unavailable, sent counter will not survive reloads", "error", err)
		} else {
			defer store.Close()
		}
	}

	var notifier scheduler.Notifier
	if tg := notify.NewTelegram(appConfig.Notify.TelegramBotToken, appConfig.Notify.TelegramChatID); tg != nil {
		defer tg.Close()
		notifier = tg
	}

	slog.Info("Opening match listing page", "url", appConfig.Scrape.PageURL)
	page, err := scrape.NewBrowserPage(&appConfig.Scrape)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	sched := scheduler.New(appConfig, page, store, notifier)

	if appConfig.Health.Port > 0 {
		health.Run(ctx, health.AddrFor(appConfig.Health.Port), sched.Status,
			appConfig.Health.ReadHeaderTimeout)
	}

	slog.Info("Starting relay scheduler", "feed", appConfig.Feed.URL)
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	slog.Info("Relay stopped gracefully")
	return nil
}

func parseFlags() flags {
	var cfg flags

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration (e.g. 10s, 1m). 0 = run until SIGINT/SIGTERM")
	flag.Parse()
	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal, stopping relay...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
