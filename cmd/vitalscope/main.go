package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vitalscope/vitalscope/internal/api"
	"github.com/vitalscope/vitalscope/internal/config"
	"github.com/vitalscope/vitalscope/internal/notify"
	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/internal/provider/beacon"
	"github.com/vitalscope/vitalscope/internal/provider/chrome"
	"github.com/vitalscope/vitalscope/internal/provider/promtext"
	"github.com/vitalscope/vitalscope/vitals"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("vitalscope starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"provider", cfg.Provider.Mode,
		"metrics", cfg.Tracker.Metrics,
		"alerts", cfg.Tracker.Alerts,
		"gamification", cfg.Tracker.Gamification,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Thresholds are hot-reloadable; everything else requires a restart.
	thresholds := newThresholdState(cfg.Thresholds.Thresholds())
	go func() {
		err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			thresholds.set(updated.Thresholds.Thresholds())
			slog.Info("thresholds hot-reloaded")
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	notifier := notify.New(cfg.Webhooks, logger)

	switch cfg.Provider.Mode {
	case "chrome":
		err = runChrome(ctx, cfg, logger, notifier, thresholds)
	case "promtext":
		err = runPromtext(ctx, cfg, logger, notifier, thresholds)
	case "beacon":
		err = runBeacon(ctx, cfg, logger, notifier, thresholds)
	default:
		err = fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("vitalscope failed", "err", err)
		os.Exit(1)
	}
	slog.Info("vitalscope shutting down")
}

// runChrome profiles the configured URL once with a headless browser.
func runChrome(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier *notify.Notifier, th *thresholdState) error {
	driver := chrome.New(chrome.Config{
		URL:         cfg.Provider.URL,
		RemoteURL:   cfg.Provider.RemoteURL,
		SettleDelay: cfg.Provider.SettleDelay,
		Logger:      logger,
	})
	defer driver.Close()

	feed, err := driver.Collect(ctx)
	if err != nil {
		return err
	}
	defer feed.Close()

	runStages(ctx, cfg, newSession(feed, cfg, logger), notifier, th)
	return ctx.Err()
}

// runPromtext samples a web-vitals exposition endpoint once.
func runPromtext(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier *notify.Notifier, th *thresholdState) error {
	src := promtext.New(cfg.Provider.Endpoint, logger)
	feed, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	defer feed.Close()

	runStages(ctx, cfg, newSession(feed, cfg, logger), notifier, th)
	return ctx.Err()
}

// runBeacon serves the WebSocket beacon endpoint plus the JSON API and
// re-runs the tracker stages on the configured interval.
func runBeacon(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier *notify.Notifier, th *thresholdState) error {
	feed := provider.NewFeed(logger)
	defer feed.Close()

	session := newSession(feed, cfg, logger)

	mux := http.NewServeMux()
	mux.Handle("/beacon", beacon.New(feed, logger))
	mux.Handle("/api/v1/", api.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.Header,
		cfg.Server.Auth.Key(),
		api.New(session, th.get),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	ticker := time.NewTicker(cfg.Tracker.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runStages(ctx, cfg, session, notifier, th)
		}
	}
}

func newSession(p vitals.Provider, cfg *config.Config, logger *slog.Logger) *vitals.Session {
	return vitals.NewSession(p, vitals.Config{
		Logger:           logger,
		InputWait:        cfg.Tracker.InputWait,
		CollectorTimeout: cfg.Tracker.CollectorTimeout,
	})
}

// runStages executes the tracker stages strictly in order, each gated by
// its config flag, and fans fired alerts out to the webhook targets.
func runStages(ctx context.Context, cfg *config.Config, session *vitals.Session, notifier *notify.Notifier, th *thresholdState) {
	if cfg.Tracker.Metrics {
		session.Collect(ctx)
	}
	if ctx.Err() != nil {
		return
	}
	if cfg.Tracker.Alerts {
		notifier.Deliver(session.CheckAlerts(th.get()))
	}
	if cfg.Tracker.Gamification {
		session.Gamify()
	}
}

// thresholdState holds the hot-reloadable alert ceilings.
type thresholdState struct {
	mu      sync.RWMutex
	current vitals.Thresholds
}

func newThresholdState(t vitals.Thresholds) *thresholdState {
	return &thresholdState{current: t}
}

func (s *thresholdState) get() vitals.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *thresholdState) set(t vitals.Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
}
