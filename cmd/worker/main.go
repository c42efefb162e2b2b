package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/swasthgram/health-api/internal/config"
	"github.com/swasthgram/health-api/internal/email"
	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/poller"
	notificationService "github.com/swasthgram/health-api/internal/service/notification"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/logger"
	"github.com/swasthgram/health-api/pkg/metrics"
)

// The worker runs the monitoring scans for every user in the directory so the
// API instances do not have to. It watches the global report collection and
// short-circuits the next scan when the raw value changes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	zl := *appLogger.Zerolog()

	appMetrics := metrics.New("health_worker")

	backingStore, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record store")
	}
	instrumented := store.Instrument(backingStore, appMetrics)
	collections := store.NewCollections(instrumented, zl)

	bus := event.NewBus(appMetrics)
	if cfg.Redis.URL != "" {
		bridge, err := event.NewRedisBridge(cfg.Redis.URL, bus, zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event bridge to Redis")
		}
		bridge.Start(context.Background())
		defer bridge.Close()
	}

	var emailSvc email.Service
	if cfg.SMTP.Enabled {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		emailSvc = email.NewNoopService()
	}

	notifSvc := notificationService.NewService(collections, emailSvc, zl, appMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scan := make(chan struct{}, 1)
	kick := func(string) {
		select {
		case scan <- struct{}{}:
		default:
		}
	}

	watcher := poller.NewWatcher(instrumented, bus, poller.Config{
		Keys:    []string{store.KeyAllReports},
		Signals: []string{event.SignalAllReportsUpdated},
	}, kick, zl, appMetrics)
	watcher.Start(ctx)
	defer watcher.Stop()

	interval := cfg.Monitor.Interval
	if interval <= 0 {
		interval = notificationService.DefaultMonitorInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-scan:
			case <-ticker.C:
			}
			scanAll(ctx, collections, notifSvc)
		}
	}()

	log.Info().Dur("interval", interval).Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("worker shutting down")
}

// scanAll runs one monitoring pass per user. Doctors are scanned for fresh
// unanswered reports, villagers for fresh responses on their own reports.
func scanAll(ctx context.Context, collections *store.Collections, notifSvc *notificationService.Service) {
	for _, u := range collections.Users(ctx) {
		switch u.Role {
		case model.RoleDoctor:
			notifSvc.CheckForNewReports(ctx, u.ID)
		case model.RoleVillager:
			notifSvc.CheckForReportUpdates(ctx, u.ID)
		}
	}
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(store.RedisConfig{
			URL:       cfg.Redis.URL,
			KeyPrefix: cfg.Store.Prefix,
		})
	case "postgres":
		return store.NewPostgresStore(store.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Name:     cfg.Postgres.Name,
			SSLMode:  cfg.Postgres.SSLMode,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
