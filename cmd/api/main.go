package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/swasthgram/health-api/internal/config"
	"github.com/swasthgram/health-api/internal/email"
	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/geo"
	adminHandler "github.com/swasthgram/health-api/internal/handler/admin"
	authHandler "github.com/swasthgram/health-api/internal/handler/auth"
	consultationHandler "github.com/swasthgram/health-api/internal/handler/consultation"
	geoHandler "github.com/swasthgram/health-api/internal/handler/geo"
	healthHandler "github.com/swasthgram/health-api/internal/handler/health"
	notificationHandler "github.com/swasthgram/health-api/internal/handler/notification"
	promHandler "github.com/swasthgram/health-api/internal/handler/prometheus"
	reportHandler "github.com/swasthgram/health-api/internal/handler/report"
	userHandler "github.com/swasthgram/health-api/internal/handler/user"
	"github.com/swasthgram/health-api/internal/middleware"
	"github.com/swasthgram/health-api/internal/router"
	adminService "github.com/swasthgram/health-api/internal/service/admin"
	consultationService "github.com/swasthgram/health-api/internal/service/consultation"
	notificationService "github.com/swasthgram/health-api/internal/service/notification"
	reportService "github.com/swasthgram/health-api/internal/service/report"
	userService "github.com/swasthgram/health-api/internal/service/user"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/auth"
	"github.com/swasthgram/health-api/pkg/logger"
	"github.com/swasthgram/health-api/pkg/metrics"
	"github.com/swasthgram/health-api/pkg/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	zl := *appLogger.Zerolog()

	appMetrics := metrics.New("health")

	// Record store backend
	backingStore, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record store")
	}
	instrumented := store.Instrument(backingStore, appMetrics)
	collections := store.NewCollections(instrumented, zl)

	// Event bus, optionally bridged across instances through Redis
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

	geoClient := geo.NewClient(geo.Config{
		BaseURL:   cfg.Geo.BaseURL,
		UserAgent: cfg.Geo.UserAgent,
		Timeout:   cfg.Geo.Timeout,
	})

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	// Services
	notifSvc := notificationService.NewService(collections, emailSvc, zl, appMetrics)
	userSvc := userService.NewService(collections, bus, hasher, jwtSvc, zl)
	reportSvc := reportService.NewService(collections, bus, notifSvc, userSvc, geoClient, zl)
	consultationSvc := consultationService.NewService(collections, bus, notifSvc, zl)
	adminSvc := adminService.NewService(collections, zl)

	if cfg.Server.DemoPassword != "" {
		if err := userSvc.SeedDemoUsers(context.Background(), cfg.Server.DemoPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo accounts")
		}
	}

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, userSvc)
	prometheusHandler := promHandler.New()

	r := router.New(
		authMiddleware,
		authHandler.NewHandler(userSvc),
		reportHandler.NewHandler(reportSvc, authMiddleware),
		consultationHandler.NewHandler(consultationSvc),
		notificationHandler.NewHandler(notifSvc),
		adminHandler.NewHandler(adminSvc, userSvc),
		userHandler.NewHandler(userSvc),
		geoHandler.NewHandler(geoClient),
		healthHandler.NewHandler(instrumented),
		prometheusHandler,
		zl,
		router.Config{
			Mode:       cfg.Server.Mode,
			RateLimit:  rateLimitFor(cfg),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
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

func rateLimitFor(cfg *config.Config) rate.Limit {
	if !cfg.RateLimit.Enabled {
		return 0
	}
	return rate.Limit(cfg.RateLimit.RequestsPerSecond)
}
