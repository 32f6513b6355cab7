package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Znbmels/keremet/internal/api/router"
	"github.com/Znbmels/keremet/internal/apiclient"
	appconfig "github.com/Znbmels/keremet/internal/config"
	"github.com/Znbmels/keremet/internal/directory"
	"github.com/Znbmels/keremet/internal/http/events"
	"github.com/Znbmels/keremet/internal/http/handlers"
	"github.com/Znbmels/keremet/internal/observability/metrics"
	"github.com/Znbmels/keremet/internal/ratings"
	"github.com/Znbmels/keremet/internal/schedule"
	"github.com/Znbmels/keremet/internal/session"
	"github.com/Znbmels/keremet/pkg/logging"
)

func main() {
	// Load .env for local development; in deployed environments the
	// variables come from the environment itself.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting keremet portal gateway",
		"env", cfg.Env,
		"port", cfg.Port,
		"api_base", cfg.APIBaseURL,
	)

	// Session persistence: redis when configured, in-memory otherwise.
	var store session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cancel()
		store = session.NewRedisStore(redisClient, cfg.SessionProfile)
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "profile", cfg.SessionProfile)
	} else {
		store = session.NewMemoryStore()
		logger.Info("using in-memory session store, sessions will not survive restarts")
	}

	clientMetrics := metrics.NewClientMetrics(prometheus.DefaultRegisterer)
	hub := events.NewHub(logger)

	client, err := apiclient.New(apiclient.Options{
		APIBaseURL:    cfg.APIBaseURL,
		AuthBaseURL:   cfg.AuthBaseURL,
		Store:         store,
		Logger:        logger,
		Metrics:       clientMetrics,
		Timeout:       cfg.HTTPTimeout,
		RefreshBuffer: cfg.RefreshBuffer,
		OnSessionEnd: func() {
			hub.Broadcast(events.SessionExpired)
		},
	})
	if err != nil {
		logger.Error("failed to build api client", "error", err)
		os.Exit(1)
	}

	dir := directory.NewService(client)
	ratingsSvc := ratings.NewService(client, logger)
	scheduleMgr := schedule.NewManager(client, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		Auth:               handlers.NewAuthHandler(client, logger),
		Directory:          handlers.NewDirectoryHandler(dir, ratingsSvc, logger),
		Booking:            handlers.NewBookingHandler(client, dir, logger),
		Schedule:           handlers.NewScheduleHandler(client, scheduleMgr, logger),
		Dashboard:          handlers.NewDashboardHandler(client, logger),
		Ratings:            handlers.NewRatingsHandler(client, ratingsSvc, logger),
		Records:            handlers.NewRecordsHandler(client, logger),
		Profile:            handlers.NewProfileHandler(client, logger),
		Events:             hub,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
