package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"
	httphandlers "twitchbridge/internal/handlers/http"
	"twitchbridge/internal/infrastructure/feed"
	"twitchbridge/internal/infrastructure/middleware"
	"twitchbridge/internal/infrastructure/monitoring"
	repositories "twitchbridge/internal/infrastructure/repositories"
	"twitchbridge/internal/infrastructure/sink"
	"twitchbridge/internal/infrastructure/twitch"
	"twitchbridge/pkg/circuitbreaker"
	"twitchbridge/pkg/config"
	"twitchbridge/pkg/logger"
	"twitchbridge/pkg/retry"
	"twitchbridge/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/twitchbridge/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Tracing (no-op provider when disabled)
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "twitchbridge",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Repositories (Redis when enabled, in-memory otherwise)
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	tenantRepo := repoFactory.CreateTenantRepository()

	// Platform client and event sink
	platformClient := twitch.NewClient(twitch.ClientConfig{
		TokenURL:       cfg.Twitch.TokenURL,
		HelixURL:       cfg.Twitch.HelixURL,
		RequestTimeout: cfg.Twitch.RequestTimeout,
		Retry:          retry.DefaultConfig(),
		UserCacheTTL:   5 * time.Minute,
	}, log)
	defer platformClient.Close()

	breakerCfg := circuitbreaker.DefaultConfig()
	if cfg.Forwarding.BreakerEnabled {
		breakerCfg.FailureThreshold = cfg.Forwarding.BreakerThreshold
		breakerCfg.Cooldown = cfg.Forwarding.BreakerCooldown
	}
	eventSink := sink.NewHTTPSink(sink.Config{
		Timeout: cfg.Forwarding.Timeout,
		Breaker: breakerCfg,
	}, log)

	// Monitoring. The interface stays nil when disabled; services skip
	// recording on a nil recorder.
	var collector ports.MetricsRecorder
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	// Services
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	accountService := services.NewAccountService(tenantRepo, log)
	tokenService := services.NewTokenService(tenantRepo, platformClient, collector, log)
	feedService := services.NewFeedService(services.FeedConfig{
		BufferCapacity:  cfg.Feed.BufferCapacity,
		ListenerBacklog: cfg.Feed.ListenerBacklog,
	}, collector, log)
	eventService := services.NewEventService(eventSink, feedService, collector, log, cfg.Forwarding.Timeout)
	subscriptionService := services.NewSubscriptionService(tenantRepo, platformClient, tokenService, log)

	verifier := twitch.NewVerifier(cfg.Twitch.SignatureWindow)
	streamServer := feed.NewStreamServer(feedService, feed.Config{
		PingInterval: cfg.Feed.PingInterval,
		PongTimeout:  cfg.Feed.PongTimeout,
		WriteTimeout: cfg.Feed.WriteTimeout,
	}, log)

	// Health checks
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", repoFactory.HealthCheck, 2*time.Second)

	// HTTP router
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.TracingMiddleware())

	// Platform webhook deliveries are exempt from rate limiting: retried
	// signed traffic must never be answered with a 429.
	rateLimit := middleware.NewHTTPRateLimitMiddleware(cfg)
	router.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/webhook/") {
			c.Next()
			return
		}
		rateLimit(c)
	})

	httphandlers.NewAuthHandler(accountService, authService, cfg.Auth.AccessTokenTTL, cfg.Twitch.CallbackBaseURL).SetupRoutes(router)
	httphandlers.NewWebhookHandler(tenantRepo, verifier, eventService, collector, log).SetupRoutes(router)
	httphandlers.NewTwitchHandler(subscriptionService, platformClient, authService, cfg.Twitch.CallbackBaseURL).SetupRoutes(router)
	httphandlers.NewOAuthHandler(tenantRepo, tokenService, authService, cfg.Twitch.AuthorizeURL, cfg.Twitch.CallbackBaseURL, log).SetupRoutes(router)
	httphandlers.NewEventHandler(feedService, streamServer, authService).SetupRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Readiness probe: checks the Redis connection when enabled.
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "ready",
			"timestamp":    time.Now(),
			"dependencies": "ok",
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting twitchbridge server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down twitchbridge server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("twitchbridge server stopped")
}
