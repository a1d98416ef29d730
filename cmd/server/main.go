package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialdeck/internal/core/ports"
	"socialdeck/internal/core/services"
	httphandlers "socialdeck/internal/handlers/http"
	backupinfra "socialdeck/internal/infrastructure/backup"
	"socialdeck/internal/infrastructure/distributed"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/internal/infrastructure/monitoring"
	"socialdeck/internal/infrastructure/realtime"
	"socialdeck/internal/infrastructure/reliability"
	"socialdeck/internal/infrastructure/repositories/memory"
	redisrepo "socialdeck/internal/infrastructure/repositories/redis"
	"socialdeck/internal/infrastructure/scheduler"
	"socialdeck/pkg/backup"
	"socialdeck/pkg/circuitbreaker"
	"socialdeck/pkg/config"
	distlock "socialdeck/pkg/distributed"
	"socialdeck/pkg/logger"
	"socialdeck/pkg/retry"
	"socialdeck/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/socialdeck/config.yaml",
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
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "socialdeck",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize redis when enabled
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			log,
		)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
	}

	// Initialize repositories
	accountRepo := memory.NewMemoryAccountRepository()
	teamRepo := memory.NewMemoryTeamRepository()
	postRepo := memory.NewMemoryPostRepository()
	campaignRepo := memory.NewMemoryCampaignRepository()

	analyticsRepo := memory.NewMemoryAnalyticsRepository()
	if cfg.Analytics.BatchSize > 0 {
		analyticsRepo = services.NewBatchedAnalyticsRecorder(analyticsRepo, cfg.Analytics.BatchSize, cfg.Analytics.BatchInterval)
	}
	if cfg.Analytics.CacheTTL > 0 {
		analyticsRepo = services.NewCachedAnalyticsRepository(analyticsRepo, cfg.Analytics.CacheTTL)
	}

	var notificationRepo ports.NotificationRepository
	if redisClient != nil {
		// The redis-backed store goes over the network, so wrap it with
		// retries and a circuit breaker
		notificationRepo = reliability.NewNotificationRepositoryWrapper(
			redisrepo.NewRedisNotificationRepository(redisClient),
			retry.DefaultConfig(),
			circuitbreaker.DefaultConfig(),
			log,
		)
	} else {
		notificationRepo = memory.NewMemoryNotificationRepository()
	}

	// Initialize services
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		accountRepo,
	)
	accessService := services.NewAccessService()

	location, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		log.Fatalw("invalid analytics timezone", "timezone", cfg.Analytics.Timezone, "error", err)
	}
	analyticsService := services.NewAnalyticsService(location)

	// Initialize realtime fan-out
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, log)
	gateway := realtime.NewGateway(authService, accessService, postRepo, campaignRepo, registry, realtime.GatewayOptions{
		PingInterval:   cfg.Realtime.PingInterval,
		PongTimeout:    cfg.Realtime.PongTimeout,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		SendBufferSize: cfg.Realtime.SendBufferSize,
	}, log)

	var eventBus *distributed.EventBus
	if redisClient != nil {
		eventBus = distributed.NewEventBus(redisClient, uuid.New().String(), log)
		dispatcher.SetBridge(eventBus)
	}

	// Initialize monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()
	dispatcher.SetObserver(prometheusCollector.RecordDispatch)

	healthChecker := monitoring.NewHealthChecker()
	if redisClient != nil {
		healthChecker.AddRedisCheck(redisClient, 30*time.Second, 2*time.Second)
	}
	healthChecker.AddRepositoryCheck(postRepo, 30*time.Second, 2*time.Second)

	// Initialize HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService, accountRepo, cfg.Auth.AccessTokenTTL)
	postHandler := httphandlers.NewPostHandler(postRepo, accessService, authService, dispatcher, cfg.Realtime.EchoPersonalEvents)
	campaignHandler := httphandlers.NewCampaignHandler(campaignRepo, accessService, authService)
	analyticsHandler := httphandlers.NewAnalyticsHandler(analyticsRepo, analyticsService, accessService, authService, dispatcher)
	analyticsHandler.SetAggregationObserver(prometheusCollector.RecordAggregation)
	notificationHandler := httphandlers.NewNotificationHandler(notificationRepo, accountRepo, accessService, authService, dispatcher)
	teamHandler := httphandlers.NewTeamHandler(teamRepo, accountRepo, authService, dispatcher)
	userHandler := httphandlers.NewUserHandler(accountRepo, authService)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	authHandler.SetupRoutes(router)
	postHandler.SetupRoutes(router)
	campaignHandler.SetupRoutes(router)
	analyticsHandler.SetupRoutes(router)
	notificationHandler.SetupRoutes(router)
	teamHandler.SetupRoutes(router)
	userHandler.SetupRoutes(router)

	// Websocket endpoint
	router.GET("/ws", gin.WrapF(gateway.HandleWebSocket))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"connections": registry.ConnectionCount(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := healthChecker.GetReadinessStatus(ctx)
		if status.Status != "healthy" {
			c.JSON(503, status)
			return
		}
		c.JSON(200, status)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Prometheus metrics on its own port
	var metricsSrv *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
			Handler: metricsMux,
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		log.Infof("Starting SocialDeck server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if metricsSrv != nil {
		group.Go(func() error {
			log.Infof("Prometheus metrics listening on %s", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	if eventBus != nil {
		group.Go(func() error {
			err := eventBus.Subscribe(groupCtx, dispatcher.DeliverRemote)
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	if cfg.Scheduler.Enabled {
		var lockManager *distlock.LockManager
		if redisClient != nil {
			lockManager = distlock.NewLockManager(redisClient, "socialdeck:lock:")
		}
		publisher := scheduler.NewPostPublisher(postRepo, notificationRepo, dispatcher, lockManager, cfg.Scheduler.Interval, log)
		group.Go(func() error {
			publisher.Start(groupCtx)
			return nil
		})
	}

	if cfg.Backup.Enabled {
		storage, err := backup.NewFileStorage(cfg.Backup.Directory)
		if err != nil {
			log.Fatalw("failed to initialize backup storage", "error", err)
		}
		backupScheduler := backupinfra.NewScheduler(
			backup.NewBackupService(storage, "1.0.0"),
			postRepo,
			campaignRepo,
			backupinfra.Config{Interval: cfg.Backup.Interval, RetentionDays: cfg.Backup.RetentionDays},
			log,
		)
		group.Go(func() error {
			backupScheduler.Start(groupCtx)
			return nil
		})
	}

	// Wait for a shutdown signal or a fatal server error
	<-groupCtx.Done()
	log.Info("Shutting down SocialDeck server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Error during metrics server shutdown", "error", err)
		}
	}

	if err := group.Wait(); err != nil {
		log.Errorw("Server exited with error", "error", err)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}
	if redisClient != nil {
		if err := redisrepo.CloseRedisClient(redisClient); err != nil {
			log.Errorw("Error closing redis client", "error", err)
		}
	}

	log.Info("SocialDeck server stopped")
}
