package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticker-digest/internal/digest/config"
	delivery "ticker-digest/internal/digest/delivery/http"
	"ticker-digest/internal/digest/delivery/scheduler"
	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/digest/service"
	"ticker-digest/pkg/logger"
	"ticker-digest/pkg/metrics"
	"ticker-digest/pkg/postgres"
	"ticker-digest/pkg/redis"
	"ticker-digest/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one digest pass over all subscribers and exits",
	Run:   runOnce,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the digest scheduler and HTTP API",
	Run:   runServe,
}

// app holds the wired components and the resources to close on exit.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	runner   service.DigestRunner
	registry *prometheus.Registry
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func bootstrap(ctx context.Context) *app {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	a := &app{cfg: cfg, logger: appLogger, registry: prometheus.NewRegistry()}

	appLogger.Info("Starting Digest Service", logger.Field("name", cfg.App.Name), logger.StringField("version", cfg.App.Version))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	// Redis is optional: only the redis-backed caches and the run lock need it.
	var redisClient *redis.Client
	if cfg.Cache.Driver == config.CacheDriverRedis || cfg.Cache.Driver == config.CacheDriverLayered || cfg.Redis.Host != "" {
		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err = redis.NewClient(redisCfg)
		switch {
		case err == nil:
			a.closers = append(a.closers, func() { _ = redisClient.Close() })
		case cfg.Cache.Driver == config.CacheDriverRedis || cfg.Cache.Driver == config.CacheDriverLayered:
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		default:
			appLogger.Warn("Redis unavailable, running without the run lock", logger.ErrorField(err))
			redisClient = nil
		}
	}

	// Initialize repositories
	var summaryCacheRepo repository.SummaryCacheRepository
	switch cfg.Cache.Driver {
	case config.CacheDriverPostgres:
		summaryCacheRepo = repository.NewPostgresSummaryCacheRepository(db.DB)
	case config.CacheDriverRedis:
		summaryCacheRepo = repository.NewRedisSummaryCacheRepository(redisClient.Client, cfg.Cache.TTL, appLogger)
	case config.CacheDriverLayered:
		summaryCacheRepo = repository.NewLayeredSummaryCacheRepository(
			repository.NewRedisSummaryCacheRepository(redisClient.Client, cfg.Cache.TTL, appLogger),
			repository.NewPostgresSummaryCacheRepository(db.DB),
			appLogger,
		)
	case config.CacheDriverMemory:
		summaryCacheRepo = repository.NewMemorySummaryCacheRepository(cfg.Cache.TTL)
	}

	runLockRepo := repository.NewNoopRunLockRepository()
	if redisClient != nil {
		runLockRepo = repository.NewRedisRunLockRepository(redisClient.Client, cfg.Digest.LockTTL)
	}

	subscriberRepo := repository.NewSubscriberRepository(db.DB)
	newsRepo := repository.NewYahooNewsRepository(cfg, appLogger)

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
	}
	aiRepo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI repository", logger.ErrorField(err))
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Initialize services
	summarizer := service.NewSummarizer(summaryCacheRepo, aiRepo, appLogger, cfg.Digest.RetryBaseDelay)
	assembler := service.NewDigestAssembler(cfg, appLogger, newsRepo, summarizer)
	a.runner = service.NewDigestRunner(
		cfg,
		appLogger,
		subscriberRepo,
		runLockRepo,
		assembler,
		telegramNotifier,
		metrics.NewCollector(a.registry),
	)

	return a
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx)
	defer a.Close()

	if _, err := a.runner.Run(ctx); err != nil {
		a.logger.Error("Digest run failed", logger.ErrorField(err))
		a.Close()
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx)
	defer a.Close()

	digestScheduler, err := scheduler.NewDigestScheduler(a.cfg.Digest.Cron, a.runner, a.logger)
	if err != nil {
		a.logger.Fatal("Failed to initialize digest scheduler", logger.ErrorField(err))
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		digestScheduler.Start(ctx)
	}()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	digestHandler := delivery.NewDigestHandler(ctx, a.runner, a.logger)
	e.GET("/health", digestHandler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.registry)))
	digestHandler.RegisterRoutes(e.Group("/api/v1/digest"))

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.logger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	<-schedulerDone

	a.logger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "digest-service",
		Short: "Builds and delivers personalized ticker news digests",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-digest.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing digest-service CLI: %s\n", err)
		os.Exit(1)
	}
}
