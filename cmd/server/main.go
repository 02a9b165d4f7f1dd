package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/orderdash/backend/internal/application/sync"
	"github.com/orderdash/backend/internal/infrastructure/config"
	"github.com/orderdash/backend/internal/infrastructure/linnworks"
	"github.com/orderdash/backend/internal/infrastructure/logger"
	"github.com/orderdash/backend/internal/infrastructure/persistence"
	"github.com/orderdash/backend/internal/infrastructure/scheduler"
	"github.com/orderdash/backend/internal/interfaces/http/handler"
	"github.com/orderdash/backend/internal/interfaces/http/middleware"
	"github.com/orderdash/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting orderdash backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	checkpointRepo := persistence.NewGormCheckpointRepository(db.DB)
	failedRepo := persistence.NewGormFailedSyncRepository(db.DB)
	logRepo := persistence.NewGormSyncLogRepository(db.DB)
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)

	// Linnworks client
	lwConfig := &linnworks.LinnworksConfig{
		ApplicationID:     cfg.Linnworks.ApplicationID,
		ApplicationSecret: cfg.Linnworks.ApplicationSecret,
		InstallToken:      cfg.Linnworks.InstallToken,
		AuthBaseURL:       cfg.Linnworks.AuthBaseURL,
		OpenOrdersViewID:  cfg.Linnworks.OpenOrdersViewID,
		LocationID:        cfg.Linnworks.LocationID,
		TimeoutSeconds:    cfg.Linnworks.TimeoutSeconds,
		PageSize:          cfg.Linnworks.PageSize,
		MaxItems:          cfg.Linnworks.MaxItems,
	}
	sessions, err := linnworks.NewSessionManager(lwConfig, connectionRepo, log)
	if err != nil {
		log.Fatal("failed to create session manager", zap.Error(err))
	}
	client, err := linnworks.NewClient(lwConfig, sessions, log)
	if err != nil {
		log.Fatal("failed to create api client", zap.Error(err))
	}

	orchestrator := appsync.NewOrchestrator(client, sessions, orderRepo, checkpointRepo, failedRepo, logRepo, log)

	// Background scheduler
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.Enabled {
		schedConfig := scheduler.DefaultSyncSchedulerConfig()
		if cfg.Sync.PollInterval > 0 {
			schedConfig.PollInterval = cfg.Sync.PollInterval
		}
		if cfg.Sync.OpenOrdersInterval > 0 {
			schedConfig.OpenOrdersInterval = cfg.Sync.OpenOrdersInterval
		}
		if cfg.Sync.ProcessedOrdersInterval > 0 {
			schedConfig.ProcessedOrdersInterval = cfg.Sync.ProcessedOrdersInterval
		}
		schedConfig.FailedRetryEnabled = cfg.Sync.FailedRetryEnabled
		if cfg.Sync.FailedRetryBatchSize > 0 {
			schedConfig.FailedRetryBatchSize = cfg.Sync.FailedRetryBatchSize
		}
		if cfg.Sync.MaxConcurrentJobs > 0 {
			schedConfig.MaxConcurrentJobs = cfg.Sync.MaxConcurrentJobs
		}

		syncScheduler, err = scheduler.NewSyncScheduler(schedConfig, orchestrator, log)
		if err != nil {
			log.Fatal("failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("failed to start sync scheduler", zap.Error(err))
		}
	} else {
		log.Info("background sync disabled")
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	router.NewRouter(engine).
		Register(handler.NewSyncHandler(orchestrator, checkpointRepo, logRepo, failedRepo)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if syncScheduler != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Sync.ShutdownTimeout)
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Warn("sync scheduler did not stop cleanly", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}
