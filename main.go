// Package main provides the entry point for the Maskan referral attribution service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Maskan/app/handlers"
	"github.com/amirphl/Maskan/app/middleware"
	"github.com/amirphl/Maskan/app/router"
	"github.com/amirphl/Maskan/app/scheduler"
	"github.com/amirphl/Maskan/app/services"
	businessflow "github.com/amirphl/Maskan/business_flow"
	"github.com/amirphl/Maskan/config"
	"github.com/amirphl/Maskan/repository"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const cacheHealthInterval = 30 * time.Second

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	db        *gorm.DB
	cache     *redis.Client
	stopFuncs []func()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cfg *config.ProductionConfig) error {
	log.Printf("Starting Maskan %s (%s)...", cfg.Deployment.Version, cfg.Deployment.Environment)

	app, err := initializeApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.close()

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		address := cfg.Server.Address()
		log.Printf("Server starting on %s", address)
		serverErr <- app.router.Start(address)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received %s, shutting down gracefully...", sig)
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Workers stop after the server so in-flight requests can still enqueue
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
	return nil
}

// close releases connections held by the application
func (a *Application) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Printf("Error closing redis: %v", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// setupLogging routes the standard logger to stdout, a rotating file, or both
func setupLogging(cfg config.LoggingConfig) io.Closer {
	log.SetFlags(log.LstdFlags | log.LUTC)

	if cfg.Output == "stdout" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotating))
	} else {
		log.SetOutput(rotating)
	}
	return rotating
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	level := gormlogger.Error
	if cfg.SlowQueryLog {
		level = gormlogger.Warn
	}
	gormLog := gormlogger.New(log.Default(), gormlogger.Config{
		SlowThreshold:             cfg.SlowQueryTime,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the redis client and verifies connectivity.
// It returns nil when caching is disabled.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings redis to surface connectivity issues.
// The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	if client == nil {
		return func() {}
	}
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = cacheHealthInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeTokenService(cfg config.JWTConfig) (services.TokenService, error) {
	tokenService, err := services.NewTokenService(
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.Issuer,
		cfg.Audience,
		cfg.UseRSAKeys,
		cfg.PrivateKey,
		cfg.PublicKey,
		cfg.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	return tokenService, nil
}

// initializeApplication wires repositories, flows, handlers, and background workers
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	app := &Application{config: cfg, db: db, cache: rc}
	app.stopFuncs = append(app.stopFuncs, startCacheHealthMonitor(context.Background(), rc, cacheHealthInterval))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	linkRepo := repository.NewTrackingLinkRepository(db)
	clickRepo := repository.NewClickEventRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	settingRepo := repository.NewSystemSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	txManager := repository.NewTxManager(db, cfg.Attribution.TxMaxAttempts)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer seedCancel()
	if err := settingRepo.SeedDefaults(seedCtx); err != nil {
		return nil, fmt.Errorf("failed to seed default settings: %w", err)
	}

	// Services
	tokenService, err := initializeTokenService(cfg.JWT)
	if err != nil {
		return nil, err
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	dispatcher := services.NewNotificationDispatcher(
		services.NewNotificationService(notificationRepo),
		cfg.Notification.QueueSize,
		cfg.Notification.RatePerSec,
		cfg.Notification.Burst,
		log.Default(),
	)
	dispatcher.SetDeliveryTimeout(cfg.Notification.Timeout)

	settings := businessflow.NewSettingsProvider(settingRepo, rc, cfg.Cache.SettingsTTL)
	settlement := businessflow.NewSettlementEngine(commissionRepo, listingRepo, userRepo, settings)

	// Flows
	clickFlow := businessflow.NewClickFlow(linkRepo, clickRepo, txManager)
	linkFlow := businessflow.NewTrackingLinkFlow(linkRepo, listingRepo, userRepo, auditRepo)
	inquiryFlow := businessflow.NewInquiryFlow(
		inquiryRepo,
		listingRepo,
		linkRepo,
		userRepo,
		auditRepo,
		txManager,
		settlement,
		settings,
		dispatcher,
	)
	commissionFlow := businessflow.NewCommissionFlow(commissionRepo, listingRepo, userRepo, auditRepo, txManager)
	settingsFlow := businessflow.NewSettingsFlow(settingRepo, userRepo, auditRepo, txManager, settings)

	// Handlers
	h := router.Handlers{
		Auth:         handlers.NewAuthHandler(tokenService, cfg.JWT.AccessTokenTTL),
		TrackingLink: handlers.NewTrackingLinkHandler(linkFlow, clickFlow),
		Inquiry:      handlers.NewInquiryHandler(inquiryFlow),
		Commission:   handlers.NewCommissionHandler(commissionFlow),
		Settings:     handlers.NewSettingsHandler(settingsFlow),
	}

	app.router = router.NewFiberRouter(cfg, h, middleware.NewAuthMiddleware(tokenService))

	// Background workers
	app.stopFuncs = append(app.stopFuncs, dispatcher.Start(context.Background()))
	pruner := scheduler.NewClickPruner(clickRepo, cfg.Attribution.ClickRetention, cfg.Attribution.ClickPruneInterval, log.Default())
	app.stopFuncs = append(app.stopFuncs, pruner.Start(context.Background()))

	return app, nil
}
