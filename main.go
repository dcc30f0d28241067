// Package main provides the entry point for the POS performance tracker API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/handlers"
	"github.com/Mashyrano/Pos-performance-Tracker/app/router"
	"github.com/Mashyrano/Pos-performance-Tracker/app/scheduler"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/config"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	db        *gorm.DB
	redis     *redis.Client
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Deployment.Environment,
		"version":     cfg.Deployment.Version,
	}).Info("Starting POS performance tracker...")

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-sigChan
	logger.Info("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if sqlDB, err := app.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
}

// dialector picks the gorm driver named by DB_DRIVER
func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		// Last Seen carries microseconds; the driver default of datetime(3) would drop them
		precision := 6
		return mysql.New(mysql.Config{DSN: dsn, DefaultDatetimePrecision: &precision}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// initializeDatabase opens the database with connection pooling and migrates the schema
func initializeDatabase(cfg config.DatabaseConfig, logger *logrus.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
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

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&models.Client{}, &models.Transaction{}); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"driver":         cfg.Driver,
		"max_open_conns": cfg.MaxOpenConns,
		"max_idle_conns": cfg.MaxIdleConns,
	}).Info("Database connection established")

	return db, nil
}

// initializeCache connects to redis when the report cache is enabled
func initializeCache(cfg config.CacheConfig, logger *logrus.Logger) (*redis.Client, error) {
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

	logger.WithField("db", cfg.RedisDB).Info("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor pings redis periodically until the returned function is called
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger logrus.FieldLogger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
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
					logger.WithError(err).Warn("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication wires storage, flows, handlers and the router
func initializeApplication(cfg *config.Config, logger *logrus.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	var reportCache services.ReportCache = services.NewNoopReportCache()
	if rc != nil {
		reportCache = services.NewRedisReportCache(rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL)
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second, logger))
	}

	clientRepo := repository.NewClientRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	transactor := repository.NewTransactor(db)

	transactionFlow := businessflow.NewTransactionFlow(clientRepo, transactionRepo, transactor, reportCache, logger)
	clientFlow := businessflow.NewClientFlow(clientRepo, transactionFlow, transactor, reportCache, logger)
	reportFlow := businessflow.NewReportFlow(clientRepo, transactionRepo, reportCache, cfg.Reports.TempDir, logger)

	if cfg.Reports.SweepInterval > 0 {
		sweeper := scheduler.NewExportSweeper(cfg.Reports.TempDir, cfg.Reports.MaxFileAge, cfg.Reports.SweepInterval, logger)
		stopFuncs = append(stopFuncs, sweeper.Start(context.Background()))
	}

	clientHandler := handlers.NewClientHandler(clientFlow, logger)
	transactionHandler := handlers.NewTransactionHandler(transactionFlow, logger)
	reportHandler := handlers.NewReportHandler(reportFlow, logger)

	r := router.NewFiberRouter(cfg, clientHandler, transactionHandler, reportHandler, logger)

	logger.Info("Application initialized")

	return &Application{
		router:    r,
		db:        db,
		redis:     rc,
		stopFuncs: stopFuncs,
	}, nil
}
