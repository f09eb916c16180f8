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

	"github.com/edgemarket/internal/config"
	"github.com/edgemarket/internal/handler"
	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/repository"
	"github.com/edgemarket/internal/repository/memstore"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/internal/stream"
	"github.com/edgemarket/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, closeStore, err := initStore(cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize Redis
	rdb := initRedis(ctx, cfg)

	// Initialize services
	hub := stream.NewHub(cfg.Server.AllowedOrigins)
	ledger := service.NewLedger(store, hub)
	referralService := service.NewReferralService(store, ledger, decimal.NewFromFloat(cfg.Trading.ReferralRate))

	pairService := service.NewPairService(store, rdb)
	pairService.Subscribe(hub)
	if err := pairService.Seed(ctx); err != nil {
		logger.Error("failed to seed trading pairs", "error", err)
		os.Exit(1)
	}

	tradingService := service.NewTradingService(store, ledger, referralService, pairService, cfg.Trading)
	scheduler := worker.NewSettlementScheduler(tradingService)
	tradingService.SetScheduler(scheduler)

	authService, err := service.NewAuthService(store, referralService, cfg.JWT, cfg.Trading)
	if err != nil {
		logger.Error("failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	if err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	services := &handler.Services{
		Auth:         authService,
		Ledger:       ledger,
		Trading:      tradingService,
		Transactions: service.NewTransactionService(store, ledger),
		Conversions:  service.NewConversionService(store, ledger),
		Referrals:    referralService,
		Admin:        service.NewAdminService(store, ledger, tradingService),
		Pairs:        pairService,
		Content:      service.NewContentService(store),
		Hub:          hub,
	}

	rearmed, err := tradingService.RearmOpenTrades(ctx)
	if err != nil {
		logger.Error("failed to re-arm open trades", "error", err)
		os.Exit(1)
	}
	logger.Info("auto-close re-armed", "open_trades", rearmed)

	ticker := worker.NewPriceTicker(pairService, cfg.Ticker.Interval)

	router := handler.NewRouter(cfg.Server, services, handler.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Start workers
	g.Go(func() error {
		scheduler.Start(gctx)
		return nil
	})
	g.Go(func() error {
		ticker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", "addr", addr, "version", Version, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal or a failed listener
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		ticker.Stop()

		// Graceful shutdown with 10 second timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}

		scheduler.Stop()
		hub.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
	}

	// Close Redis connection
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis connection", "error", err)
		}
	}

	logger.Info("server exited properly")
}

func initStore(cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		return memstore.New(), func() {}, nil
	case "postgres":
		db, err := initDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repository.NewGormStore(db), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// initRedis returns nil when redis is disabled or unreachable; prices are
// then served from memory only.
func initRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, price cache disabled", "addr", cfg.Redis.Addr(), "error", err)
		rdb.Close()
		return nil
	}
	return rdb
}
