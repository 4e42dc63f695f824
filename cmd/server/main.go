package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/adapter/events"
	"github.com/bookrow/storefront/internal/adapter/handler"
	"github.com/bookrow/storefront/internal/adapter/storage"
	"github.com/bookrow/storefront/internal/config"
	"github.com/bookrow/storefront/internal/core/service"
	"github.com/bookrow/storefront/internal/port"
	"github.com/bookrow/storefront/internal/seed"
)

type repositories interface {
	port.BookRepository
	port.InventoryRepository
	port.CartRepository
	port.UserRepository
	port.OrderRepository
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg.Logging)

	// Persistent store: MySQL when a DSN is configured, in-memory otherwise.
	var store repositories
	var db *sql.DB
	if cfg.MySQL.DSN != "" {
		db, err = sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open mysql")
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ping mysql")
		}

		mysqlStore := storage.NewMySQLStore(db)
		if err := mysqlStore.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = mysqlStore
		logger.Info().Msg("connected to mysql")
	} else {
		store = storage.NewMemoryStore()
		logger.Info().Msg("running on in-memory store")
	}

	// Optional Redis stock cache.
	var stockCache port.StockCache
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		stockCache = storage.NewRedisStockCache(rdb)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}

	// Optional RabbitMQ event publisher.
	var publisher port.EventPublisher
	var rabbitConn *amqp.Connection
	var rabbitPub *events.RabbitPublisher
	if cfg.Rabbit.Enabled {
		rabbitConn, err = amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect rabbitmq")
		}
		rabbitPub, err = events.NewRabbitPublisher(rabbitConn, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open rabbitmq channel")
		}
		publisher = rabbitPub
		logger.Info().Msg("connected to rabbitmq")
	}

	if cfg.Seed {
		if err := seed.Run(ctx, store, store, store, store, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	stockSvc := service.NewStockService(store, stockCache, service.GuardStrategy(cfg.Inventory.Guard), logger)
	stockSvc.SetMaxRetries(cfg.Inventory.MaxRetries)
	if stockCache != nil {
		if err := stockSvc.WarmCache(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to warm stock cache")
		}
		logger.Info().Msg("stock cache warmed")
	}

	cartSvc := service.NewCartService(store, stockSvc, logger)
	checkoutSvc := service.NewCheckoutService(store, store, stockCache, publisher, logger)
	catalogSvc := service.NewCatalogService(store, store, logger)
	recommendSvc := service.NewRecommendService(store, store, logger)

	h := handler.NewHTTPHandler(store, store, catalogSvc, cartSvc, checkoutSvc, recommendSvc, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("guard", cfg.Inventory.Guard).
			Msg("storefront listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	if rabbitPub != nil {
		rabbitPub.Close()
	}
	if rabbitConn != nil {
		rabbitConn.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info().Msg("connections closed")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
