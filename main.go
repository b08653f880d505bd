package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Dema10/beerproject/config"
	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/idempotency"
	"github.com/Dema10/beerproject/logger"
	"github.com/Dema10/beerproject/metrics"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/routes"
	"github.com/Dema10/beerproject/store"
	"github.com/Dema10/beerproject/store/gormstore"
	"github.com/Dema10/beerproject/store/memstore"
	"github.com/Dema10/beerproject/store/mongostore"
	"github.com/Dema10/beerproject/workflow"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "beerproject", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("bye")
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	var closers []io.Closer
	closers = append(closers, st)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", "error", err)
			}
		}
	}()

	// Order events: dashboards, metrics and, when configured, kafka.
	hub := events.NewHub(log)
	closers = append(closers, hub)
	m := metrics.New("api")
	publishers := events.Multi{hub, m}
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.KafkaTopic, log)
		closers = append(closers, kp)
		publishers = append(publishers, kp)
		log.Info("kafka publisher enabled", "brokers", brokers, "topic", cfg.KafkaTopic)
	}

	var claims idempotency.Claimer
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, rdb)
		claims = idempotency.NewRedisClaimer(rdb, idempotency.DefaultTTL)
		log.Info("idempotency keys enabled", "redis", cfg.RedisAddr)
	}

	services := routes.Services{
		Cart:      workflow.NewCartService(st),
		Checkout:  workflow.NewCheckoutService(st, publishers, claims, log),
		Orders:    workflow.NewOrderService(st, publishers, log),
		Catalog:   workflow.NewCatalogService(st),
		Hub:       hub,
		JWTSecret: cfg.JWTSecret,
	}

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), m.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", idempotency.Header},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowsAny(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20

	r.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "websocket_clients": hub.Clients()})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	routes.SetupRoutes(r, services)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server running", "addr", srv.Addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// Websocket connections are hijacked and not tracked by Shutdown.
		_ = hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore connects the configured driver and prepares its schema.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres, config.DriverMySQL:
		dsn := cfg.DatabaseURL
		if cfg.StorageDriver == config.DriverMySQL {
			dsn = cfg.MySQLDSN
		}
		st, err := gormstore.Open(gormstore.Options{
			Dialect: cfg.StorageDriver,
			DSN:     dsn,
			Retries: cfg.TxRetries,
			Logger:  log,
		})
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		return st, nil
	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return st, nil
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
