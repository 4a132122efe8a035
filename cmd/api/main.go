package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/dealersight/dealersight/config"
	"github.com/dealersight/dealersight/internal/handlers"
	"github.com/dealersight/dealersight/pkg/analytics"
	"github.com/dealersight/dealersight/pkg/database"
	"github.com/dealersight/dealersight/pkg/events"
	"github.com/dealersight/dealersight/pkg/health"
	"github.com/dealersight/dealersight/pkg/httpclient"
	"github.com/dealersight/dealersight/pkg/mapping"
	"github.com/dealersight/dealersight/pkg/middleware"
	"github.com/dealersight/dealersight/pkg/providers/ga4"
	"github.com/dealersight/dealersight/pkg/providers/searchconsole"
	"github.com/dealersight/dealersight/pkg/redis"
	"github.com/dealersight/dealersight/pkg/repositories"
	"github.com/dealersight/dealersight/pkg/resolver"
	"github.com/dealersight/dealersight/pkg/secrets"
	"github.com/dealersight/dealersight/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("failed to set up tracing")
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	db, err := database.Connect(ctx, database.Config{
		Driver:       cfg.DatabaseDriver,
		Host:         cfg.DatabaseHost,
		Port:         cfg.DatabasePort,
		UserName:     cfg.DatabaseUserName,
		Password:     cfg.DatabasePassword,
		Name:         cfg.DatabaseName,
		SSLMode:      cfg.DatabaseSSLMode,
		MaxOpenConns: cfg.DatabaseMaxOpenConns,
		MaxIdleConns: cfg.DatabaseMaxIdleConns,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		// The cache is an optimization; the API still serves without it
		logger.WithError(err).Warn("failed to connect to Redis, analytics caching disabled")
	} else {
		defer redisClient.Close()
	}

	codec, err := secrets.NewCodec(cfg.CredentialKey)
	if err != nil {
		logger.WithError(err).Error("invalid credential key")
		os.Exit(1)
	}

	var producer *events.Producer
	if cfg.KafkaBrokers != "" {
		producer = events.NewProducer(events.ProducerConfig{
			Brokers: strings.Split(cfg.KafkaBrokers, ","),
			Topic:   cfg.KafkaAnalyticsTopic,
		}, logger)
		defer producer.Close()
	}

	agencyRepo := repositories.NewAgencyRepository(db, logger)
	dealershipRepo := repositories.NewDealershipRepository(db, logger)
	userRepo := repositories.NewUserRepository(db, logger)
	connectionRepo := repositories.NewConnectionRepository(db, logger)

	connectionResolver := resolver.New(dealershipRepo, userRepo, connectionRepo, mapping.Default(), codec, logger)

	providerHTTP := httpclient.NewClient(httpclient.Config{Timeout: cfg.ProviderTimeout}, logger)
	ga4Client := ga4.NewClient(providerHTTP, cfg.GA4Endpoint, logger)
	searchConsoleClient := searchconsole.NewClient(providerHTTP, cfg.SearchConsoleEndpoint, logger)

	var cache analytics.Cache
	if redisClient != nil {
		cache = analytics.NewRedisCache(redisClient)
	} else {
		cache = noopCache{}
	}

	coordinator := analytics.NewCoordinator(connectionResolver, ga4Client, searchConsoleClient, cache, producer, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(echomiddleware.Recover())

	checker := health.NewChecker(db, redisClient, version)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	if cfg.AuthEnabled {
		api.Use(middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID))
	}

	handlers.NewAgencyHandler(agencyRepo, logger).RegisterRoutes(api)
	handlers.NewDealershipHandler(dealershipRepo, logger).RegisterRoutes(api)
	handlers.NewUserHandler(userRepo, logger).RegisterRoutes(api)
	handlers.NewConnectionHandler(connectionRepo, codec, logger).RegisterRoutes(api)
	handlers.NewAnalyticsHandler(coordinator, connectionResolver, logger).RegisterRoutes(api)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	go func() {
		checker.SetReady(true)
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server cleanly")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func setupTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	var otlpCfg *tracing.OTLPConfig
	if cfg.OTLPEnabled {
		otlpCfg = &tracing.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		}
	}
	return tracing.Setup(ctx, cfg.AppName, otlpCfg)
}

// noopCache stands in when Redis is unavailable; every read is a miss and
// writes are dropped.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (string, error) {
	return "", analytics.ErrCacheMiss
}

func (noopCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

func (noopCache) Del(ctx context.Context, keys ...string) error {
	return nil
}
