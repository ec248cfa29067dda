package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/auth"
	"github.com/raulisai/Gateway-IA/src/cache"
	"github.com/raulisai/Gateway-IA/src/classifier"
	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/gateway"
	"github.com/raulisai/Gateway-IA/src/handlers"
	"github.com/raulisai/Gateway-IA/src/logging"
	"github.com/raulisai/Gateway-IA/src/middleware"
	"github.com/raulisai/Gateway-IA/src/providers"
	"github.com/raulisai/Gateway-IA/src/registry"
	"github.com/raulisai/Gateway-IA/src/router"
	"github.com/raulisai/Gateway-IA/src/usage"
	"github.com/raulisai/Gateway-IA/src/vault"
)

var (
	issueKey         = flag.Bool("issue-key", false, "issue a gateway key for -tenant and exit")
	keyName          = flag.String("key-name", "default", "label stored with an issued key")
	revokeKey        = flag.String("revoke-key", "", "revoke the given gateway key and exit")
	setCredential    = flag.Bool("set-credential", false, "seal -credential for -provider under -tenant and exit")
	deleteCredential = flag.Bool("delete-credential", false, "remove the -provider credential of -tenant and exit")
	tenantFlag       = flag.String("tenant", "", "tenant id for admin commands")
	providerFlag     = flag.String("provider", "", "provider name for -set-credential and -delete-credential")
	credential       = flag.String("credential", "", "provider API key for -set-credential (defaults to $PROVIDER_API_KEY)")
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	redisClient, err := vault.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	cipher, err := vault.NewCipher(cfg.Vault.MasterKey)
	if err != nil {
		logger.Fatal("invalid vault master key", zap.Error(err))
	}
	credentials := vault.New(redisClient, cipher)
	keys := auth.NewKeyStore(redisClient)

	if cmd := adminFromFlags(); cmd.requested() {
		if err := runAdmin(context.Background(), os.Stdout, cmd, keys, credentials); err != nil {
			logger.Fatal("admin command failed", zap.Error(err))
		}
		return
	}

	catalog, err := registry.New(cfg.Registry.Path, logger)
	if err != nil {
		logger.Fatal("failed to load model registry", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	logger.Info("model registry loaded",
		zap.String("path", cfg.Registry.Path),
		zap.Int("models", len(catalog.List(""))))

	db, err := usage.OpenDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to open usage database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	usageStore, err := usage.NewStore(db)
	if err != nil {
		logger.Fatal("failed to migrate usage database", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := gateway.NewMetrics(reg)

	executor := providers.NewExecutor(
		catalog,
		credentials,
		providers.NewDefaultAdapters(cfg.Providers.BaseURLs, &http.Client{}),
		providers.ExecutorOptions{
			CallTimeout:   cfg.Providers.CallTimeout,
			MaxConcurrent: cfg.Providers.MaxConcurrent,
			Retry:         providers.NewRetryPolicy(&cfg.Retry),
			Breaker:       &cfg.Breaker,
		},
		logger,
	)
	executor.OnAttempt = metrics.ObserveAttempt

	// Cached answers may name models a reload just retired.
	responses := cache.NewResponseCache(&cfg.Cache)
	catalog.OnReload = func(version uint64) {
		responses.Purge()
		logger.Info("response cache purged after registry reload", zap.Uint64("version", version))
	}

	gw := gateway.New(gateway.Dependencies{
		Classifier:      classifier.New(classifier.NewTokenEstimator(logger)),
		Router:          router.NewEngine(catalog, &cfg.Router, logger),
		Cache:           responses,
		Executor:        executor,
		Vault:           credentials,
		Recorder:        usage.NewRecorder(usageStore, usage.NewPricer(catalog), logger),
		Metrics:         metrics,
		MaxFallbacks:    cfg.Router.MaxFallbacks,
		DefaultStrategy: cfg.Router.DefaultStrategy,
	}, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go catalog.Watch(ctx, cfg.Registry.PollInterval)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	gatewayHandler := handlers.NewGatewayHandler(gw, catalog, usageStore, logger)
	authMiddleware := middleware.NewAuthMiddleware(keys, logger)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", gatewayHandler.HealthCheck)

		protected := v1.Group("")
		protected.Use(authMiddleware.RequireTenant(), middleware.Timeout(cfg.Server.RequestTimeout))
		gatewayHandler.RegisterRoutes(protected)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	logger.Info("gateway listening",
		zap.String("port", cfg.Server.Port),
		zap.String("default_strategy", cfg.Router.DefaultStrategy),
		zap.Bool("coalesce_misses", cfg.Cache.CoalesceMisses))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server exited")
}
