package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/workstream/internal/gateway"
	"github.com/yourorg/workstream/internal/handler"
	"github.com/yourorg/workstream/internal/infrastructure/logger"
	"github.com/yourorg/workstream/internal/infrastructure/redis"
	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/observability/tracing"
	"github.com/yourorg/workstream/internal/resource"
	"github.com/yourorg/workstream/internal/security/audit"
	"github.com/yourorg/workstream/internal/security/auth"
	"github.com/yourorg/workstream/internal/security/middleware"
	"github.com/yourorg/workstream/internal/security/ratelimit"
	"github.com/yourorg/workstream/internal/service"
	"github.com/yourorg/workstream/internal/store"
	"github.com/yourorg/workstream/internal/store/memory"
	"github.com/yourorg/workstream/internal/store/mongodb"
	"github.com/yourorg/workstream/internal/worker"
	"github.com/yourorg/workstream/pkg/cache"
	"github.com/yourorg/workstream/pkg/config"
	"github.com/yourorg/workstream/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting workstream server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "workstream", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize document store: MongoDB when configured, in-memory
	// otherwise. Either way the service layer sees the guarded interface.
	var backing store.Store
	if cfg.MongoURI != "" {
		mongoStore, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			log.Error("failed to connect to MongoDB", slog.String("error", err.Error()))
			os.Exit(1)
		}
		backing = mongoStore
	} else {
		log.Warn("MONGO_URI not set, using in-memory store")
		backing = memory.New()
	}
	st := store.Guard(backing, log)
	defer st.Close(context.Background())

	// 5. Initialize services
	registry := service.NewRegistry(st, log, cache.New())

	// 6. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "workstream")
	userStore, err := auth.NewUserStore(cfg.DevUsers)
	if err != nil {
		log.Error("failed to parse DEV_USERS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// Audit trail goes to Postgres when configured, logs only otherwise.
	var auditSink audit.Sink
	var pool *database.ConnectionPool
	if cfg.DatabaseURL != "" {
		pool, err = database.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		auditSink, err = audit.NewPostgresSink(ctx, pool)
		if err != nil {
			log.Error("failed to initialize audit sink", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	auditLogger := audit.NewLogger(log, auditSink)

	// 7. Initialize the realtime gateway
	hub := gateway.NewHub(log)

	// Redis fans broadcasts out across instances when configured.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		if err := hub.StartFanout(ctx, redisClient); err != nil {
			log.Error("failed to start broadcast fanout", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	broadcaster := gateway.NewBroadcaster(registry, hub, log)
	dispatcher := gateway.NewDispatcher(registry, hub, broadcaster, rateLimiter, auditLogger, log)
	wsHandler := gateway.NewHandler(tokenManager, hub, dispatcher, log, cfg.CORSAllowedOrigins)

	// 8. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("GET /ws", wsHandler)
	mux.Handle("POST /api/login", handler.NewLoginHandler(userStore, tokenManager, log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handler.Healthz())
	mux.HandleFunc("/readyz", handler.Readyz(readinessDeps(st, redisClient, pool)))

	rootHandler := middleware.RequestID(
		middleware.CORS(cfg.CORSAllowedOrigins)(
			middleware.ValidateJSONContentType(log)(
				metrics.HTTPMetricsMiddleware(mux),
			),
		),
		log,
	)

	// 9. Start purge worker in background
	purgeWorker := worker.NewPurgeWorker(
		st,
		resource.Catalog(),
		log,
		time.Duration(cfg.PurgeIntervalMinutes)*time.Minute,
		time.Duration(cfg.PurgeRetentionDays)*24*time.Hour,
	)
	go purgeWorker.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("resources", len(registry.All())),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop purge worker and fanout subscription
	broadcaster.Wait()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func readinessDeps(st store.Store, redisClient *redis.Client, pool *database.ConnectionPool) map[string]handler.Pinger {
	deps := map[string]handler.Pinger{"store": st}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	if pool != nil {
		deps["postgres"] = pingerFunc(pool.Health)
	}
	return deps
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
