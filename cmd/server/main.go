package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/smart-dashboard/internal/auth"
	"github.com/benvon/smart-dashboard/internal/config"
	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/handlers"
	"github.com/benvon/smart-dashboard/internal/logger"
	"github.com/benvon/smart-dashboard/internal/middleware"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/queue"
	"github.com/benvon/smart-dashboard/internal/services/ai"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/benvon/smart-dashboard/internal/store"
	"github.com/benvon/smart-dashboard/internal/telemetry"
	"github.com/benvon/smart-dashboard/internal/workers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "smart-dashboard"

	// Tokens outlive in-memory sessions so a persisted dashboard can be restored.
	sessionTokenTTL = 30 * 24 * time.Hour

	janitorInterval        = 5 * time.Minute
	rateLimitReloadEvery   = time.Minute
	requestTimeout         = 30 * time.Second
	gracefulShutdownPeriod = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request previews")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, zapLogger, debugMode)
	stop()
	if err != nil {
		zapLogger.Error("server_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
	zapLogger.Info("server_exited")
	_ = logger.Sync(zapLogger)
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, debugMode bool) error {
	zapLogger.Info("server_starting",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("state_store", cfg.StateStore),
		zap.String("chat_strategy", cfg.ChatStrategy),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("reminder_notifier", cfg.ReminderNotifier),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	otelEnabled := cfg.OTELEnabled && cfg.OTELEndpoint != ""
	if cfg.OTELEnabled && !otelEnabled {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
	}
	shutdownTracing, err := telemetry.Setup(ctx, otelEnabled, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	health := handlers.NewHealthChecker()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			zapLogger.Warn("failed_to_close_state_store", zap.Error(err))
		}
	}()
	if backend.Persistent() {
		health.AddCheck("database", backend.Ping)
	}
	zapLogger.Info("state_store_ready", zap.String("backend", backend.Kind))

	// Without REDIS_URL rate limits are tracked per process
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		health.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		zapLogger.Info("connected_to_redis")
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		return fmt.Errorf("failed to create rate limit store: %w", err)
	}

	var notifier workers.Notifier = workers.NewLogNotifier(zapLogger)
	if cfg.ReminderNotifier == config.NotifierQueue {
		jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			return err
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		health.AddCheck("queue", jobQueue.HealthCheck)
		notifier = workers.NewQueueNotifier(jobQueue)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.Options{
		Store:        backend.State,
		TTL:          cfg.SessionTTL,
		SeedDemoData: cfg.SeedDemoData,
		StateOptions: []dashboard.Option{
			dashboard.WithLocation(loc),
			dashboard.WithNotificationDisplay(cfg.NotificationDisplay),
		},
	}, zapLogger)

	tokens, err := auth.NewTokenManager(cfg.SessionSecret, sessionTokenTTL)
	if err != nil {
		return err
	}
	if cfg.EphemeralSecret {
		zapLogger.Warn("session_secret_ephemeral",
			zap.String("hint", "set SESSION_SECRET so session tokens survive restarts"),
		)
	}

	responder, err := ai.NewResponder(ai.ResponderConfig{
		Strategy:     models.ChatStrategy(cfg.ChatStrategy),
		Provider:     cfg.AIProvider,
		APIKey:       cfg.AIKey(),
		Model:        cfg.AIModel,
		BaseURL:      cfg.AIBaseURL,
		Timeout:      cfg.AITimeout,
		HistoryTurns: cfg.ChatHistoryTurns,
		DebugMode:    debugMode,
	}, ai.DefaultRegistry(zapLogger), zapLogger)
	if err != nil {
		return fmt.Errorf("failed to create chat responder: %w", err)
	}

	rateLimitReloader := middleware.NewRateLimitReloader(limiterStore, backend.Ratelimit, cfg.RateLimit, zapLogger, rateLimitReloadEvery)
	dispatcher := workers.NewReminderDispatcher(sessions, notifier, cfg.ReminderPollInterval, zapLogger)

	r := mux.NewRouter()
	if otelEnabled {
		r.Use(telemetry.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", health.HealthCheck).Methods("GET")
	handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")).RegisterRoutes(r)

	// Dashboard routes are rate limited and session scoped
	dashboardRouter := r.NewRoute().Subrouter()
	dashboardRouter.Use(rateLimitReloader.Middleware())
	dashboardRouter.Use(middleware.Session(tokens, sessions, sessionTokenTTL, cfg.EnableHSTS, zapLogger))
	handlers.NewDashboardHandler(sessions, responder, cfg.ChatHistoryTurns, zapLogger).RegisterRoutes(dashboardRouter)

	// Preflight requests need a matching route for the CORS middleware to run
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leaves room for a slow chat provider inside the request timeout
		WriteTimeout:   requestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("server_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(sessions.RunJanitor(gctx, janitorInterval))
	})
	g.Go(func() error {
		zapLogger.Info("reminder_dispatcher_started", zap.Duration("interval", cfg.ReminderPollInterval))
		return ignoreCanceled(dispatcher.Start(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(rateLimitReloader.Start(gctx))
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
