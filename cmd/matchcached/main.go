package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/classifier"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/detector"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/scheduler"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/application/service"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/config"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata"
	providerclient "github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/http/client"
	storepg "github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/db/postgres/repo"
	storeredis "github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/db/redis"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/db/tracing"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/notify"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/transport/http/handlers"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info("matchcached starting", zap.String("http_addr", addr))

	tp, err := tracing.InitTracer("matchcached", cfg.Env, cfg.Jaeger)
	if err != nil {
		log.Fatal("failed to init tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storepg.New(startCtx, cfg.DB.DatabaseURL())
	cancelStart()
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	marks := storeredis.NewReminderMarks(redisClient)
	budget := storeredis.NewCallBudget(redisClient)

	source := cricketdata.NewSource(providerclient.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		&http.Client{Timeout: cfg.Provider.Timeout},
	))

	var sink *notify.WebhookSink
	if cfg.Notify.WebhookURL != "" {
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL, &http.Client{Timeout: cfg.Notify.Timeout})
	}

	rules := classifier.New(classifier.DefaultRules())
	syncService := service.NewSyncService(log, source, store, budget, rules, cfg.Provider.DailyBudget, cfg.Sync.RefreshLead)
	gate := service.NewRefreshGate(log, store, cfg.Sync.LiveWindow)
	det := detector.New(log, store, asSink(sink), cfg.Sync.DetectorWindow)
	cacheService := service.NewCacheService(log, store, budget, cfg.Provider.DailyBudget)

	sched := scheduler.New(log, syncService, gate, det, store, marks, asSink(sink), scheduler.Config{
		FullSyncAt:        cfg.Sync.FullSyncAt,
		RefreshInterval:   cfg.Sync.RefreshInterval,
		ReminderInterval:  cfg.Sync.ReminderInterval,
		ReminderLead:      cfg.Sync.ReminderLead,
		RetentionDays:     cfg.Sync.RetentionDays,
		DeepRetentionDays: cfg.Sync.DeepRetentionDays,
		DeepSweepEvery:    cfg.Sync.DeepSweepEvery,
		StartupFreshness:  cfg.Sync.StartupFreshness,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	matchHandler := handlers.NewMatchHandler(log, cacheService, cfg.HTTP.WriteTimeout)
	adminHandler := handlers.NewAdminHandler(log, cacheService, sched, cfg.HTTP.WriteTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/v1/matches", matchHandler.GetMatches)
	mux.HandleFunc("/v1/admin/sync", adminHandler.ForceSync)
	mux.HandleFunc("/v1/admin/stats", adminHandler.Stats)
	mux.HandleFunc("/v1/admin/cleanup", adminHandler.Cleanup)

	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(log, mux),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		sched.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", zap.Error(err))
		}
		sched.Stop()
	}
}

// asSink keeps a nil *WebhookSink from becoming a non-nil interface.
func asSink(sink *notify.WebhookSink) ports.NotificationSink {
	if sink == nil {
		return nil
	}
	return sink
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func setupLogger(level string) *zap.Logger {
	zapLevel := parseLogLevel(level)
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return log
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
