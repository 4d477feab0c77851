package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/database"
	"github.com/stemsi/exstem-practice/internal/handler"
	"github.com/stemsi/exstem-practice/internal/logger"
	"github.com/stemsi/exstem-practice/internal/repository"
	"github.com/stemsi/exstem-practice/internal/router"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/validator"
	"github.com/stemsi/exstem-practice/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Int("page_size", cfg.PageSize).
		Dur("page_duration", cfg.PageDuration).
		Dur("mock_test_duration", cfg.MockTestDuration).
		Msg("Starting ExStem Practice")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	setRepo := repository.NewQuestionSetRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	preferenceRepo := repository.NewPreferenceRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	questionService := service.NewQuestionService(setRepo, questionRepo, rdb, service.QuestionOptions{
		PageSize:         cfg.PageSize,
		PageDuration:     cfg.PageDuration,
		MockTestDuration: cfg.MockTestDuration,
		CacheTTL:         cfg.QuestionCacheTTL,
	}, log)
	preferenceService := service.NewPreferenceService(preferenceRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Set:        handler.NewSetHandler(questionService, log),
		Preference: handler.NewPreferenceHandler(preferenceService, log),
		Session:    handler.NewSessionHandler(questionService, preferenceService, log, cfg.AllowedOrigins, nil),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every question set into Redis BEFORE accepting traffic.
	if err := questionService.PrewarmAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workersDone := make(chan struct{})
	close(workersDone)

	if cfg.CacheRefreshSchedule != "" {
		refresher, err := worker.NewCacheRefreshWorker(questionService, cfg.CacheRefreshSchedule, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid cache refresh schedule")
		}
		workersDone = make(chan struct{})
		go func() {
			defer close(workersDone)
			refresher.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). Hijacked WebSocket
	// connections are not tracked by Shutdown; they end with the process
	// and their sessions are dropped unscored.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for a running refresh to finish.
	workerCancel()
	<-workersDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
