package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/database"
	"github.com/abiturprep/abitur-backend/internal/handler"
	"github.com/abiturprep/abitur-backend/internal/hexcode"
	"github.com/abiturprep/abitur-backend/internal/llm"
	"github.com/abiturprep/abitur-backend/internal/logger"
	"github.com/abiturprep/abitur-backend/internal/repository"
	"github.com/abiturprep/abitur-backend/internal/router"
	"github.com/abiturprep/abitur-backend/internal/service"
	"github.com/abiturprep/abitur-backend/internal/validator"
	"github.com/abiturprep/abitur-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting AbiturPrep Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examJobRepo := repository.NewExamJobRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	promptRepo := repository.NewPromptRepository(pool, rdb)

	queue := worker.NewRedisQueue(rdb, config.WorkerKey.GenerateExamsQueue)

	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo)
	examService := service.NewExamService(examJobRepo, promptRepo, userRepo, queue,
		hexcode.New(hexcode.Strategy(cfg.HexCodeStrategy)), cfg, log)

	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService),
		Profile: handler.NewProfileHandler(userService),
		Exam:    handler.NewExamHandler(examService),
		WS:      handler.NewWSHandler(rdb, examService, log, cfg.AllowedOrigins),
	}

	// The generation worker owns the LLM call; HTTP never waits on it.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	generationWorker := worker.NewGenerationWorker(rdb, examJobRepo, llm.New(cfg), cfg, log)
	go generationWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker loop. An interrupted generation still gets its
	// terminal write; those run on a detached context.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
