package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist-api/internal/config"
	"github.com/BuzzLyutic/tasklist-api/internal/handler"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
	"github.com/BuzzLyutic/tasklist-api/internal/service"
	"github.com/BuzzLyutic/tasklist-api/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env не обязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to read .env", zap.Error(err))
	}

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Подключаем БД
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")

	taskRepo := repo.NewTaskRepo(pool)
	if err := taskRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to create tables", zap.Error(err))
	}

	taskService := service.NewTaskService(taskRepo)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	sweeper := worker.NewSweeper(taskRepo, logger, cfg.SweepInterval, cfg.IdempotencyTTL)
	sweeper.Start(ctx)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(taskHandler, pool, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	sweeper.Stop()
	logger.Info("Server stopped successfully!")
}
