package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slotswap/internal/app"
	"github.com/Freeeeeet/slotswap/internal/config"
	"github.com/Freeeeeet/slotswap/internal/handler"
	"github.com/Freeeeeet/slotswap/internal/notify"
	"github.com/Freeeeeet/slotswap/internal/repository"
	"github.com/Freeeeeet/slotswap/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Repositories and the transactional unit of work
	slotRepo := repository.NewSlotRepository(pool)
	swapRepo := repository.NewSwapRequestRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	uow := repository.NewUnitOfWork(pool)

	// Notification fan-out: live connections always; redis and telegram
	// when configured
	hub := notify.NewHub()
	sinks := []notify.Sink{hub}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		sinks = append(sinks, notify.NewRedisSink(rdb))
		logger.Info("Redis notification sink enabled", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create telegram bot", zap.Error(err))
		}
		sinks = append(sinks, notify.NewTelegramSink(b, userRepo))
		logger.Info("Telegram notification sink enabled")
	}

	dispatcher := notify.NewAsyncDispatcher(logger, 256, sinks...)
	defer dispatcher.Close()

	// Services
	swapService := service.NewSwapService(uow, slotRepo, swapRepo, userRepo, dispatcher, logger)
	slotService := service.NewSlotService(slotRepo, userRepo, logger)

	// HTTP binding
	router := handler.NewRouter(
		handler.NewSlotHandler(slotService, logger),
		handler.NewSwapHandler(swapService, logger),
		handler.NewEventsHandler(hub, logger),
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoint holds connections open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
