package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/auth"
	"github.com/BuzzLyutic/task-tracker/internal/config"
	"github.com/BuzzLyutic/task-tracker/internal/handler"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/migrations"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err))
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database")

	taskService := service.NewTaskService(repo.NewTaskRepo(pool))
	authService := auth.NewService(
		repo.NewUserRepo(pool),
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenManager(auth.TokenConfig{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}),
	)

	router := handler.NewRouter(
		handler.NewTaskHandler(taskService, logger),
		handler.NewAuthHandler(authService, logger, cfg.CookieSecure),
		auth.NewMiddleware(authService, logger),
	)

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			logger.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})

	code := <-wait
	pool.Close()
	logger.Info("Server stopped", zap.Int("exit_code", code))
	logger.Sync()
	os.Exit(code)
}
