package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wassali-delivery/accounts-api/internal/api"
	"github.com/wassali-delivery/accounts-api/internal/core/service"
	"github.com/wassali-delivery/accounts-api/internal/infrastructure/broker"
	"github.com/wassali-delivery/accounts-api/internal/infrastructure/config"
	mongodb "github.com/wassali-delivery/accounts-api/internal/infrastructure/db/mongo"
	redisdb "github.com/wassali-delivery/accounts-api/internal/infrastructure/db/redis"
	"github.com/wassali-delivery/accounts-api/pkg/logger"
)

func main() {
	cfg := config.Load(slog.Default())

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	repo := mongodb.NewAccountRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	notifier := broker.NewRabbitMQNotifier(cfg.RabbitMQ.URL, log)
	defer notifier.Close()

	stats := redisdb.NewStatsCache(rdb)
	accounts := service.NewAccountService(repo, notifier, stats, cfg.AdminEmail, cfg.AdminPassword, log)
	auth := service.NewAuthService(repo, notifier, cfg.JWTSecret, 24*time.Hour, log)

	// Bootstrap failures are logged but never abort startup: the service can
	// run without the super admin until an operator fixes the configuration.
	if err := accounts.EnsureSuperAdmin(ctx); err != nil {
		log.Error().Err(err).Msg("super admin bootstrap failed")
	}

	e := api.NewRouter(accounts, auth, db, rdb, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("accounts api listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
