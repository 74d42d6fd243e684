package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/express-accounts/internal/config"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/server"
	"github.com/hongminglow/express-accounts/internal/storage"
	"github.com/hongminglow/express-accounts/internal/storage/postgres"
	redisstore "github.com/hongminglow/express-accounts/internal/storage/redis"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error(context.Background(), "load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()
	if envErr != nil {
		log.Info(ctx, "no .env file found; relying on existing environment")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	var consumed storage.ConsumedTokenStore
	if cfg.RedisURL != "" {
		client, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		consumed = redisstore.NewConsumedTokens(client)
		log.Info(ctx, "using redis for consumed confirmation tokens")
	}

	srv, err := server.New(cfg, server.Deps{
		Store:    store,
		Consumed: consumed,
		DB:       store,
		Log:      log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "accounts backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info(ctx, "shutting down", "signal", sig.String())
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(ctxShutdown)
}
