package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftlink/session-agent/internal/api"
	"github.com/craftlink/session-agent/internal/core/ports"
	"github.com/craftlink/session-agent/internal/core/service"
	"github.com/craftlink/session-agent/internal/infrastructure/config"
	"github.com/craftlink/session-agent/internal/infrastructure/realtime"
	"github.com/craftlink/session-agent/internal/infrastructure/store"
	"github.com/craftlink/session-agent/internal/infrastructure/upstream"
	"github.com/craftlink/session-agent/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("credential store initialisation failed")
	}

	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
	}, log)
	realtimeClient := realtime.NewClient(cfg.Realtime.Endpoint, log)

	sessions := service.NewSessionManager(credStore, upstreamClient, realtimeClient, log)

	// Resolve the persisted session once before serving, so the first
	// snapshot the UI reads is already Ready.
	sessions.Bootstrap(ctx)

	e := api.NewRouter(sessions, credStore, realtimeClient, cfg.APIToken, log)

	// The agent serves only the local UI: bind to loopback.
	addr := "127.0.0.1:" + cfg.Port
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("session agent listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	realtimeClient.Disconnect()
}

func buildStore(ctx context.Context, cfg *config.Config) (ports.CredentialStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		client, err := store.Connect(ctx, store.RedisConfig{
			Addr: cfg.Store.Redis.Addr,
			DB:   cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(client), nil
	case "file", "":
		return store.NewFileStore(cfg.Store.FilePath, cfg.Store.Passphrase)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
