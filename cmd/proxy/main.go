package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/adapters/gateway"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/messaging"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/proxy"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkvault/pkg/config"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// openCache picks the bucket store from the URL scheme: redis://, memory,
// or anything the sqlite drivers accept.
func openCache(ctx context.Context, rawURL string) (ports.CacheStorage, io.Closer, error) {
	switch {
	case rawURL == "memory":
		return memory.NewCacheStorage(), io.NopCloser(nil), nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		store, err := redis.NewCacheStorage(ctx, rawURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		store, err := sqlite.NewCacheStorage(rawURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, closer, err := openCache(ctx, cfg.CacheStoreURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.CacheStoreURL).Msg("Failed to open cache storage")
	}
	defer closer.Close()

	bus := messaging.NewBus()
	srv, err := proxy.NewServer(cache, bus, proxy.Options{
		Version:        cfg.CacheVersion(),
		UpstreamAPIURL: cfg.UpstreamAPIURL,
		AppOrigin:      cfg.AppOrigin,
		Network:        gateway.AuthTransport(cfg.APISecret, http.DefaultTransport),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure proxy")
	}
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to install worker")
	}

	commandsDone := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(commandsDone)
	}()

	server := &http.Server{
		Addr:        ":" + cfg.ProxyPort,
		Handler:     srv,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.ProxyPort).
			Str("version", cfg.CacheVersion()).
			Str("upstream", cfg.UpstreamAPIURL).
			Str("app", cfg.AppOrigin).
			Msg("Proxy starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Proxy failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down proxy")

	bus.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Proxy forced to shutdown")
	}
	<-commandsDone
}
