package main

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/adapters/gateway"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/messaging"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkvault/pkg/core/connectivity"
	"github.com/wadjakorntonsri/linkvault/pkg/core/localstore"
	"github.com/wadjakorntonsri/linkvault/pkg/core/services"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const (
	probeTimeout  = 2 * time.Second
	probeInterval = 5 * time.Second
)

// app is one page: local store, gateway and sync layer.
type app struct {
	store   *localstore.Store
	sync    *services.SyncService
	monitor *connectivity.Monitor
	prober  *connectivity.Prober
	channel ports.ProxyChannel
}

func openKV(rawURL string) (ports.KeyValueStore, error) {
	if rawURL == "memory" {
		return memory.NewKeyValueStore(), nil
	}
	return sqlite.NewKeyValueStore(rawURL)
}

func openApp(ctx context.Context) (*app, error) {
	kv, err := openKV(cfg.LocalStoreURL)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	store := localstore.New(kv, localstore.Options{Version: cfg.CacheVersion()})
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	prober, err := connectivity.NewDialProber(cfg.APIURL, probeInterval, probeTimeout)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	online := !forceOffline && prober.Probe(ctx)

	var channel ports.ProxyChannel
	if cfg.ProxyURL != "" {
		rc, err := messaging.Dial(ctx, cfg.ProxyURL, nil)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyURL).Msg("proxy control channel unavailable")
		} else {
			channel = rc
		}
	}

	client := gateway.NewClient(cfg.APIURL, gateway.NewHTTPClient(cfg.APISecret, nil))
	monitor := connectivity.NewMonitor(online, channel)
	a := &app{
		store:   store,
		sync:    services.NewSyncService(client, store, monitor),
		monitor: monitor,
		prober:  prober,
		channel: channel,
	}
	monitor.OnBackgroundSync(func() {
		if err := a.sync.Load(ctx); err != nil {
			logger.Warn().Err(err).Msg("reload after background sync failed")
		}
	})
	return a, nil
}

func (a *app) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	return a.store.Close()
}

// withApp opens the page for the duration of fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
