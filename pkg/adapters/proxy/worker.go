// Package proxy is the intercepting network proxy: a versioned worker that
// pre-caches the app shell, routes GET requests through per-kind cache
// policies and resynchronizes the link list in the background.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

type State int

const (
	StateInstalling State = iota
	StateInstalled        // waiting for the active worker to give way
	StateActivating
	StateActivated
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// ShellAssets are pre-cached on install and always routed cache-first.
var ShellAssets = []string{"/", "/index.html", "/manifest.json", "/favicon.svg"}

// Worker is one version of the proxy's caching logic.
type Worker struct {
	version string

	mu    sync.RWMutex
	state State
}

func NewWorker(version string) *Worker {
	return &Worker{version: version}
}

func (w *Worker) Version() string {
	return w.version
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) CoreBucket() string    { return "linkvault-" + w.version }
func (w *Worker) StaticBucket() string  { return "linkvault-static-" + w.version }
func (w *Worker) DynamicBucket() string { return "linkvault-dynamic-" + w.version }

// Broadcaster delivers proxy->page messages.
type Broadcaster interface {
	Broadcast(msg domain.Message) error
}

// Registration owns the worker lifecycle: at most one active worker and
// one waiting.
type Registration struct {
	cache     ports.CacheStorage
	network   http.RoundTripper
	appOrigin *url.URL
	pages     Broadcaster

	lifecycle sync.Mutex // serializes Register and SkipWaiting

	mu      sync.RWMutex
	active  *Worker
	waiting *Worker

	log zerolog.Logger
}

func NewRegistration(cache ports.CacheStorage, network http.RoundTripper, appOrigin string, pages Broadcaster) (*Registration, error) {
	origin, err := url.Parse(appOrigin)
	if err != nil {
		return nil, fmt.Errorf("parsing app origin: %w", err)
	}
	if network == nil {
		network = http.DefaultTransport
	}
	return &Registration{
		cache:     cache,
		network:   network,
		appOrigin: origin,
		pages:     pages,
		log:       logger.With("proxy"),
	}, nil
}

// Active is the worker requests are routed through, or nil before the
// first activation.
func (r *Registration) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registration) Waiting() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// Register installs w. The first worker activates at once; later ones wait
// for SkipWaiting and pages are told an update is available.
func (r *Registration) Register(ctx context.Context, w *Worker) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	w.setState(StateInstalling)
	if err := r.install(ctx, w); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("installing worker %s: %w", w.Version(), err)
	}
	w.setState(StateInstalled)
	r.log.Info().Str("version", w.Version()).Msg("worker installed")

	if r.Active() == nil {
		return r.activate(ctx, w)
	}

	r.mu.Lock()
	if r.waiting != nil {
		r.waiting.setState(StateRedundant)
	}
	r.waiting = w
	r.mu.Unlock()

	if err := r.pages.Broadcast(domain.Message{Type: domain.MsgUpdateAvailable}); err != nil {
		r.log.Warn().Err(err).Msg("announcing update")
	}
	return nil
}

// SkipWaiting activates the waiting worker, if any.
func (r *Registration) SkipWaiting(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	w := r.waiting
	r.waiting = nil
	r.mu.Unlock()

	if w == nil {
		r.log.Debug().Msg("skip waiting: no worker waiting")
		return nil
	}
	return r.activate(ctx, w)
}

// install pre-caches the shell. Asset failures are logged and skipped.
func (r *Registration) install(ctx context.Context, w *Worker) error {
	if err := r.cache.OpenBucket(ctx, w.StaticBucket()); err != nil {
		return err
	}
	for _, asset := range ShellAssets {
		target := r.appOrigin.ResolveReference(&url.URL{Path: asset})
		if err := r.precache(ctx, w.StaticBucket(), target); err != nil {
			r.log.Warn().Err(err).Str("asset", asset).Msg("pre-cache failed")
		}
	}
	return r.cache.OpenBucket(ctx, w.DynamicBucket())
}

func (r *Registration) precache(ctx context.Context, bucket string, target *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	resp, err := r.network.RoundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !isOK(resp) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	_, err = store(ctx, r.cache, bucket, cacheKey(target), resp)
	return err
}

// activate drops every bucket the new worker does not own, then claims
// control.
func (r *Registration) activate(ctx context.Context, w *Worker) error {
	w.setState(StateActivating)

	keep := map[string]bool{w.CoreBucket(): true, w.StaticBucket(): true, w.DynamicBucket(): true}
	buckets, err := r.cache.Buckets(ctx)
	if err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("listing buckets: %w", err)
	}
	for _, name := range buckets {
		if keep[name] {
			continue
		}
		if err := r.cache.DeleteBucket(ctx, name); err != nil {
			r.log.Warn().Err(err).Str("bucket", name).Msg("deleting old bucket")
			continue
		}
		r.log.Info().Str("bucket", name).Msg("deleted old bucket")
	}

	r.mu.Lock()
	previous := r.active
	r.active = w
	r.mu.Unlock()
	if previous != nil {
		previous.setState(StateRedundant)
	}

	w.setState(StateActivated)
	r.log.Info().Str("version", w.Version()).Msg("worker activated")
	return nil
}
