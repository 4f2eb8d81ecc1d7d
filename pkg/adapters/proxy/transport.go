package proxy

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

type route int

const (
	routeAPI route = iota
	routeStatic
	routeShell
)

func (r route) String() string {
	switch r {
	case routeAPI:
		return "api"
	case routeStatic:
		return "static"
	default:
		return "shell"
	}
}

// Transport routes GET requests through the active worker's cache
// policies. Other methods, and every request before activation, go
// straight to the network.
type Transport struct {
	reg     *Registration
	cache   ports.CacheStorage
	network http.RoundTripper
	apiHost string

	log zerolog.Logger
}

// NewTransport builds the intercepting RoundTripper. Requests to the host
// and port of apiOrigin are treated as API calls regardless of path; the
// app may share the hostname on another port. A nil apiOrigin matches
// on path only.
func NewTransport(reg *Registration, cache ports.CacheStorage, network http.RoundTripper, apiOrigin *url.URL) *Transport {
	if network == nil {
		network = http.DefaultTransport
	}
	var apiHost string
	if apiOrigin != nil && apiOrigin.Host != "" {
		apiHost = hostPort(apiOrigin)
	}
	return &Transport{
		reg:     reg,
		cache:   cache,
		network: network,
		apiHost: apiHost,
		log:     logger.With("proxy"),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	w := t.reg.Active()
	if req.Method != http.MethodGet || w == nil {
		return t.network.RoundTrip(req)
	}

	rt := t.classify(req.URL)
	t.log.Debug().Str("route", rt.String()).Str("url", req.URL.String()).Msg("intercepted")

	switch rt {
	case routeAPI:
		return t.networkFirst(req, w), nil
	case routeStatic:
		return t.cacheFirst(req, w.StaticBucket(), func() *http.Response {
			return notAvailable(req, "Asset not available offline")
		}), nil
	default:
		return t.cacheFirst(req, w.DynamicBucket(), func() *http.Response {
			index := req.URL.ResolveReference(&url.URL{Path: "/index.html"})
			if cached := t.match(req.Context(), cacheKey(index)); cached != nil {
				return fromCache(cached, req)
			}
			return notAvailable(req, "App not available offline")
		}), nil
	}
}

func (t *Transport) classify(u *url.URL) route {
	if strings.Contains(u.Path, "/api/") || (t.apiHost != "" && hostPort(u) == t.apiHost) {
		return routeAPI
	}
	if slices.Contains(ShellAssets, u.Path) || strings.HasPrefix(u.Path, "/assets/") {
		return routeStatic
	}
	return routeShell
}

// hostPort is u's host with the scheme's default port filled in.
func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// networkFirst serves fresh data when possible, then the last cached copy,
// then a synthesized offline error.
func (t *Transport) networkFirst(req *http.Request, w *Worker) *http.Response {
	key := cacheKey(req.URL)

	resp, err := t.network.RoundTrip(req)
	if err == nil && isOK(resp) {
		return t.keep(req, w.DynamicBucket(), key, resp)
	}
	if err == nil {
		discard(resp)
		t.log.Debug().Int("status", resp.StatusCode).Str("url", key).Msg("api responded with error status")
	} else {
		t.log.Debug().Err(err).Str("url", key).Msg("api unreachable")
	}

	if cached := t.match(req.Context(), key); cached != nil {
		return fromCache(cached, req)
	}
	return offlineResponse(req)
}

// cacheFirst answers from any bucket, else fetches and caches 2xx responses
// into bucket. fallback runs only when the network is unreachable.
func (t *Transport) cacheFirst(req *http.Request, bucket string, fallback func() *http.Response) *http.Response {
	key := cacheKey(req.URL)
	if cached := t.match(req.Context(), key); cached != nil {
		return fromCache(cached, req)
	}

	resp, err := t.network.RoundTrip(req)
	if err != nil {
		t.log.Debug().Err(err).Str("url", key).Msg("network unreachable")
		return fallback()
	}
	if !isOK(resp) {
		return resp
	}
	return t.keep(req, bucket, key, resp)
}

func (t *Transport) keep(req *http.Request, bucket, key string, resp *http.Response) *http.Response {
	kept, err := store(req.Context(), t.cache, bucket, key, resp)
	if err != nil {
		t.log.Warn().Err(err).Str("bucket", bucket).Str("url", key).Msg("caching response")
	}
	if kept == nil {
		// The body could not be read; nothing usable remains.
		return synthesize(req, http.StatusBadGateway, "text/plain; charset=utf-8", []byte("Bad Gateway"))
	}
	return kept
}

func (t *Transport) match(ctx context.Context, key string) *domain.CachedResponse {
	cached, err := t.cache.Match(ctx, "", key)
	if err != nil {
		t.log.Warn().Err(err).Str("url", key).Msg("cache lookup failed")
		return nil
	}
	return cached
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
