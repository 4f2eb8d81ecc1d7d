package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/messaging"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// StatusPath reports the worker lifecycle.
const StatusPath = "/__linkvault/status"

type Options struct {
	// Version tags this process's worker, e.g. "v1.0.1".
	Version string
	// UpstreamAPIURL is the canonical CRUD endpoint.
	UpstreamAPIURL string
	// AppOrigin serves the app shell.
	AppOrigin string
	// Network reaches the real origins. Defaults to http.DefaultTransport.
	Network http.RoundTripper
}

// Server is the proxy's HTTP front: a reverse proxy for relative requests,
// a forward proxy for absolute ones, and the page control plane.
type Server struct {
	reg       *Registration
	transport *Transport
	bus       *messaging.Bus
	syncs     *SyncManager
	version   string

	apiOrigin *url.URL
	appOrigin *url.URL

	handler http.Handler
	log     zerolog.Logger
}

func NewServer(cache ports.CacheStorage, bus *messaging.Bus, opts Options) (*Server, error) {
	upstream, err := url.Parse(opts.UpstreamAPIURL)
	if err != nil || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream API URL %q", opts.UpstreamAPIURL)
	}
	appOrigin, err := url.Parse(opts.AppOrigin)
	if err != nil || appOrigin.Host == "" {
		return nil, fmt.Errorf("invalid app origin %q", opts.AppOrigin)
	}
	network := opts.Network
	if network == nil {
		network = http.DefaultTransport
	}

	reg, err := NewRegistration(cache, network, opts.AppOrigin, bus)
	if err != nil {
		return nil, err
	}

	// When the app and API share an origin only the path tells them apart.
	apiHost := upstream
	if hostPort(upstream) == hostPort(appOrigin) {
		apiHost = nil
	}

	s := &Server{
		reg:       reg,
		transport: NewTransport(reg, cache, network, apiHost),
		bus:       bus,
		syncs:     NewSyncManager(),
		version:   opts.Version,
		apiOrigin: &url.URL{Scheme: upstream.Scheme, Host: upstream.Host},
		appOrigin: &url.URL{Scheme: appOrigin.Scheme, Host: appOrigin.Host},
		log:       logger.With("proxy"),
	}

	links := &LinkSync{reg: reg, network: network, pages: bus, listURL: ListURL(upstream)}
	s.syncs.Handle(domain.SyncTagLinks, links.Run)

	rp := &httputil.ReverseProxy{
		Rewrite:      s.rewrite,
		Transport:    s.transport,
		ErrorHandler: s.proxyError,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+messaging.MessagesPath, bus.ServeMessages)
	mux.HandleFunc("GET "+messaging.EventsPath, bus.ServeEvents)
	mux.HandleFunc("GET "+StatusPath, s.status)
	mux.Handle("/", rp)

	s.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Absolute request URIs are forward-proxy traffic, never control calls.
		if r.URL.IsAbs() {
			rp.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
	return s, nil
}

// ListURL is the canonical "get all links" URL for the endpoint at u.
func ListURL(u *url.URL) string {
	list := *u
	q := list.Query()
	q.Set("action", "get")
	list.RawQuery = q.Encode()
	list.Fragment = ""
	return list.String()
}

func (s *Server) Registration() *Registration { return s.reg }
func (s *Server) Transport() *Transport       { return s.transport }
func (s *Server) Syncs() *SyncManager         { return s.syncs }

// Start registers this process's worker.
func (s *Server) Start(ctx context.Context) error {
	return s.reg.Register(ctx, NewWorker(s.version))
}

// Run drains page commands until ctx is done or the bus closes, then waits
// for in-flight background syncs.
func (s *Server) Run(ctx context.Context) {
	defer s.syncs.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.bus.Done():
			return
		case msg := <-s.bus.Commands():
			s.handle(ctx, msg)
		}
	}
}

func (s *Server) handle(ctx context.Context, msg domain.Message) {
	s.log.Debug().Str("type", string(msg.Type)).Msg("page command")
	switch msg.Type {
	case domain.MsgSkipWaiting:
		if err := s.reg.SkipWaiting(ctx); err != nil {
			s.log.Error().Err(err).Msg("activating waiting worker")
		}
	case domain.MsgRequestSync:
		if _, err := s.syncs.Register(ctx, domain.SyncTagLinks); err != nil {
			s.log.Error().Err(err).Msg("registering background sync")
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) rewrite(pr *httputil.ProxyRequest) {
	pr.SetXForwarded()
	if pr.In.URL.IsAbs() {
		return
	}
	target := s.appOrigin
	if strings.HasPrefix(pr.In.URL.Path, "/api/") {
		target = s.apiOrigin
	}
	pr.SetURL(target)
}

// proxyError only sees pass-through failures; intercepted GETs always
// resolve to a cached or synthesized response.
func (s *Server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Warn().Err(err).Str("method", r.Method).Str("url", r.URL.String()).Msg("upstream request failed")
	http.Error(w, "Bad Gateway", http.StatusBadGateway)
}

type workerStatus struct {
	Version string `json:"version"`
	State   string `json:"state"`
}

type statusResponse struct {
	Active  *workerStatus `json:"active"`
	Waiting *workerStatus `json:"waiting"`
	Buckets []string      `json:"buckets"`
	Pages   int           `json:"pages"`
}

func describe(w *Worker) *workerStatus {
	if w == nil {
		return nil
	}
	return &workerStatus{Version: w.Version(), State: w.State().String()}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.reg.cache.Buckets(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing buckets")
		http.Error(w, "cache unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		Active:  describe(s.reg.Active()),
		Waiting: describe(s.reg.Waiting()),
		Buckets: buckets,
		Pages:   s.bus.Clients(),
	})
}
