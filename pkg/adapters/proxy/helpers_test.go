package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

var errUnreachable = errors.New("network unreachable")

// fakeNetwork answers requests with handler in-process and can be switched
// offline.
type fakeNetwork struct {
	handler http.Handler

	mu      sync.Mutex
	offline bool
	calls   []string
}

func (f *fakeNetwork) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Method+" "+req.URL.String())
	offline := f.offline
	f.mu.Unlock()

	if offline {
		return nil, errUnreachable
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func (f *fakeNetwork) setOffline(offline bool) {
	f.mu.Lock()
	f.offline = offline
	f.mu.Unlock()
}

func (f *fakeNetwork) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recorder struct {
	mu   sync.Mutex
	msgs []domain.MessageType
}

func (r *recorder) Broadcast(msg domain.Message) error {
	if err := msg.Validate(domain.ProxyToPage); err != nil {
		return err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, msg.Type)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []domain.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MessageType(nil), r.msgs...)
}

const testOrigin = "http://app.test"

// origin serves the app shell and a list endpoint.
func origin() *http.ServeMux {
	mux := http.NewServeMux()
	for _, asset := range []string{"/index.html", "/manifest.json"} {
		mux.HandleFunc("GET "+asset, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "asset "+r.URL.Path)
		})
	}
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "shell")
	})
	return mux
}

type testProxy struct {
	cache     *memory.CacheStorage
	net       *fakeNetwork
	pages     *recorder
	reg       *Registration
	transport *Transport
}

func newTestProxy(t *testing.T, handler http.Handler) *testProxy {
	t.Helper()
	p := &testProxy{
		cache: memory.NewCacheStorage(),
		net:   &fakeNetwork{handler: handler},
		pages: &recorder{},
	}
	reg, err := NewRegistration(p.cache, p.net, testOrigin, p.pages)
	require.NoError(t, err)
	p.reg = reg
	p.transport = NewTransport(reg, p.cache, p.net, &url.URL{Scheme: "http", Host: "api.test"})
	return p
}

func (p *testProxy) activate(t *testing.T, version string) *Worker {
	t.Helper()
	w := NewWorker(version)
	require.NoError(t, p.reg.Register(context.Background(), w))
	return w
}

func get(t *testing.T, rt http.RoundTripper, rawURL string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}
