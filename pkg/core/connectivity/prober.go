package connectivity

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

// Prober turns periodic reachability checks into connectivity events. It
// only emits on transitions.
type Prober struct {
	Interval time.Duration
	Probe    func(ctx context.Context) bool
}

// NewDialProber checks reachability by opening a TCP connection to the
// host of rawURL.
func NewDialProber(rawURL string, interval, timeout time.Duration) (*Prober, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	addr := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" || u.Scheme == "wss" {
			port = "443"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}

	dialer := &net.Dialer{Timeout: timeout}
	return &Prober{
		Interval: interval,
		Probe: func(ctx context.Context) bool {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return false
			}
			conn.Close()
			return true
		},
	}, nil
}

// Run probes every Interval, comparing against the assumed initial state,
// and closes events when ctx is done.
func (p *Prober) Run(ctx context.Context, initial bool, events chan<- domain.ConnectivityEvent) {
	defer close(events)
	log := logger.With("prober")

	online := initial
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		up := p.Probe(ctx)
		if up == online {
			continue
		}
		online = up

		ev := domain.ConnectivityOffline
		if up {
			ev = domain.ConnectivityOnline
		}
		log.Debug().Stringer("event", ev).Msg("reachability changed")
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
