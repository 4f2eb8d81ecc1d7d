// Package connectivity tracks whether the page is online and relays the
// page-side half of the proxy's update and background-sync protocol.
package connectivity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// Monitor is driven by connectivity events and proxy messages. It never
// polls on its own; see Prober for an event source.
type Monitor struct {
	mu              sync.Mutex
	online          bool
	wasOffline      bool
	updateAvailable bool
	installed       bool

	channel   ports.ProxyChannel // nil when no proxy is attached
	reload    func()
	listeners []func()

	log zerolog.Logger
}

// NewMonitor starts in the given reachability state. channel may be nil.
func NewMonitor(online bool, channel ports.ProxyChannel) *Monitor {
	return &Monitor{
		online:  online,
		channel: channel,
		log:     logger.With("connectivity"),
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) WasOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wasOffline
}

// UpdateAvailable reports whether a new proxy worker is waiting.
func (m *Monitor) UpdateAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAvailable
}

// SetReloadHook sets what InstallUpdate calls after the new worker is told
// to take over.
func (m *Monitor) SetReloadHook(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reload = fn
}

// OnBackgroundSync registers fn to run whenever the proxy finishes a
// background sync successfully.
func (m *Monitor) OnBackgroundSync(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) HandleEvent(ctx context.Context, ev domain.ConnectivityEvent) {
	m.mu.Lock()
	requestSync := false
	switch ev {
	case domain.ConnectivityOffline:
		m.online = false
		m.wasOffline = true
		m.log.Info().Msg("connection lost")
	case domain.ConnectivityOnline:
		m.online = true
		if m.wasOffline {
			m.wasOffline = false
			requestSync = true
		}
		m.log.Info().Msg("connection restored")
	}
	channel := m.channel
	m.mu.Unlock()

	if requestSync && channel != nil {
		if err := channel.Post(ctx, domain.Message{Type: domain.MsgRequestSync}); err != nil {
			m.log.Warn().Err(err).Msg("failed to request background sync")
		}
	}
}

func (m *Monitor) HandleMessage(msg domain.Message) {
	switch msg.Type {
	case domain.MsgUpdateAvailable:
		m.mu.Lock()
		m.updateAvailable = true
		m.mu.Unlock()
		m.log.Info().Msg("app update available")
	case domain.MsgBackgroundSyncSuccess:
		m.mu.Lock()
		listeners := append([]func(){}, m.listeners...)
		m.mu.Unlock()
		m.log.Info().Msg("background sync completed, refreshing data")
		for _, fn := range listeners {
			fn()
		}
	case domain.MsgBackgroundSyncStart, domain.MsgBackgroundSyncFailed:
		m.log.Debug().Str("type", string(msg.Type)).Msg("background sync")
	default:
		m.log.Warn().Str("type", string(msg.Type)).Msg("ignoring unexpected proxy message")
	}
}

// InstallUpdate tells the waiting worker to take over and reloads. Only the
// first successful call has any effect; a failed post can be retried.
func (m *Monitor) InstallUpdate(ctx context.Context) error {
	m.mu.Lock()
	if m.installed {
		m.mu.Unlock()
		return nil
	}
	m.installed = true
	channel, reload := m.channel, m.reload
	m.mu.Unlock()

	if channel != nil {
		if err := channel.Post(ctx, domain.Message{Type: domain.MsgSkipWaiting}); err != nil {
			m.mu.Lock()
			m.installed = false
			m.mu.Unlock()
			return err
		}
	}
	if reload != nil {
		reload()
	}
	return nil
}

// Run applies events and proxy messages until ctx is done or both sources
// are closed.
func (m *Monitor) Run(ctx context.Context, events <-chan domain.ConnectivityEvent) error {
	var messages <-chan domain.Message
	if m.channel != nil {
		messages = m.channel.Messages()
	}

	for events != nil || messages != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.HandleEvent(ctx, ev)
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			m.HandleMessage(msg)
		}
	}
	return nil
}

// Ensure interface compliance
var _ ports.Connectivity = (*Monitor)(nil)
