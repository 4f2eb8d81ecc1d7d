package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

var (
	ErrUnknownSyncTag = errors.New("unknown sync tag")
	errNoActiveWorker = errors.New("no active worker")
)

// SyncManager runs tagged background jobs. Registering a tag that is
// already pending or running is coalesced into the existing run.
type SyncManager struct {
	mu       sync.Mutex
	handlers map[string]func(context.Context) error
	pending  map[string]bool
	wg       sync.WaitGroup

	log zerolog.Logger
}

func NewSyncManager() *SyncManager {
	return &SyncManager{
		handlers: make(map[string]func(context.Context) error),
		pending:  make(map[string]bool),
		log:      logger.With("sync"),
	}
}

func (m *SyncManager) Handle(tag string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[tag] = fn
}

// Register schedules one run of tag. It reports whether a new run started.
func (m *SyncManager) Register(ctx context.Context, tag string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn, ok := m.handlers[tag]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownSyncTag, tag)
	}
	if m.pending[tag] {
		m.log.Debug().Str("tag", tag).Msg("sync already pending")
		return false, nil
	}
	m.pending[tag] = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := fn(ctx)
		if err != nil {
			m.log.Warn().Err(err).Str("tag", tag).Msg("background sync failed")
		} else {
			m.log.Info().Str("tag", tag).Msg("background sync completed")
		}

		m.mu.Lock()
		delete(m.pending, tag)
		m.mu.Unlock()
	}()
	return true, nil
}

// Wait blocks until every started run has finished.
func (m *SyncManager) Wait() {
	m.wg.Wait()
}

// LinkSync refetches the canonical list URL into the active worker's
// dynamic bucket, reporting progress to pages. One attempt, no retry.
type LinkSync struct {
	reg     *Registration
	network http.RoundTripper
	pages   Broadcaster
	listURL string
}

func (s *LinkSync) Run(ctx context.Context) error {
	s.notify(domain.MsgBackgroundSyncStart)
	if err := s.fetch(ctx); err != nil {
		s.notify(domain.MsgBackgroundSyncFailed)
		return err
	}
	s.notify(domain.MsgBackgroundSyncSuccess)
	return nil
}

func (s *LinkSync) fetch(ctx context.Context) error {
	w := s.reg.Active()
	if w == nil {
		return errNoActiveWorker
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.network.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", s.listURL, err)
	}
	if !isOK(resp) {
		discard(resp)
		return fmt.Errorf("fetching %s: unexpected status %d", s.listURL, resp.StatusCode)
	}

	kept, err := store(ctx, s.reg.cache, w.DynamicBucket(), cacheKey(req.URL), resp)
	if kept != nil {
		kept.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("caching %s: %w", s.listURL, err)
	}
	return nil
}

func (s *LinkSync) notify(t domain.MessageType) {
	if err := s.pages.Broadcast(domain.Message{Type: t}); err != nil {
		s.reg.log.Warn().Err(err).Msg("notifying pages")
	}
}
