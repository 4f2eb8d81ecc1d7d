package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/core/transform"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const (
	msgNoCache        = "No internet connection and no cached data available"
	msgRefreshOffline = "No internet connection. Cannot refresh data."
	msgRefreshFailed  = "Failed to refresh links"
	msgLinkNotFound   = "Link not found"
)

// SyncService owns the page's link list. It paints from the local snapshot
// first and then replaces the list with the server's copy.
type SyncService struct {
	gateway ports.LinkGateway
	store   ports.SnapshotStore
	net     ports.Connectivity

	// persistMu orders snapshot writes so an older list never lands last.
	persistMu sync.Mutex

	mu          sync.Mutex
	state       domain.State
	generation  uint64
	subscribers map[int]func(domain.State)
	nextSubID   int

	log zerolog.Logger
}

func NewSyncService(gateway ports.LinkGateway, store ports.SnapshotStore, net ports.Connectivity) *SyncService {
	return &SyncService{
		gateway: gateway,
		store:   store,
		net:     net,
		state: domain.State{
			Links:     []domain.Link{},
			Folders:   []domain.Folder{},
			Tags:      []domain.Tag{},
			IsLoading: true,
		},
		subscribers: make(map[int]func(domain.State)),
		log:         logger.With("sync"),
	}
}

// State returns a copy of the current state.
func (s *SyncService) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe calls fn after every state change. The returned func
// unsubscribes.
func (s *SyncService) Subscribe(fn func(domain.State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *SyncService) snapshotLocked() domain.State {
	st := s.state
	st.Links = append([]domain.Link(nil), s.state.Links...)
	st.Folders = append([]domain.Folder(nil), s.state.Folders...)
	st.Tags = append([]domain.Tag(nil), s.state.Tags...)
	return st
}

// update applies fn under the lock and notifies subscribers outside it.
func (s *SyncService) update(fn func(st *domain.State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.snapshotLocked()
	subs := make([]func(domain.State), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(st)
	}
}

// updateIfCurrent applies fn only if gen is still the latest generation.
func (s *SyncService) updateIfCurrent(gen uint64, fn func(st *domain.State)) bool {
	applied := false
	s.update(func(st *domain.State) {
		if gen != s.generation {
			return
		}
		fn(st)
		applied = true
	})
	if !applied {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale list response")
	}
	return applied
}

func (s *SyncService) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func setLinks(st *domain.State, links []domain.Link) {
	st.Links = links
	st.Folders = transform.DeriveFolders(links)
	st.Tags = transform.DeriveTags(links)
}

func (s *SyncService) fetch(ctx context.Context) ([]domain.Link, error) {
	rows, err := s.gateway.GetLinks(ctx)
	if err != nil {
		return nil, err
	}
	return transform.WireToLinks(rows), nil
}

// persist rewrites the snapshot; save failures are logged only.
func (s *SyncService) persist(ctx context.Context, links []domain.Link) time.Time {
	if err := s.store.SaveSnapshot(ctx, links); err != nil {
		s.log.Warn().Err(err).Msg("failed to save link snapshot")
		return time.Now()
	}
	return s.store.LastFetched(ctx)
}

// Load shows the cached snapshot at once, then fetches the server's list
// when online. Network failures are silent when a snapshot was shown.
func (s *SyncService) Load(ctx context.Context) error {
	gen := s.nextGeneration()
	s.update(func(st *domain.State) { st.Error = "" })

	snap := s.store.LoadSnapshot(ctx)
	if snap != nil {
		s.updateIfCurrent(gen, func(st *domain.State) {
			setLinks(st, snap.Links)
			st.LastFetched = snap.FetchedAt()
			st.IsLoading = false
		})
	}

	if !s.net.IsOnline() {
		s.updateIfCurrent(gen, func(st *domain.State) {
			if snap == nil {
				st.Error = msgNoCache
			}
			st.IsLoading = false
		})
		if snap == nil {
			return domain.ErrOffline
		}
		return nil
	}

	links, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn().Err(err).Bool("cached", snap != nil).Msg("network fetch failed, using cached data")
		s.updateIfCurrent(gen, func(st *domain.State) {
			if snap == nil {
				st.Error = msgNoCache
			}
			st.IsLoading = false
		})
		if snap == nil {
			return fmt.Errorf("loading links: %w", err)
		}
		return nil
	}

	s.apply(ctx, gen, links)
	return nil
}

// Refresh fetches the server's list without painting from the snapshot.
func (s *SyncService) Refresh(ctx context.Context) error {
	if !s.net.IsOnline() {
		s.update(func(st *domain.State) { st.Error = msgRefreshOffline })
		return domain.ErrOffline
	}

	gen := s.nextGeneration()
	s.update(func(st *domain.State) { st.Error = "" })

	links, err := s.fetch(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refreshing links")
		s.updateIfCurrent(gen, func(st *domain.State) { st.Error = msgRefreshFailed })
		return fmt.Errorf("refreshing links: %w", err)
	}

	s.apply(ctx, gen, links)
	return nil
}

func (s *SyncService) apply(ctx context.Context, gen uint64, links []domain.Link) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	current := gen == s.generation
	s.mu.Unlock()
	if !current {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale list response")
		return
	}

	fetchedAt := s.persist(ctx, links)
	s.updateIfCurrent(gen, func(st *domain.State) {
		setLinks(st, links)
		st.LastFetched = fetchedAt
		st.IsLoading = false
	})
}

func (s *SyncService) rejectOffline(verb string) error {
	s.update(func(st *domain.State) {
		st.Error = fmt.Sprintf("No internet connection. Cannot %s link.", verb)
	})
	return domain.ErrOffline
}

// mutate runs a write against the endpoint and reloads on success.
func (s *SyncService) mutate(ctx context.Context, verb string, call func() (*domain.APIResponse, error)) error {
	if !s.net.IsOnline() {
		return s.rejectOffline(verb)
	}

	s.update(func(st *domain.State) { st.Error = "" })

	if _, err := call(); err != nil {
		msg := fmt.Sprintf("Failed to %s link", verb)
		var remote *domain.RemoteError
		if errors.As(err, &remote) && remote.Message != "" {
			msg = remote.Message
		}
		s.log.Error().Err(err).Str("op", verb).Msg("link mutation failed")
		s.update(func(st *domain.State) { st.Error = msg })
		return fmt.Errorf("%s link: %w", verb, err)
	}

	if err := s.Load(ctx); err != nil {
		s.log.Warn().Err(err).Msg("reload after mutation failed")
	}
	return nil
}

func (s *SyncService) Add(ctx context.Context, in domain.LinkInput) error {
	return s.mutate(ctx, "add", func() (*domain.APIResponse, error) {
		return s.gateway.AddLink(ctx, transform.InputToWire(in))
	})
}

// Update merges patch into the current record and sends the whole row,
// click count included.
func (s *SyncService) Update(ctx context.Context, id string, patch domain.LinkPatch) error {
	if !s.net.IsOnline() {
		return s.rejectOffline("update")
	}

	current, ok := s.find(id)
	if !ok {
		s.update(func(st *domain.State) { st.Error = msgLinkNotFound })
		return domain.ErrLinkNotFound
	}
	merged := patch.Apply(current)

	return s.mutate(ctx, "update", func() (*domain.APIResponse, error) {
		return s.gateway.UpdateLink(ctx, id, transform.LinkToWire(merged))
	})
}

func (s *SyncService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete", func() (*domain.APIResponse, error) {
		return s.gateway.DeleteLink(ctx, id)
	})
}

// IncrementClick bumps a link's click count. Offline the bump is local
// only and is lost on the next load. It never reloads the list.
func (s *SyncService) IncrementClick(ctx context.Context, id string) error {
	if !s.net.IsOnline() {
		s.bumpClicks(id)
		return nil
	}

	if _, ok := s.find(id); !ok {
		return domain.ErrLinkNotFound
	}
	if _, err := s.gateway.IncrementClick(ctx, id); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("incrementing click count")
		return fmt.Errorf("increment click: %w", err)
	}
	s.bumpClicks(id)
	return nil
}

func (s *SyncService) bumpClicks(id string) {
	s.update(func(st *domain.State) {
		links := append([]domain.Link(nil), st.Links...)
		for i := range links {
			if links[i].ID == id {
				links[i].ClickCount++
			}
		}
		st.Links = links
	})
}

func (s *SyncService) find(id string) (domain.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.state.Links {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Link{}, false
}
