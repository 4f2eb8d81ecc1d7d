// Package localstore persists the page's link snapshot, view settings and
// add-link form draft in a key-value backend, namespaced and versioned so a
// new app version starts from a clean slate.
package localstore

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const (
	DefaultNamespace = "linkVault_"

	// DraftTTL is how long a saved form draft stays restorable.
	DraftTTL = 2 * time.Minute
)

type Options struct {
	Namespace string // defaults to DefaultNamespace
	Version   string // e.g. "v1.0.1"
	Now       func() time.Time
}

type Store struct {
	kv        ports.KeyValueStore
	namespace string
	version   string
	now       func() time.Time
	log       zerolog.Logger
}

func New(kv ports.KeyValueStore, opts Options) *Store {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		kv:        kv,
		namespace: opts.Namespace,
		version:   opts.Version,
		now:       opts.Now,
		log:       logger.With("localstore"),
	}
}

func (s *Store) key(name string) string {
	return s.namespace + name + "_" + s.version
}

// VersionKey is where the current version tag is recorded. It sits outside
// the namespace prefix so a purge never touches it.
func (s *Store) VersionKey() string {
	return strings.TrimSuffix(s.namespace, "_") + "@version"
}

// Migrate deletes every namespaced key when the recorded version differs
// from the running one, then records the running version.
func (s *Store) Migrate(ctx context.Context) error {
	stored, ok, err := s.kv.Get(ctx, s.VersionKey())
	if err != nil {
		return err
	}
	if ok && stored == s.version {
		return nil
	}

	keys, err := s.kv.Keys(ctx, s.namespace)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			return err
		}
	}
	if len(keys) > 0 {
		s.log.Info().Str("from", stored).Str("to", s.version).Int("keys", len(keys)).Msg("purged local data for new version")
	}
	return s.kv.Set(ctx, s.VersionKey(), s.version)
}

// Close closes the backend if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.kv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(name), string(data))
}

// load decodes the value under name into v and reports whether it did.
// Read failures and corrupt data are logged and treated as absence.
func (s *Store) load(ctx context.Context, name string, v any) bool {
	raw, ok, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key(name)).Msg("local read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Warn().Err(err).Str("key", s.key(name)).Msg("discarding corrupt local data")
		return false
	}
	return true
}

func (s *Store) remove(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := s.kv.Delete(ctx, s.key(name)); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot stores the full link list and the fetch time.
func (s *Store) SaveSnapshot(ctx context.Context, links []domain.Link) error {
	ts := s.now().UnixMilli()
	if links == nil {
		links = []domain.Link{}
	}
	if err := s.save(ctx, "cache", domain.Snapshot{Links: links, Timestamp: ts}); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key("lastFetched"), time.UnixMilli(ts).UTC().Format(time.RFC3339Nano))
}

// LoadSnapshot returns nil when nothing usable is stored.
func (s *Store) LoadSnapshot(ctx context.Context) *domain.Snapshot {
	var snap domain.Snapshot
	if !s.load(ctx, "cache", &snap) {
		return nil
	}
	if snap.Links == nil {
		snap.Links = []domain.Link{}
	}
	return &snap
}

func (s *Store) ClearSnapshot(ctx context.Context) error {
	return s.remove(ctx, "cache", "lastFetched")
}

// LastFetched returns the zero time when no fetch was recorded.
func (s *Store) LastFetched(ctx context.Context) time.Time {
	raw, ok, err := s.kv.Get(ctx, s.key("lastFetched"))
	if err != nil || !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.log.Warn().Err(err).Str("value", raw).Msg("discarding corrupt lastFetched")
		return time.Time{}
	}
	return t
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return s.save(ctx, "settings", settings)
}

// LoadSettings always returns usable settings; stored fields override the
// defaults and missing fields keep them.
func (s *Store) LoadSettings(ctx context.Context) domain.Settings {
	settings := domain.DefaultSettings()
	if !s.load(ctx, "settings", &settings) {
		return domain.DefaultSettings()
	}
	if settings.SelectedTags == nil {
		settings.SelectedTags = []string{}
	}
	switch settings.SortBy {
	case domain.SortNewest, domain.SortOldest, domain.SortMostUsed:
	default:
		settings.SortBy = domain.SortNewest
	}
	return settings
}

func (s *Store) ClearSettings(ctx context.Context) error {
	return s.remove(ctx, "settings")
}

// SaveDraft stamps the draft with the current time.
func (s *Store) SaveDraft(ctx context.Context, draft domain.FormDraft) error {
	draft.Timestamp = s.now().UnixMilli()
	return s.save(ctx, "formData", draft)
}

// LoadDraft returns nil when no draft exists or when it has expired, in
// which case it is also deleted.
func (s *Store) LoadDraft(ctx context.Context) *domain.FormDraft {
	var draft domain.FormDraft
	if !s.load(ctx, "formData", &draft) {
		return nil
	}
	age := s.now().Sub(time.UnixMilli(draft.Timestamp))
	if age > DraftTTL {
		if err := s.ClearDraft(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete expired draft")
		}
		return nil
	}
	return &draft
}

func (s *Store) ClearDraft(ctx context.Context) error {
	return s.remove(ctx, "formData")
}
