package localstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newStore(kv *memory.KeyValueStore, version string, c *clock) *Store {
	return New(kv, Options{Version: version, Now: c.Now})
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := newStore(memory.NewKeyValueStore(), "v1.0.1", c)

	assert.Nil(t, s.LoadSnapshot(ctx))
	assert.True(t, s.LastFetched(ctx).IsZero())

	links := []domain.Link{{ID: "1", Title: "Go", URL: "https://go.dev", Tags: []string{"lang"}}}
	require.NoError(t, s.SaveSnapshot(ctx, links))

	snap := s.LoadSnapshot(ctx)
	require.NotNil(t, snap)
	assert.Equal(t, "Go", snap.Links[0].Title)
	assert.Equal(t, c.t.UnixMilli(), snap.Timestamp)
	assert.True(t, s.LastFetched(ctx).Equal(c.t))

	require.NoError(t, s.ClearSnapshot(ctx))
	assert.Nil(t, s.LoadSnapshot(ctx))
	assert.True(t, s.LastFetched(ctx).IsZero())
}

func TestKeysAreNamespacedAndVersioned(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	s := newStore(kv, "v1.0.1", &clock{t: time.Now()})

	require.NoError(t, s.SaveSnapshot(ctx, nil))
	require.NoError(t, s.SaveSettings(ctx, domain.DefaultSettings()))
	require.NoError(t, s.SaveDraft(ctx, domain.FormDraft{Title: "t"}))

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"linkVault_cache_v1.0.1",
		"linkVault_lastFetched_v1.0.1",
		"linkVault_settings_v1.0.1",
		"linkVault_formData_v1.0.1",
	}, keys)
}

func TestMigratePurgesOnVersionChange(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	c := &clock{t: time.Now()}

	old := newStore(kv, "v1.0.0", c)
	require.NoError(t, old.Migrate(ctx))
	require.NoError(t, old.SaveSnapshot(ctx, []domain.Link{{ID: "1"}}))
	require.NoError(t, old.SaveSettings(ctx, domain.Settings{SearchTerm: "x"}))
	require.NoError(t, kv.Set(ctx, "linkVault_stray", "junk"))
	require.NoError(t, kv.Set(ctx, "unrelated", "keep"))

	current := newStore(kv, "v1.0.1", c)
	require.NoError(t, current.Migrate(ctx))

	keys, err := kv.Keys(ctx, "linkVault_")
	require.NoError(t, err)
	assert.Empty(t, keys)

	tag, ok, err := kv.Get(ctx, current.VersionKey())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1.0.1", tag)

	_, ok, _ = kv.Get(ctx, "unrelated")
	assert.True(t, ok)
}

func TestMigrateKeepsDataForSameVersion(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	s := newStore(kv, "v1.0.1", &clock{t: time.Now()})

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SaveSnapshot(ctx, []domain.Link{{ID: "1"}}))
	require.NoError(t, s.Migrate(ctx))

	assert.NotNil(t, s.LoadSnapshot(ctx))
}

func TestCorruptDataIsTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	s := newStore(kv, "v1", &clock{t: time.Now()})

	require.NoError(t, kv.Set(ctx, "linkVault_cache_v1", "{not json"))
	require.NoError(t, kv.Set(ctx, "linkVault_settings_v1", "[]"))
	require.NoError(t, kv.Set(ctx, "linkVault_formData_v1", "nope"))
	require.NoError(t, kv.Set(ctx, "linkVault_lastFetched_v1", "yesterday"))

	assert.Nil(t, s.LoadSnapshot(ctx))
	assert.Equal(t, domain.DefaultSettings(), s.LoadSettings(ctx))
	assert.Nil(t, s.LoadDraft(ctx))
	assert.True(t, s.LastFetched(ctx).IsZero())
}

type failingKV struct{ *memory.KeyValueStore }

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestBackendReadFailureIsTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	s := New(failingKV{memory.NewKeyValueStore()}, Options{Version: "v1"})

	assert.Nil(t, s.LoadSnapshot(ctx))
	assert.Equal(t, domain.DefaultSettings(), s.LoadSettings(ctx))
	assert.Nil(t, s.LoadDraft(ctx))
	assert.Error(t, s.Migrate(ctx))
}

func TestSettingsDefaultsBackfilled(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	s := newStore(kv, "v1", &clock{t: time.Now()})

	assert.Equal(t, domain.SortNewest, s.LoadSettings(ctx).SortBy)

	require.NoError(t, kv.Set(ctx, "linkVault_settings_v1", `{"showTags":true}`))
	got := s.LoadSettings(ctx)
	assert.True(t, got.ShowTags)
	assert.Equal(t, domain.SortNewest, got.SortBy)
	assert.Equal(t, []string{}, got.SelectedTags)

	require.NoError(t, kv.Set(ctx, "linkVault_settings_v1", `{"sortBy":"alphabetical"}`))
	assert.Equal(t, domain.SortNewest, s.LoadSettings(ctx).SortBy)

	want := domain.Settings{SearchTerm: "go", SelectedTags: []string{"a"}, SelectedFolder: "Work", SortBy: domain.SortMostUsed}
	require.NoError(t, s.SaveSettings(ctx, want))
	assert.Equal(t, want, s.LoadSettings(ctx))

	require.NoError(t, s.ClearSettings(ctx))
	assert.Equal(t, domain.DefaultSettings(), s.LoadSettings(ctx))
}

func TestDraftExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := newStore(kv, "v1", c)

	require.NoError(t, s.SaveDraft(ctx, domain.FormDraft{Title: "half typed", Tags: []string{"x"}}))

	c.t = c.t.Add(90 * time.Second)
	draft := s.LoadDraft(ctx)
	require.NotNil(t, draft)
	assert.Equal(t, "half typed", draft.Title)

	c.t = c.t.Add(31 * time.Second)
	assert.Nil(t, s.LoadDraft(ctx))

	_, ok, err := kv.Get(ctx, "linkVault_formData_v1")
	require.NoError(t, err)
	assert.False(t, ok, "expired draft is deleted")
}

func TestClearDraft(t *testing.T) {
	ctx := context.Background()
	s := newStore(memory.NewKeyValueStore(), "v1", &clock{t: time.Now()})

	require.NoError(t, s.SaveDraft(ctx, domain.FormDraft{URL: "https://x.y"}))
	require.NoError(t, s.ClearDraft(ctx))
	assert.Nil(t, s.LoadDraft(ctx))
}
