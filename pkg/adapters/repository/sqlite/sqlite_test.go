package sqlite

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

func memURL(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return "file:" + name + "?mode=memory&cache=shared"
}

func TestRepositoryCRUD(t *testing.T) {
	repo, err := NewSQLiteRepository(memURL(t))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	older := &domain.LinkRow{Link: "https://a.com", Title: "A", Tags: "x, y", CreatedTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &domain.LinkRow{Link: "https://b.com", Title: "B", IsFav: true, CreatedTime: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.NotZero(t, older.ID)
	assert.NotEqual(t, older.ID, newer.ID)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Title, "newest first")
	assert.True(t, rows[0].IsFav)
	assert.Equal(t, "x, y", rows[1].Tags)

	older.Title = "A2"
	older.Clicks = 5
	require.NoError(t, repo.Update(ctx, older))
	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, int64(5), got.Clicks)
	assert.True(t, got.CreatedTime.Equal(older.CreatedTime))

	require.NoError(t, repo.Delete(ctx, newer.ID))
	missing, err := repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	dump, err := repo.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, dump, 1)
}

func TestRepositoryRecordVisit(t *testing.T) {
	repo, err := NewSQLiteRepository(memURL(t))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	row := &domain.LinkRow{Link: "https://a.com", Clicks: 2}
	require.NoError(t, repo.Create(ctx, row))

	count, err := repo.RecordVisit(ctx, &domain.Visit{LinkID: row.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repo.RecordVisit(ctx, &domain.Visit{LinkID: 999, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestKeyValueStore(t *testing.T) {
	kv, err := NewKeyValueStore(memURL(t))
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "app_a", "1"))
	require.NoError(t, kv.Set(ctx, "app_b", "2"))
	require.NoError(t, kv.Set(ctx, "other", "3"))
	require.NoError(t, kv.Set(ctx, "app_a", "updated"))

	v, ok, err := kv.Get(ctx, "app_a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "updated", v)

	keys, err := kv.Keys(ctx, "app_")
	require.NoError(t, err)
	assert.Equal(t, []string{"app_a", "app_b"}, keys)

	require.NoError(t, kv.Delete(ctx, "app_a"))
	keys, err = kv.Keys(ctx, "app_")
	require.NoError(t, err)
	assert.Equal(t, []string{"app_b"}, keys)
}

func TestCacheStorage(t *testing.T) {
	cache, err := NewCacheStorage(memURL(t))
	require.NoError(t, err)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.OpenBucket(ctx, "static"))
	require.NoError(t, cache.OpenBucket(ctx, "dynamic"))

	resp := &domain.CachedResponse{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`[]`),
	}
	require.NoError(t, cache.Put(ctx, "dynamic", "https://api/x", resp))

	got, err := cache.Match(ctx, "", "https://api/x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, []byte(`[]`), got.Body)
	assert.Equal(t, "application/json", http.Header(got.Header).Get("Content-Type"))

	miss, err := cache.Match(ctx, "static", "https://api/x")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Put(ctx, "static", "https://api/x", &domain.CachedResponse{StatusCode: 201, Body: []byte("s")}))
	first, err := cache.Match(ctx, "", "https://api/x")
	require.NoError(t, err)
	assert.Equal(t, 201, first.StatusCode, "buckets are searched in creation order")

	buckets, err := cache.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"static", "dynamic"}, buckets)

	require.NoError(t, cache.DeleteBucket(ctx, "static"))
	buckets, err = cache.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dynamic"}, buckets)

	after, err := cache.Match(ctx, "", "https://api/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, after.StatusCode)
}
