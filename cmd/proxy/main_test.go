package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		want any
	}{
		{name: "memory", url: "memory", want: &memory.CacheStorage{}},
		{name: "sqlite", url: "file:proxy_cache?mode=memory&cache=shared", want: &sqlite.CacheStorage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, closer, err := openCache(ctx, tt.url)
			require.NoError(t, err)
			defer closer.Close()
			assert.IsType(t, tt.want, cache)

			require.NoError(t, cache.Put(ctx, "linkvault-dynamic-v1", "http://a/x", &domain.CachedResponse{StatusCode: 200, Body: []byte("x")}))
			got, err := cache.Match(ctx, "", "http://a/x")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "x", string(got.Body))
		})
	}
}
