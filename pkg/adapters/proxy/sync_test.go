package proxy

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

func TestSyncManagerCoalesces(t *testing.T) {
	ctx := context.Background()
	m := NewSyncManager()

	release := make(chan struct{})
	var runs atomic.Int32
	m.Handle(domain.SyncTagLinks, func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})

	started, err := m.Register(ctx, domain.SyncTagLinks)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = m.Register(ctx, domain.SyncTagLinks)
	require.NoError(t, err)
	assert.False(t, started, "duplicate registration should coalesce")

	close(release)
	m.Wait()
	assert.Equal(t, int32(1), runs.Load())

	started, err = m.Register(ctx, domain.SyncTagLinks)
	require.NoError(t, err)
	assert.True(t, started)
	m.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestSyncManagerUnknownTag(t *testing.T) {
	_, err := NewSyncManager().Register(context.Background(), "background-sync-photos")
	assert.ErrorIs(t, err, ErrUnknownSyncTag)
}

func newLinkSync(p *testProxy) *LinkSync {
	return &LinkSync{reg: p.reg, network: p.net, pages: p.pages, listURL: listURL}
}

func TestLinkSyncSuccess(t *testing.T) {
	var version, status atomic.Int32
	version.Store(3)
	p := newTestProxy(t, apiOrigin(&version, &status))
	p.activate(t, "v1")

	require.NoError(t, newLinkSync(p).Run(context.Background()))
	assert.Equal(t, []domain.MessageType{domain.MsgBackgroundSyncStart, domain.MsgBackgroundSyncSuccess}, p.pages.types())

	// The page's next offline read sees the synced list.
	p.net.setOffline(true)
	_, body := get(t, p.transport, listURL)
	assert.Equal(t, `[{"id":"3"}]`, body)
}

func TestLinkSyncFailures(t *testing.T) {
	tests := []struct {
		name    string
		offline bool
		status  int32
	}{
		{"network down", true, 0},
		{"server error", false, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var version, status atomic.Int32
			status.Store(tt.status)
			p := newTestProxy(t, apiOrigin(&version, &status))
			p.activate(t, "v1")
			p.net.setOffline(tt.offline)
			calls := p.net.callCount()

			assert.Error(t, newLinkSync(p).Run(context.Background()))
			assert.Equal(t, []domain.MessageType{domain.MsgBackgroundSyncStart, domain.MsgBackgroundSyncFailed}, p.pages.types())
			assert.Equal(t, calls+1, p.net.callCount(), "exactly one attempt")

			entry, err := p.cache.Match(context.Background(), "", listURL)
			require.NoError(t, err)
			assert.Nil(t, entry)
		})
	}
}

func TestLinkSyncWithoutActiveWorker(t *testing.T) {
	var version, status atomic.Int32
	p := newTestProxy(t, apiOrigin(&version, &status))

	assert.ErrorIs(t, newLinkSync(p).Run(context.Background()), errNoActiveWorker)
	assert.Equal(t, []domain.MessageType{domain.MsgBackgroundSyncStart, domain.MsgBackgroundSyncFailed}, p.pages.types())
}
