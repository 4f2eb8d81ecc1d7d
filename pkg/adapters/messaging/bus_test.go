package messaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

func receive(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return domain.Message{}
	}
}

func TestBusDirections(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	defer bus.Close()
	page := bus.Connect()
	defer page.Close()

	require.NoError(t, page.Post(ctx, domain.Message{Type: domain.MsgRequestSync}))
	assert.Equal(t, domain.MsgRequestSync, receive(t, bus.Commands()).Type)

	assert.ErrorIs(t, page.Post(ctx, domain.Message{Type: domain.MsgUpdateAvailable}), domain.ErrWrongDirection)
	assert.ErrorIs(t, page.Post(ctx, domain.Message{Type: "HELLO"}), domain.ErrUnknownMessage)

	require.NoError(t, bus.Broadcast(domain.Message{Type: domain.MsgBackgroundSyncStart}))
	assert.Equal(t, domain.MsgBackgroundSyncStart, receive(t, page.Messages()).Type)

	assert.ErrorIs(t, bus.Broadcast(domain.Message{Type: domain.MsgSkipWaiting}), domain.ErrWrongDirection)
}

func TestBroadcastReachesEveryPage(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	a, b := bus.Connect(), bus.Connect()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, bus.Clients())

	require.NoError(t, bus.Broadcast(domain.Message{Type: domain.MsgUpdateAvailable}))
	assert.Equal(t, domain.MsgUpdateAvailable, receive(t, a.Messages()).Type)
	assert.Equal(t, domain.MsgUpdateAvailable, receive(t, b.Messages()).Type)

	require.NoError(t, a.Close())
	assert.Equal(t, 1, bus.Clients())
	_, open := <-a.Messages()
	assert.False(t, open)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	slow := bus.Connect()

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*3; i++ {
			_ = bus.Broadcast(domain.Message{Type: domain.MsgBackgroundSyncSuccess})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow page")
	}
	assert.Len(t, slow.Messages(), clientBuffer)
}

func TestClosedBusRejectsSubmit(t *testing.T) {
	bus := NewBus()
	page := bus.Connect()
	bus.Close()

	_, open := <-page.Messages()
	assert.False(t, open)
	assert.ErrorIs(t, page.Post(context.Background(), domain.Message{Type: domain.MsgSkipWaiting}), domain.ErrChannelClosed)
}

func newControlServer(bus *Bus) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+MessagesPath, bus.ServeMessages)
	mux.HandleFunc("GET "+EventsPath, bus.ServeEvents)
	return httptest.NewServer(mux)
}

func TestRemoteChannel(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	srv := newControlServer(bus)
	defer srv.Close()
	defer bus.Close()

	remote, err := Dial(ctx, srv.URL, srv.Client())
	require.NoError(t, err)
	defer remote.Close()

	require.Eventually(t, func() bool { return bus.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Broadcast(domain.Message{Type: domain.MsgBackgroundSyncSuccess}))
	assert.Equal(t, domain.MsgBackgroundSyncSuccess, receive(t, remote.Messages()).Type)

	require.NoError(t, remote.Post(ctx, domain.Message{Type: domain.MsgSkipWaiting}))
	assert.Equal(t, domain.MsgSkipWaiting, receive(t, bus.Commands()).Type)

	assert.ErrorIs(t, remote.Post(ctx, domain.Message{Type: domain.MsgBackgroundSyncStart}), domain.ErrWrongDirection)

	require.NoError(t, remote.Close())
	require.Eventually(t, func() bool { return bus.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeMessagesRejectsBadInput(t *testing.T) {
	bus := NewBus()
	srv := newControlServer(bus)
	defer srv.Close()
	defer bus.Close()

	for _, body := range []string{`not json`, `{"type":"BACKGROUND_SYNC_START"}`, `{"type":"NOPE"}`} {
		resp, err := http.Post(srv.URL+MessagesPath, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}
