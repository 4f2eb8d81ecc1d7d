package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const (
	MessagesPath = "/__linkvault/messages"
	EventsPath   = "/__linkvault/events"

	writeTimeout = 5 * time.Second
)

// ServeMessages accepts a page->proxy message as a JSON body.
func (b *Bus) ServeMessages(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&msg); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	err := b.Submit(r.Context(), msg)
	switch {
	case errors.Is(err, domain.ErrUnknownMessage), errors.Is(err, domain.ErrWrongDirection):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrChannelClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case err != nil:
		http.Error(w, err.Error(), http.StatusRequestTimeout)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

// ServeEvents streams proxy->page messages over a websocket until the page
// disconnects or the bus closes.
func (b *Bus) ServeEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		b.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	client := b.Connect()
	defer client.Close()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-client.Messages():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "proxy shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				b.log.Debug().Err(err).Str("client", client.ID()).Msg("event write failed")
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// RemoteChannel is a page's connection to a proxy in another process.
type RemoteChannel struct {
	baseURL    string
	httpClient *http.Client
	conn       *websocket.Conn
	out        chan domain.Message
	closing    chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// Dial connects to the proxy at proxyURL (e.g. http://localhost:8090).
func Dial(ctx context.Context, proxyURL string, httpClient *http.Client) (*RemoteChannel, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimSuffix(proxyURL, "/")

	conn, _, err := websocket.Dial(ctx, base+EventsPath, &websocket.DialOptions{HTTPClient: httpClient})
	if err != nil {
		return nil, fmt.Errorf("connecting to proxy events: %w", err)
	}

	rc := &RemoteChannel{
		baseURL:    base,
		httpClient: httpClient,
		conn:       conn,
		out:        make(chan domain.Message, clientBuffer),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
	}
	go rc.readLoop()
	return rc, nil
}

func (rc *RemoteChannel) readLoop() {
	defer close(rc.done)
	defer close(rc.out)
	log := logger.With("messaging")

	for {
		var msg domain.Message
		if err := wsjson.Read(context.Background(), rc.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 {
				log.Debug().Err(err).Msg("proxy event stream ended")
			}
			return
		}
		if err := msg.Validate(domain.ProxyToPage); err != nil {
			log.Warn().Err(err).Msg("ignoring proxy message")
			continue
		}
		select {
		case rc.out <- msg:
		case <-rc.closing:
			return
		}
	}
}

func (rc *RemoteChannel) Post(ctx context.Context, msg domain.Message) error {
	if err := msg.Validate(domain.PageToProxy); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.baseURL+MessagesPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("proxy rejected %s: %s", msg.Type, strings.TrimSpace(string(text)))
	}
	return nil
}

func (rc *RemoteChannel) Messages() <-chan domain.Message {
	return rc.out
}

func (rc *RemoteChannel) Close() error {
	var err error
	rc.closeOnce.Do(func() {
		close(rc.closing)
		err = rc.conn.Close(websocket.StatusNormalClosure, "")
		<-rc.done
	})
	return err
}

// Ensure interface compliance
var _ ports.ProxyChannel = (*RemoteChannel)(nil)
