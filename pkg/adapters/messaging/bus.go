// Package messaging carries the typed page/proxy messages. The Bus lives in
// the proxy; pages talk to it in-process through a Client or remotely
// through Dial.
package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const clientBuffer = 16

type Bus struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	commands chan domain.Message
	done     chan struct{}
	closed   bool

	log zerolog.Logger
}

func NewBus() *Bus {
	return &Bus{
		clients:  make(map[string]*Client),
		commands: make(chan domain.Message, clientBuffer),
		done:     make(chan struct{}),
		log:      logger.With("messaging"),
	}
}

// Commands delivers page->proxy messages. It is never closed; stop
// reading when Done is.
func (b *Bus) Commands() <-chan domain.Message {
	return b.commands
}

func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Submit hands a page->proxy message to the proxy, waiting for room in the
// command queue.
func (b *Bus) Submit(ctx context.Context, msg domain.Message) error {
	if err := msg.Validate(domain.PageToProxy); err != nil {
		return err
	}
	select {
	case b.commands <- msg:
		return nil
	case <-b.done:
		return domain.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcast sends a proxy->page message to every connected page. It never
// blocks: a page whose buffer is full misses the message.
func (b *Bus) Broadcast(msg domain.Message) error {
	if err := msg.Validate(domain.ProxyToPage); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, c := range b.clients {
		select {
		case c.out <- msg:
		default:
			b.log.Warn().Str("client", id).Str("type", string(msg.Type)).Msg("dropping message for slow page")
		}
	}
	return nil
}

// Connect registers a new page.
func (b *Bus) Connect() *Client {
	c := &Client{
		id:  uuid.NewString(),
		bus: b,
		out: make(chan domain.Message, clientBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(c.out)
		return c
	}
	b.clients[c.id] = c
	b.log.Debug().Str("client", c.id).Msg("page connected")
	return c
}

// Clients is the number of connected pages.
func (b *Bus) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.out)
		b.log.Debug().Str("client", id).Msg("page disconnected")
	}
}

// Close disconnects every page and rejects further submissions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for id, c := range b.clients {
		delete(b.clients, id)
		close(c.out)
	}
}

// Client is a page's in-process end of the bus.
type Client struct {
	id  string
	bus *Bus
	out chan domain.Message
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Post(ctx context.Context, msg domain.Message) error {
	return c.bus.Submit(ctx, msg)
}

func (c *Client) Messages() <-chan domain.Message {
	return c.out
}

func (c *Client) Close() error {
	c.bus.remove(c.id)
	return nil
}

// Ensure interface compliance
var _ ports.ProxyChannel = (*Client)(nil)
