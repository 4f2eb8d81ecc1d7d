package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

// LinkRepository defines storage operations for the backend link table
type LinkRepository interface {
	Create(ctx context.Context, row *domain.LinkRow) error
	GetByID(ctx context.Context, id int64) (*domain.LinkRow, error)
	Update(ctx context.Context, row *domain.LinkRow) error // Full-row replace
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.LinkRow, error)
	Dump(ctx context.Context) ([]domain.LinkRow, error) // For migration

	// RecordVisit stores the visit and bumps the click counter atomically.
	RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error)
}

// LinkService defines the backend business operations behind the CRUD endpoint
type LinkService interface {
	ListLinks(ctx context.Context) ([]domain.LinkRow, error)
	SaveLink(ctx context.Context, id int64, data domain.APILinkData) (int64, error)
	DeleteLink(ctx context.Context, id int64) error
	IncrementClick(ctx context.Context, id int64, referer, userAgent string) (int64, error)
}

// LinkGateway is the client side of the CRUD endpoint
type LinkGateway interface {
	GetLinks(ctx context.Context) ([]domain.APILink, error)
	AddLink(ctx context.Context, data domain.APILinkData) (*domain.APIResponse, error)
	UpdateLink(ctx context.Context, id string, data domain.APILinkData) (*domain.APIResponse, error)
	DeleteLink(ctx context.Context, id string) (*domain.APIResponse, error)
	IncrementClick(ctx context.Context, id string) (*domain.APIResponse, error)
}

// KeyValueStore is the page's durable string store.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// CacheStorage holds the proxy's named response buckets. Writes of a single
// entry are atomic.
type CacheStorage interface {
	OpenBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket, key string, resp *domain.CachedResponse) error
	// Match looks key up in bucket, or in every bucket in creation order
	// when bucket is empty. A miss returns nil, nil.
	Match(ctx context.Context, bucket, key string) (*domain.CachedResponse, error)
	Buckets(ctx context.Context) ([]string, error)
	DeleteBucket(ctx context.Context, bucket string) error
}

// SnapshotStore is the part of the local store the sync layer needs.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, links []domain.Link) error
	LoadSnapshot(ctx context.Context) *domain.Snapshot
	LastFetched(ctx context.Context) time.Time
}

// Connectivity reports whether the network is believed reachable.
type Connectivity interface {
	IsOnline() bool
}

// ProxyChannel is a page's end of the typed page/proxy channel.
type ProxyChannel interface {
	// Post sends a page->proxy message.
	Post(ctx context.Context, msg domain.Message) error
	// Messages delivers proxy->page messages until the channel closes.
	Messages() <-chan domain.Message
	Close() error
}
