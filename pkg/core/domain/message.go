package domain

import "fmt"

// MessageType is the closed vocabulary exchanged between pages and the proxy.
type MessageType string

const (
	// Page to proxy.
	MsgSkipWaiting MessageType = "SKIP_WAITING"
	MsgRequestSync MessageType = "REQUEST_SYNC"

	// Proxy to page.
	MsgBackgroundSyncStart   MessageType = "BACKGROUND_SYNC_START"
	MsgBackgroundSyncSuccess MessageType = "BACKGROUND_SYNC_SUCCESS"
	MsgBackgroundSyncFailed  MessageType = "BACKGROUND_SYNC_FAILED"
	MsgUpdateAvailable       MessageType = "UPDATE_AVAILABLE"
)

// Direction tells which side may send a message type.
type Direction int

const (
	DirectionUnknown Direction = iota
	PageToProxy
	ProxyToPage
)

func (d Direction) String() string {
	switch d {
	case PageToProxy:
		return "page->proxy"
	case ProxyToPage:
		return "proxy->page"
	default:
		return "unknown"
	}
}

// Direction returns DirectionUnknown for types outside the vocabulary.
func (t MessageType) Direction() Direction {
	switch t {
	case MsgSkipWaiting, MsgRequestSync:
		return PageToProxy
	case MsgBackgroundSyncStart, MsgBackgroundSyncSuccess, MsgBackgroundSyncFailed, MsgUpdateAvailable:
		return ProxyToPage
	default:
		return DirectionUnknown
	}
}

// Message is the envelope carried on the page/proxy channel.
type Message struct {
	Type MessageType `json:"type"`
}

// Validate checks the message belongs to the vocabulary and travels in dir.
func (m Message) Validate(dir Direction) error {
	got := m.Type.Direction()
	if got == DirectionUnknown {
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	if got != dir {
		return fmt.Errorf("%w: %s is %s, not %s", ErrWrongDirection, m.Type, got, dir)
	}
	return nil
}

// SyncTagLinks is the background sync tag registered by REQUEST_SYNC.
const SyncTagLinks = "background-sync-links"

// ConnectivityEvent is a reachability transition reported by the host.
type ConnectivityEvent int

const (
	ConnectivityOffline ConnectivityEvent = iota
	ConnectivityOnline
)

func (e ConnectivityEvent) String() string {
	if e == ConnectivityOnline {
		return "online"
	}
	return "offline"
}
