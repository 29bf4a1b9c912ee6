// Package transport is the boundary between the game core and whatever
// carries its bytes. Delivery is assumed reliable and ordered per
// connection, unordered across connections. The core never retries a
// send: a dead peer simply stops receiving state.
package transport

import (
	"context"
	"fmt"
)

var ErrPeerUnavailable = fmt.Errorf("peer unavailable")

// Sink receives transport callbacks. The engine implementation posts
// every callback into its message queue, so ordering per connection is
// preserved end to end.
type Sink interface {
	ConnOpened(conn Conn)
	Data(peerID string, payload []byte)
	ConnClosed(peerID string)
}

type Conn interface {
	PeerID() string
	Send(payload []byte) error
	Close() error
}

type Transport interface {
	// SelfID is the locally-unique identifier assigned by the transport.
	SelfID() string

	// Connect dials the peer owning peerID (the host, in practice).
	Connect(ctx context.Context, peerID string) (Conn, error)

	// Accept registers the sink for inbound connections and data.
	Accept(sink Sink)

	Close() error
}
