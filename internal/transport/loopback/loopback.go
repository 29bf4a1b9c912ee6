// Package loopback wires engines together in process. It backs the
// single-device variant of the game and the engine tests: the same
// state machine runs against it unchanged.
package loopback

import (
	"context"
	"fmt"
	"sync"

	"github.com/roopamkhare/fashion-vashion/internal/transport"
)

type Network struct {
	mu    sync.Mutex
	peers map[string]*Peer
}

func NewNetwork() *Network {
	return &Network{peers: map[string]*Peer{}}
}

// Peer registers (or returns) the endpoint for id.
func (n *Network) Peer(id string) *Peer {
	n.mu.Lock()
	defer n.mu.Unlock()

	if p, ok := n.peers[id]; ok {
		return p
	}

	p := &Peer{id: id, net: n}
	n.peers[id] = p
	return p
}

func (n *Network) lookup(id string) (*Peer, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.peers[id]
	return p, ok
}

type Peer struct {
	id  string
	net *Network

	mu   sync.Mutex
	sink transport.Sink
}

var _ transport.Transport = (*Peer)(nil)

func (p *Peer) SelfID() string { return p.id }

func (p *Peer) Accept(sink transport.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

func (p *Peer) Connect(_ context.Context, peerID string) (transport.Conn, error) {
	target, ok := p.net.lookup(peerID)
	if !ok {
		return nil, fmt.Errorf("connect %s: %w", peerID, transport.ErrPeerUnavailable)
	}

	target.mu.Lock()
	sink := target.sink
	target.mu.Unlock()
	if sink == nil {
		return nil, fmt.Errorf("connect %s: %w", peerID, transport.ErrPeerUnavailable)
	}

	local := &conn{local: p, remote: target}
	remote := &conn{local: target, remote: p}
	local.twin, remote.twin = remote, local

	sink.ConnOpened(remote)
	return local, nil
}

func (p *Peer) Close() error { return nil }

func (p *Peer) deliver(from string, payload []byte) error {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink == nil {
		return fmt.Errorf("deliver to %s: %w", p.id, transport.ErrPeerUnavailable)
	}

	sink.Data(from, payload)
	return nil
}

type conn struct {
	local  *Peer
	remote *Peer
	twin   *conn

	mu     sync.Mutex
	closed bool
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) PeerID() string { return c.remote.id }

func (c *conn) Send(payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("send on closed conn to %s", c.remote.id)
	}

	// copy: the sender may reuse its buffer
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return c.remote.deliver(c.local.id, buf)
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.twin.mu.Lock()
	alreadyClosed := c.twin.closed
	c.twin.closed = true
	c.twin.mu.Unlock()

	if !alreadyClosed {
		c.remote.mu.Lock()
		sink := c.remote.sink
		c.remote.mu.Unlock()
		if sink != nil {
			sink.ConnClosed(c.local.id)
		}
	}

	return nil
}
