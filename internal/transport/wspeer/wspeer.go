// Package wspeer carries game traffic over a relay websocket. One
// socket per device: the relay fans addressed frames out to room
// members, so a single connection serves every logical peer conn.
package wspeer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roopamkhare/fashion-vashion/internal/transport"
)

const (
	ctlWelcome     = "welcome"
	ctlPeerJoined  = "peer_joined"
	ctlPeerLeft    = "peer_left"
	ctlRoomMissing = "room_missing"
	ctlPeerTaken   = "peer_taken"
	ctlClose       = "close"

	writeWait   = 10 * time.Second
	welcomeWait = 10 * time.Second
)

var (
	ErrRoomMissing = fmt.Errorf("room not found")
	ErrPeerTaken   = fmt.Errorf("peer id already in room")
)

// frame mirrors the relay envelope.
type frame struct {
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
	Ctl  string          `json:"ctl,omitempty"`
	Peer string          `json:"peer,omitempty"`
	Code string          `json:"code,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

type Config struct {
	// URL is the relay websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string

	// Room is the code to join. Empty creates a fresh room, making this
	// peer its host.
	Room string

	// SelfID defaults to a random UUID.
	SelfID string
}

type Peer struct {
	selfID string
	code   string
	hostID string

	ws      *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	sink    transport.Sink
	pending []func(transport.Sink)
	conns   map[string]*conn
	closed  bool
}

var _ transport.Transport = (*Peer)(nil)

// Dial connects to the relay and joins (or creates) a room. It blocks
// until the relay's welcome frame arrives, so Code and HostID are valid
// on return.
func Dial(ctx context.Context, cfg Config) (*Peer, error) {
	selfID := cfg.SelfID
	if selfID == "" {
		selfID = uuid.NewString()
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("peer", selfID)
	if cfg.Room != "" {
		q.Set("room", cfg.Room)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	p := &Peer{
		selfID: selfID,
		ws:     ws,
		conns:  map[string]*conn{},
	}

	if err := p.awaitWelcome(); err != nil {
		_ = ws.Close()
		return nil, err
	}

	go p.readLoop()
	return p, nil
}

func (p *Peer) awaitWelcome() error {
	_ = p.ws.SetReadDeadline(time.Now().Add(welcomeWait))
	defer func() { _ = p.ws.SetReadDeadline(time.Time{}) }()

	var f frame
	if err := p.ws.ReadJSON(&f); err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}

	switch f.Ctl {
	case ctlWelcome:
		p.code = f.Code
		p.hostID = f.Peer
		return nil
	case ctlRoomMissing:
		return fmt.Errorf("join %s: %w", f.Code, ErrRoomMissing)
	case ctlPeerTaken:
		return fmt.Errorf("join %s: %w", f.Code, ErrPeerTaken)
	default:
		return fmt.Errorf("unexpected frame %q before welcome", f.Ctl)
	}
}

func (p *Peer) SelfID() string { return p.selfID }

// Code is the room code assigned by the relay.
func (p *Peer) Code() string { return p.code }

// HostID identifies the room's host peer. Guests dial it via Connect.
func (p *Peer) HostID() string { return p.hostID }

// IsHost reports whether this peer created the room.
func (p *Peer) IsHost() bool { return p.hostID == p.selfID }

func (p *Peer) Accept(sink transport.Sink) {
	p.mu.Lock()
	p.sink = sink
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, f := range pending {
		f(sink)
	}
}

func (p *Peer) Connect(_ context.Context, peerID string) (transport.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("connect %s: %w", peerID, transport.ErrPeerUnavailable)
	}
	if c, ok := p.conns[peerID]; ok {
		return c, nil
	}

	c := &conn{peer: p, remote: peerID}
	p.conns[peerID] = c
	return c, nil
}

func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.writeMu.Lock()
	_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = p.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	p.writeMu.Unlock()

	return p.ws.Close()
}

func (p *Peer) readLoop() {
	defer p.dropAll()

	for {
		var f frame
		if err := p.ws.ReadJSON(&f); err != nil {
			return
		}

		switch {
		case f.Ctl == ctlPeerJoined:
			// only the host accepts inbound conns
			if !p.IsHost() {
				continue
			}
			c := p.track(f.Peer)
			p.deliver(func(sink transport.Sink) { sink.ConnOpened(c) })
		case f.Ctl == ctlPeerLeft:
			if p.untrack(f.Peer) {
				peer := f.Peer
				p.deliver(func(sink transport.Sink) { sink.ConnClosed(peer) })
			}
		case f.Ctl == ctlClose:
			if p.untrack(f.From) {
				from := f.From
				p.deliver(func(sink transport.Sink) { sink.ConnClosed(from) })
			}
		case f.Body != nil:
			from, body := f.From, f.Body
			p.deliver(func(sink transport.Sink) { sink.Data(from, body) })
		}
	}
}

func (p *Peer) deliver(f func(transport.Sink)) {
	p.mu.Lock()
	sink := p.sink
	if sink == nil {
		p.pending = append(p.pending, f)
	}
	p.mu.Unlock()

	if sink != nil {
		f(sink)
	}
}

func (p *Peer) track(peerID string) *conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[peerID]; ok {
		return c
	}
	c := &conn{peer: p, remote: peerID}
	p.conns[peerID] = c
	return c
}

func (p *Peer) untrack(peerID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.conns[peerID]; !ok {
		return false
	}
	delete(p.conns, peerID)
	return true
}

// dropAll surfaces ConnClosed for every live conn after the socket
// dies. On a guest the host conn may not exist yet when the socket
// fails; close it by id anyway so the engine notices.
func (p *Peer) dropAll() {
	p.mu.Lock()
	conns := p.conns
	p.conns = map[string]*conn{}
	host := p.hostID
	self := p.selfID
	p.mu.Unlock()

	if _, ok := conns[host]; !ok && host != "" && host != self {
		conns[host] = nil
	}
	for id := range conns {
		peer := id
		p.deliver(func(sink transport.Sink) { sink.ConnClosed(peer) })
	}
}

func (p *Peer) write(f frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := p.ws.WriteJSON(f); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

type conn struct {
	peer   *Peer
	remote string
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) PeerID() string { return c.remote }

func (c *conn) Send(payload []byte) error {
	return c.peer.write(frame{To: c.remote, Body: payload})
}

// Close detaches the logical conn, telling the remote side via a
// relayed control frame. The websocket itself stays up for the
// remaining conns.
func (c *conn) Close() error {
	c.peer.untrack(c.remote)
	return c.peer.write(frame{To: c.remote, Ctl: ctlClose})
}
