// Package relay is the rendezvous server for networked games. It never
// inspects game payloads: peers in a room exchange opaque frames, the
// relay only adds room membership, addressed forwarding and lifecycle
// control frames. The host runs the game; the relay just moves bytes.
package relay

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/roopamkhare/fashion-vashion/internal/logging"
)

const (
	codeLen = 4
	// no 0/O/1/I, codes get typed on small screens
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxFrameSize = 64 << 10

	// To set to Fanout delivers to every peer in the room but the sender.
	Fanout = "*"
)

const (
	ctlWelcome     = "welcome"
	ctlPeerJoined  = "peer_joined"
	ctlPeerLeft    = "peer_left"
	ctlRoomMissing = "room_missing"
	ctlPeerTaken   = "peer_taken"
	ctlClose       = "close"
)

// frame is the relay envelope. Exactly one of Ctl or Body is set. Body
// is opaque to the relay.
type frame struct {
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
	Ctl  string          `json:"ctl,omitempty"`
	Peer string          `json:"peer,omitempty"`
	Code string          `json:"code,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

type Config struct {
	Addr      string        `envconfig:"VASHION_ADDR" default:":8080"`
	PublicURL string        `envconfig:"VASHION_PUBLIC_URL" default:"http://localhost:8080"`
	RoomTTL   time.Duration `envconfig:"VASHION_ROOM_TTL" default:"30m"`
}

type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]*room
}

func New(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms: map[string]*room{},
	}
}

// Routes mounts the relay endpoints on r.
func (s *Server) Routes(r *httprouter.Router) {
	r.GET("/ws", s.serveWS)
	r.GET("/rooms/:code/qr", s.serveQR)
	r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
}

// Run reaps idle rooms until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("relay")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()
		case <-ticker.C:
			for _, r := range s.expired() {
				logger.Infof("reaping idle room %s", r.code)
				s.dropRoom(r)
			}
		}
	}
}

func (s *Server) expired() []*room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []*room
	for _, r := range s.rooms {
		if time.Since(r.touched()) > s.cfg.RoomTTL {
			idle = append(idle, r)
		}
	}
	return idle
}

func (s *Server) closeAll() {
	s.mu.Lock()
	rooms := s.rooms
	s.rooms = map[string]*room{}
	s.mu.Unlock()

	for _, r := range rooms {
		r.closeAllPeers()
	}
}

func (s *Server) dropRoom(r *room) {
	s.mu.Lock()
	delete(s.rooms, r.code)
	s.mu.Unlock()
	r.closeAllPeers()
}

func (s *Server) serveWS(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	logger := logging.FromContext(req.Context()).Named("relay")

	peerID := req.URL.Query().Get("peer")
	if peerID == "" {
		http.Error(w, "peer id required", http.StatusBadRequest)
		return
	}
	code := req.URL.Query().Get("room")

	ws, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Warnf("upgrade: %v", err)
		return
	}

	c := &client{id: peerID, ws: ws, send: make(chan []byte, 64)}
	go c.writePump()

	var r *room
	if code == "" || code == "new" {
		r, err = s.createRoom(c)
		if err != nil {
			logger.Errorf("create room: %v", err)
			c.control(frame{Ctl: ctlRoomMissing})
			c.shutdown()
			return
		}
		logger.Infof("room %s opened by %s", r.code, peerID)
	} else {
		r = s.room(code)
		if r == nil {
			c.control(frame{Ctl: ctlRoomMissing, Code: code})
			c.shutdown()
			return
		}
		if !r.add(c) {
			c.control(frame{Ctl: ctlPeerTaken, Code: code})
			c.shutdown()
			return
		}
		logger.Infof("peer %s joined room %s", peerID, r.code)
	}

	c.control(frame{Ctl: ctlWelcome, Code: r.code, Peer: r.hostID})
	if peerID != r.hostID {
		r.notify(peerID, frame{Ctl: ctlPeerJoined, Peer: peerID})
	}

	s.readLoop(r, c, logger)
}

func (s *Server) readLoop(r *room, c *client, logger *zap.SugaredLogger) {
	defer func() {
		stillThere := r.remove(c)
		c.shutdown()
		if stillThere {
			r.notify(c.id, frame{Ctl: ctlPeerLeft, Peer: c.id})
		}
		if r.empty() {
			logger.Infof("room %s emptied", r.code)
			s.dropRoom(r)
		}
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("peer %s read: %v", c.id, err)
			}
			return
		}
		r.touch()

		f.From = c.id
		switch f.To {
		case "":
			// unaddressed frames have nowhere to go
		case Fanout:
			r.fanout(c.id, f)
		default:
			r.forward(f)
		}
	}
}

func (s *Server) createRoom(host *client) (*room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempts := 0; attempts < 64; attempts++ {
		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		if _, taken := s.rooms[code]; taken {
			continue
		}

		r := &room{
			code:   code,
			hostID: host.id,
			peers:  map[string]*client{host.id: host},
			seen:   time.Now(),
		}
		s.rooms[code] = r
		return r, nil
	}

	return nil, fmt.Errorf("room codes exhausted")
}

func (s *Server) room(code string) *room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[code]
}

func (s *Server) serveQR(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	code := params.ByName("code")
	if s.room(code) == nil {
		http.NotFound(w, req)
		return
	}

	png, err := qrcode.Encode(s.cfg.PublicURL+"/#/"+code, qrcode.Medium, 256)
	if err != nil {
		logging.FromContext(req.Context()).Named("relay").Errorf("encode qr: %v", err)
		http.Error(w, "qr encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

type room struct {
	code   string
	hostID string

	mu    sync.RWMutex
	peers map[string]*client
	seen  time.Time
}

// add registers c; a duplicate peer id is refused.
func (r *room) add(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.peers[c.id]; taken {
		return false
	}
	r.peers[c.id] = c
	r.seen = time.Now()
	return true
}

// remove reports whether c was still a member.
func (r *room) remove(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.peers[c.id] != c {
		return false
	}
	delete(r.peers, c.id)
	return true
}

func (r *room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers) == 0
}

func (r *room) touch() {
	r.mu.Lock()
	r.seen = time.Now()
	r.mu.Unlock()
}

func (r *room) touched() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seen
}

func (r *room) forward(f frame) {
	r.mu.RLock()
	target := r.peers[f.To]
	r.mu.RUnlock()
	if target != nil {
		target.enqueue(f)
	}
}

func (r *room) fanout(except string, f frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, peer := range r.peers {
		if id != except {
			peer.enqueue(f)
		}
	}
}

// notify tells everyone but about that about's membership changed.
func (r *room) notify(about string, f frame) {
	r.fanout(about, f)
}

func (r *room) closeAllPeers() {
	r.mu.Lock()
	peers := r.peers
	r.peers = map[string]*client{}
	r.mu.Unlock()

	for _, c := range peers {
		c.shutdown()
	}
}

type client struct {
	id string
	ws *websocket.Conn

	send chan []byte

	closeOnce sync.Once
}

func (c *client) enqueue(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// slow consumer, drop the frame rather than the room
	}
}

func (c *client) control(f frame) {
	c.enqueue(f)
}

func (c *client) shutdown() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
