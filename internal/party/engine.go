// Package party runs the game itself. One Engine per device: the
// host's engine is authoritative and adjudicates every advisory
// message, guest engines hold replicas and redraw from host
// broadcasts. All state lives on a single goroutine fed by one queue,
// so network traffic, timer expiries and local input share one
// ordering and no lock exists anywhere in the package.
package party

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/logging"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
	"github.com/roopamkhare/fashion-vashion/internal/transport"
)

type connOpened struct{ conn transport.Conn }

type connClosed struct{ peerID string }

type inbound struct {
	peerID  string
	payload []byte
}

type action struct{ fn func() }

type Engine struct {
	cfg Config
	dir *Directory

	queue  chan any
	events chan Event

	conns    map[string]transport.Conn
	upstream transport.Conn

	mode  Mode
	phase Phase
	round int

	// quiz state
	playerIdx    int
	theme        catalog.Theme
	question     catalog.Question
	questionNum  int
	questionLive bool
	qTimeLeft    int
	picked       *int

	// sketch state
	sk sketchState

	timerSeq uint64
	timers   map[string]*timerHandle

	log    *zap.SugaredLogger
	cancel context.CancelFunc
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("party config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		dir:    NewDirectory(),
		queue:  make(chan any, 256),
		events: make(chan Event, 256),
		conns:  map[string]transport.Conn{},
		phase:  PhaseLobby,
		timers: map[string]*timerHandle{},
		log:    zap.NewNop().Sugar(),
	}

	if cfg.Host {
		if _, err := e.dir.Join(cfg.SelfID, cfg.Name, true); err != nil {
			return nil, fmt.Errorf("seed host player: %w", err)
		}
	}

	return e, nil
}

// Events delivers render events. The channel is never closed while the
// engine runs; a consumer that falls behind loses events rather than
// stalling the game.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run attaches the transport and starts the engine goroutine. A guest
// dials the host and introduces itself before the loop starts.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.log = logging.FromContext(ctx).Named("party.engine")

	e.cfg.Transport.Accept(sink{e})

	if !e.cfg.Host {
		if err := e.connectUpstream(ctx); err != nil {
			cancel()
			return err
		}
	}

	go e.loop(ctx)
	return nil
}

// Stop tears the engine down.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) connectUpstream(ctx context.Context) error {
	conn, err := e.cfg.Transport.Connect(ctx, e.cfg.HostID)
	if err != nil {
		return fmt.Errorf("connect host: %w", err)
	}
	e.upstream = conn

	payload, err := protocol.Encode(&protocol.Join{ID: e.cfg.SelfID, Name: e.cfg.Name})
	if err != nil {
		return fmt.Errorf("encode join: %w", err)
	}
	if err := conn.Send(payload); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	return nil
}

func (e *Engine) loop(ctx context.Context) {
	defer func() {
		e.stopAllTimers()
		for _, conn := range e.conns {
			_ = conn.Close()
		}
		if e.upstream != nil {
			_ = e.upstream.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.queue:
			e.dispatch(ev)
		}
	}
}

func (e *Engine) dispatch(ev any) {
	switch ev := ev.(type) {
	case connOpened:
		e.handleOpened(ev.conn)
	case connClosed:
		e.handleClosed(ev.peerID)
	case inbound:
		e.handleData(ev.peerID, ev.payload)
	case action:
		ev.fn()
	case timerFired:
		e.handleTimer(ev)
	default:
		e.log.Warnf("unknown queue event %T", ev)
	}
}

func (e *Engine) post(ev any) {
	e.queue <- ev
}

// do schedules fn on the engine goroutine.
func (e *Engine) do(fn func()) {
	e.post(action{fn: fn})
}

// sink bridges transport callbacks into the queue.
type sink struct{ e *Engine }

func (s sink) ConnOpened(conn transport.Conn)     { s.e.post(connOpened{conn: conn}) }
func (s sink) Data(peerID string, payload []byte) { s.e.post(inbound{peerID: peerID, payload: payload}) }
func (s sink) ConnClosed(peerID string)           { s.e.post(connClosed{peerID: peerID}) }

func (e *Engine) isAuthoritative() bool {
	return e.cfg.Host
}

func (e *Engine) now() time.Time {
	return e.cfg.Now()
}

func (e *Engine) handleOpened(conn transport.Conn) {
	if !e.isAuthoritative() {
		// guests never accept inbound conns
		_ = conn.Close()
		return
	}
	e.conns[conn.PeerID()] = conn
}

func (e *Engine) handleData(peerID string, payload []byte) {
	m, err := protocol.Decode(payload)
	if err != nil {
		e.log.Warnf("dropping malformed payload from %s: %v", peerID, err)
		return
	}
	if m == nil {
		return
	}

	if e.isAuthoritative() {
		e.handleAdvisory(peerID, m)
		return
	}

	if e.upstream == nil || peerID != e.upstream.PeerID() {
		e.log.Debugf("ignoring %s from non-host peer %s", m.Kind(), peerID)
		return
	}
	e.apply(m)
}

// handleAdvisory adjudicates guest messages on the host. Anything a
// guest has no business sending is dropped.
func (e *Engine) handleAdvisory(peerID string, m protocol.Message) {
	switch m := m.(type) {
	case *protocol.Join:
		e.hostJoin(peerID, m)
	case *protocol.MathComplete:
		e.hostMathComplete(m)
	case *protocol.BoutiqueComplete:
		e.hostBoutiqueComplete(m)
	case *protocol.Guess:
		e.hostGuess(m)
	case *protocol.Stroke:
		e.hostStroke(peerID, m)
	case *protocol.Clear:
		e.hostClear(peerID)
	case *protocol.Undo:
		e.hostUndo(peerID)
	default:
		e.log.Debugf("ignoring %s from guest %s", m.Kind(), peerID)
	}
}

// apply replays an authoritative message onto local state. Guests run
// everything through here; the host applies its own announcements so
// both roles share one code path.
func (e *Engine) apply(m protocol.Message) {
	switch m := m.(type) {
	case *protocol.Lobby:
		e.applyLobby(m)
	case *protocol.Error:
		e.emit(ErrorEvent{Code: m.Code, Reason: m.Reason})
	case *protocol.StartGame:
		e.applyStartGame(m)
	case *protocol.StartMath:
		e.applyStartMath(m)
	case *protocol.StartBoutique:
		e.applyStartBoutique(m)
	case *protocol.NextBoutique:
		e.applyNextBoutique(m)
	case *protocol.GameOver:
		e.applyGameOver(m)
	case *protocol.TurnStart:
		e.applyTurnStart(m)
	case *protocol.TurnWord:
		e.applyTurnWord(m)
	case *protocol.Stroke:
		e.emit(StrokeEvent{Stroke: *m})
	case *protocol.Clear:
		e.emit(CanvasClearEvent{})
	case *protocol.Undo:
		e.emit(UndoEvent{})
	case *protocol.Hint:
		e.applyHint(m)
	case *protocol.Chat:
		e.emit(ChatEvent{PlayerName: m.PlayerName, Text: m.Text, Close: m.Close})
	case *protocol.Correct:
		e.applyCorrect(m)
	case *protocol.TurnEnd:
		e.applyTurnEnd(m)
	case *protocol.SketchOver:
		e.applySketchOver(m)
	default:
		e.log.Debugf("no apply for %s", m.Kind())
	}
}

// announce broadcasts to every guest, then applies locally. Host only.
func (e *Engine) announce(m protocol.Message) {
	if !e.isAuthoritative() {
		return
	}

	payload, err := protocol.Encode(m)
	if err != nil {
		e.log.Errorf("encode %s: %v", m.Kind(), err)
		return
	}
	for peerID, conn := range e.conns {
		if err := conn.Send(payload); err != nil {
			e.log.Warnf("send %s to %s: %v", m.Kind(), peerID, err)
		}
	}

	e.apply(m)
}

// sendTo addresses one peer. Sending to self applies directly.
func (e *Engine) sendTo(peerID string, m protocol.Message) {
	if peerID == e.cfg.SelfID {
		e.apply(m)
		return
	}

	conn, ok := e.conns[peerID]
	if !ok {
		e.log.Warnf("no conn for %s, dropping %s", peerID, m.Kind())
		return
	}
	payload, err := protocol.Encode(m)
	if err != nil {
		e.log.Errorf("encode %s: %v", m.Kind(), err)
		return
	}
	if err := conn.Send(payload); err != nil {
		e.log.Warnf("send %s to %s: %v", m.Kind(), peerID, err)
	}
}

// relay forwards to every guest except one, without applying locally.
func (e *Engine) relay(except string, m protocol.Message) {
	payload, err := protocol.Encode(m)
	if err != nil {
		e.log.Errorf("encode %s: %v", m.Kind(), err)
		return
	}
	for peerID, conn := range e.conns {
		if peerID == except {
			continue
		}
		if err := conn.Send(payload); err != nil {
			e.log.Warnf("relay %s to %s: %v", m.Kind(), peerID, err)
		}
	}
}

// toHost routes an advisory message. On the host it goes straight to
// adjudication; on a guest it crosses the wire.
func (e *Engine) toHost(m protocol.Message) {
	if e.isAuthoritative() {
		e.handleAdvisory(e.cfg.SelfID, m)
		return
	}

	if e.upstream == nil {
		e.log.Warnf("no upstream, dropping %s", m.Kind())
		return
	}
	payload, err := protocol.Encode(m)
	if err != nil {
		e.log.Errorf("encode %s: %v", m.Kind(), err)
		return
	}
	if err := e.upstream.Send(payload); err != nil {
		e.log.Warnf("send %s to host: %v", m.Kind(), err)
	}
}

func (e *Engine) hostJoin(peerID string, m *protocol.Join) {
	if m.ID != peerID {
		e.log.Warnf("join id %s does not match transport peer %s", m.ID, peerID)
		return
	}

	if _, err := e.dir.Join(m.ID, m.Name, false); err != nil {
		e.log.Infof("refusing join from %s: %v", m.Name, err)
		e.sendTo(peerID, &protocol.Error{Code: "room_playing", Reason: "the game has already started"})
		if conn, ok := e.conns[peerID]; ok {
			_ = conn.Close()
			delete(e.conns, peerID)
		}
		return
	}

	e.log.Infof("%s joined the lobby", m.Name)
	e.announce(e.lobbyMessage())
}

func (e *Engine) lobbyMessage() *protocol.Lobby {
	return &protocol.Lobby{
		Players:    e.dir.Snapshot(),
		Difficulty: string(e.cfg.Difficulty),
		Mode:       string(e.mode),
	}
}

func (e *Engine) applyLobby(m *protocol.Lobby) {
	e.stopAllTimers()
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
		if m.Difficulty != "" {
			e.cfg.Difficulty = catalog.Difficulty(m.Difficulty)
		}
	}
	e.phase = PhaseLobby
	e.emitView()
}

func (e *Engine) handleClosed(peerID string) {
	delete(e.conns, peerID)

	if !e.isAuthoritative() {
		if e.upstream != nil && peerID == e.upstream.PeerID() {
			e.log.Warnf("lost connection to host")
			e.stopAllTimers()
			e.emit(ErrorEvent{Code: "disconnected", Reason: "lost connection to the host"})
		}
		return
	}

	removedIdx := e.dir.Index(peerID)
	if removedIdx < 0 {
		return
	}

	p := e.dir.At(removedIdx)
	e.log.Infof("%s left the game", p.Name)
	wasCurrent := removedIdx == e.playerIdx
	wasDrawer := peerID == e.sk.drawerID
	e.dir.Remove(peerID)

	if !e.dir.Started() || e.phase == PhaseLobby {
		e.announce(e.lobbyMessage())
		return
	}

	if e.dir.Len() < 2 {
		// nobody left to play against
		e.dir.Reopen()
		e.dir.ResetGame()
		e.announce(e.lobbyMessage())
		return
	}

	switch e.phase {
	case PhaseTheme, PhaseMath, PhaseBoutique:
		e.quizPlayerLeft(removedIdx, wasCurrent)
	case PhaseCountdown, PhaseDrawing, PhaseReveal:
		e.sketchPlayerLeft(removedIdx, wasDrawer)
	}
}

func (e *Engine) applyStartGame(m *protocol.StartGame) {
	e.stopAllTimers()
	e.mode = Mode(m.Mode)
	if m.Difficulty != "" {
		e.cfg.Difficulty = catalog.Difficulty(m.Difficulty)
	}
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
		e.dir.Start()
	}
	if m.Round > 0 {
		e.round = m.Round
	}

	switch e.mode {
	case ModeQuiz:
		if m.Theme != nil {
			e.theme = catalog.Theme{Name: m.Theme.Name, Emoji: m.Theme.Emoji, Tags: m.Theme.Tags}
		}
		e.playerIdx = 0
		e.phase = PhaseTheme
	case ModeSketch:
		if !e.isAuthoritative() {
			e.resetSketch()
		}
		e.phase = PhaseCountdown
	}

	e.emitView()
}

func (e *Engine) handleTimer(f timerFired) {
	switch f.name {
	case timerQuestion:
		if e.live(f, false) {
			e.questionTick()
		}
	case timerTurn:
		if e.live(f, false) {
			e.sketchTick()
		}
	case timerNextQuestion:
		if e.live(f, true) {
			e.loadQuestion()
		}
	case timerMathDone:
		if e.live(f, true) {
			e.finishMathTurn()
		}
	case timerCountdown:
		if e.live(f, true) {
			e.startNextTurn()
		}
	case timerGraceEnd:
		if e.live(f, true) {
			e.endTurn()
		}
	case timerRevealAdvance:
		if e.live(f, true) {
			e.advanceTurn()
		}
	default:
		e.log.Warnf("unknown timer %s", f.name)
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		// consumer is behind; drop rather than block the loop
	}
}

func (e *Engine) emitView() {
	e.emit(e.view())
}

func (e *Engine) view() View {
	v := View{
		Mode:      e.mode,
		Phase:     e.phase,
		Round:     e.round,
		MaxRounds: e.cfg.MaxRounds,
		Players:   e.dir.Snapshot(),
	}

	if e.mode == ModeSketch {
		v.MaxRounds = e.cfg.SketchRounds
		v.Round = e.sk.round
	}

	if e.theme.Name != "" && e.mode == ModeQuiz {
		theme := e.theme
		v.Theme = &theme
	}

	switch e.phase {
	case PhaseMath, PhaseBoutique:
		if e.playerIdx < e.dir.Len() {
			v.CurrentID = e.dir.At(e.playerIdx).ID
		}
		if e.phase == PhaseMath {
			v.QuestionNum = e.questionNum
			v.QuestionTotal = e.cfg.Questions
			v.TimerSeconds = e.qTimeLeft
			if e.question.Text != "" {
				q := &QuestionView{Text: e.question.Text, Choices: e.question.Choices}
				if !e.questionLive {
					q.Revealed = true
					q.CorrectIndex = e.question.CorrectIndex
					q.Picked = e.picked
				}
				v.Question = q
			}
		}
	case PhaseWinner:
		v.Breakdowns = e.breakdowns()
	case PhaseDrawing, PhaseReveal, PhaseSketchWinner, PhaseCountdown:
		v.DrawerID = e.sk.drawerID
		v.DrawerName = e.sk.drawerName
		v.Hint = e.sk.hint
		v.TimerSeconds = e.sk.timeLeft
		v.GuessedBy = append([]string(nil), e.sk.guessedBy...)
		v.SketchScores = copyScores(e.sk.scores)
		if e.phase == PhaseReveal || e.cfg.SelfID == e.sk.drawerID {
			v.Word = e.sk.word
		}
	}

	return v
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for id, s := range scores {
		out[id] = s
	}
	return out
}
