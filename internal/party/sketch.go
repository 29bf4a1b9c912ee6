package party

import (
	"strings"
	"time"

	"github.com/valyala/fastrand"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
	"github.com/roopamkhare/fashion-vashion/internal/score"
)

// sketchState is the drawing game's slice of engine state. On the host
// word, used and revealed are authoritative; guests only ever see word
// via an addressed TurnWord (drawer) or the TurnEnd reveal.
type sketchState struct {
	round      int
	drawerIdx  int
	drawerID   string
	drawerName string

	word     string
	used     map[string]bool
	revealed map[int]bool
	hint     string

	guessedBy []string
	scores    map[string]int

	startMs  int64
	timeLeft int

	undoArmed bool
}

func (e *Engine) resetSketch() {
	e.sk = sketchState{
		round:  1,
		used:   map[string]bool{},
		scores: map[string]int{},
	}
	for _, p := range e.dir.Players() {
		e.sk.scores[p.ID] = 0
	}
}

// startNextTurn opens a drawing turn. Host only. The word crosses the
// wire exactly once, addressed to the drawer.
func (e *Engine) startNextTurn() {
	drawer := e.dir.At(e.sk.drawerIdx)

	word := catalog.PickWord(e.cfg.Difficulty, e.sk.used)
	if e.sk.used[word] {
		// pool exhausted, every word is fair game again
		e.sk.used = map[string]bool{}
	}
	e.sk.used[word] = true
	e.sk.word = word
	e.sk.revealed = map[int]bool{}

	if e.cfg.Difficulty == catalog.DifficultyEasy {
		for i, r := range word {
			if r != ' ' {
				e.sk.revealed[i] = true
				break
			}
		}
	}

	e.announce(&protocol.TurnStart{
		DrawerID:   drawer.ID,
		DrawerName: drawer.Name,
		Hint:       maskWord(word, e.sk.revealed),
		Round:      e.sk.round,
		StartMs:    e.now().UnixMilli(),
	})
	e.sendTo(drawer.ID, &protocol.TurnWord{Word: word})
}

func (e *Engine) applyTurnStart(m *protocol.TurnStart) {
	e.stopAllTimers()
	e.mode = ModeSketch
	e.phase = PhaseDrawing

	if !e.isAuthoritative() {
		e.sk.word = ""
		if e.sk.scores == nil {
			e.resetSketch()
		}
	}

	e.sk.drawerID = m.DrawerID
	e.sk.drawerName = m.DrawerName
	e.sk.round = m.Round
	e.sk.hint = m.Hint
	e.sk.guessedBy = nil
	e.sk.startMs = m.StartMs
	e.sk.timeLeft = e.cfg.TurnSeconds
	e.sk.undoArmed = false

	e.startTicker(timerTurn, time.Second)
	e.emitView()
}

func (e *Engine) applyTurnWord(m *protocol.TurnWord) {
	e.sk.word = m.Word
	e.emitView()
}

func (e *Engine) sketchTick() {
	if e.phase != PhaseDrawing {
		return
	}

	e.sk.timeLeft--

	if e.isAuthoritative() {
		switch e.sk.timeLeft {
		case e.cfg.TurnSeconds / 2:
			e.revealLetters(1)
		case e.cfg.TurnSeconds / 4:
			e.revealLetters(2)
		}
		if e.sk.timeLeft <= 0 {
			e.endTurn()
			return
		}
	} else if e.sk.timeLeft <= 0 {
		e.stopTimer(timerTurn)
	}

	e.emitView()
}

// revealLetters uncovers n random hidden letters and broadcasts the
// new hint mask. The word itself stays put.
func (e *Engine) revealLetters(n int) {
	var hidden []int
	for i, r := range e.sk.word {
		if r != ' ' && !e.sk.revealed[i] {
			hidden = append(hidden, i)
		}
	}

	for ; n > 0 && len(hidden) > 0; n-- {
		pick := int(fastrand.Uint32n(uint32(len(hidden))))
		e.sk.revealed[hidden[pick]] = true
		hidden = append(hidden[:pick], hidden[pick+1:]...)
	}

	e.announce(&protocol.Hint{Hint: maskWord(e.sk.word, e.sk.revealed)})
}

func (e *Engine) applyHint(m *protocol.Hint) {
	e.sk.hint = m.Hint
	e.emit(HintEvent{Hint: m.Hint})
}

// SubmitGuess sends the local player's guess to the host. Drawers
// cannot guess their own word.
func (e *Engine) SubmitGuess(text string) {
	e.do(func() { e.submitGuess(text) })
}

func (e *Engine) submitGuess(text string) {
	if e.phase != PhaseDrawing || e.sk.drawerID == e.cfg.SelfID {
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	e.toHost(&protocol.Guess{PlayerID: e.cfg.SelfID, Text: text})
}

func (e *Engine) hostGuess(m *protocol.Guess) {
	if e.phase != PhaseDrawing || e.sk.word == "" {
		e.log.Debugf("guess outside a turn, dropping")
		return
	}
	p, ok := e.dir.Player(m.PlayerID)
	if !ok {
		e.log.Warnf("guess from unknown player %s", m.PlayerID)
		return
	}
	if m.PlayerID == e.sk.drawerID {
		return
	}

	guess := normalizeGuess(m.Text)
	target := normalizeGuess(e.sk.word)

	if guess == target {
		if e.hasGuessed(m.PlayerID) {
			// repeat correct guesses earn nothing and must not leak
			// the word into chat
			return
		}

		elapsed := time.Duration(e.now().UnixMilli()-e.sk.startMs) * time.Millisecond
		turn := time.Duration(e.cfg.TurnSeconds) * time.Second
		pts := score.GuessPoints(elapsed, turn, score.GuessPointsMax)

		e.announce(&protocol.Correct{PlayerID: p.ID, PlayerName: p.Name, Points: pts})

		if e.allGuessed() {
			e.startTimer(timerGraceEnd, graceDelay)
		}
		return
	}

	e.announce(&protocol.Chat{PlayerName: p.Name, Text: m.Text, Close: closeGuess(guess, target)})
}

func (e *Engine) applyCorrect(m *protocol.Correct) {
	if !e.hasGuessed(m.PlayerID) {
		e.sk.guessedBy = append(e.sk.guessedBy, m.PlayerID)
		e.sk.scores[m.PlayerID] += m.Points
	}
	e.emit(CorrectEvent{PlayerID: m.PlayerID, PlayerName: m.PlayerName, Points: m.Points})
	e.emitView()
}

func (e *Engine) hasGuessed(playerID string) bool {
	for _, id := range e.sk.guessedBy {
		if id == playerID {
			return true
		}
	}
	return false
}

// allGuessed reports whether every connected non-drawer has the word.
func (e *Engine) allGuessed() bool {
	for _, p := range e.dir.Players() {
		if p.ID == e.sk.drawerID {
			continue
		}
		if !e.hasGuessed(p.ID) {
			return false
		}
	}
	return true
}

// endTurn closes the drawing turn, pays the drawer and reveals the
// word to everyone. Host only.
func (e *Engine) endTurn() {
	if !e.isAuthoritative() || e.phase != PhaseDrawing {
		return
	}

	if len(e.sk.guessedBy) > 0 {
		e.sk.scores[e.sk.drawerID] += score.DrawerBonus
	}

	e.announce(&protocol.TurnEnd{
		Word:      e.sk.word,
		Scores:    copyScores(e.sk.scores),
		GuessedBy: append([]string(nil), e.sk.guessedBy...),
	})
	e.startTimer(timerRevealAdvance, revealDelay)
}

func (e *Engine) applyTurnEnd(m *protocol.TurnEnd) {
	e.stopAllTimers()
	e.phase = PhaseReveal
	e.sk.word = m.Word
	e.sk.scores = copyScores(m.Scores)
	e.sk.guessedBy = append([]string(nil), m.GuessedBy...)
	e.emitView()
}

func (e *Engine) advanceTurn() {
	if !e.isAuthoritative() || e.phase != PhaseReveal {
		return
	}

	e.sk.drawerIdx = (e.sk.drawerIdx + 1) % e.dir.Len()
	if e.sk.drawerIdx == 0 {
		e.sk.round++
	}

	if e.sk.round > e.cfg.SketchRounds {
		e.recordSketchHighScore()
		e.announce(&protocol.SketchOver{Scores: copyScores(e.sk.scores)})
		return
	}
	e.startNextTurn()
}

func (e *Engine) applySketchOver(m *protocol.SketchOver) {
	e.stopAllTimers()
	e.phase = PhaseSketchWinner
	e.sk.scores = copyScores(m.Scores)
	e.emitView()
}

func (e *Engine) recordSketchHighScore() {
	if e.cfg.Scores == nil {
		return
	}

	bestID, best := "", -1
	for id, pts := range e.sk.scores {
		if pts > best {
			bestID, best = id, pts
		}
	}
	p, ok := e.dir.Player(bestID)
	if !ok {
		return
	}

	high, err := e.cfg.Scores.IsHighScore(best)
	if err != nil {
		e.log.Warnf("check high score: %v", err)
		return
	}
	if !high {
		return
	}
	if err := e.cfg.Scores.Add(p.Name, best); err != nil {
		e.log.Warnf("record high score: %v", err)
	}
}

// SubmitStroke relays a drawn segment. The drawer's renderer draws it
// locally as the pointer moves, so nothing is echoed back here.
func (e *Engine) SubmitStroke(s protocol.Stroke) {
	e.do(func() { e.submitStroke(s) })
}

// SubmitClear wipes everyone else's canvas.
func (e *Engine) SubmitClear() {
	e.do(func() { e.submitCanvas(&protocol.Clear{}) })
}

// SubmitUndo reverts the last stroke batch, once.
func (e *Engine) SubmitUndo() {
	e.do(func() {
		if !e.sk.undoArmed {
			return
		}
		e.sk.undoArmed = false
		e.submitCanvas(&protocol.Undo{})
	})
}

func (e *Engine) submitStroke(s protocol.Stroke) {
	if e.phase != PhaseDrawing || e.sk.drawerID != e.cfg.SelfID {
		return
	}

	e.sk.undoArmed = true
	if e.isAuthoritative() {
		e.relay(e.cfg.SelfID, &s)
		return
	}
	e.toHost(&s)
}

func (e *Engine) submitCanvas(m protocol.Message) {
	if e.phase != PhaseDrawing || e.sk.drawerID != e.cfg.SelfID {
		return
	}

	if _, isClear := m.(*protocol.Clear); isClear {
		e.sk.undoArmed = false
	}

	if e.isAuthoritative() {
		e.relay(e.cfg.SelfID, m)
		return
	}
	e.toHost(m)
}

func (e *Engine) hostStroke(peerID string, m *protocol.Stroke) {
	if e.phase != PhaseDrawing || peerID != e.sk.drawerID {
		e.log.Debugf("stroke from non-drawer %s, dropping", peerID)
		return
	}
	e.relay(peerID, m)
	e.emit(StrokeEvent{Stroke: *m})
}

func (e *Engine) hostClear(peerID string) {
	if e.phase != PhaseDrawing || peerID != e.sk.drawerID {
		e.log.Debugf("clear from non-drawer %s, dropping", peerID)
		return
	}
	e.relay(peerID, &protocol.Clear{})
	e.emit(CanvasClearEvent{})
}

func (e *Engine) hostUndo(peerID string) {
	if e.phase != PhaseDrawing || peerID != e.sk.drawerID {
		e.log.Debugf("undo from non-drawer %s, dropping", peerID)
		return
	}
	e.relay(peerID, &protocol.Undo{})
	e.emit(UndoEvent{})
}

// sketchPlayerLeft repairs the rotation after a departure.
func (e *Engine) sketchPlayerLeft(removedIdx int, wasDrawer bool) {
	if removedIdx < e.sk.drawerIdx {
		e.sk.drawerIdx--
	}

	if wasDrawer {
		// the successor now sits at the drawer's old index
		e.sk.drawerIdx--
		if e.phase == PhaseDrawing {
			e.endTurn()
		}
		return
	}

	if e.phase == PhaseDrawing && e.allGuessed() {
		e.startTimer(timerGraceEnd, graceDelay)
	}
	e.emitView()
}

func normalizeGuess(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// closeGuess flags near misses: same first letter and roughly the
// right length, so the drawer knows someone is on the scent.
func closeGuess(guess, target string) bool {
	if guess == "" || target == "" {
		return false
	}
	rg, rt := []rune(guess), []rune(target)
	if rg[0] != rt[0] {
		return false
	}
	diff := len(rg) - len(rt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 2
}

// maskWord renders the hint line: underscores for covered letters,
// wide gaps between words.
func maskWord(word string, revealed map[int]bool) string {
	var b strings.Builder
	for i, r := range word {
		switch {
		case r == ' ':
			b.WriteString("  ")
		case revealed[i]:
			b.WriteString(" " + string(r) + " ")
		default:
			b.WriteString(" _ ")
		}
	}
	return b.String()
}
