package party

import (
	"context"
	"testing"
	"time"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
	"github.com/roopamkhare/fashion-vashion/internal/score"
	"github.com/roopamkhare/fashion-vashion/internal/transport/loopback"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type scoreCall struct {
	name  string
	score int
}

type fakeScores struct{ added []scoreCall }

func (f *fakeScores) IsHighScore(int) (bool, error) { return true, nil }
func (f *fakeScores) Add(name string, s int) error {
	f.added = append(f.added, scoreCall{name: name, score: s})
	return nil
}

func testEngine(t *testing.T, net *loopback.Network, id, name string, host bool, clk *fakeClock, scores HighScores) *Engine {
	t.Helper()

	e, err := New(Config{
		SelfID:       id,
		Name:         name,
		Host:         host,
		HostID:       "host",
		Difficulty:   catalog.DifficultyGrade4,
		MaxRounds:    1,
		SketchRounds: 1,
		Questions:    2,
		Transport:    net.Peer(id),
		Scores:       scores,
		Now:          clk.now,
	})
	if err != nil {
		t.Fatalf("new engine %s: %v", id, err)
	}

	e.cfg.Transport.Accept(sink{e})
	if !host {
		if err := e.connectUpstream(context.Background()); err != nil {
			t.Fatalf("connect %s: %v", id, err)
		}
	}
	return e
}

// drainAll pumps every queue until the whole session quiesces. The
// engines stay single-threaded: this is the loop goroutine, inlined.
func drainAll(engines ...*Engine) {
	for progress := true; progress; {
		progress = false
		for _, e := range engines {
			for {
				select {
				case ev := <-e.queue:
					e.dispatch(ev)
					progress = true
					continue
				default:
				}
				break
			}
		}
	}
}

// fire delivers a pending timer expiry as the loop would.
func fire(t *testing.T, e *Engine, name string) {
	t.Helper()
	h, ok := e.timers[name]
	if !ok {
		t.Fatalf("timer %s not armed", name)
	}
	e.dispatch(timerFired{name: name, gen: h.gen})
}

func collectEvents(e *Engine) []Event {
	var out []Event
	for {
		select {
		case ev := <-e.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func hasEvent(events []Event, match func(Event) bool) bool {
	for _, ev := range events {
		if match(ev) {
			return true
		}
	}
	return false
}

func TestLobbyJoin(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	drainAll(host, g1)

	if host.dir.Len() != 2 {
		t.Fatalf("host roster = %d, want 2", host.dir.Len())
	}
	if g1.dir.Len() != 2 {
		t.Fatalf("guest replica = %d, want 2", g1.dir.Len())
	}
	if g1.dir.At(0).ID != "host" || !g1.dir.At(0).Host {
		t.Fatalf("replica order wrong: %+v", g1.dir.Snapshot())
	}
	if g1.phase != PhaseLobby {
		t.Fatalf("guest phase = %s", g1.phase)
	}
}

func TestLateJoinRejected(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	drainAll(host, g1)

	host.startGame(ModeQuiz)
	drainAll(host, g1)

	late := testEngine(t, net, "late", "Cal", false, clk, nil)
	drainAll(host, g1, late)

	if host.dir.Len() != 2 {
		t.Fatalf("late joiner admitted, roster = %d", host.dir.Len())
	}
	events := collectEvents(late)
	if !hasEvent(events, func(ev Event) bool {
		e, ok := ev.(ErrorEvent)
		return ok && e.Code == "room_playing"
	}) {
		t.Fatalf("no rejection delivered, events = %v", events)
	}
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	host.startGame(ModeQuiz)

	if host.phase != PhaseLobby {
		t.Fatalf("solo start went through, phase = %s", host.phase)
	}
	events := collectEvents(host)
	if !hasEvent(events, func(ev Event) bool {
		e, ok := ev.(ErrorEvent)
		return ok && e.Code == "need_players"
	}) {
		t.Fatal("no need_players error emitted")
	}
}

// answerQuestions plays out the active player's full math turn: one
// correct answer per entry, wrong otherwise.
func answerMathTurn(t *testing.T, active *Engine, all []*Engine, answers []bool) {
	t.Helper()

	for i, right := range answers {
		if !active.questionLive {
			t.Fatalf("question %d not live", i)
		}
		choice := active.question.CorrectIndex
		if !right {
			choice = (choice + 1) % len(active.question.Choices)
		}
		active.submitAnswer(&choice)

		if i < len(answers)-1 {
			fire(t, active, timerNextQuestion)
		}
	}
	fire(t, active, timerMathDone)
	drainAll(all...)
}

func TestQuizFullGame(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()
	scores := &fakeScores{}

	host := testEngine(t, net, "host", "Ada", true, clk, scores)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	all := []*Engine{host, g1}
	drainAll(all...)

	host.startGame(ModeQuiz)
	drainAll(all...)

	for _, e := range all {
		if e.phase != PhaseTheme {
			t.Fatalf("%s phase = %s, want theme", e.cfg.SelfID, e.phase)
		}
	}
	if g1.theme.Name != host.theme.Name || len(g1.theme.Tags) != 3 {
		t.Fatalf("theme did not replicate: %+v vs %+v", g1.theme, host.theme)
	}

	host.leaveThemeReveal()
	drainAll(all...)

	if host.phase != PhaseMath || host.playerIdx != 0 {
		t.Fatalf("host phase = %s idx = %d", host.phase, host.playerIdx)
	}

	// host answers one of two correctly
	answerMathTurn(t, host, all, []bool{true, false})

	if host.playerIdx != 1 {
		t.Fatalf("turn did not advance, idx = %d", host.playerIdx)
	}
	if got := host.dir.At(0).Coins; got != CoinsPerCorrect {
		t.Fatalf("host coins = %d, want %d", got, CoinsPerCorrect)
	}

	// guest answers both correctly
	answerMathTurn(t, g1, all, []bool{true, true})

	for _, e := range all {
		if e.phase != PhaseBoutique {
			t.Fatalf("%s phase = %s, want boutique", e.cfg.SelfID, e.phase)
		}
	}
	if got := host.dir.At(1).Coins; got != 2*CoinsPerCorrect {
		t.Fatalf("guest coins = %d, want %d", got, 2*CoinsPerCorrect)
	}

	// host shops with 10 coins: a2 (6) fits, d2 (20) must not
	host.toggleItem("a2")
	host.toggleItem("d2")
	hostPlayer := host.dir.At(0)
	if len(hostPlayer.Outfit) != 1 || hostPlayer.Outfit[0].ID != "a2" {
		t.Fatalf("budget not enforced, outfit = %v", hostPlayer.outfitIDs())
	}
	host.finishBoutique()
	drainAll(all...)

	if host.playerIdx != 1 {
		t.Fatalf("boutique did not advance, idx = %d", host.playerIdx)
	}

	// guest shops with 20 coins
	g1.toggleItem("a2")
	g1.toggleItem("b1")
	g1.finishBoutique()
	drainAll(all...)

	for _, e := range all {
		if e.phase != PhaseWinner {
			t.Fatalf("%s phase = %s, want winner", e.cfg.SelfID, e.phase)
		}
	}

	// host re-derives style from the outfit, never the reported score
	wantGuestStyle := score.Style(catalog.ItemsByIDs([]string{"a2", "b1"}), host.theme)
	guest := host.dir.At(1)
	if guest.Score != wantGuestStyle {
		t.Fatalf("guest style = %d, want %d", guest.Score, wantGuestStyle)
	}
	if guest.Total != guest.Score+guest.Coins {
		t.Fatalf("guest total = %d, want %d", guest.Total, guest.Score+guest.Coins)
	}

	// replicas converged
	hs, gs := host.dir.Snapshot(), g1.dir.Snapshot()
	for i := range hs {
		if hs[i].ID != gs[i].ID || hs[i].Total != gs[i].Total || hs[i].Coins != gs[i].Coins {
			t.Fatalf("replica diverged at %d: %+v vs %+v", i, hs[i], gs[i])
		}
	}

	if len(scores.added) != 1 {
		t.Fatalf("high score calls = %d, want 1", len(scores.added))
	}
	winner := host.dir.At(0)
	if host.dir.At(1).Total > winner.Total {
		winner = host.dir.At(1)
	}
	if scores.added[0].name != winner.Name || scores.added[0].score != winner.Total {
		t.Fatalf("recorded %+v, want winner %s/%d", scores.added[0], winner.Name, winner.Total)
	}

	// play again returns everyone to a joinable lobby with zero scores
	host.playAgain()
	drainAll(all...)
	for _, e := range all {
		if e.phase != PhaseLobby {
			t.Fatalf("%s phase = %s after play again", e.cfg.SelfID, e.phase)
		}
	}
	if host.dir.Started() {
		t.Fatal("roster still closed after play again")
	}
	if got := host.dir.At(1).Coins; got != 0 {
		t.Fatalf("coins survived reset: %d", got)
	}
}

func TestSketchTurn(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	g2 := testEngine(t, net, "g2", "Cal", false, clk, nil)
	all := []*Engine{host, g1, g2}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)

	// everyone sits on the get-ready screen until the countdown runs out
	for _, e := range all {
		if e.phase != PhaseCountdown {
			t.Fatalf("%s phase = %s, want countdown", e.cfg.SelfID, e.phase)
		}
	}
	if host.sk.word != "" {
		t.Fatalf("word picked before the countdown: %q", host.sk.word)
	}
	fire(t, host, timerCountdown)
	drainAll(all...)

	for _, e := range all {
		if e.phase != PhaseDrawing {
			t.Fatalf("%s phase = %s, want drawing", e.cfg.SelfID, e.phase)
		}
	}
	if host.sk.drawerID != "host" {
		t.Fatalf("first drawer = %s", host.sk.drawerID)
	}
	word := host.sk.word
	if word == "" {
		t.Fatal("host has no word")
	}
	// the word never reaches guessers
	if g1.sk.word != "" || g2.sk.word != "" {
		t.Fatalf("word leaked to guessers: %q / %q", g1.sk.word, g2.sk.word)
	}
	if v := g1.view(); v.Word != "" || v.Hint == "" {
		t.Fatalf("guesser view shows word %q hint %q", v.Word, v.Hint)
	}
	if v := host.view(); v.Word != word {
		t.Fatalf("drawer view hides own word: %q", v.Word)
	}

	for _, e := range all {
		collectEvents(e)
	}

	// a miss lands in chat for everyone
	g1.submitGuess("definitely wrong")
	drainAll(all...)
	if !hasEvent(collectEvents(g2), func(ev Event) bool {
		c, ok := ev.(ChatEvent)
		return ok && c.Text == "definitely wrong" && !c.Close
	}) {
		t.Fatal("miss did not reach chat")
	}

	// a near miss is flagged close
	near := word[:len(word)-1] + "#"
	g1.submitGuess(near)
	drainAll(all...)
	if !hasEvent(collectEvents(g2), func(ev Event) bool {
		c, ok := ev.(ChatEvent)
		return ok && c.Close
	}) {
		t.Fatal("near miss not flagged")
	}

	// correct at the halfway mark earns the decayed award
	clk.advance(30 * time.Second)
	g1.submitGuess(word)
	drainAll(all...)
	if got := host.sk.scores["g1"]; got != 65 {
		t.Fatalf("guess points = %d, want 65", got)
	}
	if g2.sk.scores["g1"] != 65 {
		t.Fatalf("replica scores diverged: %d", g2.sk.scores["g1"])
	}

	// an identical repeat is ignored and leaks nothing
	for _, e := range all {
		collectEvents(e)
	}
	g1.submitGuess(word)
	drainAll(all...)
	if got := host.sk.scores["g1"]; got != 65 {
		t.Fatalf("repeat guess re-scored: %d", got)
	}
	if evs := collectEvents(g2); hasEvent(evs, func(ev Event) bool {
		_, chat := ev.(ChatEvent)
		_, corr := ev.(CorrectEvent)
		return chat || corr
	}) {
		t.Fatalf("repeat guess leaked: %v", evs)
	}

	// second correct guess completes the turn after the grace delay
	g2.submitGuess("  " + word + "  ")
	drainAll(all...)
	if len(host.sk.guessedBy) != 2 {
		t.Fatalf("guessedBy = %v", host.sk.guessedBy)
	}
	fire(t, host, timerGraceEnd)
	drainAll(all...)

	for _, e := range all {
		if e.phase != PhaseReveal {
			t.Fatalf("%s phase = %s, want reveal", e.cfg.SelfID, e.phase)
		}
	}
	// word revealed to everyone, drawer paid
	if g1.sk.word != word || g1.view().Word != word {
		t.Fatalf("reveal missing on guesser: %q", g1.sk.word)
	}
	if got := host.sk.scores["host"]; got != score.DrawerBonus {
		t.Fatalf("drawer bonus = %d, want %d", got, score.DrawerBonus)
	}

	// next turn rotates the drawer and resets the slate
	fire(t, host, timerRevealAdvance)
	drainAll(all...)

	if host.sk.drawerID != "g1" {
		t.Fatalf("drawer did not rotate: %s", host.sk.drawerID)
	}
	if g1.sk.word == "" {
		t.Fatal("new drawer has no word")
	}
	if g2.sk.word != "" {
		t.Fatalf("word leaked to guesser: %q", g2.sk.word)
	}
	if len(host.sk.guessedBy) != 0 {
		t.Fatalf("guessedBy not reset: %v", host.sk.guessedBy)
	}
}

func TestSketchStrokesRelayOnlyFromDrawer(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	g2 := testEngine(t, net, "g2", "Cal", false, clk, nil)
	all := []*Engine{host, g1, g2}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)
	fire(t, host, timerCountdown)
	drainAll(all...)
	for _, e := range all {
		collectEvents(e)
	}

	// host is the drawer: strokes reach both guests, not itself
	stroke := protocol.Stroke{X1: 1, Y1: 2, X2: 3, Y2: 4, Color: "#000", Size: 4}
	host.submitStroke(stroke)
	drainAll(all...)

	for _, g := range []*Engine{g1, g2} {
		if !hasEvent(collectEvents(g), func(ev Event) bool {
			s, ok := ev.(StrokeEvent)
			return ok && s.Stroke == stroke
		}) {
			t.Fatalf("stroke missing on %s", g.cfg.SelfID)
		}
	}
	if hasEvent(collectEvents(host), func(ev Event) bool {
		_, ok := ev.(StrokeEvent)
		return ok
	}) {
		t.Fatal("drawer echoed its own stroke")
	}

	// a forged stroke from a guesser is dropped at the host
	g1.toHost(&protocol.Stroke{X1: 9})
	drainAll(all...)
	if hasEvent(collectEvents(g2), func(ev Event) bool {
		_, ok := ev.(StrokeEvent)
		return ok
	}) {
		t.Fatal("non-drawer stroke relayed")
	}

	// undo only fires once per stroke batch
	host.SubmitUndo()
	drainAll(all...)
	if !hasEvent(collectEvents(g1), func(ev Event) bool {
		_, ok := ev.(UndoEvent)
		return ok
	}) {
		t.Fatal("undo not relayed")
	}
	host.SubmitUndo()
	drainAll(all...)
	if hasEvent(collectEvents(g1), func(ev Event) bool {
		_, ok := ev.(UndoEvent)
		return ok
	}) {
		t.Fatal("second undo went through without a new stroke")
	}

	// clear wipes guest canvases and disarms undo
	host.submitStroke(stroke)
	host.SubmitClear()
	drainAll(all...)
	if !hasEvent(collectEvents(g2), func(ev Event) bool {
		_, ok := ev.(CanvasClearEvent)
		return ok
	}) {
		t.Fatal("clear not relayed")
	}
	if host.sk.undoArmed {
		t.Fatal("undo still armed after clear")
	}
}

func TestSketchTimeoutNoDrawerBonus(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	all := []*Engine{host, g1}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)
	fire(t, host, timerCountdown)
	drainAll(all...)

	host.sk.timeLeft = 1
	host.sketchTick()
	drainAll(all...)

	if host.phase != PhaseReveal {
		t.Fatalf("phase = %s after timeout", host.phase)
	}
	if got := host.sk.scores["host"]; got != 0 {
		t.Fatalf("drawer paid %d with zero guessers", got)
	}
}

func TestSketchGameCompletes(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()
	scores := &fakeScores{}

	host := testEngine(t, net, "host", "Ada", true, clk, scores)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	all := []*Engine{host, g1}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)
	fire(t, host, timerCountdown)
	drainAll(all...)

	// turn 1: guest guesses instantly
	g1.submitGuess(host.sk.word)
	drainAll(all...)
	fire(t, host, timerGraceEnd)
	drainAll(all...)
	fire(t, host, timerRevealAdvance)
	drainAll(all...)

	if host.sk.drawerID != "g1" {
		t.Fatalf("drawer = %s on turn 2", host.sk.drawerID)
	}

	// turn 2: host guesses, exhausting the single rotation
	host.submitGuess(host.sk.word)
	drainAll(all...)
	fire(t, host, timerGraceEnd)
	drainAll(all...)
	fire(t, host, timerRevealAdvance)
	drainAll(all...)

	for _, e := range all {
		if e.phase != PhaseSketchWinner {
			t.Fatalf("%s phase = %s, want sketch winner", e.cfg.SelfID, e.phase)
		}
	}
	// each side: one instant guess plus one drawer bonus
	want := score.GuessPointsMax + score.DrawerBonus
	for _, id := range []string{"host", "g1"} {
		if got := g1.sk.scores[id]; got != want {
			t.Fatalf("%s final = %d, want %d", id, got, want)
		}
	}
	if len(scores.added) != 1 {
		t.Fatalf("high score calls = %d", len(scores.added))
	}
}

func TestStaleTimerDropped(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	drainAll(host, g1)

	host.startGame(ModeSketch)
	drainAll(host, g1)
	fire(t, host, timerCountdown)
	drainAll(host, g1)

	h, ok := host.timers[timerTurn]
	if !ok {
		t.Fatal("turn ticker not armed")
	}
	stale := timerFired{name: timerTurn, gen: h.gen}

	// the turn ends; the old ticker's expiry must be inert
	host.sk.timeLeft = 1
	host.sketchTick()
	drainAll(host, g1)

	before := host.phase
	host.dispatch(stale)
	if host.phase != before {
		t.Fatalf("stale tick acted: %s -> %s", before, host.phase)
	}
}

func TestActivePlayerDisconnectSkipsTurn(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	g2 := testEngine(t, net, "g2", "Cal", false, clk, nil)
	all := []*Engine{host, g1, g2}
	drainAll(all...)

	host.startGame(ModeQuiz)
	drainAll(all...)
	host.leaveThemeReveal()
	drainAll(all...)

	// move the turn to g1
	answerMathTurn(t, host, all, []bool{true, true})
	if host.dir.At(host.playerIdx).ID != "g1" {
		t.Fatalf("active = %s", host.dir.At(host.playerIdx).ID)
	}

	_ = g1.upstream.Close()
	drainAll(all...)

	if host.dir.Len() != 2 {
		t.Fatalf("roster = %d after departure", host.dir.Len())
	}
	if got := host.dir.At(host.playerIdx).ID; got != "g2" {
		t.Fatalf("turn went to %s, want g2", got)
	}
	if host.phase != PhaseMath {
		t.Fatalf("phase = %s", host.phase)
	}
}

func TestDrawerDisconnectEndsTurn(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	g2 := testEngine(t, net, "g2", "Cal", false, clk, nil)
	all := []*Engine{host, g1, g2}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)
	fire(t, host, timerCountdown)
	drainAll(all...)

	// rotate the pen to g1
	host.sk.timeLeft = 1
	host.sketchTick()
	drainAll(all...)
	fire(t, host, timerRevealAdvance)
	drainAll(all...)
	if host.sk.drawerID != "g1" {
		t.Fatalf("drawer = %s", host.sk.drawerID)
	}

	_ = g1.upstream.Close()
	drainAll(all...)

	if host.phase != PhaseReveal {
		t.Fatalf("phase = %s, want reveal after drawer left", host.phase)
	}
	if g2.phase != PhaseReveal {
		t.Fatalf("guest phase = %s", g2.phase)
	}
}

func TestLastOpponentLeavesReturnsToLobby(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	drainAll(host, g1)

	host.startGame(ModeQuiz)
	drainAll(host, g1)

	_ = g1.upstream.Close()
	drainAll(host, g1)

	if host.phase != PhaseLobby {
		t.Fatalf("phase = %s, want lobby", host.phase)
	}
	if host.dir.Started() {
		t.Fatal("roster still closed")
	}
}

func TestQuizBoutiqueVisitsEveryRoundInOrder(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	all := []*Engine{host, g1}
	drainAll(all...)
	for _, e := range all {
		e.cfg.MaxRounds = 2
	}

	var visits [][2]int
	recordBoutique := func() {
		t.Helper()
		if host.phase != PhaseBoutique {
			t.Fatalf("phase = %s, want boutique", host.phase)
		}
		visits = append(visits, [2]int{host.round, host.playerIdx})
	}

	host.startGame(ModeQuiz)
	drainAll(all...)

	for round := 1; round <= 2; round++ {
		if host.phase != PhaseTheme || host.round != round {
			t.Fatalf("round %d opens in phase %s round %d", round, host.phase, host.round)
		}
		if host.theme.Name == "" || g1.theme.Name != host.theme.Name {
			t.Fatalf("round %d theme did not replicate: %q vs %q", round, g1.theme.Name, host.theme.Name)
		}

		host.leaveThemeReveal()
		drainAll(all...)

		// a new round's math turn starts from an empty purse
		if got := host.dir.At(0).Coins; got != 0 {
			t.Fatalf("round %d opens with %d coins carried over", round, got)
		}
		answerMathTurn(t, host, all, []bool{true, false})
		answerMathTurn(t, g1, all, []bool{false, true})

		recordBoutique()
		host.finishBoutique()
		drainAll(all...)
		recordBoutique()
		g1.finishBoutique()
		drainAll(all...)
	}

	want := [][2]int{{1, 0}, {1, 1}, {2, 0}, {2, 1}}
	if len(visits) != len(want) {
		t.Fatalf("boutique visits = %v, want %v", visits, want)
	}
	for i := range want {
		if visits[i] != want[i] {
			t.Fatalf("boutique visit %d = %v, want %v", i, visits[i], want[i])
		}
	}
	for _, e := range all {
		if e.phase != PhaseWinner {
			t.Fatalf("%s phase = %s, want winner", e.cfg.SelfID, e.phase)
		}
	}
}

func TestHintRevealsRequestedCount(t *testing.T) {
	net := loopback.NewNetwork()
	clk := newFakeClock()

	host := testEngine(t, net, "host", "Ada", true, clk, nil)
	g1 := testEngine(t, net, "g1", "Bea", false, clk, nil)
	all := []*Engine{host, g1}
	drainAll(all...)

	host.startGame(ModeSketch)
	drainAll(all...)
	fire(t, host, timerCountdown)
	drainAll(all...)

	// pin a short word so the counts are exact
	host.sk.word = "cat"
	host.sk.revealed = map[int]bool{}

	host.revealLetters(2)
	drainAll(all...)
	if len(host.sk.revealed) != 2 {
		t.Fatalf("revealed %d letters, want 2", len(host.sk.revealed))
	}

	// a short word may end up fully uncovered
	host.revealLetters(2)
	drainAll(all...)
	if len(host.sk.revealed) != 3 {
		t.Fatalf("revealed %d letters, want 3", len(host.sk.revealed))
	}
	if g1.sk.hint != " c  a  t " {
		t.Fatalf("guest hint = %q", g1.sk.hint)
	}
}
