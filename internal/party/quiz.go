package party

import (
	"time"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
	"github.com/roopamkhare/fashion-vashion/internal/score"
)

// StartGame begins a game from the lobby. Host only.
func (e *Engine) StartGame(mode Mode) {
	e.do(func() { e.startGame(mode) })
}

// Continue advances past the theme reveal. Host only.
func (e *Engine) Continue() {
	e.do(func() { e.leaveThemeReveal() })
}

// PlayAgain returns the party to the lobby with scores wiped.
func (e *Engine) PlayAgain() {
	e.do(func() { e.playAgain() })
}

// SubmitAnswer answers the current question. nil means the clock ran
// out. Only the player whose math turn it is may answer.
func (e *Engine) SubmitAnswer(choice *int) {
	e.do(func() { e.submitAnswer(choice) })
}

// ToggleItem selects or deselects a boutique item for the local player.
func (e *Engine) ToggleItem(itemID string) {
	e.do(func() { e.toggleItem(itemID) })
}

// FinishBoutique ends the local player's shopping turn.
func (e *Engine) FinishBoutique() {
	e.do(func() { e.finishBoutique() })
}

func (e *Engine) startGame(mode Mode) {
	if !e.isAuthoritative() {
		return
	}
	if e.phase != PhaseLobby {
		e.log.Warnf("start requested in phase %s", e.phase)
		return
	}
	if e.dir.Len() < 2 {
		e.emit(ErrorEvent{Code: "need_players", Reason: "at least two players are required"})
		return
	}

	e.dir.Start()
	e.dir.ResetGame()
	e.round = 1

	switch mode {
	case ModeQuiz:
		theme := catalog.RandTheme()
		e.announce(&protocol.StartGame{
			Mode:       string(ModeQuiz),
			Players:    e.dir.Snapshot(),
			Difficulty: string(e.cfg.Difficulty),
			Theme:      &protocol.Theme{Name: theme.Name, Emoji: theme.Emoji, Tags: theme.Tags},
			Round:      e.round,
		})
	case ModeSketch:
		e.resetSketch()
		e.announce(&protocol.StartGame{
			Mode:       string(ModeSketch),
			Players:    e.dir.Snapshot(),
			Difficulty: string(e.cfg.Difficulty),
		})
		e.startTimer(timerCountdown, countdownDelay)
	default:
		e.log.Warnf("unknown mode %q", mode)
	}
}

func (e *Engine) leaveThemeReveal() {
	if !e.isAuthoritative() || e.phase != PhaseTheme {
		return
	}
	e.announce(&protocol.StartMath{PlayerIndex: 0, Players: e.dir.Snapshot()})
}

func (e *Engine) playAgain() {
	if !e.isAuthoritative() {
		return
	}
	if e.phase != PhaseWinner && e.phase != PhaseSketchWinner {
		return
	}

	e.dir.Reopen()
	e.dir.ResetGame()
	e.announce(e.lobbyMessage())
}

func (e *Engine) applyStartMath(m *protocol.StartMath) {
	e.stopAllTimers()
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
	}

	e.phase = PhaseMath
	e.playerIdx = m.PlayerIndex
	if e.playerIdx >= e.dir.Len() {
		e.log.Warnf("math turn index %d out of range", e.playerIdx)
		return
	}

	// the turn's earnings start from zero
	p := e.dir.At(e.playerIdx)
	p.Coins = 0
	p.Correct = 0

	e.questionNum = 0
	e.questionLive = false
	e.question = catalog.Question{}
	e.picked = nil

	if p.ID == e.cfg.SelfID {
		e.loadQuestion()
		return
	}
	e.emitView()
}

// loadQuestion is local to the active player's device. Questions are
// never sent over the wire; only the turn result is.
func (e *Engine) loadQuestion() {
	if e.phase != PhaseMath {
		return
	}

	e.question = catalog.NewQuestion(e.cfg.Difficulty)
	e.questionLive = true
	e.picked = nil
	e.qTimeLeft = e.cfg.QuestionSeconds
	e.startTicker(timerQuestion, time.Second)
	e.emitView()
}

func (e *Engine) questionTick() {
	if e.phase != PhaseMath || !e.questionLive {
		return
	}

	e.qTimeLeft--
	if e.qTimeLeft <= 0 {
		e.submitAnswer(nil)
		return
	}
	e.emitView()
}

func (e *Engine) submitAnswer(choice *int) {
	if e.phase != PhaseMath || !e.questionLive {
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != e.cfg.SelfID {
		return
	}

	e.questionLive = false
	e.picked = choice
	e.stopTimer(timerQuestion)

	if choice != nil && *choice == e.question.CorrectIndex {
		p := e.dir.At(e.playerIdx)
		p.Correct++
		p.Coins += CoinsPerCorrect
	}

	e.questionNum++
	e.emitView()

	if e.questionNum < e.cfg.Questions {
		e.startTimer(timerNextQuestion, feedbackDelay)
		return
	}
	e.startTimer(timerMathDone, feedbackDelay)
}

func (e *Engine) finishMathTurn() {
	if e.phase != PhaseMath {
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != e.cfg.SelfID {
		return
	}

	p := e.dir.At(e.playerIdx)
	e.toHost(&protocol.MathComplete{PlayerID: p.ID, Coins: p.Coins, Correct: p.Correct})
}

func (e *Engine) hostMathComplete(m *protocol.MathComplete) {
	if e.phase != PhaseMath {
		e.log.Debugf("math result outside math phase, dropping")
		return
	}
	p, ok := e.dir.Player(m.PlayerID)
	if !ok {
		e.log.Warnf("math result from unknown player %s", m.PlayerID)
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != p.ID {
		e.log.Debugf("math result from %s out of turn, dropping", p.Name)
		return
	}

	p.Coins = m.Coins
	p.Correct = m.Correct
	e.advanceMath()
}

func (e *Engine) advanceMath() {
	e.playerIdx++
	if e.playerIdx < e.dir.Len() {
		e.announce(&protocol.StartMath{PlayerIndex: e.playerIdx, Players: e.dir.Snapshot()})
		return
	}
	e.announce(&protocol.StartBoutique{Players: e.dir.Snapshot()})
}

func (e *Engine) applyStartBoutique(m *protocol.StartBoutique) {
	e.stopAllTimers()
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
	}
	e.enterBoutique(0)
}

func (e *Engine) applyNextBoutique(m *protocol.NextBoutique) {
	e.stopAllTimers()
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
	}
	e.enterBoutique(m.PlayerIndex)
}

func (e *Engine) enterBoutique(idx int) {
	e.phase = PhaseBoutique
	e.playerIdx = idx
	if idx < e.dir.Len() {
		// shopping starts from an empty rack every round
		e.dir.At(idx).Outfit = nil
	}
	e.emitView()
}

func (e *Engine) toggleItem(itemID string) {
	if e.phase != PhaseBoutique {
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != e.cfg.SelfID {
		return
	}

	item, ok := catalog.ItemByID(itemID)
	if !ok {
		e.log.Warnf("unknown item %s", itemID)
		return
	}
	if e.dir.At(e.playerIdx).ToggleItem(item) {
		e.emitView()
	}
}

func (e *Engine) finishBoutique() {
	if e.phase != PhaseBoutique {
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != e.cfg.SelfID {
		return
	}

	p := e.dir.At(e.playerIdx)
	e.toHost(&protocol.BoutiqueComplete{
		PlayerID: p.ID,
		Outfit:   p.outfitIDs(),
		Score:    score.Style(p.Outfit, e.theme),
	})
}

func (e *Engine) hostBoutiqueComplete(m *protocol.BoutiqueComplete) {
	if e.phase != PhaseBoutique {
		e.log.Debugf("boutique result outside boutique phase, dropping")
		return
	}
	p, ok := e.dir.Player(m.PlayerID)
	if !ok {
		e.log.Warnf("boutique result from unknown player %s", m.PlayerID)
		return
	}
	if e.playerIdx >= e.dir.Len() || e.dir.At(e.playerIdx).ID != p.ID {
		e.log.Debugf("boutique result from %s out of turn, dropping", p.Name)
		return
	}

	p.Outfit = catalog.ItemsByIDs(m.Outfit)
	// never trust a reported score, re-derive it from the outfit
	p.Score = score.Style(p.Outfit, e.theme)
	e.advanceBoutique()
}

func (e *Engine) advanceBoutique() {
	e.playerIdx++
	if e.playerIdx < e.dir.Len() {
		e.announce(&protocol.NextBoutique{PlayerIndex: e.playerIdx, Players: e.dir.Snapshot()})
		return
	}

	e.round++
	if e.round <= e.cfg.MaxRounds {
		theme := catalog.RandTheme()
		e.announce(&protocol.StartGame{
			Mode:       string(ModeQuiz),
			Players:    e.dir.Snapshot(),
			Difficulty: string(e.cfg.Difficulty),
			Theme:      &protocol.Theme{Name: theme.Name, Emoji: theme.Emoji, Tags: theme.Tags},
			Round:      e.round,
		})
		return
	}

	for _, p := range e.dir.Players() {
		p.Total = p.Score + p.Coins
	}
	e.recordHighScore()
	e.announce(&protocol.GameOver{Players: e.dir.Snapshot()})
}

func (e *Engine) applyGameOver(m *protocol.GameOver) {
	e.stopAllTimers()
	if !e.isAuthoritative() {
		e.dir.Replace(m.Players)
	}
	e.phase = PhaseWinner
	e.emitView()
}

func (e *Engine) breakdowns() map[string]score.Breakdown {
	out := make(map[string]score.Breakdown, e.dir.Len())
	for _, p := range e.dir.Players() {
		out[p.ID] = score.Total(p.Score, p.Correct, e.cfg.Questions, p.Coins, p.Spent())
	}
	return out
}

func (e *Engine) recordHighScore() {
	if e.cfg.Scores == nil {
		return
	}

	var winner *Player
	for _, p := range e.dir.Players() {
		if winner == nil || p.Total > winner.Total {
			winner = p
		}
	}
	if winner == nil {
		return
	}

	high, err := e.cfg.Scores.IsHighScore(winner.Total)
	if err != nil {
		e.log.Warnf("check high score: %v", err)
		return
	}
	if !high {
		return
	}
	if err := e.cfg.Scores.Add(winner.Name, winner.Total); err != nil {
		e.log.Warnf("record high score: %v", err)
	}
}

// quizPlayerLeft repairs the turn order after a departure mid-quiz.
func (e *Engine) quizPlayerLeft(removedIdx int, wasCurrent bool) {
	if removedIdx < e.playerIdx {
		e.playerIdx--
	}

	if !wasCurrent {
		// the turn stands; replicas pick up the new roster from the
		// snapshot on the next phase message
		e.emitView()
		return
	}

	// the active player vanished, hand the turn to the next one
	e.playerIdx--
	switch e.phase {
	case PhaseTheme:
		e.emitView()
	case PhaseMath:
		e.advanceMath()
	case PhaseBoutique:
		e.advanceBoutique()
	}
}
