package party

import (
	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/protocol"
	"github.com/roopamkhare/fashion-vashion/internal/score"
)

type Mode string

const (
	ModeQuiz   Mode = "quiz"
	ModeSketch Mode = "sketch"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseTheme    Phase = "theme"
	PhaseMath     Phase = "math"
	PhaseBoutique Phase = "boutique"
	PhaseWinner   Phase = "winner"

	PhaseCountdown    Phase = "countdown"
	PhaseDrawing      Phase = "drawing"
	PhaseReveal       Phase = "reveal"
	PhaseSketchWinner Phase = "sketch_winner"
)

// Event is what the engine emits to its render layer. A View is a full
// redraw; the others are increments a renderer applies in place.
type Event interface {
	isEvent()
}

// View is a complete picture of what this device should display.
type View struct {
	Mode  Mode
	Phase Phase

	Round     int
	MaxRounds int

	Players []protocol.PlayerInfo

	// CurrentID is the player whose quiz turn it is.
	CurrentID string

	Theme *catalog.Theme

	Question      *QuestionView
	QuestionNum   int
	QuestionTotal int

	TimerSeconds int

	DrawerID   string
	DrawerName string

	// Word is set only when this device may show it: on the drawer's
	// screen during the turn and on everyone's during the reveal.
	Word string
	Hint string

	GuessedBy    []string
	SketchScores map[string]int

	// Breakdowns carries the winner-screen score detail per player id.
	Breakdowns map[string]score.Breakdown
}

// QuestionView hides the answer until Revealed.
type QuestionView struct {
	Text     string
	Choices  []int
	Revealed bool
	// CorrectIndex is valid only once Revealed.
	CorrectIndex int
	// Picked is the local player's choice, nil on timeout.
	Picked *int
}

type StrokeEvent struct {
	Stroke protocol.Stroke
}

type CanvasClearEvent struct{}

type UndoEvent struct{}

type ChatEvent struct {
	PlayerName string
	Text       string
	// Close marks a near-miss guess.
	Close bool
}

type CorrectEvent struct {
	PlayerID   string
	PlayerName string
	Points     int
}

type HintEvent struct {
	Hint string
}

type ErrorEvent struct {
	Code   string
	Reason string
}

func (View) isEvent()             {}
func (StrokeEvent) isEvent()      {}
func (CanvasClearEvent) isEvent() {}
func (UndoEvent) isEvent()        {}
func (ChatEvent) isEvent()        {}
func (CorrectEvent) isEvent()     {}
func (HintEvent) isEvent()        {}
func (ErrorEvent) isEvent()       {}
