package party

import (
	"fmt"
	"time"

	"github.com/roopamkhare/fashion-vashion/internal/catalog"
	"github.com/roopamkhare/fashion-vashion/internal/transport"
)

// CoinsPerCorrect is the shopping budget earned per solved question.
const CoinsPerCorrect = 10

const (
	// feedbackDelay keeps the answer feedback on screen between
	// questions.
	feedbackDelay = 1500 * time.Millisecond

	// graceDelay lets the last stroke land before a fully-guessed turn
	// ends.
	graceDelay = 1500 * time.Millisecond

	// countdownDelay is the get-ready screen before the first drawing
	// turn.
	countdownDelay = 3 * time.Second

	// revealDelay shows the word and turn scores before the next drawer.
	revealDelay = 4 * time.Second
)

// HighScores is the optional persistent leaderboard consulted by the
// host when a game ends.
type HighScores interface {
	IsHighScore(score int) (bool, error)
	Add(name string, score int) error
}

type Config struct {
	// SelfID identifies this engine on the transport. For networked
	// games it must equal Transport.SelfID().
	SelfID string
	Name   string

	// Host makes this engine authoritative. Exactly one engine per
	// session holds it.
	Host bool

	// HostID is the peer a guest dials on Run. Ignored on the host.
	HostID string

	Difficulty catalog.Difficulty

	// MaxRounds is quiz rounds; SketchRounds is full drawer rotations.
	MaxRounds    int
	SketchRounds int

	// Questions per math turn and seconds allowed per question.
	Questions       int
	QuestionSeconds int

	// TurnSeconds is the drawing turn length.
	TurnSeconds int

	Transport transport.Transport

	// Scores is host-only and may be nil.
	Scores HighScores

	// Now stubs time in tests.
	Now func() time.Time
}

func (c *Config) defaults() error {
	if c.Transport == nil {
		return fmt.Errorf("transport required")
	}
	if c.SelfID == "" {
		return fmt.Errorf("self id required")
	}
	if !c.Host && c.HostID == "" {
		return fmt.Errorf("guest requires host id")
	}

	if c.Difficulty == "" {
		c.Difficulty = catalog.DifficultyGrade4
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 3
	}
	if c.SketchRounds == 0 {
		c.SketchRounds = 3
	}
	if c.Questions == 0 {
		c.Questions = 5
	}
	if c.QuestionSeconds == 0 {
		c.QuestionSeconds = 20
	}
	if c.TurnSeconds == 0 {
		c.TurnSeconds = 60
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}
