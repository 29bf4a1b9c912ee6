// Package protocol defines the closed message set exchanged between the
// host and its guests. Every payload is a flat JSON record carrying a
// "type" tag. Guest messages are advisory; host messages are either
// full snapshots or deltas sufficient to redraw guest state without any
// follow-up query.
package protocol

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	// guest -> host
	KindJoin             Kind = "join"
	KindMathComplete     Kind = "math_complete"
	KindBoutiqueComplete Kind = "boutique_complete"
	KindGuess            Kind = "guess"

	// host -> all
	KindLobby         Kind = "lobby"
	KindError         Kind = "error"
	KindStartGame     Kind = "start_game"
	KindStartMath     Kind = "start_math"
	KindStartBoutique Kind = "start_boutique"
	KindNextBoutique  Kind = "next_boutique"
	KindGameOver      Kind = "game_over"
	KindTurnStart     Kind = "turn_start"
	KindTurnWord      Kind = "turn_word"
	KindHint          Kind = "hint"
	KindChat          Kind = "chat"
	KindCorrect       Kind = "correct"
	KindTurnEnd       Kind = "turn_end"
	KindSketchOver    Kind = "sketch_over"

	// drawer -> host -> everyone else
	KindStroke Kind = "stroke"
	KindClear  Kind = "clear"
	KindUndo   Kind = "undo"
)

type Message interface {
	Kind() Kind
}

// PlayerInfo is the wire projection of a player used in snapshots.
type PlayerInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Host    bool     `json:"host,omitempty"`
	Coins   int      `json:"coins"`
	Score   int      `json:"score"`
	Correct int      `json:"correct,omitempty"`
	Outfit  []string `json:"outfit,omitempty"`
	Total   int      `json:"total,omitempty"`
}

type Theme struct {
	Name  string   `json:"name"`
	Emoji string   `json:"emoji,omitempty"`
	Tags  []string `json:"tags"`
}

type Join struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Lobby struct {
	Players    []PlayerInfo `json:"players"`
	Difficulty string       `json:"difficulty,omitempty"`
	Mode       string       `json:"mode,omitempty"`
}

type Error struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type StartGame struct {
	Mode       string       `json:"mode"`
	Players    []PlayerInfo `json:"players"`
	Difficulty string       `json:"difficulty"`
	Theme      *Theme       `json:"theme,omitempty"`
	Round      int          `json:"round,omitempty"`
}

type StartMath struct {
	PlayerIndex int          `json:"playerIndex"`
	Players     []PlayerInfo `json:"players,omitempty"`
}

type MathComplete struct {
	PlayerID string `json:"playerId"`
	Coins    int    `json:"coins"`
	Correct  int    `json:"correct"`
}

type StartBoutique struct {
	Players []PlayerInfo `json:"players"`
}

type NextBoutique struct {
	PlayerIndex int          `json:"playerIndex"`
	Players     []PlayerInfo `json:"players,omitempty"`
}

type BoutiqueComplete struct {
	PlayerID string   `json:"playerId"`
	Outfit   []string `json:"outfit"`
	Score    int      `json:"score"`
}

type GameOver struct {
	Players []PlayerInfo `json:"players"`
}

type TurnStart struct {
	DrawerID   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
	Hint       string `json:"hint"`
	Round      int    `json:"round"`
	StartMs    int64  `json:"startTime"`
}

// TurnWord carries the literal word and is addressed to the drawer
// only. Guessers never see it on the wire.
type TurnWord struct {
	Word string `json:"word"`
}

type Stroke struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color string  `json:"color"`
	Size  int     `json:"size"`
}

type Clear struct{}

type Undo struct{}

type Guess struct {
	PlayerID string `json:"playerId"`
	Text     string `json:"guess"`
}

type Chat struct {
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Close      bool   `json:"close,omitempty"`
}

type Correct struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Points     int    `json:"points"`
}

type Hint struct {
	Hint string `json:"hint"`
}

type TurnEnd struct {
	Word      string         `json:"word"`
	Scores    map[string]int `json:"scores"`
	GuessedBy []string       `json:"guessedBy"`
}

type SketchOver struct {
	Scores map[string]int `json:"scores"`
}

func (*Join) Kind() Kind             { return KindJoin }
func (*Lobby) Kind() Kind            { return KindLobby }
func (*Error) Kind() Kind            { return KindError }
func (*StartGame) Kind() Kind        { return KindStartGame }
func (*StartMath) Kind() Kind        { return KindStartMath }
func (*MathComplete) Kind() Kind     { return KindMathComplete }
func (*StartBoutique) Kind() Kind    { return KindStartBoutique }
func (*NextBoutique) Kind() Kind     { return KindNextBoutique }
func (*BoutiqueComplete) Kind() Kind { return KindBoutiqueComplete }
func (*GameOver) Kind() Kind         { return KindGameOver }
func (*TurnStart) Kind() Kind        { return KindTurnStart }
func (*TurnWord) Kind() Kind         { return KindTurnWord }
func (*Stroke) Kind() Kind           { return KindStroke }
func (*Clear) Kind() Kind            { return KindClear }
func (*Undo) Kind() Kind             { return KindUndo }
func (*Guess) Kind() Kind            { return KindGuess }
func (*Chat) Kind() Kind             { return KindChat }
func (*Correct) Kind() Kind          { return KindCorrect }
func (*Hint) Kind() Kind             { return KindHint }
func (*TurnEnd) Kind() Kind          { return KindTurnEnd }
func (*SketchOver) Kind() Kind       { return KindSketchOver }

// Encode marshals m with its "type" tag spliced in.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Kind(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("reshape %s: %w", m.Kind(), err)
	}

	kind, err := json.Marshal(m.Kind())
	if err != nil {
		return nil, fmt.Errorf("marshal kind: %w", err)
	}
	fields["type"] = kind

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return data, nil
}

// Decode parses a wire payload into its typed message. A payload with
// an unrecognized "type" decodes to (nil, nil): recipients treat it as
// a no-op for forward compatibility.
func Decode(data []byte) (Message, error) {
	var header struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	var m Message
	switch header.Type {
	case KindJoin:
		m = &Join{}
	case KindLobby:
		m = &Lobby{}
	case KindError:
		m = &Error{}
	case KindStartGame:
		m = &StartGame{}
	case KindStartMath:
		m = &StartMath{}
	case KindMathComplete:
		m = &MathComplete{}
	case KindStartBoutique:
		m = &StartBoutique{}
	case KindNextBoutique:
		m = &NextBoutique{}
	case KindBoutiqueComplete:
		m = &BoutiqueComplete{}
	case KindGameOver:
		m = &GameOver{}
	case KindTurnStart:
		m = &TurnStart{}
	case KindTurnWord:
		m = &TurnWord{}
	case KindStroke:
		m = &Stroke{}
	case KindClear:
		m = &Clear{}
	case KindUndo:
		m = &Undo{}
	case KindGuess:
		m = &Guess{}
	case KindChat:
		m = &Chat{}
	case KindCorrect:
		m = &Correct{}
	case KindHint:
		m = &Hint{}
	case KindTurnEnd:
		m = &TurnEnd{}
	case KindSketchOver:
		m = &SketchOver{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", header.Type, err)
	}

	return m, nil
}
