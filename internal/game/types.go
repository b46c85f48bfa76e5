// internal/game/types.go
//
// Core type definitions for the arbiter engine.
// Defines:
//   - Outcome: result of resolving two pieces (player1 / player2 / tie).
//   - Side: which seat a player occupies.
//   - Player: a named participant with a color and an inventory.
//   - BattleResult: immutable record of one resolved round.

package game

import (
	"errors"
	"strings"
	"time"
)

// Outcome is the result of one round. Its string values are the persisted form.
type Outcome string

const (
	Player1Wins Outcome = "player1"
	Player2Wins Outcome = "player2"
	Tie         Outcome = "tie"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	return o == Player1Wins || o == Player2Wins || o == Tie
}

// Side identifies a seat at the table.
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

func (s Side) Valid() bool { return s == Side1 || s == Side2 }

var (
	ErrEmptyName        = errors.New("player name is required")
	ErrInvalidSide      = errors.New("invalid side")
	ErrPieceUnavailable = errors.New("piece unavailable")
	ErrAlreadySelected  = errors.New("piece already selected")
	ErrRoundNotReady    = errors.New("both players must select a piece")
)

// Player is a named participant. Its inventory persists across rounds of a
// session and is replaced when a new session starts.
type Player struct {
	Name      string
	Color     Color
	Inventory *Inventory
}

// NewPlayer creates a player with a full inventory.
func NewPlayer(name string, color Color) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Player{Name: name, Color: color, Inventory: NewInventory()}, nil
}

// BattleResult is the immutable record of one resolved round.
type BattleResult struct {
	ID           string    `json:"id"`
	Player1Name  string    `json:"player1Name"`
	Player1Color string    `json:"player1Color"`
	Player1Piece PieceKind `json:"player1Piece"`
	Player2Name  string    `json:"player2Name"`
	Player2Color string    `json:"player2Color"`
	Player2Piece PieceKind `json:"player2Piece"`
	Winner       Outcome   `json:"winner"`
	Timestamp    time.Time `json:"timestamp"`
}

// WinnerName returns the winning player's name, or "Tie".
func (b BattleResult) WinnerName() string {
	switch b.Winner {
	case Player1Wins:
		return b.Player1Name
	case Player2Wins:
		return b.Player2Name
	default:
		return "Tie"
	}
}

// Player1ColorValue decodes the stored color, defaulting to blue.
func (b BattleResult) Player1ColorValue() Color {
	return ColorOrDefault(b.Player1Color, DefaultPlayer1Color)
}

// Player2ColorValue decodes the stored color, defaulting to red.
func (b BattleResult) Player2ColorValue() Color {
	return ColorOrDefault(b.Player2Color, DefaultPlayer2Color)
}
