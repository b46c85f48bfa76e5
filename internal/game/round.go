package game

import (
	"time"

	"github.com/google/uuid"
)

// Round holds the transient selections for the pending round. It is reset
// only by an explicit Reset (or by Play once the round resolves).
type Round struct {
	piece1 *PieceKind
	piece2 *PieceKind
}

// Selection returns the pending piece for side, or nil.
func (r *Round) Selection(side Side) *PieceKind {
	switch side {
	case Side1:
		return r.piece1
	case Side2:
		return r.piece2
	}
	return nil
}

// Ready reports whether both sides have selected.
func (r *Round) Ready() bool { return r.piece1 != nil && r.piece2 != nil }

func (r *Round) Reset() {
	r.piece1 = nil
	r.piece2 = nil
}

// GameContext is one hosted table: two players and their pending round.
// Callers serialize access; it has no internal locking.
type GameContext struct {
	ID      string
	Player1 *Player
	Player2 *Player
	Round   Round
}

// NewGameContext seats two players at a fresh table.
func NewGameContext(p1, p2 *Player) *GameContext {
	return &GameContext{ID: uuid.NewString(), Player1: p1, Player2: p2}
}

// Player returns the player on side.
func (g *GameContext) Player(side Side) *Player {
	switch side {
	case Side1:
		return g.Player1
	case Side2:
		return g.Player2
	}
	return nil
}

// Select records side's choice for the pending round. The piece must be
// available in that player's inventory and the side must not have chosen yet.
func (g *GameContext) Select(side Side, kind PieceKind) error {
	p := g.Player(side)
	if p == nil {
		return ErrInvalidSide
	}
	if g.Round.Selection(side) != nil {
		return ErrAlreadySelected
	}
	if !p.Inventory.CanUse(kind) {
		return ErrPieceUnavailable
	}
	k := kind
	if side == Side1 {
		g.Round.piece1 = &k
	} else {
		g.Round.piece2 = &k
	}
	return nil
}

// Play resolves the pending round, applies it and starts a new one.
func (g *GameContext) Play(now time.Time) (Outcome, BattleResult, error) {
	if !g.Round.Ready() {
		return "", BattleResult{}, ErrRoundNotReady
	}
	out, res := ApplyRound(g.Player1, *g.Round.piece1, g.Player2, *g.Round.piece2, now)
	g.Round.Reset()
	return out, res, nil
}

// Finished reports whether either player has nothing left to select.
func (g *GameContext) Finished() bool {
	return g.Player1.Inventory.TotalRemaining() == 0 || g.Player2.Inventory.TotalRemaining() == 0
}

// Reseat replaces both players with fresh inventories, keeping names and colors.
func (g *GameContext) Reseat() {
	g.Player1 = &Player{Name: g.Player1.Name, Color: g.Player1.Color, Inventory: NewInventory()}
	g.Player2 = &Player{Name: g.Player2.Name, Color: g.Player2.Color, Inventory: NewInventory()}
	g.Round.Reset()
}
