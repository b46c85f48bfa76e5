package arbiter

import (
	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
)

// PieceCount is one inventory line.
type PieceCount struct {
	Piece     game.PieceKind `json:"piece"`
	Label     string         `json:"label"`
	Rank      int            `json:"rank"`
	Remaining int            `json:"remaining"`
	Initial   int            `json:"initial"`
}

// PlayerView is a player as exposed to clients. The pending selection is
// reported only as a flag so the opponent cannot see it.
type PlayerView struct {
	Name           string       `json:"name"`
	Color          string       `json:"color"`
	Selected       bool         `json:"selected"`
	TotalRemaining int          `json:"totalRemaining"`
	Inventory      []PieceCount `json:"inventory"`
}

// Snapshot is a read-only view of a table.
type Snapshot struct {
	GameID   string          `json:"gameId"`
	Player1  PlayerView      `json:"player1"`
	Player2  PlayerView      `json:"player2"`
	Session  *ledger.Summary `json:"session,omitempty"`
	Finished bool            `json:"finished"`
}

// snapshot must be called with t.mu held.
func (t *table) snapshot() *Snapshot {
	s := &Snapshot{
		GameID:   t.ctx.ID,
		Player1:  playerView(t.ctx.Player1, t.ctx.Round.Selection(game.Side1) != nil),
		Player2:  playerView(t.ctx.Player2, t.ctx.Round.Selection(game.Side2) != nil),
		Finished: t.ctx.Finished(),
	}
	if cur := t.ledger.CurrentSession(); cur != nil {
		sum := cur.Summary()
		s.Session = &sum
	}
	return s
}

func playerView(p *game.Player, selected bool) PlayerView {
	v := PlayerView{
		Name:           p.Name,
		Color:          p.Color.Hex(),
		Selected:       selected,
		TotalRemaining: p.Inventory.TotalRemaining(),
	}
	for _, k := range game.AllPieces() {
		v.Inventory = append(v.Inventory, PieceCount{
			Piece:     k,
			Label:     k.Label(),
			Rank:      k.Rank(),
			Remaining: p.Inventory.RemainingCount(k),
			Initial:   k.InitialCount(),
		})
	}
	return v
}

// Remaining returns the count for piece in v's inventory.
func (v PlayerView) Remaining(piece game.PieceKind) int {
	for _, c := range v.Inventory {
		if c.Piece == piece {
			return c.Remaining
		}
	}
	return 0
}
