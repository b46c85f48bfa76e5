// internal/game/engine.go
//
// Battle resolution and round application.
// Responsibilities:
//   - Resolve two selected pieces to an Outcome using the rank/override table.
//   - Apply an Outcome to both inventories (loser's piece removed, both on a tie).
//   - Emit an immutable BattleResult snapshot for the session ledger.
//
// Resolution treats player1's piece as the attacker. In the plain rank branch
// this is order-independent; the Spy/Private/Flag overrides are evaluated from
// the attacker's side first, so Resolve(Spy, Flag) and Resolve(Private, Flag)
// both go to player2.
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Resolve maps two optional selections to an Outcome. A missing selection on
// either side resolves to Tie.
func Resolve(p1, p2 *PieceKind) Outcome {
	if p1 == nil || p2 == nil {
		return Tie
	}
	return ResolvePieces(*p1, *p2)
}

// ResolvePieces resolves two chosen kinds.
func ResolvePieces(p1, p2 PieceKind) Outcome {
	if p1 == p2 {
		return Tie
	}
	if beats(p1, p2) {
		return Player1Wins
	}
	return Player2Wins
}

// beats reports whether attacker defeats defender.
func beats(attacker, defender PieceKind) bool {
	switch attacker {
	case Spy:
		// Spy takes every officer, Sergeant and up.
		return defender.Rank() >= Sergeant.Rank()
	case Private:
		return defender == Spy
	case Flag:
		return false
	}
	switch defender {
	case Spy:
		return attacker == Private
	case Flag:
		return true
	}
	return attacker.Rank() > defender.Rank()
}

// ApplyRound resolves k1 against k2, removes the losing piece(s) from the
// players' inventories and returns the outcome with its BattleResult.
//
// A Use that fails means the caller offered a depleted piece. The round still
// produces a result; the inconsistency is logged.
func ApplyRound(p1 *Player, k1 PieceKind, p2 *Player, k2 PieceKind, now time.Time) (Outcome, BattleResult) {
	out := ResolvePieces(k1, k2)
	removeLosers(out, p1, k1, p2, k2)

	res := BattleResult{
		ID:           uuid.NewString(),
		Player1Name:  p1.Name,
		Player1Color: p1.Color.Hex(),
		Player1Piece: k1,
		Player2Name:  p2.Name,
		Player2Color: p2.Color.Hex(),
		Player2Piece: k2,
		Winner:       out,
		Timestamp:    now,
	}
	return out, res
}

// Replay applies the inventory effect of a recorded battle without producing
// a new result. It rebuilds a session's inventories from its battle list.
func Replay(p1, p2 *Player, res BattleResult) {
	removeLosers(res.Winner, p1, res.Player1Piece, p2, res.Player2Piece)
}

func removeLosers(out Outcome, p1 *Player, k1 PieceKind, p2 *Player, k2 PieceKind) {
	switch out {
	case Player1Wins:
		consume(p2, k2)
	case Player2Wins:
		consume(p1, k1)
	case Tie:
		consume(p1, k1)
		consume(p2, k2)
	}
}

func consume(p *Player, k PieceKind) {
	if p.Inventory.Use(k) {
		log.Debug().Str("player", p.Name).Str("piece", k.Key()).
			Int("remaining", p.Inventory.RemainingCount(k)).Msg("piece lost")
		return
	}
	log.Warn().Str("player", p.Name).Str("piece", k.Key()).
		Msg("inventory inconsistency: lost piece was already depleted")
}
