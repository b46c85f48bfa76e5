package arbiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
	"github.com/robalobadob/arbiter/internal/store"
)

// A table is persisted as its seats plus its ledger. Inventories and the
// pending round are not stored: inventories are rebuilt by replaying the
// active session's battles, and an unplayed selection is dropped.
//
//   games/<id>/seats                -> seatsRecord
//   games/<id>/current_game_session -> ledger
//   games/<id>/all_game_sessions    -> ledger

const seatsKey = "seats"

type seat struct {
	Name  string     `json:"name"`
	Color game.Color `json:"color"`
}

type seatsRecord struct {
	Player1 seat `json:"player1"`
	Player2 seat `json:"player2"`
}

func (a *Arbiter) saveSeats(ctx context.Context, gc *game.GameContext) error {
	b, err := json.Marshal(seatsRecord{
		Player1: seat{Name: gc.Player1.Name, Color: gc.Player1.Color},
		Player2: seat{Name: gc.Player2.Name, Color: gc.Player2.Color},
	})
	if err != nil {
		return fmt.Errorf("%w: encode seats: %w", ledger.ErrPersist, err)
	}
	if err := a.kv.Put(ctx, namespace(gc.ID)+"/"+seatsKey, b); err != nil {
		return fmt.Errorf("%w: save seats: %w", ledger.ErrPersist, err)
	}
	return nil
}

// restore rebuilds a table from the store. A game with no stored seats is
// unknown; unreadable seats are treated the same way.
func (a *Arbiter) restore(ctx context.Context, id string) (*table, error) {
	if id == "" {
		return nil, ErrGameNotFound
	}
	raw, err := a.kv.Get(ctx, namespace(id)+"/"+seatsKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load seats %s: %w", id, err)
	}

	var rec seatsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("discarding malformed seats")
		return nil, ErrGameNotFound
	}
	p1, err1 := game.NewPlayer(rec.Player1.Name, rec.Player1.Color)
	p2, err2 := game.NewPlayer(rec.Player2.Name, rec.Player2.Color)
	if err1 != nil || err2 != nil {
		log.Warn().Str("gameId", id).Msg("discarding seats without player names")
		return nil, ErrGameNotFound
	}

	l := ledger.New(a.kv, ledger.WithNamespace(namespace(id)), ledger.WithClock(a.now))
	if err := l.Load(ctx); err != nil {
		return nil, err
	}

	battles := 0
	if cur := l.CurrentSession(); cur != nil {
		for _, res := range cur.Battles {
			game.Replay(p1, p2, res)
		}
		battles = len(cur.Battles)
	}

	log.Info().Str("gameId", id).Int("replayed", battles).Msg("game restored")
	return &table{
		ctx:    &game.GameContext{ID: id, Player1: p1, Player2: p2},
		ledger: l,
		subs:   make(map[int]chan Event),
	}, nil
}
