package arbiter

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
)

// EventType names a table event sent to feed subscribers.
type EventType string

const (
	EventSelected       EventType = "selected"
	EventBattle         EventType = "battle"
	EventSessionEnded   EventType = "session_ended"
	EventSessionStarted EventType = "session_started"
)

// Event is delivered to subscribers of a table.
type Event struct {
	Type     EventType          `json:"type"`
	GameID   string             `json:"gameId"`
	Side     game.Side          `json:"side,omitempty"`
	Result   *game.BattleResult `json:"result,omitempty"`
	Session  *ledger.Summary    `json:"session,omitempty"`
	Finished bool               `json:"finished,omitempty"`
}

const subscriberBuffer = 16

// Subscribe registers for events on a table. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (a *Arbiter) Subscribe(ctx context.Context, id string) (<-chan Event, func(), error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	sid := t.nextID
	t.nextID++
	t.subs[sid] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[sid]; ok {
			delete(t.subs, sid)
			close(c)
		}
	}
	return ch, cancel, nil
}

// publish must be called with t.mu held. Slow subscribers drop events.
func (t *table) publish(ev Event) {
	for sid, ch := range t.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("gameId", ev.GameID).Int("subscriber", sid).Msg("feed subscriber lagging, event dropped")
		}
	}
}
