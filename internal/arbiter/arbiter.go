// internal/arbiter/arbiter.go
//
// Arbiter hosts many independent tables. Each table owns a GameContext (two
// players and the pending round) and a Ledger namespaced by the table id.
//
// A per-table mutex makes select -> resolve -> mutate inventories -> record a
// single atomic step; different tables never contend.
package arbiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
	"github.com/robalobadob/arbiter/internal/store"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrNoActiveSession = errors.New("no active session")
)

// PlayerSpec describes one seat at table creation.
type PlayerSpec struct {
	Name  string
	Color game.Color
}

type table struct {
	mu     sync.Mutex
	ctx    *game.GameContext
	ledger *ledger.Ledger
	subs   map[int]chan Event
	nextID int
}

// Arbiter is safe for concurrent use.
type Arbiter struct {
	kv  store.KV
	now ledger.Clock

	mu     sync.RWMutex
	tables map[string]*table
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithClock overrides time.Now for rounds and sessions.
func WithClock(c ledger.Clock) Option { return func(a *Arbiter) { a.now = c } }

// New returns an Arbiter persisting ledgers to kv.
func New(kv store.KV, opts ...Option) *Arbiter {
	a := &Arbiter{kv: kv, now: time.Now, tables: make(map[string]*table)}
	for _, o := range opts {
		o(a)
	}
	return a
}

func namespace(id string) string { return "games/" + id }

// table returns the hosted table for id, reloading it from the store when
// this process has not seen it yet.
func (a *Arbiter) table(ctx context.Context, id string) (*table, error) {
	a.mu.RLock()
	t, ok := a.tables[id]
	a.mu.RUnlock()
	if ok {
		return t, nil
	}

	loaded, err := a.restore(ctx, id)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.tables[id]; ok {
		return t, nil
	}
	a.tables[id] = loaded
	return loaded, nil
}

// CreateGame seats two players and starts their first session. A persistence
// failure is returned alongside a usable snapshot.
func (a *Arbiter) CreateGame(ctx context.Context, p1, p2 PlayerSpec) (*Snapshot, error) {
	player1, err := game.NewPlayer(p1.Name, p1.Color)
	if err != nil {
		return nil, err
	}
	player2, err := game.NewPlayer(p2.Name, p2.Color)
	if err != nil {
		return nil, err
	}

	gc := game.NewGameContext(player1, player2)
	t := &table{
		ctx:    gc,
		ledger: ledger.New(a.kv, ledger.WithNamespace(namespace(gc.ID)), ledger.WithClock(a.now)),
		subs:   make(map[int]chan Event),
	}
	_, perr := t.ledger.StartSession(ctx, player1.Name, player2.Name)
	if perr != nil && !errors.Is(perr, ledger.ErrPersist) {
		return nil, perr
	}
	perr = errors.Join(perr, a.saveSeats(ctx, gc))

	a.mu.Lock()
	a.tables[gc.ID] = t
	a.mu.Unlock()

	log.Info().Str("gameId", gc.ID).Str("player1", player1.Name).Str("player2", player2.Name).Msg("game created")

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot(), perr
}

// Game returns the current state of a table.
func (a *Arbiter) Game(ctx context.Context, id string) (*Snapshot, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot(), nil
}

// Select records one side's piece for the pending round.
func (a *Arbiter) Select(ctx context.Context, id string, side game.Side, piece game.PieceKind) (*Snapshot, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger.CurrentSession() == nil {
		return nil, ErrNoActiveSession
	}
	if err := t.ctx.Select(side, piece); err != nil {
		return nil, err
	}
	t.publish(Event{Type: EventSelected, GameID: id, Side: side})
	return t.snapshot(), nil
}

// RoundReport is the outcome of one played round.
type RoundReport struct {
	Outcome  game.Outcome      `json:"outcome"`
	Result   game.BattleResult `json:"result"`
	Game     *Snapshot         `json:"game"`
	Finished bool              `json:"finished"`
}

// PlayRound resolves the pending round. Pieces passed as non-nil are selected
// first, so a client may submit both picks in one call. The battle is applied
// and recorded under the table lock; a persistence failure is returned with
// the report since the round itself stands.
func (a *Arbiter) PlayRound(ctx context.Context, id string, piece1, piece2 *game.PieceKind) (*RoundReport, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger.CurrentSession() == nil {
		return nil, ErrNoActiveSession
	}

	// Validate both picks before touching the round, so a bad second pick
	// does not leave the first one half-applied.
	for _, pick := range []struct {
		side  game.Side
		piece *game.PieceKind
	}{{game.Side1, piece1}, {game.Side2, piece2}} {
		if pick.piece == nil {
			continue
		}
		if t.ctx.Round.Selection(pick.side) != nil {
			return nil, game.ErrAlreadySelected
		}
		if !t.ctx.Player(pick.side).Inventory.CanUse(*pick.piece) {
			return nil, game.ErrPieceUnavailable
		}
	}
	if piece1 != nil {
		if err := t.ctx.Select(game.Side1, *piece1); err != nil {
			return nil, err
		}
	}
	if piece2 != nil {
		if err := t.ctx.Select(game.Side2, *piece2); err != nil {
			return nil, err
		}
	}

	out, res, err := t.ctx.Play(a.now())
	if err != nil {
		return nil, err
	}
	perr := t.ledger.RecordBattle(ctx, res)
	if perr != nil {
		log.Error().Err(perr).Str("gameId", id).Msg("record battle")
	}

	rep := &RoundReport{Outcome: out, Result: res, Game: t.snapshot(), Finished: t.ctx.Finished()}
	t.publish(Event{Type: EventBattle, GameID: id, Result: &res, Finished: rep.Finished})
	return rep, perr
}

// EndSession closes the active session and moves it into history.
func (a *Arbiter) EndSession(ctx context.Context, id string) (*ledger.Session, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.ledger.EndSession(ctx)
	if s == nil && err == nil {
		return nil, ErrNoActiveSession
	}
	t.ctx.Round.Reset()
	if s != nil {
		sum := s.Summary()
		t.publish(Event{Type: EventSessionEnded, GameID: id, Session: &sum})
	}
	return s, err
}

// RestartSession ends any active session and starts a new one with fresh
// inventories for the same two players.
func (a *Arbiter) RestartSession(ctx context.Context, id string) (*Snapshot, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.ledger.CurrentSession() != nil {
		if _, err := t.ledger.EndSession(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.ctx.Reseat()
	if _, err := t.ledger.StartSession(ctx, t.ctx.Player1.Name, t.ctx.Player2.Name); err != nil {
		errs = append(errs, err)
	}
	t.publish(Event{Type: EventSessionStarted, GameID: id})
	return t.snapshot(), errors.Join(errs...)
}

// Sessions returns the ended sessions of a table, most recent first.
func (a *Arbiter) Sessions(ctx context.Context, id string) ([]*ledger.Session, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.ledger.AllSessions(), nil
}

// CurrentSession returns the active session of a table, or ErrNoActiveSession.
func (a *Arbiter) CurrentSession(ctx context.Context, id string) (*ledger.Session, error) {
	t, err := a.table(ctx, id)
	if err != nil {
		return nil, err
	}
	s := t.ledger.CurrentSession()
	if s == nil {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// ClearHistory erases the active session and all history of a table.
func (a *Arbiter) ClearHistory(ctx context.Context, id string) error {
	t, err := a.table(ctx, id)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx.Round.Reset()
	return t.ledger.ClearAll(ctx)
}
