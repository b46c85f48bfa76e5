// internal/ledger/ledger.go
//
// Session ledger: the current session slot plus the history of ended sessions.
//
// In-memory state is authoritative. Every mutation updates memory first and
// then writes through to the KV store; a failed write is returned to the caller
// wrapped in ErrPersist while memory stays as updated.
//
// Persisted layout (JSON):
//   <ns>/current_game_session -> Session            (absent when none)
//   <ns>/all_game_sessions    -> []Session          (most recent first)
//
// Session lifecycle: Active (accepts RecordBattle) -> Ended (in history, read-only).

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/store"
)

const (
	currentSessionKey = "current_game_session"
	allSessionsKey    = "all_game_sessions"
)

var (
	// ErrPersist wraps store failures. The in-memory ledger is still valid.
	ErrPersist = errors.New("ledger persistence failed")

	// ErrEmptyName is returned by StartSession for a blank player name.
	ErrEmptyName = errors.New("player names are required")
)

// Clock supplies timestamps for sessions and battles.
type Clock func() time.Time

// Ledger records battles for one table. It is safe for concurrent use.
type Ledger struct {
	mu  sync.Mutex
	kv  store.KV
	ns  string
	now Clock

	current *Session
	history []*Session
	last    time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNamespace prefixes every key with ns + "/".
func WithNamespace(ns string) Option { return func(l *Ledger) { l.ns = ns } }

// WithClock overrides time.Now.
func WithClock(c Clock) Option { return func(l *Ledger) { l.now = c } }

// New returns an empty ledger backed by kv. Call Load to pick up stored data.
func New(kv store.KV, opts ...Option) *Ledger {
	l := &Ledger{kv: kv, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) key(k string) string {
	if l.ns == "" {
		return k
	}
	return l.ns + "/" + k
}

// stamp returns the current UTC time, never earlier than a previous stamp.
func (l *Ledger) stamp() time.Time {
	t := l.now().UTC()
	if t.Before(l.last) {
		t = l.last
	}
	l.last = t
	return t
}

// Load replaces in-memory state with what the store holds. Missing or
// malformed values load as empty; read failures are returned and leave the
// ledger empty. Stored sessions that lack an id or player names are dropped,
// and an ended session found in the current slot is not resumed.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = nil
	l.history = nil

	var errs []error

	raw, err := l.kv.Get(ctx, l.key(currentSessionKey))
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		errs = append(errs, err)
	default:
		var s *Session
		if err := json.Unmarshal(raw, &s); err != nil {
			log.Warn().Err(err).Str("ns", l.ns).Msg("discarding malformed current session")
		} else if !s.valid() || s.Ended() {
			log.Warn().Str("ns", l.ns).Msg("discarding invalid current session")
		} else {
			l.current = s
		}
	}

	raw, err = l.kv.Get(ctx, l.key(allSessionsKey))
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		errs = append(errs, err)
	default:
		var all []*Session
		if err := json.Unmarshal(raw, &all); err != nil {
			log.Warn().Err(err).Str("ns", l.ns).Msg("discarding malformed session history")
			break
		}
		for _, s := range all {
			if !s.valid() {
				log.Warn().Str("ns", l.ns).Msg("discarding invalid history entry")
				continue
			}
			l.history = append(l.history, s)
		}
		l.sortHistory()
	}

	l.last = time.Time{}
	if l.current != nil {
		l.seen(l.current)
	}
	for _, s := range l.history {
		l.seen(s)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: load: %w", ErrPersist, errors.Join(errs...))
	}
	return nil
}

// seen advances l.last past every timestamp in s.
func (l *Ledger) seen(s *Session) {
	latest := s.StartTime
	if s.EndTime != nil && s.EndTime.After(latest) {
		latest = *s.EndTime
	}
	for _, b := range s.Battles {
		if b.Timestamp.After(latest) {
			latest = b.Timestamp
		}
	}
	if latest.After(l.last) {
		l.last = latest.UTC()
	}
}

// StartSession opens a new current session, replacing any unended one.
func (l *Ledger) StartSession(ctx context.Context, player1Name, player2Name string) (*Session, error) {
	player1Name, player2Name = strings.TrimSpace(player1Name), strings.TrimSpace(player2Name)
	if player1Name == "" || player2Name == "" {
		return nil, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		log.Warn().Str("ns", l.ns).Str("session", l.current.SessionID).
			Int("battles", l.current.TotalBattles()).Msg("replacing unended session")
	}
	l.current = &Session{
		SessionID:   uuid.NewString(),
		Player1Name: player1Name,
		Player2Name: player2Name,
		StartTime:   l.stamp(),
		Battles:     []game.BattleResult{},
	}
	log.Info().Str("ns", l.ns).Str("session", l.current.SessionID).
		Str("player1", player1Name).Str("player2", player2Name).Msg("session started")

	return l.current.clone(), l.saveCurrent(ctx)
}

// CurrentSession returns a copy of the active session, or nil.
func (l *Ledger) CurrentSession() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	return l.current.clone()
}

// RecordBattle appends res to the active session. With no active session it
// logs and does nothing.
func (l *Ledger) RecordBattle(ctx context.Context, res game.BattleResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		log.Warn().Str("ns", l.ns).Str("battle", res.ID).Msg("no current session to add battle result")
		return nil
	}
	if res.Timestamp.Before(l.last) {
		res.Timestamp = l.last
	} else {
		l.last = res.Timestamp
	}
	l.current.Battles = append(l.current.Battles, res)

	log.Info().Str("ns", l.ns).Str("session", l.current.SessionID).
		Str("p1", res.Player1Name).Str("p1Piece", res.Player1Piece.Key()).
		Str("p2", res.Player2Name).Str("p2Piece", res.Player2Piece.Key()).
		Str("winner", res.WinnerName()).Msg("battle recorded")

	return l.saveCurrent(ctx)
}

// EndSession stamps the end time, moves the session to history and clears the
// current slot. It returns nil when there is no active session.
func (l *Ledger) EndSession(ctx context.Context) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		log.Warn().Str("ns", l.ns).Msg("no session to end")
		return nil, nil
	}
	s := l.current
	end := l.stamp()
	s.EndTime = &end
	l.history = append(l.history, s)
	l.sortHistory()
	l.current = nil

	log.Info().Str("ns", l.ns).Str("session", s.SessionID).
		Int("battles", s.TotalBattles()).Int("p1Wins", s.Player1Wins()).
		Int("p2Wins", s.Player2Wins()).Int("ties", s.Ties()).Msg("session ended")

	err := errors.Join(l.saveHistory(ctx), l.saveCurrent(ctx))
	return s.clone(), err
}

// AllSessions returns ended sessions, most recent start first.
func (l *Ledger) AllSessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Session, len(l.history))
	for i, s := range l.history {
		out[i] = s.clone()
	}
	return out
}

// ClearAll erases the current session and all history.
func (l *Ledger) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = nil
	l.history = nil
	log.Info().Str("ns", l.ns).Msg("all battle stats cleared")

	var errs []error
	if err := l.kv.Delete(ctx, l.key(currentSessionKey)); err != nil {
		errs = append(errs, err)
	}
	if err := l.kv.Delete(ctx, l.key(allSessionsKey)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: clear: %w", ErrPersist, errors.Join(errs...))
	}
	return nil
}

func (l *Ledger) sortHistory() {
	sort.SliceStable(l.history, func(i, j int) bool {
		return l.history[i].StartTime.After(l.history[j].StartTime)
	})
}

func (l *Ledger) saveCurrent(ctx context.Context) error {
	if l.current == nil {
		if err := l.kv.Delete(ctx, l.key(currentSessionKey)); err != nil {
			return fmt.Errorf("%w: delete current: %w", ErrPersist, err)
		}
		return nil
	}
	b, err := json.Marshal(l.current)
	if err != nil {
		return fmt.Errorf("%w: encode current: %w", ErrPersist, err)
	}
	if err := l.kv.Put(ctx, l.key(currentSessionKey), b); err != nil {
		return fmt.Errorf("%w: save current: %w", ErrPersist, err)
	}
	return nil
}

func (l *Ledger) saveHistory(ctx context.Context) error {
	b, err := json.Marshal(l.history)
	if err != nil {
		return fmt.Errorf("%w: encode history: %w", ErrPersist, err)
	}
	if err := l.kv.Put(ctx, l.key(allSessionsKey), b); err != nil {
		return fmt.Errorf("%w: save history: %w", ErrPersist, err)
	}
	return nil
}
