package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/store"
)

// fakeClock advances one second per call.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC)}
}

// failingKV wraps a KV and fails writes while broken is set.
type failingKV struct {
	store.KV
	broken bool
}

var errDisk = errors.New("disk full")

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.broken {
		return errDisk
	}
	return f.KV.Put(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.broken {
		return errDisk
	}
	return f.KV.Delete(ctx, key)
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.broken {
		return nil, errDisk
	}
	return f.KV.Get(ctx, key)
}

func play(t *testing.T, p1 *game.Player, k1 game.PieceKind, p2 *game.Player, k2 game.PieceKind, at time.Time) game.BattleResult {
	t.Helper()
	_, res := game.ApplyRound(p1, k1, p2, k2, at)
	return res
}

func players(t *testing.T) (*game.Player, *game.Player) {
	t.Helper()
	alice, err := game.NewPlayer("Alice", game.ColorRed)
	require.NoError(t, err)
	bob, err := game.NewPlayer("Bob", game.ColorBlue)
	require.NoError(t, err)
	return alice, bob
}

func TestSessionScenario(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	l := New(store.NewMemoryStore(), WithClock(clock.now))

	s, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)
	require.NotEmpty(t, s.SessionID)
	require.False(t, s.Ended())

	alice, bob := players(t)
	res := play(t, alice, game.FiveStarGeneral, bob, game.Spy, clock.now())
	require.Equal(t, game.Player2Wins, res.Winner)
	require.Equal(t, 0, alice.Inventory.RemainingCount(game.FiveStarGeneral))
	require.NoError(t, l.RecordBattle(ctx, res))

	cur := l.CurrentSession()
	require.NotNil(t, cur)
	require.Len(t, cur.Battles, 1)
	require.Equal(t, game.Player2Wins, cur.Battles[0].Winner)

	ended, err := l.EndSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, ended)
	require.True(t, ended.Ended())
	require.Equal(t, 0, ended.Player1Wins())
	require.Equal(t, 1, ended.Player2Wins())
	require.Equal(t, 0, ended.Ties())
	require.Equal(t, 1, ended.TotalBattles())
	require.Equal(t, "Bob", ended.WinnerName())

	require.Nil(t, l.CurrentSession(), "current slot should be empty after ending")
	all := l.AllSessions()
	require.Len(t, all, 1)
	require.Equal(t, ended.SessionID, all[0].SessionID)
}

func TestMissingSessionIsNoOp(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore())

	alice, bob := players(t)
	require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Major, bob, game.Captain, time.Now())))
	require.Nil(t, l.CurrentSession())

	s, err := l.EndSession(ctx)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Empty(t, l.AllSessions())
}

func TestStartSessionValidatesNames(t *testing.T) {
	l := New(store.NewMemoryStore())
	_, err := l.StartSession(context.Background(), "Alice", "  ")
	require.ErrorIs(t, err, ErrEmptyName)
	require.Nil(t, l.CurrentSession())
}

func TestStartSessionReplacesCurrent(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore(), WithClock(newClock().now))

	first, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)
	second, err := l.StartSession(ctx, "Carol", "Dan")
	require.NoError(t, err)

	require.NotEqual(t, first.SessionID, second.SessionID)
	require.Equal(t, second.SessionID, l.CurrentSession().SessionID)
	require.Empty(t, l.AllSessions(), "replaced session is not moved to history")
}

func TestHistoryMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore(), WithClock(newClock().now))

	var ids []string
	for _, names := range [][2]string{{"A", "B"}, {"C", "D"}, {"E", "F"}} {
		s, err := l.StartSession(ctx, names[0], names[1])
		require.NoError(t, err)
		ids = append(ids, s.SessionID)
		_, err = l.EndSession(ctx)
		require.NoError(t, err)
	}

	all := l.AllSessions()
	require.Len(t, all, 3)
	require.Equal(t, ids[2], all[0].SessionID)
	require.Equal(t, ids[1], all[1].SessionID)
	require.Equal(t, ids[0], all[2].SessionID)
}

func TestClockNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	times := []time.Time{
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	i := 0
	clock := func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}
	l := New(store.NewMemoryStore(), WithClock(clock))

	s, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)
	ended, err := l.EndSession(ctx)
	require.NoError(t, err)
	require.False(t, ended.EndTime.Before(s.StartTime))
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	clock := newClock()
	l := New(kv, WithNamespace("games/g1"), WithClock(clock.now))

	_, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)
	alice, bob := players(t)
	require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Private, bob, game.Private, clock.now())))
	require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Flag, bob, game.Sergeant, clock.now())))
	require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Private, bob, game.Spy, clock.now())))
	ended, err := l.EndSession(ctx)
	require.NoError(t, err)
	_, err = l.StartSession(ctx, "Carol", "Dan")
	require.NoError(t, err)

	raw, err := kv.Get(ctx, "games/g1/all_game_sessions")
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	battles := stored[0]["battles"].([]any)
	first := battles[0].(map[string]any)
	require.Equal(t, "private", first["player1Piece"])
	require.Equal(t, "tie", first["winner"])
	require.Equal(t, "#FF3B30", first["player1Color"])

	reloaded := New(kv, WithNamespace("games/g1"))
	require.NoError(t, reloaded.Load(ctx))

	all := reloaded.AllSessions()
	require.Len(t, all, 1)
	require.Equal(t, ended, all[0], "decoded session should equal the original")
	require.Equal(t, 1, all[0].Player1Wins())
	require.Equal(t, 1, all[0].Player2Wins())
	require.Equal(t, 1, all[0].Ties())
	require.Equal(t, 3, all[0].TotalBattles())

	cur := reloaded.CurrentSession()
	require.NotNil(t, cur)
	require.Equal(t, "Carol", cur.Player1Name)

	other := New(kv, WithNamespace("games/g2"))
	require.NoError(t, other.Load(ctx))
	require.Empty(t, other.AllSessions(), "namespaces are isolated")
}

func TestLoadMalformedData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Put(ctx, currentSessionKey, []byte(`{not json`)))
	require.NoError(t, kv.Put(ctx, allSessionsKey, []byte(`{"sessions":1}`)))

	l := New(kv)
	require.NoError(t, l.Load(ctx))
	require.Nil(t, l.CurrentSession())
	require.Empty(t, l.AllSessions())

	valid := `{"sessionId":"s1","player1Name":"Alice","player2Name":"Bob",
		"startTime":"2025-08-30T09:00:00Z","endTime":"2025-08-30T09:10:00Z","battles":[]}`

	/**
	 * Cases:
	 *  - null current slot          -> no current session
	 *  - empty object current slot  -> no current session
	 *  - ended session in current   -> not resumed
	 *  - null history entries       -> dropped, valid ones kept
	 *  - history entry with no id   -> dropped
	 */
	cases := []struct {
		name        string
		current     string
		history     string
		wantHistory int
	}{
		{name: "null current", current: `null`},
		{name: "empty current", current: `{}`},
		{name: "ended current", current: valid},
		{name: "only null history", history: `[null]`},
		{name: "null beside valid", history: `[null,` + valid + `]`, wantHistory: 1},
		{name: "anonymous entry", history: `[{"player1Name":"Alice","player2Name":"Bob"},` + valid + `]`, wantHistory: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := store.NewMemoryStore()
			if tc.current != "" {
				require.NoError(t, kv.Put(ctx, currentSessionKey, []byte(tc.current)))
			}
			if tc.history != "" {
				require.NoError(t, kv.Put(ctx, allSessionsKey, []byte(tc.history)))
			}

			l := New(kv)
			require.NotPanics(t, func() { require.NoError(t, l.Load(ctx)) })
			require.Nil(t, l.CurrentSession())

			var all []*Session
			require.NotPanics(t, func() { all = l.AllSessions() })
			require.Len(t, all, tc.wantHistory)
			for _, s := range all {
				require.Equal(t, "s1", s.SessionID)
			}

			alice, bob := players(t)
			require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Spy, bob, game.Flag, time.Now())))
			require.Nil(t, l.CurrentSession(), "a discarded session must not accept battles")
		})
	}
}

func TestLoadSeedsClockFromStoredTimes(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	stored := `[{"sessionId":"s1","player1Name":"Alice","player2Name":"Bob",
		"startTime":"2025-08-30T09:00:00Z","endTime":"2025-08-30T10:00:00Z",
		"battles":[{"id":"b1","player1Name":"Alice","player1Color":"#FF3B30","player1Piece":"spy",
		"player2Name":"Bob","player2Color":"#007AFF","player2Piece":"flag","winner":"player2",
		"timestamp":"2025-08-30T09:30:00Z"}]}]`
	require.NoError(t, kv.Put(ctx, allSessionsKey, []byte(stored)))

	// The clock runs an hour behind the newest stored time.
	behind := time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC)
	l := New(kv, WithClock(func() time.Time { return behind }))
	require.NoError(t, l.Load(ctx))

	s, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)
	want := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	require.True(t, !s.StartTime.Before(want), "start %s before stored end %s", s.StartTime, want)

	ended, err := l.EndSession(ctx)
	require.NoError(t, err)
	all := l.AllSessions()
	require.Len(t, all, 2)
	require.Equal(t, ended.SessionID, all[0].SessionID, "new session sorts first")
}

func TestLoadAcceptsLegacyLabels(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	legacy := `[{"sessionId":"s1","player1Name":"Alice","player2Name":"Bob",
		"startTime":"2025-08-30T09:00:00Z","endTime":"2025-08-30T09:10:00Z",
		"battles":[{"id":"b1","player1Name":"Alice","player1Color":"#FF3B30","player1Piece":"Five-Star General",
		"player2Name":"Bob","player2Color":"#007AFF","player2Piece":"Spy","winner":"player2",
		"timestamp":"2025-08-30T09:05:00Z"}]}]`
	require.NoError(t, kv.Put(ctx, allSessionsKey, []byte(legacy)))

	l := New(kv)
	require.NoError(t, l.Load(ctx))
	all := l.AllSessions()
	require.Len(t, all, 1)
	require.Equal(t, game.FiveStarGeneral, all[0].Battles[0].Player1Piece)
	require.Equal(t, 1, all[0].Player2Wins())
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemoryStore()}
	clock := newClock()
	l := New(kv, WithClock(clock.now))

	_, err := l.StartSession(ctx, "Alice", "Bob")
	require.NoError(t, err)

	kv.broken = true
	alice, bob := players(t)
	err = l.RecordBattle(ctx, play(t, alice, game.Colonel, bob, game.Major, clock.now()))
	require.ErrorIs(t, err, ErrPersist)
	require.ErrorIs(t, err, errDisk)
	require.Equal(t, 1, l.CurrentSession().TotalBattles(), "memory keeps the battle")

	ended, err := l.EndSession(ctx)
	require.ErrorIs(t, err, ErrPersist)
	require.NotNil(t, ended)
	require.Len(t, l.AllSessions(), 1)

	require.ErrorIs(t, l.ClearAll(ctx), ErrPersist)
	require.Empty(t, l.AllSessions())

	require.ErrorIs(t, l.Load(ctx), ErrPersist)

	kv.broken = false
	require.NoError(t, l.Load(ctx))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	l := New(kv, WithClock(newClock().now))

	_, err := l.StartSession(ctx, "A", "B")
	require.NoError(t, err)
	_, err = l.EndSession(ctx)
	require.NoError(t, err)
	_, err = l.StartSession(ctx, "C", "D")
	require.NoError(t, err)

	require.NoError(t, l.ClearAll(ctx))
	require.Nil(t, l.CurrentSession())
	require.Empty(t, l.AllSessions())

	_, err = kv.Get(ctx, currentSessionKey)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = kv.Get(ctx, allSessionsKey)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReturnedSessionsAreCopies(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore())
	_, err := l.StartSession(ctx, "A", "B")
	require.NoError(t, err)
	alice, bob := players(t)
	require.NoError(t, l.RecordBattle(ctx, play(t, alice, game.Major, bob, game.Captain, time.Now())))

	cur := l.CurrentSession()
	cur.Battles[0].Winner = game.Tie
	cur.Battles = nil
	require.Equal(t, game.Player1Wins, l.CurrentSession().Battles[0].Winner)
}
