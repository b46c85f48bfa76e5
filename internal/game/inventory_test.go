package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	pieces := AllPieces()
	require.Len(t, pieces, 15)
	require.Equal(t, FiveStarGeneral, pieces[0], "highest rank first")
	require.Equal(t, Flag, pieces[len(pieces)-1])

	seen := map[int]bool{}
	for i, k := range pieces {
		require.False(t, seen[k.Rank()], "rank %d should be unique", k.Rank())
		seen[k.Rank()] = true
		if i > 0 {
			require.Less(t, k.Rank(), pieces[i-1].Rank(), "ranks strictly descending")
		}
	}

	require.Equal(t, 1, Flag.Rank())
	require.Equal(t, 3, Private.Rank())
	require.Equal(t, 4, Sergeant.Rank())
	require.Equal(t, 15, FiveStarGeneral.Rank())
	require.Equal(t, 6, Private.InitialCount())
	require.Equal(t, 2, Spy.InitialCount())
	require.Equal(t, 1, Colonel.InitialCount())
	require.Equal(t, 21, TotalInitialPieces())
}

func TestParsePiece(t *testing.T) {
	tests := []struct {
		in   string
		want PieceKind
	}{
		{"five_star_general", FiveStarGeneral},
		{"Five-Star General", FiveStarGeneral},
		{"1st lieutenant", FirstLieutenant},
		{" SPY ", Spy},
		{"lieutenant_colonel", LieutenantColonel},
	}
	for _, tt := range tests {
		got, err := ParsePiece(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParsePiece("admiral")
	require.ErrorIs(t, err, ErrUnknownPiece)
}

func TestPieceJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P PieceKind `json:"p"`
	}{FirstLieutenant})
	require.NoError(t, err)
	require.JSONEq(t, `{"p":"first_lieutenant"}`, string(b))

	var v struct {
		P PieceKind `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":"2nd Lieutenant"}`), &v), "labels decode too")
	require.Equal(t, SecondLieutenant, v.P)
	require.Error(t, json.Unmarshal([]byte(`{"p":"general"}`), &v))
}

func TestInventory(t *testing.T) {
	t.Run("starts full", func(t *testing.T) {
		inv := NewInventory()
		for _, k := range AllPieces() {
			require.Equal(t, k.InitialCount(), inv.RemainingCount(k))
		}
		require.Equal(t, 21, inv.TotalRemaining())
		require.Equal(t, AllPieces(), inv.AvailablePieces())
		require.Equal(t, 0, inv.RemainingCount(PieceKind(99)), "unknown kinds have no copies")
	})

	t.Run("use never goes negative", func(t *testing.T) {
		inv := NewInventory()
		require.True(t, inv.Use(Spy))
		require.True(t, inv.Use(Spy))
		require.False(t, inv.Use(Spy))
		require.Equal(t, 0, inv.RemainingCount(Spy))
		require.False(t, inv.CanUse(Spy))
		require.NotContains(t, inv.AvailablePieces(), Spy)
		require.Equal(t, 19, inv.TotalRemaining())
	})

	t.Run("restore is capped at the initial count", func(t *testing.T) {
		inv := NewInventory()
		require.False(t, inv.Restore(Major), "already full")
		require.Equal(t, 1, inv.RemainingCount(Major))

		require.True(t, inv.Use(Major))
		require.True(t, inv.Restore(Major))
		require.Equal(t, 1, inv.RemainingCount(Major))
		require.False(t, inv.Restore(PieceKind(0)))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		inv := NewInventory()
		snap := inv.Snapshot()
		snap[Private] = 0
		require.Equal(t, 6, inv.RemainingCount(Private))
	})
}

func TestNewPlayer(t *testing.T) {
	_, err := NewPlayer("   ", ColorRed)
	require.ErrorIs(t, err, ErrEmptyName)

	p, err := NewPlayer("  Alice ", ColorGreen)
	require.NoError(t, err)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, 21, p.Inventory.TotalRemaining())
}

func TestColor(t *testing.T) {
	require.Equal(t, "#FF3B30", ColorRed.Hex())

	c, ok := ParseColor("#007aff")
	require.True(t, ok)
	require.Equal(t, ColorBlue, c)

	c, ok = ParseColor("34C759")
	require.True(t, ok)
	require.Equal(t, ColorGreen, c)

	_, ok = ParseColor("#12345")
	require.False(t, ok)
	_, ok = ParseColor("#GGGGGG")
	require.False(t, ok)

	require.Equal(t, DefaultPlayer2Color, ColorOrDefault("nope", DefaultPlayer2Color))
	require.Len(t, Palette(), 6)

	res := BattleResult{Player1Color: "bad", Player2Color: ColorPurple.Hex()}
	require.Equal(t, DefaultPlayer1Color, res.Player1ColorValue())
	require.Equal(t, ColorPurple, res.Player2ColorValue())
}
