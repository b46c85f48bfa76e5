// internal/game/pieces.go
//
// Static catalog of the fifteen Salpakan piece kinds.
// Each kind carries a unique rank (Flag=1 .. Five-Star General=15), the number of
// copies a player starts with, and display metadata (label, emoji, description).
//
// Kinds are identified by a stable machine key ("five_star_general", "spy", ...).
// Labels are for display only; logic never round-trips through them.
package game

import (
	"errors"
	"fmt"
	"strings"
)

// PieceKind identifies one of the fifteen piece kinds.
type PieceKind int

const (
	Flag PieceKind = iota + 1
	Spy
	Private
	Sergeant
	SecondLieutenant
	FirstLieutenant
	Captain
	Major
	LieutenantColonel
	Colonel
	OneStarGeneral
	TwoStarGeneral
	ThreeStarGeneral
	FourStarGeneral
	FiveStarGeneral
)

// ErrUnknownPiece is returned when a key or label does not name a piece kind.
var ErrUnknownPiece = errors.New("unknown piece")

type pieceInfo struct {
	key          string
	label        string
	emoji        string
	description  string
	initialCount int
}

// catalog is indexed by PieceKind; rank equals the enum value.
var catalog = [...]pieceInfo{
	Flag:              {"flag", "Flag", "🚩", "Victory objective - protect at all costs", 1},
	Spy:               {"spy", "Spy", "🕵️", "Special agent - defeats all officers", 2},
	Private:           {"private", "Private", "🔫", "Basic soldier - can only defeat Spy", 6},
	Sergeant:          {"sergeant", "Sergeant", "⚡", "Non-commissioned officer", 1},
	SecondLieutenant:  {"second_lieutenant", "2nd Lieutenant", "🥈", "Junior officer", 1},
	FirstLieutenant:   {"first_lieutenant", "1st Lieutenant", "🥇", "Platoon leader", 1},
	Captain:           {"captain", "Captain", "👨‍✈️", "Company commander", 1},
	Major:             {"major", "Major", "🎗️", "Battalion commander", 1},
	LieutenantColonel: {"lieutenant_colonel", "Lieutenant Colonel", "🏅", "Deputy commander", 1},
	Colonel:           {"colonel", "Colonel", "🎖️", "Senior field officer", 1},
	OneStarGeneral:    {"one_star_general", "One-Star General", "🔹", "Junior general - tactical leader", 1},
	TwoStarGeneral:    {"two_star_general", "Two-Star General", "🔸", "Field officer - experienced commander", 1},
	ThreeStarGeneral:  {"three_star_general", "Three-Star General", "✨", "Senior officer - strong command authority", 1},
	FourStarGeneral:   {"four_star_general", "Four-Star General", "🌟", "High ranking officer - defeats most pieces", 1},
	FiveStarGeneral:   {"five_star_general", "Five-Star General", "⭐", "Highest ranking officer - defeats all except Spy", 1},
}

// allPieces lists kinds highest rank first, the order players see them in.
var allPieces = []PieceKind{
	FiveStarGeneral, FourStarGeneral, ThreeStarGeneral, TwoStarGeneral, OneStarGeneral,
	Colonel, LieutenantColonel, Major, Captain, FirstLieutenant, SecondLieutenant,
	Sergeant, Private, Spy, Flag,
}

// AllPieces returns every kind in catalog order (highest rank first).
func AllPieces() []PieceKind {
	out := make([]PieceKind, len(allPieces))
	copy(out, allPieces)
	return out
}

// Valid reports whether k names a catalog entry.
func (k PieceKind) Valid() bool { return k >= Flag && k <= FiveStarGeneral }

// Rank is 1 (Flag) through 15 (Five-Star General).
func (k PieceKind) Rank() int {
	if !k.Valid() {
		return 0
	}
	return int(k)
}

// InitialCount is how many copies each player starts with.
func (k PieceKind) InitialCount() int {
	if !k.Valid() {
		return 0
	}
	return catalog[k].initialCount
}

func (k PieceKind) Key() string {
	if !k.Valid() {
		return ""
	}
	return catalog[k].key
}

func (k PieceKind) Label() string {
	if !k.Valid() {
		return "Unknown"
	}
	return catalog[k].label
}

func (k PieceKind) Emoji() string {
	if !k.Valid() {
		return "❓"
	}
	return catalog[k].emoji
}

func (k PieceKind) Description() string {
	if !k.Valid() {
		return ""
	}
	return catalog[k].description
}

// String returns the machine key.
func (k PieceKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("PieceKind(%d)", int(k))
	}
	return catalog[k].key
}

// ParsePiece accepts a machine key or a display label, case-insensitively.
func ParsePiece(s string) (PieceKind, error) {
	s = strings.TrimSpace(s)
	for _, k := range allPieces {
		info := catalog[k]
		if strings.EqualFold(s, info.key) || strings.EqualFold(s, info.label) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPiece, s)
}

// MarshalText encodes the kind as its machine key.
func (k PieceKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPiece, int(k))
	}
	return []byte(catalog[k].key), nil
}

// UnmarshalText decodes a machine key or label.
func (k *PieceKind) UnmarshalText(b []byte) error {
	p, err := ParsePiece(string(b))
	if err != nil {
		return err
	}
	*k = p
	return nil
}

// TotalInitialPieces is the size of a fresh inventory.
func TotalInitialPieces() int {
	n := 0
	for _, k := range allPieces {
		n += k.InitialCount()
	}
	return n
}
