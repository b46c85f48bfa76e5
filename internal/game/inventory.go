package game

// Inventory tracks how many copies of each kind a player still holds.
// Counts never drop below zero and never exceed the kind's InitialCount.
type Inventory struct {
	counts map[PieceKind]int
}

// NewInventory returns a full starting inventory.
func NewInventory() *Inventory {
	inv := &Inventory{counts: make(map[PieceKind]int, len(allPieces))}
	for _, k := range allPieces {
		inv.counts[k] = k.InitialCount()
	}
	return inv
}

// RemainingCount returns the current count for kind, 0 if unknown.
func (inv *Inventory) RemainingCount(kind PieceKind) int {
	return inv.counts[kind]
}

// CanUse reports whether at least one copy of kind remains.
func (inv *Inventory) CanUse(kind PieceKind) bool {
	return inv.RemainingCount(kind) > 0
}

// Use removes one copy of kind. It returns false and leaves the inventory
// untouched when none remain.
func (inv *Inventory) Use(kind PieceKind) bool {
	if !inv.CanUse(kind) {
		return false
	}
	inv.counts[kind]--
	return true
}

// Restore puts one copy of kind back, capped at its initial count.
// It returns false when the count is already full.
func (inv *Inventory) Restore(kind PieceKind) bool {
	if !kind.Valid() || inv.counts[kind] >= kind.InitialCount() {
		return false
	}
	inv.counts[kind]++
	return true
}

// AvailablePieces lists the kinds that can still be selected, highest rank first.
func (inv *Inventory) AvailablePieces() []PieceKind {
	out := make([]PieceKind, 0, len(allPieces))
	for _, k := range allPieces {
		if inv.CanUse(k) {
			out = append(out, k)
		}
	}
	return out
}

func (inv *Inventory) TotalRemaining() int {
	n := 0
	for _, c := range inv.counts {
		n += c
	}
	return n
}

// Snapshot copies the current counts.
func (inv *Inventory) Snapshot() map[PieceKind]int {
	out := make(map[PieceKind]int, len(inv.counts))
	for k, c := range inv.counts {
		out[k] = c
	}
	return out
}
