package round

import "fmt"

var ErrUnknownPlayer = fmt.Errorf("unknown player")

// Barrier tracks which players of the current roster have completed an action.
// It is not safe for concurrent use, the owner serializes calls.
func NewBarrier(players ...string) *Barrier {
	b := &Barrier{acted: map[string]bool{}}
	for _, id := range players {
		b.Register(id)
	}

	return b
}

type Barrier struct {
	roster []string
	acted  map[string]bool
}

// Register adds a player to the roster, registering twice has no effect
func (b *Barrier) Register(playerID string) {
	if _, ok := b.acted[playerID]; ok {
		return
	}

	b.roster = append(b.roster, playerID)
	b.acted[playerID] = false
}

// Remove drops a player, completeness is computed against the remaining roster
func (b *Barrier) Remove(playerID string) {
	if _, ok := b.acted[playerID]; !ok {
		return
	}

	delete(b.acted, playerID)
	for i, id := range b.roster {
		if id == playerID {
			b.roster = append(b.roster[:i], b.roster[i+1:]...)
			break
		}
	}
}

func (b *Barrier) Mark(playerID string) error {
	if _, ok := b.acted[playerID]; !ok {
		return fmt.Errorf("mark %q: %w", playerID, ErrUnknownPlayer)
	}

	b.acted[playerID] = true
	return nil
}

func (b *Barrier) Acted(playerID string) bool {
	return b.acted[playerID]
}

func (b *Barrier) Has(playerID string) bool {
	_, ok := b.acted[playerID]
	return ok
}

// Complete reports whether every registered player has acted. An empty roster is never complete.
func (b *Barrier) Complete() bool {
	if len(b.roster) == 0 {
		return false
	}

	for _, id := range b.roster {
		if !b.acted[id] {
			return false
		}
	}

	return true
}

// Pending returns players that have not acted yet in roster order
func (b *Barrier) Pending() []string {
	var pending []string
	for _, id := range b.roster {
		if !b.acted[id] {
			pending = append(pending, id)
		}
	}

	return pending
}

func (b *Barrier) Reset() {
	for id := range b.acted {
		b.acted[id] = false
	}
}

func (b *Barrier) Roster() []string {
	roster := make([]string, len(b.roster))
	copy(roster, b.roster)
	return roster
}

func (b *Barrier) Len() int {
	return len(b.roster)
}
