package round

import "fmt"

var (
	ErrInvalidState = fmt.Errorf("round is not complete")
	ErrRoundLimit   = fmt.Errorf("round limit reached")
)

// NewGate creates a gate positioned at round 1 of maxRounds.
func NewGate(maxRounds int, players ...string) *Gate {
	return &Gate{Barrier: NewBarrier(players...), round: 1, maxRounds: maxRounds}
}

// Gate decides when every player finished the action of the current round and
// advances the round ordinal exactly once. Notifications may arrive in any order and
// more than once, recording is idempotent.
type Gate struct {
	*Barrier

	round     int
	maxRounds int
}

func (g *Gate) RecordAction(playerID string) error {
	if err := g.Mark(playerID); err != nil {
		return fmt.Errorf("record action: %w", err)
	}

	return nil
}

func (g *Gate) IsRoundComplete() bool {
	return g.Complete()
}

// AdvanceRound moves to the next round and resets every player's action flag.
// It fails with ErrInvalidState while the round is incomplete and leaves the gate untouched.
func (g *Gate) AdvanceRound() (int, error) {
	if !g.Complete() {
		return g.round, fmt.Errorf("advance round %d: %w", g.round, ErrInvalidState)
	}

	return g.advance()
}

// ForceAdvance is the timeout transition. It advances regardless of completeness and
// returns players that had not acted.
func (g *Gate) ForceAdvance() (int, []string, error) {
	missing := g.Pending()
	next, err := g.advance()
	if err != nil {
		return next, nil, err
	}

	return next, missing, nil
}

func (g *Gate) advance() (int, error) {
	if g.round >= g.maxRounds {
		return g.round, fmt.Errorf("advance round %d of %d: %w", g.round, g.maxRounds, ErrRoundLimit)
	}

	g.round++
	g.Reset()

	return g.round, nil
}

// Seek positions the gate at the given round, used when restoring a persisted match
func (g *Gate) Seek(round int) {
	if round < 1 {
		round = 1
	}
	if round > g.maxRounds {
		round = g.maxRounds
	}

	g.round = round
	g.Reset()
}

func (g *Gate) Round() int {
	return g.round
}

func (g *Gate) MaxRounds() int {
	return g.maxRounds
}

func (g *Gate) IsLastRound() bool {
	return g.round == g.maxRounds
}
