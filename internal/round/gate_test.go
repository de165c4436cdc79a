package round

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_CompleteIgnoresOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	players := []string{"a", "b", "c", "d"}
	orders := [][]string{
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
		{"b", "b", "d", "a", "a", "c"},
		{"c", "a", "c", "d", "b", "d"},
	}

	for _, order := range orders {
		g := NewGate(3, players...)
		for i, id := range order {
			require.NoError(t, g.RecordAction(id))

			seen := map[string]bool{}
			for _, prev := range order[:i+1] {
				seen[prev] = true
			}
			assert.Equal(t, len(seen) == len(players), g.IsRoundComplete(), "order %v step %d", order, i)
		}
	}
}

func TestGate_DuplicateRecord(t *testing.T) {
	t.Parallel()

	g := NewGate(3, "a", "b")
	require.NoError(t, g.RecordAction("a"))
	require.NoError(t, g.RecordAction("a"))
	assert.False(t, g.IsRoundComplete())
	assert.Equal(t, []string{"b"}, g.Pending())

	require.NoError(t, g.RecordAction("b"))
	assert.True(t, g.IsRoundComplete())
}

func TestGate_AdvanceIncomplete(t *testing.T) {
	t.Parallel()

	g := NewGate(3, "a", "b")
	require.NoError(t, g.RecordAction("a"))

	round, err := g.AdvanceRound()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 1, round)
	assert.Equal(t, 1, g.Round())
	assert.True(t, g.Acted("a"))
	assert.False(t, g.Acted("b"))
}

func TestGate_AdvanceResetsActions(t *testing.T) {
	t.Parallel()

	g := NewGate(3, "a", "b")
	require.NoError(t, g.RecordAction("b"))
	require.NoError(t, g.RecordAction("a"))

	round, err := g.AdvanceRound()
	require.NoError(t, err)
	assert.Equal(t, 2, round)
	assert.False(t, g.Acted("a"))
	assert.False(t, g.Acted("b"))
	assert.False(t, g.IsRoundComplete())
}

func TestGate_RoundLimit(t *testing.T) {
	t.Parallel()

	g := NewGate(1, "a")
	require.NoError(t, g.RecordAction("a"))
	assert.True(t, g.IsLastRound())

	_, err := g.AdvanceRound()
	assert.True(t, errors.Is(err, ErrRoundLimit))
	assert.Equal(t, 1, g.Round())
	assert.True(t, g.Acted("a"))
}

func TestGate_LeftPlayerDoesNotBlock(t *testing.T) {
	t.Parallel()

	g := NewGate(3, "a", "b", "c")
	require.NoError(t, g.RecordAction("a"))
	require.NoError(t, g.RecordAction("b"))
	assert.False(t, g.IsRoundComplete())

	g.Remove("c")
	assert.True(t, g.IsRoundComplete())
	assert.Equal(t, []string{"a", "b"}, g.Roster())
}

func TestGate_UnknownPlayer(t *testing.T) {
	t.Parallel()

	g := NewGate(3, "a")
	err := g.RecordAction("z")
	assert.True(t, errors.Is(err, ErrUnknownPlayer))
	assert.False(t, g.IsRoundComplete())
}

func TestGate_ForceAdvance(t *testing.T) {
	t.Parallel()

	g := NewGate(2, "a", "b", "c")
	require.NoError(t, g.RecordAction("b"))

	round, missing, err := g.ForceAdvance()
	require.NoError(t, err)
	assert.Equal(t, 2, round)
	assert.Equal(t, []string{"a", "c"}, missing)
	assert.False(t, g.Acted("b"))

	_, _, err = g.ForceAdvance()
	assert.True(t, errors.Is(err, ErrRoundLimit))
}

func TestBarrier_EmptyRosterNeverComplete(t *testing.T) {
	t.Parallel()

	b := NewBarrier()
	assert.False(t, b.Complete())

	b.Register("a")
	b.Register("a")
	assert.Equal(t, 1, b.Len())
	require.NoError(t, b.Mark("a"))
	assert.True(t, b.Complete())

	b.Remove("a")
	assert.False(t, b.Complete())
}
