package competitive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Apply(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.VoteWeights = []int{1}
	s := startSession(t, config, "a", "b", "c")

	actions := []Action{
		{Kind: ActionStroke, PlayerID: "a"},
		{Kind: ActionDrawing, PlayerID: "a", Ref: "img/a"},
		{Kind: ActionDrawing, PlayerID: "b", Ref: "img/b"},
		{Kind: ActionDrawing, PlayerID: "b", Ref: "img/b"},
		{Kind: ActionLeave, PlayerID: "c"},
		{Kind: ActionVote, Round: 1, PlayerID: "a", TargetID: "b"},
		{Kind: ActionVote, Round: 1, PlayerID: "b", TargetID: "a"},
		{Kind: ActionReady, PlayerID: "a"},
	}

	for _, a := range actions {
		require.NoError(t, s.Apply(a), "%#v", a)
	}

	assert.Equal(t, PhaseResults, s.Phase())
	assert.Len(t, s.Players(), 2)

	err := s.Apply(Action{Kind: "dance", PlayerID: "a"})
	assert.True(t, errors.Is(err, ErrUnknownAction))

	err = s.Apply(Action{Kind: ActionPowerup, PlayerID: "a", Ref: "x"})
	assert.True(t, errors.Is(err, ErrWrongPhase))
}
