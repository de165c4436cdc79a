package competitive

import (
	"strings"
	"testing"

	"github.com/enescakir/emoji"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RenderStandings(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.VoteWeights = []int{1}
	s := startSession(t, config, "a", "b", "c")
	submitAll(t, s, "a", "b", "c")
	require.NoError(t, s.Vote(0, "a", "b"))
	require.NoError(t, s.Vote(0, "b", "c"))
	require.NoError(t, s.Vote(0, "c", "b"))

	text := s.RenderStandings()
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "Leaderboard after round 1 of 3")
	assert.Equal(t, "1. "+emoji.FirstPlaceMedal.String()+"B, 3 points", lines[2])
	assert.Equal(t, "2. "+emoji.SecondPlaceMedal.String()+"C, 1 point", lines[3])
	assert.Equal(t, "3. "+emoji.ThirdPlaceMedal.String()+"A, 0 points", lines[4])
}
