package competitive

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drawberry-games/drawberry/internal/score"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(author string) Config {
	config := DefaultConfig()
	config.Code = 7
	config.AuthorID = author
	config.Powerups = false
	config.Clock = clockwork.NewFakeClock()
	return config
}

func startSession(t *testing.T, config Config, players ...string) *Session {
	t.Helper()

	s := NewSession(config)
	for _, id := range players {
		require.NoError(t, s.Join(id, strings.ToUpper(id)))
	}
	require.NoError(t, s.Start(config.AuthorID))
	require.Equal(t, PhaseDrawing, s.Phase())

	return s
}

func submitAll(t *testing.T, s *Session, players ...string) {
	t.Helper()

	for _, id := range players {
		require.NoError(t, s.SubmitDrawing(0, id, "img/"+id))
	}
}

func ticks(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

func scores(s *Session) map[string]int {
	m := map[string]int{}
	for _, p := range s.Players() {
		m[p.ID] = p.Score
	}

	return m
}

func drain(ch <-chan Event) []Event {
	var list []Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return list
			}
			list = append(list, e)
		default:
			return list
		}
	}
}

func findEvent(events []Event, kind EventKind) (Event, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}

	return Event{}, false
}

func TestSession_FullRound(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b", "c")
	events, cancel := s.Subscribe()
	defer cancel()

	submitAll(t, s, "a", "b", "c")
	assert.Equal(t, PhaseVoting, s.Phase())

	require.NoError(t, s.Vote(1, "a", "b"))
	require.NoError(t, s.Vote(1, "a", "c"))
	require.NoError(t, s.Vote(1, "b", "a"))
	require.NoError(t, s.Vote(1, "b", "c"))
	require.NoError(t, s.Vote(1, "c", "b"))
	assert.Equal(t, PhaseVoting, s.Phase())
	require.NoError(t, s.Vote(1, "c", "a"))
	assert.Equal(t, PhaseResults, s.Phase())

	// a=3, b=4, c=2 weighted votes
	assert.Equal(t, map[string]int{"a": score.SecondPlaceScore, "b": score.FirstPlaceScore, "c": 0}, scores(s))

	out := s.Outcome()
	require.Len(t, out.Placements, 3)
	assert.Equal(t, "b", out.Placements[0].PlayerID)
	assert.Equal(t, 4, out.Placements[0].Votes)

	results, ok := findEvent(drain(events), EventResults)
	require.True(t, ok)
	assert.Contains(t, results.Text, "B - 4 votes, +3")

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Ready(1, id))
	}
	assert.Equal(t, PhaseStandings, s.Phase())

	for _, id := range []string{"c", "b", "a"} {
		require.NoError(t, s.Ready(1, id))
	}
	assert.Equal(t, PhaseDrawing, s.Phase())
	assert.Equal(t, 2, s.Round())

	for _, p := range s.Players() {
		assert.Zero(t, p.VotesReceived)
		assert.Empty(t, p.VotedFor)
		assert.Empty(t, p.DrawingRef)
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 3, "c": 0}, scores(s))
}

func TestSession_TiedFirstThenSecondRun(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.VoteWeights = []int{1}
	s := startSession(t, config, "a", "b", "c", "d")
	submitAll(t, s, "a", "b", "c", "d")

	require.NoError(t, s.Vote(0, "a", "b"))
	require.NoError(t, s.Vote(0, "b", "a"))
	require.NoError(t, s.Vote(0, "c", "a"))
	require.NoError(t, s.Vote(0, "d", "b"))

	assert.Equal(t, PhaseResults, s.Phase())
	assert.Equal(t, map[string]int{"a": 3, "b": 3, "c": 1, "d": 1}, scores(s))

	for _, p := range s.Players() {
		switch p.ID {
		case "a", "b":
			assert.Equal(t, 1, p.FirstPlaces)
		default:
			assert.Equal(t, 1, p.SecondPlaces)
		}
	}
}

func TestSession_RejectedActions(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b", "c")

	tests := []struct {
		name     string
		fn       func() error
		expected error
	}{
		{name: "vote_while_drawing", fn: func() error { return s.Vote(0, "a", "b") }, expected: ErrWrongPhase},
		{name: "stale_round", fn: func() error { return s.SubmitDrawing(2, "a", "img") }, expected: ErrStaleRound},
		{name: "unknown_player", fn: func() error { return s.SubmitDrawing(1, "z", "img") }, expected: ErrPlayerNotFound},
		{name: "empty_drawing", fn: func() error { return s.SubmitDrawing(1, "a", "") }, expected: ErrEmptyDrawing},
		{name: "ready_while_drawing", fn: func() error { return s.Ready(1, "a") }, expected: ErrWrongPhase},
		{name: "join_after_start", fn: func() error { return s.Join("d", "D") }, expected: ErrWrongPhase},
		{name: "missing_powerup", fn: func() error { return s.ActivatePowerup(1, "a", "nope") }, expected: ErrPowerupNotFound},
	}

	for _, tc := range tests {
		err := tc.fn()
		assert.True(t, errors.Is(err, tc.expected), "%s: expected %v got %v", tc.name, tc.expected, err)
	}

	require.NoError(t, s.SubmitDrawing(1, "a", "img/a"))
	require.NoError(t, s.SubmitDrawing(1, "a", "img/other"))
	assert.Equal(t, "img/a", s.Players()[0].DrawingRef)
	submitAll(t, s, "b", "c")

	assert.True(t, errors.Is(s.Vote(1, "a", "a"), ErrSelfVote))
	assert.True(t, errors.Is(s.Vote(1, "a", "z"), ErrPlayerNotFound))

	require.NoError(t, s.Vote(1, "a", "b"))
	require.NoError(t, s.Vote(1, "a", "b"))
	assert.Equal(t, []string{"b"}, s.Players()[0].VotedFor)
	assert.Equal(t, 2, s.Players()[1].VotesReceived)

	require.NoError(t, s.Vote(1, "a", "c"))
	assert.True(t, errors.Is(s.Vote(1, "b", "b"), ErrSelfVote))
}

func TestSession_BallotFull(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.VoteWeights = []int{1}
	s := startSession(t, config, "a", "b", "c")
	submitAll(t, s, "a", "b", "c")

	require.NoError(t, s.Vote(0, "a", "b"))
	assert.True(t, errors.Is(s.Vote(0, "a", "c"), ErrBallotFull))
}

func TestSession_JoinAndStart(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.MaxPlayers = 2
	s := NewSession(config)

	require.NoError(t, s.Join("a", "A"))
	assert.True(t, errors.Is(s.Start("a"), ErrNotEnoughPlayers))

	require.NoError(t, s.Join("b", "B"))
	require.NoError(t, s.Join("b", "B"))
	assert.True(t, errors.Is(s.Join("c", "C"), ErrRoomFull))
	assert.Len(t, s.Players(), 2)

	assert.True(t, errors.Is(s.Start("b"), ErrNotAuthor))
	require.NoError(t, s.Start("a"))
	assert.True(t, errors.Is(s.Start("a"), ErrWrongPhase))
	assert.Equal(t, 60, s.TimeLeft())
}

func TestSession_LeaveUnblocksVoting(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b", "c")
	submitAll(t, s, "a", "b", "c")

	require.NoError(t, s.Vote(0, "a", "b"))
	require.NoError(t, s.Vote(0, "a", "c"))
	require.NoError(t, s.Vote(0, "b", "a"))
	require.NoError(t, s.Vote(0, "b", "c"))
	assert.Equal(t, PhaseVoting, s.Phase())

	require.NoError(t, s.Leave("c"))
	assert.Equal(t, PhaseResults, s.Phase())
	assert.Equal(t, map[string]int{"a": 3, "b": 3}, scores(s))

	assert.True(t, errors.Is(s.Leave("c"), ErrPlayerNotFound))
}

func TestSession_LeaveUnblocksDrawing(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b", "c")
	submitAll(t, s, "a", "b")
	assert.Equal(t, PhaseDrawing, s.Phase())

	require.NoError(t, s.Leave("c"))
	assert.Equal(t, PhaseVoting, s.Phase())
}

func TestSession_LastPlayerLeaving(t *testing.T) {
	t.Parallel()

	var calls int32
	config := testConfig("a")
	config.DoneFn = func(*Session) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	s := startSession(t, config, "a", "b")
	require.NoError(t, s.Leave("a"))
	assert.Equal(t, PhaseDrawing, s.Phase())

	require.NoError(t, s.Leave("b"))
	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSession_DrawingTimeout(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.RoundTime = 3 * time.Second
	s := startSession(t, config, "a", "b", "c")
	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.SubmitDrawing(0, "a", "img/a"))
	ticks(s, 2)
	assert.Equal(t, PhaseDrawing, s.Phase())
	assert.Equal(t, 1, s.TimeLeft())

	s.Tick()
	assert.Equal(t, PhaseVoting, s.Phase())

	opened, ok := findEvent(drain(events), EventVotingOpened)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, opened.Missing)
}

func TestSession_VotingAndReadyTimeouts(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.VoteTime = 2 * time.Second
	config.ReadyTime = 2 * time.Second
	s := startSession(t, config, "a", "b", "c")
	submitAll(t, s, "a", "b", "c")
	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Vote(0, "a", "b"))
	require.NoError(t, s.Vote(0, "a", "c"))

	ticks(s, 2)
	assert.Equal(t, PhaseResults, s.Phase())
	assert.Equal(t, map[string]int{"a": 0, "b": 3, "c": 1}, scores(s))

	results, ok := findEvent(drain(events), EventResults)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, results.Missing)

	ticks(s, 2)
	assert.Equal(t, PhaseStandings, s.Phase())

	ticks(s, 2)
	assert.Equal(t, PhaseDrawing, s.Phase())
	assert.Equal(t, 2, s.Round())

	// the outcome of the timed out round is applied once
	assert.Equal(t, map[string]int{"a": 0, "b": 3, "c": 1}, scores(s))
}

func TestSession_StrokesCutTimer(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b")

	require.NoError(t, s.RecordStroke(0, "a"))
	assert.True(t, errors.Is(s.RecordStroke(0, "a"), ErrNoStrokesLeft))
	assert.Equal(t, 60, s.TimeLeft())

	require.NoError(t, s.RecordStroke(0, "b"))
	assert.Equal(t, 3, s.TimeLeft())
}

func TestSession_LastRoundFinishes(t *testing.T) {
	t.Parallel()

	var calls int32
	config := testConfig("a")
	config.MaxRounds = 1
	config.DoneFn = func(s *Session) error {
		atomic.AddInt32(&calls, 1)
		assert.Len(t, s.Standings(), 2)
		return nil
	}

	s := startSession(t, config, "a", "b")
	events, cancel := s.Subscribe()
	defer cancel()

	submitAll(t, s, "a", "b")
	require.NoError(t, s.Vote(0, "a", "b"))
	require.NoError(t, s.Vote(0, "b", "a"))
	assert.Equal(t, PhaseResults, s.Phase())

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Ready(0, "a"))
		require.NoError(t, s.Ready(0, "b"))
	}

	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, errors.Is(s.Ready(0, "a"), ErrWrongPhase))

	finished, ok := findEvent(drain(events), EventFinished)
	require.True(t, ok)
	assert.Len(t, finished.Standings, 2)
	assert.Contains(t, finished.Text, "Game over")

	ticks(s, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSession_SingleVoterBallot(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.MinPlayers = 1
	s := startSession(t, config, "a")

	submitAll(t, s, "a")
	assert.Equal(t, PhaseResults, s.Phase())
	assert.Equal(t, map[string]int{"a": score.FirstPlaceScore}, scores(s))
}

func TestSession_SubscriberCancel(t *testing.T) {
	t.Parallel()

	s := NewSession(testConfig("a"))
	events, cancel := s.Subscribe()
	cancel()
	cancel()

	require.NoError(t, s.Join("a", "A"))
	_, open := <-events
	assert.False(t, open)
}

func TestSession_RunTicksWithClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	config := testConfig("a")
	config.Clock = clock
	s := startSession(t, config, "a", "b")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Run(ctx)
	defer s.Stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	assert.Eventually(t, func() bool {
		return s.TimeLeft() == 59
	}, time.Second, 10*time.Millisecond)
}

func TestSession_PickPositionSetsWeight(t *testing.T) {
	t.Parallel()

	orders := [][]Action{
		{
			{Kind: ActionVote, PlayerID: "a", TargetID: "b", Pick: 1},
			{Kind: ActionVote, PlayerID: "a", TargetID: "c", Pick: 2},
		},
		{
			{Kind: ActionVote, PlayerID: "a", TargetID: "c", Pick: 2},
			{Kind: ActionVote, PlayerID: "a", TargetID: "b", Pick: 1},
		},
	}

	for _, order := range orders {
		s := startSession(t, testConfig("a"), "a", "b", "c")
		submitAll(t, s, "a", "b", "c")

		for _, a := range order {
			require.NoError(t, s.Apply(a), "%#v", a)
		}

		received := map[string]int{}
		for _, p := range s.Players() {
			received[p.ID] = p.VotesReceived
		}
		assert.Equal(t, map[string]int{"a": 0, "b": 2, "c": 1}, received)
		assert.Equal(t, []string{"b", "c"}, s.Players()[0].VotedFor)
	}
}

func TestSession_PickRedeliveryAndConflicts(t *testing.T) {
	t.Parallel()

	s := startSession(t, testConfig("a"), "a", "b", "c")
	submitAll(t, s, "a", "b", "c")

	require.NoError(t, s.VotePick(0, "a", "c", 2))
	require.NoError(t, s.VotePick(0, "a", "c", 2))
	assert.ErrorIs(t, s.VotePick(0, "a", "b", 2), ErrBallotFull)
	assert.ErrorIs(t, s.VotePick(0, "a", "b", 3), ErrInvalidPick)
	assert.ErrorIs(t, s.VotePick(0, "a", "b", -1), ErrInvalidPick)

	// a free-position vote fills the gap in front
	require.NoError(t, s.Vote(0, "a", "b"))
	assert.Equal(t, []string{"b", "c"}, s.Players()[0].VotedFor)

	received := map[string]int{}
	for _, p := range s.Players() {
		received[p.ID] = p.VotesReceived
	}
	assert.Equal(t, 2, received["b"])
	assert.Equal(t, 1, received["c"])
}

func TestSession_StopClosesSubscribers(t *testing.T) {
	t.Parallel()

	s := NewSession(testConfig("a"))
	require.NoError(t, s.Join("a", "A"))
	events, cancel := s.Subscribe()
	defer cancel()

	s.Run(context.Background())
	s.Stop()

	select {
	case _, open := <-events:
		for open {
			_, open = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("subscription was not closed by Stop")
	}

	late, lateCancel := s.Subscribe()
	lateCancel()
	_, open := <-late
	assert.False(t, open)
}

func TestSession_EventsKeepTransitionOrder(t *testing.T) {
	t.Parallel()

	config := testConfig("a")
	config.RoundTime = 1000 * time.Second
	config.StrokesPerPlayer = 1000
	s := startSession(t, config, "a", "b")

	events, cancel := s.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if w%2 == 0 {
					s.Tick()
				} else {
					_ = s.RecordStroke(0, "a")
				}
			}
		}(w)
	}
	wg.Wait()

	got := drain(events)
	require.Len(t, got, 40)

	last := got[0].TimeLeft
	for _, e := range got {
		assert.LessOrEqual(t, e.TimeLeft, last, "events were delivered out of order")
		last = e.TimeLeft
	}
	assert.Equal(t, 980, last)
}
