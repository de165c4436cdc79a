package drawberry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/drawberry-games/drawberry/internal/database/dbtest"
	userDb "github.com/drawberry-games/drawberry/internal/database/user/database"
	"github.com/drawberry-games/drawberry/internal/teambattle"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBattle(t *testing.T, resp *http.Response) battleResponse {
	t.Helper()

	var body battleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestAPI_BattleLifecycle(t *testing.T) {
	t.Parallel()

	m, srv := newTestServer(t)

	resp := post(t, srv.URL+"/battles", BattleRequest{AuthorID: "a", AuthorName: "Ann", MaxRounds: 1, Words: "apple/house"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := readBattle(t, resp)
	assert.Equal(t, teambattle.PhaseWaiting, created.Phase)
	assert.Len(t, created.Members, 1)

	battle := fmt.Sprintf("%s/battles/%d", srv.URL, created.Code)

	resp = post(t, battle+"/players", battleRequest{PlayerID: "b", Name: "Bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, battle+"/start", battleRequest{PlayerID: "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	started := readBattle(t, resp)
	assert.Equal(t, teambattle.PhasePlaying, started.Phase)
	require.Len(t, started.Teams, 1)
	assert.Equal(t, "a", started.Teams[0].Drawer.ID)

	topic, err := http.Get(battle + "/topic?player=a")
	require.NoError(t, err)
	defer topic.Body.Close()
	require.Equal(t, http.StatusOK, topic.StatusCode)
	var tr topicResponse
	require.NoError(t, json.NewDecoder(topic.Body).Decode(&tr))
	assert.Equal(t, topicResponse{Topic: "apple", Round: 1}, tr)

	resp = post(t, battle+"/guesses", battleRequest{PlayerID: "b", Guess: "apple"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post(t, battle+"/drawings", battleRequest{PlayerID: "b", Ref: "img/b"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = post(t, battle+"/drawings", battleRequest{PlayerID: "a", Ref: "img/a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, readBattle(t, resp).Round)

	resp = post(t, battle+"/guesses", battleRequest{PlayerID: "b", Guess: "pear"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wrong := readBattle(t, resp)
	require.NotNil(t, wrong.Correct)
	assert.False(t, *wrong.Correct)

	resp = post(t, battle+"/guesses", battleRequest{PlayerID: "b", Guess: "Apple"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	right := readBattle(t, resp)
	require.NotNil(t, right.Correct)
	assert.True(t, *right.Correct)
	assert.Equal(t, teambattle.PhaseFinished, right.Phase)
	require.Len(t, right.Standings, 1)
	assert.Equal(t, 1, right.Standings[0].Score)
	assert.Equal(t, teambattle.Result{Correct: 1, Incorrect: 1}, right.Teams[0].Result)

	gone, err := http.Get(battle)
	require.NoError(t, err)
	defer gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)

	for _, id := range []string{"a", "b"} {
		u, err := m.userDB.Fetch(id)
		require.NoError(t, err)
		assert.Equal(t, 1, u.Games, id)
		assert.Equal(t, 1, u.Stars, id)
	}
}

func TestAPI_BattleLeave(t *testing.T) {
	t.Parallel()

	m, srv := newTestServer(t)

	b, err := m.CreateBattle(context.Background(), BattleRequest{AuthorID: "a", AuthorName: "Ann"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/battles/%d/players/a", srv.URL, b.Code), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = m.Battle(b.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManager_BattleCodesDoNotCollideWithRooms(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, dbtest.New(t), testConfig(clockwork.NewFakeClock()))
	codes := []int64{5, 5, 5, 6}
	m.hash = func() (int64, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	room, err := m.Create(context.Background(), CreateRequest{AuthorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), room.Code)

	battle, err := m.CreateBattle(context.Background(), BattleRequest{AuthorID: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), battle.Code)

	_, err = m.Battle(room.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManager_CreateBattleWithRejectedAuthorLeavesNoBattle(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	m := newTestManager(t, db, testConfig(clockwork.NewFakeClock()))

	long := strings.Repeat("n", teambattle.MaxNameLength+1)
	_, err := m.CreateBattle(context.Background(), BattleRequest{AuthorID: "x", AuthorName: long})
	require.ErrorIs(t, err, teambattle.ErrInvalidName)

	m.mtx.RLock()
	assert.Empty(t, m.battles)
	m.mtx.RUnlock()

	_, err = userDb.New(db, nil).Fetch("x")
	assert.ErrorIs(t, err, userDb.ErrNotFound)
}

func TestManager_SweepDropsIdleBattles(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := newTestManager(t, dbtest.New(t), testConfig(clock))

	idle, err := m.CreateBattle(context.Background(), BattleRequest{AuthorID: "x"})
	require.NoError(t, err)

	m.sweep(clock.Now().Add(2 * time.Hour))

	_, err = m.Battle(idle.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
