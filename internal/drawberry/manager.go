package drawberry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drawberry-games/drawberry/internal/competitive"
	stateDb "github.com/drawberry-games/drawberry/internal/database/matchstate/database"
	statDb "github.com/drawberry-games/drawberry/internal/database/stat/database"
	statModel "github.com/drawberry-games/drawberry/internal/database/stat/model"
	userDb "github.com/drawberry-games/drawberry/internal/database/user/database"
	userModel "github.com/drawberry-games/drawberry/internal/database/user/model"
	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/score"
	"github.com/drawberry-games/drawberry/internal/teambattle"
	"github.com/drawberry-games/drawberry/internal/util"
	"github.com/jonboulle/clockwork"
)

const codeAttempts = 16

var (
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrCodeExhausted  = fmt.Errorf("no free room code")
	ErrInvalidRequest = fmt.Errorf("invalid request")
)

func NewManager(ctx context.Context, config *Config, userDB *userDb.DB, statDB *statDb.DB, stateDB *stateDb.DB) *Manager {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctxSess, cancelSess := context.WithCancel(logging.WithLogger(context.Background(), logging.FromContext(ctx)))

	return &Manager{
		config:     config,
		clock:      clock,
		sessions:   map[int64]*competitive.Session{},
		battles:    map[int64]*teambattle.Battle{},
		userDB:     userDB,
		statDB:     statDB,
		stateDB:    stateDB,
		ctxSess:    ctxSess,
		cancelSess: cancelSess,
		hash:       util.GenerateCodeHash,
	}
}

type Manager struct {
	mtx sync.RWMutex

	config *Config
	clock  clockwork.Clock
	// key: generated room code
	sessions map[int64]*competitive.Session
	// team battles share the code space with rooms
	battles map[int64]*teambattle.Battle

	userDB  *userDb.DB
	statDB  *statDb.DB
	stateDB *stateDb.DB

	// sessions outlive the request that created them
	ctxSess    context.Context
	cancelSess func()

	hash func() (int64, error)
}

// Run restores rooms saved by the previous process and sweeps stale rooms until ctx is done,
// then saves the rooms still in progress
func (m *Manager) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("drawberry.Manager.Run")

	if err := m.deserialize(); err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	ticker := m.clock.NewTicker(m.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("shutting down, saving rooms")
			m.shutdown()
			return nil
		case <-ticker.Chan():
			m.sweep(m.clock.Now())
		}
	}
}

func (m *Manager) sessionConfig(code int64, authorID string, game GameConfig) competitive.Config {
	config := competitive.DefaultConfig()
	config.Code = code
	config.AuthorID = authorID
	config.MaxPlayers = game.MaxPlayers
	config.MinPlayers = game.MinPlayers
	config.MaxRounds = game.MaxRounds
	config.RoundTime = game.RoundTime
	config.VoteTime = game.VoteTime
	config.ReadyTime = game.ReadyTime
	config.StrokesPerPlayer = game.StrokesPerPlayer
	config.Powerups = game.Powerups
	config.Policy = score.Policy{FirstPlace: game.FirstPlacePoints, SecondPlace: game.SecondPlacePoints}
	config.Clock = m.clock
	config.Timeout = m.config.PlayingTimeout
	config.DoneFn = m.matchDoneFn

	return config
}

type CreateRequest struct {
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	MaxPlayers int    `json:"maxPlayers"`
	MaxRounds  int    `json:"maxRounds"`
	// seconds
	RoundTime int   `json:"roundTime"`
	VoteTime  int   `json:"voteTime"`
	Powerups  *bool `json:"powerups"`
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*competitive.Session, error) {
	logger := logging.FromContext(ctx).Named("drawberry.Manager.Create")

	if req.AuthorID == "" {
		return nil, fmt.Errorf("author id is empty: %w", ErrInvalidRequest)
	}

	game := m.config.Game
	if req.MaxPlayers > 0 {
		game.MaxPlayers = req.MaxPlayers
	}
	if req.MaxRounds > 0 {
		game.MaxRounds = req.MaxRounds
	}
	if req.RoundTime > 0 {
		game.RoundTime = time.Duration(req.RoundTime) * time.Second
	}
	if req.VoteTime > 0 {
		game.VoteTime = time.Duration(req.VoteTime) * time.Second
	}
	if req.Powerups != nil {
		game.Powerups = *req.Powerups
	}

	m.mtx.Lock()
	code, err := m.freeCode()
	if err != nil {
		m.mtx.Unlock()
		return nil, fmt.Errorf("room code: %w", err)
	}

	// the room is published only with its author inside
	session := competitive.NewSession(m.sessionConfig(code, req.AuthorID, game))
	if err := session.Join(req.AuthorID, req.AuthorName); err != nil {
		m.mtx.Unlock()
		return nil, fmt.Errorf("join author: %w", err)
	}
	m.sessions[code] = session
	m.mtx.Unlock()

	if _, err := m.userDB.FetchOrCreate(req.AuthorID, req.AuthorName); err != nil {
		m.mtx.Lock()
		delete(m.sessions, code)
		m.mtx.Unlock()
		return nil, fmt.Errorf("fetch author: %w", err)
	}

	session.Run(m.ctxSess)
	logger.Infof("room %d created by %s", code, req.AuthorID)

	return session, nil
}

// freeCode picks a code no live room uses, the caller holds the lock
func (m *Manager) freeCode() (int64, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := m.hash()
		if err != nil {
			return 0, fmt.Errorf("hash: %w", err)
		}

		_, room := m.sessions[code]
		_, battle := m.battles[code]
		if !room && !battle && code != 0 {
			return code, nil
		}
	}

	return 0, ErrCodeExhausted
}

func (m *Manager) Session(code int64) (*competitive.Session, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	session, ok := m.sessions[code]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", code, ErrRoomNotFound)
	}

	return session, nil
}

// SessionOf finds the live room the player is in
func (m *Manager) SessionOf(playerID string) (*competitive.Session, bool) {
	m.mtx.RLock()
	sessions := make([]*competitive.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mtx.RUnlock()

	for _, s := range sessions {
		if s.HasPlayer(playerID) {
			return s, true
		}
	}

	return nil, false
}

func (m *Manager) Join(code int64, playerID, name string) error {
	if playerID == "" {
		return fmt.Errorf("player id is empty: %w", ErrInvalidRequest)
	}

	session, err := m.Session(code)
	if err != nil {
		return err
	}

	if err := session.Join(playerID, name); err != nil {
		return fmt.Errorf("join room %d: %w", code, err)
	}

	if _, err := m.userDB.FetchOrCreate(playerID, name); err != nil {
		return fmt.Errorf("fetch player: %w", err)
	}

	return nil
}

func (m *Manager) Start(code int64, playerID string) error {
	session, err := m.Session(code)
	if err != nil {
		return err
	}

	if err := session.Start(playerID); err != nil {
		return fmt.Errorf("start room %d: %w", code, err)
	}

	return nil
}

func (m *Manager) Leave(code int64, playerID string) error {
	return m.Dispatch(context.Background(), code, competitive.Action{Kind: competitive.ActionLeave, PlayerID: playerID})
}

// Dispatch applies a player action to a room. The session lock is taken outside the manager
// lock so a finishing match can unregister itself.
func (m *Manager) Dispatch(ctx context.Context, code int64, action competitive.Action) error {
	session, err := m.Session(code)
	if err != nil {
		return err
	}

	if err := session.Apply(action); err != nil {
		return fmt.Errorf("room %d: %w", code, err)
	}

	return nil
}

type Profile struct {
	User  userModel.User            `json:"user"`
	Stats statModel.AggregationStat `json:"stats"`
}

func (m *Manager) Profile(playerID string) (Profile, error) {
	var profile Profile

	u, err := m.userDB.Fetch(playerID)
	if err != nil {
		return profile, fmt.Errorf("fetch user: %w", err)
	}
	profile.User = u

	stats, err := m.statDB.FetchProfileStat(playerID)
	if err != nil && !errors.Is(err, statDb.ErrNotFound) {
		return profile, fmt.Errorf("fetch profile stat: %w", err)
	}
	profile.Stats = stats

	return profile, nil
}

func (m *Manager) matchDoneFn(session *competitive.Session) error {
	m.mtx.Lock()
	delete(m.sessions, session.Code)
	m.mtx.Unlock()

	if !session.Started() {
		return nil
	}

	if err := m.appendStat(session); err != nil {
		return fmt.Errorf("append stat: %w", err)
	}

	return nil
}

// appendStat stores one stat per player and a star for every winner
func (m *Manager) appendStat(session *competitive.Session) error {
	players := map[string]competitive.Player{}
	for _, p := range session.Players() {
		players[p.ID] = p
	}

	standings := session.Standings()
	for _, standing := range standings {
		p := players[standing.PlayerID]

		stat := statModel.NewStat(p.ID)
		stat.Code = session.Code
		stat.Points = standing.Score
		stat.Place = standing.Rank
		stat.FirstPlaces = p.FirstPlaces
		stat.SecondPlaces = p.SecondPlaces
		stat.VotesReceived = p.TotalVotes
		stat.RoundsNum = session.Round()
		stat.PlayersNum = len(standings)
		if standing.Rank == 1 {
			stat.Conclusion = statModel.StatusFavorite
		}

		if err := m.statDB.Add(stat); err != nil {
			return fmt.Errorf("stat db add: %w", err)
		}

		u, err := m.userDB.FetchOrCreate(p.ID, p.Name)
		if err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}

		u.Games++
		if standing.Rank == 1 {
			u.Stars++
		}

		if err := m.userDB.Store(u); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
	}

	return nil
}

// sweep drops rooms and battles that never started within BuildingTimeout
func (m *Manager) sweep(now time.Time) {
	m.mtx.Lock()
	var stale []func()
	for code, s := range m.sessions {
		if s.Phase() == competitive.PhaseWaiting && now.Sub(s.CreatedAt) > m.config.BuildingTimeout {
			stale = append(stale, s.Stop)
			delete(m.sessions, code)
		}
	}
	for code, b := range m.battles {
		if b.Phase() == teambattle.PhaseWaiting && now.Sub(b.CreatedAt) > m.config.BuildingTimeout {
			stale = append(stale, b.Stop)
			delete(m.battles, code)
		}
	}
	m.mtx.Unlock()

	for _, stop := range stale {
		stop()
	}
}

func (m *Manager) serialize(session *competitive.Session) error {
	if err := m.stateDB.Add(session.Snapshot()); err != nil {
		return fmt.Errorf("state db add: %w", err)
	}

	return nil
}

func (m *Manager) deserialize() error {
	logger := logging.FromContext(m.ctxSess).Named("drawberry.Manager.deserialize")

	states, err := m.stateDB.FetchAll()
	if err != nil && !errors.Is(err, stateDb.ErrEntryNotFound) {
		return fmt.Errorf("state db fetch all: %w", err)
	}

	for _, state := range states {
		session, err := competitive.Restore(state, m.sessionConfig(state.Code, state.AuthorID, m.config.Game))
		if err != nil {
			logger.Warnf("skip room %d: %v", state.Code, err)
			continue
		}

		m.mtx.Lock()
		m.sessions[session.Code] = session
		m.mtx.Unlock()

		session.Run(m.ctxSess)
		logger.Infof("room %d restored at round %d", session.Code, session.Round())
	}

	if len(states) > 0 {
		if err := m.stateDB.Clean(); err != nil && !errors.Is(err, stateDb.ErrBucketNotFound) {
			return fmt.Errorf("state db clean: %w", err)
		}
	}

	return nil
}

func (m *Manager) shutdown() {
	logger := logging.FromContext(m.ctxSess).Named("drawberry.Manager.shutdown")

	m.mtx.Lock()
	sessions := m.sessions
	m.sessions = map[int64]*competitive.Session{}
	battles := len(m.battles)
	m.battles = map[int64]*teambattle.Battle{}
	m.mtx.Unlock()

	m.cancelSess()

	if battles > 0 {
		logger.Infof("dropping %d team battles", battles)
	}

	for _, s := range sessions {
		if s.Phase() == competitive.PhaseFinished {
			continue
		}

		if err := m.serialize(s); err != nil {
			logger.Errorf("serialize room %d: %v", s.Code, err)
		}
	}
}
