package drawberry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/score"
	"github.com/drawberry-games/drawberry/internal/teambattle"
	"github.com/gorilla/mux"
)

type BattleRequest struct {
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	MaxPlayers int    `json:"maxPlayers"`
	MaxRounds  int    `json:"maxRounds"`
	// seconds
	MatchTime int    `json:"matchTime"`
	Words     string `json:"words"`
}

func (m *Manager) battleConfig(code int64, req BattleRequest) teambattle.Config {
	config := teambattle.Config{
		Code:       code,
		AuthorID:   req.AuthorID,
		MaxPlayers: m.config.Battle.MaxPlayers,
		MaxRounds:  m.config.Battle.MaxRounds,
		MatchTime:  m.config.Battle.MatchTime,
		Words:      m.config.Battle.Words,
		Clock:      m.clock,
		Timeout:    m.config.PlayingTimeout,
		DoneFn:     m.battleDoneFn,
	}
	if req.MaxPlayers > 0 {
		config.MaxPlayers = req.MaxPlayers
	}
	if req.MaxRounds > 0 {
		config.MaxRounds = req.MaxRounds
	}
	if req.MatchTime > 0 {
		config.MatchTime = time.Duration(req.MatchTime) * time.Second
	}
	if req.Words != "" {
		config.Words = req.Words
	}

	return config
}

// CreateBattle opens a team battle with its author as the first member
func (m *Manager) CreateBattle(ctx context.Context, req BattleRequest) (*teambattle.Battle, error) {
	logger := logging.FromContext(ctx).Named("drawberry.Manager.CreateBattle")

	if req.AuthorID == "" {
		return nil, fmt.Errorf("author id is empty: %w", ErrInvalidRequest)
	}

	m.mtx.Lock()
	code, err := m.freeCode()
	if err != nil {
		m.mtx.Unlock()
		return nil, fmt.Errorf("battle code: %w", err)
	}

	battle := teambattle.NewBattle(m.battleConfig(code, req))
	if err := battle.Join(req.AuthorID, req.AuthorName); err != nil {
		m.mtx.Unlock()
		return nil, fmt.Errorf("join author: %w", err)
	}
	m.battles[code] = battle
	m.mtx.Unlock()

	if _, err := m.userDB.FetchOrCreate(req.AuthorID, req.AuthorName); err != nil {
		m.mtx.Lock()
		delete(m.battles, code)
		m.mtx.Unlock()
		return nil, fmt.Errorf("fetch author: %w", err)
	}

	battle.Run(m.ctxSess)
	logger.Infof("team battle %d created by %s", code, req.AuthorID)

	return battle, nil
}

func (m *Manager) Battle(code int64) (*teambattle.Battle, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	battle, ok := m.battles[code]
	if !ok {
		return nil, fmt.Errorf("battle %d: %w", code, ErrRoomNotFound)
	}

	return battle, nil
}

func (m *Manager) JoinBattle(code int64, playerID, name string) error {
	if playerID == "" {
		return fmt.Errorf("player id is empty: %w", ErrInvalidRequest)
	}

	battle, err := m.Battle(code)
	if err != nil {
		return err
	}

	if err := battle.Join(playerID, name); err != nil {
		return fmt.Errorf("join battle %d: %w", code, err)
	}

	if _, err := m.userDB.FetchOrCreate(playerID, name); err != nil {
		return fmt.Errorf("fetch player: %w", err)
	}

	return nil
}

// battleDoneFn counts a game for every member still in a team and a star for the winning teams
func (m *Manager) battleDoneFn(battle *teambattle.Battle) error {
	m.mtx.Lock()
	delete(m.battles, battle.Code)
	m.mtx.Unlock()

	if !battle.Started() {
		return nil
	}

	winners := map[string]bool{}
	for _, s := range score.Leaders(battle.Standings()) {
		if s.Score > 0 {
			winners[s.PlayerID] = true
		}
	}

	for _, t := range battle.Teams() {
		if t.Dissolved {
			continue
		}

		for _, member := range []teambattle.Member{t.Drawer, t.Guesser} {
			u, err := m.userDB.FetchOrCreate(member.ID, member.Name)
			if err != nil {
				return fmt.Errorf("fetch user: %w", err)
			}

			u.Games++
			if winners[t.ID] {
				u.Stars++
			}

			if err := m.userDB.Store(u); err != nil {
				return fmt.Errorf("store user: %w", err)
			}
		}
	}

	return nil
}

type BattleView struct {
	Code      int64               `json:"code"`
	AuthorID  string              `json:"authorId"`
	Phase     teambattle.Phase    `json:"phase"`
	MaxRounds int                 `json:"maxRounds"`
	TimeLeft  int                 `json:"timeLeft"`
	AllDrawn  bool                `json:"allDrawn"`
	Members   []teambattle.Member `json:"members"`
	Teams     []teambattle.Team   `json:"teams,omitempty"`
	Standings []score.Standing    `json:"standings,omitempty"`
}

func battleView(battle *teambattle.Battle) BattleView {
	view := BattleView{
		Code:      battle.Code,
		AuthorID:  battle.Config.AuthorID,
		Phase:     battle.Phase(),
		MaxRounds: battle.Config.MaxRounds,
		TimeLeft:  battle.TimeLeft(),
		AllDrawn:  battle.AllDrawn(),
		Members:   battle.Members(),
		Teams:     battle.Teams(),
	}
	if view.Phase == teambattle.PhaseFinished {
		view.Standings = battle.Standings()
	}

	return view
}

func (m *Manager) battleFromPath(r *http.Request) (*teambattle.Battle, error) {
	code, err := strconv.ParseInt(mux.Vars(r)["code"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("battle code %q: %w", mux.Vars(r)["code"], ErrInvalidRequest)
	}

	return m.Battle(code)
}

func (m *Manager) battleRoutes(r *mux.Router) {
	r.HandleFunc("/battles", m.handleCreateBattle).Methods(http.MethodPost)
	r.HandleFunc("/battles/{code}", m.handleBattle(battleShow)).Methods(http.MethodGet)
	r.HandleFunc("/battles/{code}/players", m.handleBattle(battleJoin)).Methods(http.MethodPost)
	r.HandleFunc("/battles/{code}/players/{player}", m.handleBattle(battleLeave)).Methods(http.MethodDelete)
	r.HandleFunc("/battles/{code}/start", m.handleBattle(battleStart)).Methods(http.MethodPost)
	r.HandleFunc("/battles/{code}/topic", m.handleTopic).Methods(http.MethodGet)
	r.HandleFunc("/battles/{code}/drawings", m.handleBattle(battleDrawing)).Methods(http.MethodPost)
	r.HandleFunc("/battles/{code}/guesses", m.handleBattle(battleGuess)).Methods(http.MethodPost)
	r.HandleFunc("/battles/{code}/skip", m.handleBattle(battleSkip)).Methods(http.MethodPost)
}

type battleRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Ref      string `json:"ref"`
	Guess    string `json:"guess"`
}

type battleResponse struct {
	BattleView
	Round   int   `json:"round,omitempty"`
	Correct *bool `json:"correct,omitempty"`
}

type battleOp func(m *Manager, battle *teambattle.Battle, req battleRequest, resp *battleResponse) error

func battleShow(*Manager, *teambattle.Battle, battleRequest, *battleResponse) error {
	return nil
}

func battleJoin(m *Manager, battle *teambattle.Battle, req battleRequest, _ *battleResponse) error {
	return m.JoinBattle(battle.Code, req.PlayerID, req.Name)
}

func battleLeave(_ *Manager, battle *teambattle.Battle, req battleRequest, _ *battleResponse) error {
	return battle.Leave(req.PlayerID)
}

func battleStart(_ *Manager, battle *teambattle.Battle, req battleRequest, _ *battleResponse) error {
	return battle.Start(req.PlayerID)
}

func battleDrawing(_ *Manager, battle *teambattle.Battle, req battleRequest, resp *battleResponse) error {
	r, err := battle.SubmitDrawing(req.PlayerID, req.Ref)
	resp.Round = r
	return err
}

func battleGuess(_ *Manager, battle *teambattle.Battle, req battleRequest, resp *battleResponse) error {
	correct, err := battle.Guess(req.PlayerID, req.Guess)
	if err != nil {
		return err
	}
	resp.Correct = &correct

	return nil
}

func battleSkip(_ *Manager, battle *teambattle.Battle, req battleRequest, _ *battleResponse) error {
	return battle.Skip(req.PlayerID)
}

func (m *Manager) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var req BattleRequest
	if err := decode(r, &req); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	battle, err := m.CreateBattle(r.Context(), req)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusCreated, battleView(battle))
}

// handleBattle decodes the request body for every method but GET and DELETE, the leaving
// player of a DELETE comes from the path
func (m *Manager) handleBattle(op battleOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battle, err := m.battleFromPath(r)
		if err != nil {
			respondErr(r.Context(), w, err)
			return
		}

		var req battleRequest
		switch r.Method {
		case http.MethodGet:
		case http.MethodDelete:
			req.PlayerID = mux.Vars(r)["player"]
		default:
			if err := decode(r, &req); err != nil {
				respondErr(r.Context(), w, err)
				return
			}
		}

		var resp battleResponse
		if err := op(m, battle, req, &resp); err != nil {
			respondErr(r.Context(), w, fmt.Errorf("battle %d: %w", battle.Code, err))
			return
		}

		if r.Method == http.MethodDelete {
			respond(w, http.StatusNoContent, nil)
			return
		}

		resp.BattleView = battleView(battle)
		respond(w, http.StatusOK, resp)
	}
}

type topicResponse struct {
	Topic string `json:"topic"`
	Round int    `json:"round"`
}

func (m *Manager) handleTopic(w http.ResponseWriter, r *http.Request) {
	battle, err := m.battleFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	topic, round, err := battle.Topic(r.URL.Query().Get("player"))
	if err != nil {
		respondErr(r.Context(), w, fmt.Errorf("battle %d: %w", battle.Code, err))
		return
	}

	respond(w, http.StatusOK, topicResponse{Topic: topic, Round: round})
}
