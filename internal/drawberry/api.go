package drawberry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/drawberry-games/drawberry/internal/competitive"
	userDb "github.com/drawberry-games/drawberry/internal/database/user/database"
	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/server"
	"github.com/drawberry-games/drawberry/internal/teambattle"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize       = 256
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RoomView struct {
	Code      int64                `json:"code"`
	AuthorID  string               `json:"authorId"`
	Phase     competitive.Phase    `json:"phase"`
	Round     int                  `json:"round"`
	MaxRounds int                  `json:"maxRounds"`
	TimeLeft  int                  `json:"timeLeft"`
	Players   []competitive.Player `json:"players"`
	JoinURL   string               `json:"joinUrl"`
}

func (m *Manager) view(session *competitive.Session) RoomView {
	return RoomView{
		Code:      session.Code,
		AuthorID:  session.Config.AuthorID,
		Phase:     session.Phase(),
		Round:     session.Round(),
		MaxRounds: session.Config.MaxRounds,
		TimeLeft:  session.TimeLeft(),
		Players:   session.Players(),
		JoinURL:   m.joinURL(session.Code),
	}
}

func (m *Manager) joinURL(code int64) string {
	return fmt.Sprintf("%s/rooms/%d", m.config.PublicURL, code)
}

// Handler serves the REST API, room event streams and the health check
func (m *Manager) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()

	r.Handle("/health", server.HandleHealth(ctx)).Methods(http.MethodGet)

	r.HandleFunc("/rooms", m.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}", m.handleRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/players", m.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/players/{player}", m.handleLeave).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{code}/start", m.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/strokes", m.handleAction(competitive.ActionStroke)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/powerups/{powerup}", m.handleAction(competitive.ActionPowerup)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/drawings", m.handleAction(competitive.ActionDrawing)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/votes", m.handleAction(competitive.ActionVote)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/ready", m.handleAction(competitive.ActionReady)).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}/standings", m.handleStandings).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/events", m.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/qr.png", m.handleQR).Methods(http.MethodGet)
	r.HandleFunc("/players/{player}/profile", m.handleProfile).Methods(http.MethodGet)
	m.battleRoutes(r)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logging.WithLogger(req.Context(), logging.FromContext(ctx))))
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins: m.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

func respondErr(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Named("drawberry.api").Errorf("request failed: %v", err)
	}

	respond(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, competitive.ErrPlayerNotFound),
		errors.Is(err, competitive.ErrPowerupNotFound),
		errors.Is(err, teambattle.ErrPlayerNotFound),
		errors.Is(err, userDb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, competitive.ErrNotAuthor),
		errors.Is(err, teambattle.ErrNotAuthor),
		errors.Is(err, teambattle.ErrNotDrawer),
		errors.Is(err, teambattle.ErrNotGuesser):
		return http.StatusForbidden
	case errors.Is(err, competitive.ErrWrongPhase),
		errors.Is(err, competitive.ErrStaleRound),
		errors.Is(err, competitive.ErrRoomFull),
		errors.Is(err, competitive.ErrBallotFull),
		errors.Is(err, competitive.ErrNoStrokesLeft),
		errors.Is(err, teambattle.ErrWrongPhase),
		errors.Is(err, teambattle.ErrRoomFull),
		errors.Is(err, teambattle.ErrDrawingNotReady),
		errors.Is(err, teambattle.ErrDrawingsComplete),
		errors.Is(err, teambattle.ErrTeamDone):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, competitive.ErrSelfVote),
		errors.Is(err, competitive.ErrEmptyDrawing),
		errors.Is(err, competitive.ErrInvalidPick),
		errors.Is(err, competitive.ErrInvalidName),
		errors.Is(err, competitive.ErrNotEnoughPlayers),
		errors.Is(err, competitive.ErrUnknownAction),
		errors.Is(err, teambattle.ErrInvalidName),
		errors.Is(err, teambattle.ErrUnevenTeams),
		errors.Is(err, teambattle.ErrEmptyDrawing),
		errors.Is(err, teambattle.ErrEmptyGuess):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, ErrInvalidRequest)
	}

	return nil
}

func (m *Manager) roomFromPath(r *http.Request) (*competitive.Session, error) {
	code, err := strconv.ParseInt(mux.Vars(r)["code"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("room code %q: %w", mux.Vars(r)["code"], ErrInvalidRequest)
	}

	return m.Session(code)
}

func (m *Manager) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decode(r, &req); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	session, err := m.Create(r.Context(), req)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusCreated, m.view(session))
}

func (m *Manager) handleRoom(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusOK, m.view(session))
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

func (m *Manager) handleJoin(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	var req joinRequest
	if err := decode(r, &req); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	if err := m.Join(session.Code, req.PlayerID, req.Name); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusOK, m.view(session))
}

func (m *Manager) handleLeave(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	if err := m.Leave(session.Code, mux.Vars(r)["player"]); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}

type actionRequest struct {
	PlayerID string `json:"playerId"`
	Round    int    `json:"round"`
	Ref      string `json:"ref"`
	TargetID string `json:"targetId"`
	Pick     int    `json:"pick"`
}

func (m *Manager) handleStart(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	var req actionRequest
	if err := decode(r, &req); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	if err := m.Start(session.Code, req.PlayerID); err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusOK, m.view(session))
}

func (m *Manager) handleAction(kind competitive.ActionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := m.roomFromPath(r)
		if err != nil {
			respondErr(r.Context(), w, err)
			return
		}

		var req actionRequest
		if err := decode(r, &req); err != nil {
			respondErr(r.Context(), w, err)
			return
		}

		action := competitive.Action{
			Round:    req.Round,
			PlayerID: req.PlayerID,
			Kind:     kind,
			Ref:      req.Ref,
			TargetID: req.TargetID,
			Pick:     req.Pick,
		}
		if kind == competitive.ActionPowerup {
			action.Ref = mux.Vars(r)["powerup"]
		}

		if err := m.Dispatch(r.Context(), session.Code, action); err != nil {
			respondErr(r.Context(), w, err)
			return
		}

		respond(w, http.StatusOK, m.view(session))
	}
}

func (m *Manager) handleStandings(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, session.RenderStandings())
}

func (m *Manager) handleQR(w http.ResponseWriter, r *http.Request) {
	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	png, err := qrcode.Encode(m.joinURL(session.Code), qrcode.Medium, qrSize)
	if err != nil {
		respondErr(r.Context(), w, fmt.Errorf("qr encode: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (m *Manager) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := m.Profile(mux.Vars(r)["player"])
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	respond(w, http.StatusOK, profile)
}

// handleEvents streams room events over a websocket until the match finishes or the client goes away
func (m *Manager) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context()).Named("drawberry.handleEvents")

	session, err := m.roomFromPath(r)
	if err != nil {
		respondErr(r.Context(), w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := session.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(m.view(session)); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(e); err != nil {
				logger.Debugf("write event: %v", err)
				return
			}

			if e.Kind == competitive.EventFinished {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"))
				return
			}
		}
	}
}
