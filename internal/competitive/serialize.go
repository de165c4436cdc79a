package competitive

import (
	"fmt"

	"github.com/drawberry-games/drawberry/internal/database/matchstate/model"
	"github.com/drawberry-games/drawberry/internal/score"
)

// Snapshot captures what survives a restart: the configuration, the round and cumulative scores
func (s *Session) Snapshot() model.State {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	players := make([]*model.Player, len(s.players))
	for i, p := range s.players {
		players[i] = &model.Player{
			ID:           p.ID,
			Name:         p.Name,
			Score:        p.Score,
			FirstPlaces:  p.FirstPlaces,
			SecondPlaces: p.SecondPlaces,
			Votes:        p.TotalVotes,
		}
	}

	return model.State{
		Code:             s.Code,
		AuthorID:         s.Config.AuthorID,
		MaxPlayers:       s.Config.MaxPlayers,
		MinPlayers:       s.Config.MinPlayers,
		MaxRounds:        s.Config.MaxRounds,
		RoundTime:        s.Config.RoundTime,
		VoteTime:         s.Config.VoteTime,
		ReadyTime:        s.Config.ReadyTime,
		StrokesPerPlayer: s.Config.StrokesPerPlayer,
		Powerups:         s.Config.Powerups,
		VoteWeights:      s.Config.VoteWeights,
		FirstPlace:       s.Config.Policy.FirstPlace,
		SecondPlace:      s.Config.Policy.SecondPlace,
		Phase:            uint8(s.phase),
		Round:            s.gate.Round(),
		Players:          players,
		CreatedAt:        s.CreatedAt,
	}
}

// Restore rebuilds a session from a snapshot. A match saved while drawing or voting resumes at
// the start of the saved round, per-round progress is lost. A match saved after its round was
// scored resumes on the standings screen so the round is never scored twice.
func Restore(state model.State, config Config) (*Session, error) {
	phase := Phase(state.Phase)
	if phase == PhaseFinished {
		return nil, fmt.Errorf("restore room %d: %w", state.Code, ErrWrongPhase)
	}

	config.Code = state.Code
	config.AuthorID = state.AuthorID
	config.MaxPlayers = state.MaxPlayers
	config.MinPlayers = state.MinPlayers
	config.MaxRounds = state.MaxRounds
	config.RoundTime = state.RoundTime
	config.VoteTime = state.VoteTime
	config.ReadyTime = state.ReadyTime
	config.StrokesPerPlayer = state.StrokesPerPlayer
	config.Powerups = state.Powerups
	config.VoteWeights = state.VoteWeights
	config.Policy = score.Policy{FirstPlace: state.FirstPlace, SecondPlace: state.SecondPlace}

	s := NewSession(config)
	s.CreatedAt = state.CreatedAt

	for _, p := range state.Players {
		player := NewPlayer(p.ID, p.Name)
		player.Score = p.Score
		player.FirstPlaces = p.FirstPlaces
		player.SecondPlaces = p.SecondPlaces
		player.TotalVotes = p.Votes
		s.players = append(s.players, player)
	}

	if phase == PhaseWaiting || phase == 0 {
		return s, nil
	}

	if len(s.players) == 0 {
		return nil, fmt.Errorf("restore room %d: %w", state.Code, ErrNotEnoughPlayers)
	}

	s.register()
	s.gate.Seek(state.Round)

	switch phase {
	case PhaseResults, PhaseStandings:
		// every ballot of this round was settled before it was scored
		for _, p := range s.players {
			_ = s.gate.RecordAction(p.ID)
		}
		s.phase = PhaseStandings
		s.timeLeft = seconds(s.Config.ReadyTime)
	default:
		s.startRound()
	}
	s.pending = nil

	return s, nil
}
