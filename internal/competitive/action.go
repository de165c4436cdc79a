package competitive

import "fmt"

var ErrUnknownAction = fmt.Errorf("unknown action")

type ActionKind string

const (
	ActionStroke  ActionKind = "stroke"
	ActionPowerup ActionKind = "powerup"
	ActionDrawing ActionKind = "drawing"
	ActionVote    ActionKind = "vote"
	ActionReady   ActionKind = "ready"
	ActionLeave   ActionKind = "leave"
)

// Action is a "player acted" notification. Round 0 targets the round in progress.
type Action struct {
	Round    int        `json:"round"`
	PlayerID string     `json:"player_id"`
	Kind     ActionKind `json:"action"`
	// Drawing reference or powerup id
	Ref      string `json:"ref,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	// Ballot position of a vote, 1 is the best pick. 0 takes the first free position.
	Pick int `json:"pick,omitempty"`
}

func (s *Session) Apply(a Action) error {
	switch a.Kind {
	case ActionStroke:
		return s.RecordStroke(a.Round, a.PlayerID)
	case ActionPowerup:
		return s.ActivatePowerup(a.Round, a.PlayerID, a.Ref)
	case ActionDrawing:
		return s.SubmitDrawing(a.Round, a.PlayerID, a.Ref)
	case ActionVote:
		return s.VotePick(a.Round, a.PlayerID, a.TargetID, a.Pick)
	case ActionReady:
		return s.Ready(a.Round, a.PlayerID)
	case ActionLeave:
		return s.Leave(a.PlayerID)
	default:
		return fmt.Errorf("apply %q: %w", a.Kind, ErrUnknownAction)
	}
}
