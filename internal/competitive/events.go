package competitive

import (
	"fmt"

	"github.com/drawberry-games/drawberry/internal/score"
)

const subscriberBuffer = 64

type Phase uint8

const (
	PhaseWaiting Phase = iota + 1
	PhaseDrawing
	PhaseVoting
	PhaseResults
	PhaseStandings
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseWaiting:   "waiting",
	PhaseDrawing:   "drawing",
	PhaseVoting:    "voting",
	PhaseResults:   "results",
	PhaseStandings: "standings",
	PhaseFinished:  "finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}

	return fmt.Errorf("unknown phase %q", text)
}

type EventKind string

const (
	EventPlayerJoined     EventKind = "player_joined"
	EventPlayerLeft       EventKind = "player_left"
	EventRoundStarted     EventKind = "round_started"
	EventTick             EventKind = "tick"
	EventStroke           EventKind = "stroke"
	EventPowerupSpawned   EventKind = "powerup_spawned"
	EventPowerupActivated EventKind = "powerup_activated"
	EventFadeExpired      EventKind = "fade_expired"
	EventDrawingSubmitted EventKind = "drawing_submitted"
	EventVotingOpened     EventKind = "voting_opened"
	EventVoted            EventKind = "voted"
	EventResults          EventKind = "results"
	EventStandings        EventKind = "standings"
	EventPlayerReady      EventKind = "player_ready"
	EventFinished         EventKind = "finished"
)

// Event is a notification for the presentation layer
type Event struct {
	Kind     EventKind `json:"kind"`
	Code     int64     `json:"code"`
	Round    int       `json:"round"`
	Phase    Phase     `json:"phase"`
	TimeLeft int       `json:"timeLeft"`

	PlayerID string `json:"playerId,omitempty"`
	// Players that had not acted when a phase was closed by the timer
	Missing   []string         `json:"missing,omitempty"`
	Targets   []string         `json:"targets,omitempty"`
	Powerup   *Powerup         `json:"powerup,omitempty"`
	Outcome   *score.Outcome   `json:"outcome,omitempty"`
	Standings []score.Standing `json:"standings,omitempty"`
	Text      string           `json:"text,omitempty"`
}

// Subscribe returns a channel of session events and a function that cancels the subscription.
// A subscriber that does not keep up loses events. The channel is closed when the session
// stops, a stopped session hands out closed channels.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMtx.Lock()
	defer s.subMtx.Unlock()

	if s.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	return ch, func() {
		s.subMtx.Lock()
		defer s.subMtx.Unlock()
		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subMtx.Lock()
	defer s.subMtx.Unlock()

	s.subsClosed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// emit queues an event, the caller holds the session lock
func (s *Session) emit(e Event) {
	e.Code = s.Config.Code
	e.Round = s.gate.Round()
	e.Phase = s.phase
	e.TimeLeft = s.timeLeft
	s.pending = append(s.pending, e)
}

func (s *Session) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	s.subMtx.Lock()
	defer s.subMtx.Unlock()

	for _, e := range events {
		for id, ch := range s.subs {
			select {
			case ch <- e:
			default:
				s.logger().Warnf("subscriber %d of room %d is full, dropping %s", id, s.Config.Code, e.Kind)
			}
		}
	}
}
