package teambattle

import (
	"fmt"

	"github.com/drawberry-games/drawberry/internal/round"
)

type Phase uint8

const (
	PhaseWaiting Phase = iota + 1
	PhasePlaying
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseWaiting:  "waiting",
	PhasePlaying:  "playing",
	PhaseFinished: "finished",
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

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Result counts a guesser's answers over the battle
type Result struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Skipped   int `json:"skipped"`
}

func (r *Result) addCorrectGuess() {
	r.Correct++
}

func (r *Result) addIncorrectGuess() {
	r.Incorrect++
}

// Team pairs a drawer with a guesser. The drawer works through the topics at their own pace,
// the guesser follows one round behind at most as far as the drawings go.
type Team struct {
	ID       string   `json:"id"`
	Drawer   Member   `json:"drawer"`
	Guesser  Member   `json:"guesser"`
	Drawings []string `json:"drawings"`
	Result   Result   `json:"result"`
	// guesser resolved the last round
	Done bool `json:"done"`
	// a member left, the team no longer plays
	Dissolved bool `json:"dissolved"`
	// Round the guesser is on
	Round int `json:"round"`

	topics []string
	gate   *round.Gate
}

func newTeam(n int, drawer, guesser Member, topics []string) *Team {
	return &Team{
		ID:      fmt.Sprintf("team-%d", n),
		Drawer:  drawer,
		Guesser: guesser,
		Round:   1,
		topics:  topics,
		gate:    round.NewGate(len(topics), guesser.ID),
	}
}

func (t *Team) Name() string {
	return t.Drawer.Name + " & " + t.Guesser.Name
}

func (t *Team) playing() bool {
	return !t.Done && !t.Dissolved
}

// drawingReady reports whether the guesser's current round has a drawing
func (t *Team) drawingReady() bool {
	return len(t.Drawings) >= t.gate.Round()
}

// unresolved counts the rounds the guesser has not finished
func (t *Team) unresolved() int {
	if !t.playing() {
		return 0
	}

	return t.gate.MaxRounds() - t.gate.Round() + 1
}

func (t *Team) clone() Team {
	c := *t
	c.Drawings = append([]string(nil), t.Drawings...)
	c.topics = nil
	c.gate = nil

	return c
}
