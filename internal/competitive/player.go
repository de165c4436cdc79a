package competitive

import "slices"

func NewPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Score        int `json:"score"`
	FirstPlaces  int `json:"firstPlaces"`
	SecondPlaces int `json:"secondPlaces"`
	TotalVotes   int `json:"totalVotes"`

	// state of the round in progress
	Strokes       int       `json:"strokes"`
	ExtraStrokes  int       `json:"extraStrokes"`
	DrawingRef    string    `json:"drawingRef,omitempty"`
	VotesReceived int       `json:"votesReceived"`
	VotedFor      []string  `json:"votedFor,omitempty"`
	Powerups      []Powerup `json:"powerups,omitempty"`
	FadedFor      int       `json:"fadedFor,omitempty"`
}

func (p *Player) StrokesLeft(perPlayer int) int {
	left := perPlayer + p.ExtraStrokes - p.Strokes
	if left < 0 {
		return 0
	}

	return left
}

func (p *Player) Faded() bool {
	return p.FadedFor > 0
}

func (p *Player) hasVotedFor(id string) bool {
	return slices.Contains(p.VotedFor, id)
}

// picks counts the filled ballot positions
func (p *Player) picks() int {
	n := 0
	for _, id := range p.VotedFor {
		if id != "" {
			n++
		}
	}

	return n
}

// freePick is the first empty ballot position, 1-based
func (p *Player) freePick() int {
	for i, id := range p.VotedFor {
		if id == "" {
			return i + 1
		}
	}

	return len(p.VotedFor) + 1
}

func (p *Player) pickTaken(position int) bool {
	return position <= len(p.VotedFor) && p.VotedFor[position-1] != ""
}

func (p *Player) pick(position int, targetID string) {
	for len(p.VotedFor) < position {
		p.VotedFor = append(p.VotedFor, "")
	}
	p.VotedFor[position-1] = targetID
}

func (p *Player) resetRound() {
	p.Strokes = 0
	p.ExtraStrokes = 0
	p.DrawingRef = ""
	p.VotesReceived = 0
	p.VotedFor = nil
	p.Powerups = nil
	p.FadedFor = 0
}

func (p *Player) clone() Player {
	c := *p
	c.VotedFor = slices.Clone(p.VotedFor)
	c.Powerups = slices.Clone(p.Powerups)
	return c
}

// roster keeps join order and receives awarded points
type roster []*Player

func (r roster) find(id string) (*Player, bool) {
	for _, p := range r {
		if p.ID == id {
			return p, true
		}
	}

	return nil, false
}

func (r roster) Award(playerID string, points int) {
	if p, ok := r.find(playerID); ok {
		p.Score += points
	}
}

func (r roster) ids() []string {
	list := make([]string, len(r))
	for i, p := range r {
		list[i] = p.ID
	}

	return list
}
