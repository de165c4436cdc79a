package score

import (
	"fmt"
	"slices"
)

const (
	FirstPlaceScore  = 3
	SecondPlaceScore = 1
)

var ErrNegativeVotes = fmt.Errorf("negative vote count")

type Place uint8

const (
	PlaceNone Place = iota
	PlaceFirst
	PlaceSecond
)

type Policy struct {
	FirstPlace  int `json:"firstPlace"`
	SecondPlace int `json:"secondPlace"`
}

var DefaultPolicy = Policy{FirstPlace: FirstPlaceScore, SecondPlace: SecondPlaceScore}

func (p Policy) points(place Place) int {
	switch place {
	case PlaceFirst:
		return p.FirstPlace
	case PlaceSecond:
		return p.SecondPlace
	default:
		return 0
	}
}

func NewTally(playerID string, votes int) (Tally, error) {
	if votes < 0 {
		return Tally{}, fmt.Errorf("tally %q with %d votes: %w", playerID, votes, ErrNegativeVotes)
	}

	return Tally{PlayerID: playerID, Votes: votes}, nil
}

// Tally is the number of votes a player received in one round
type Tally struct {
	PlayerID string
	Votes    int
}

type Placement struct {
	PlayerID string `json:"playerId"`
	Votes    int    `json:"votes"`
	// Rank is the standard competition rank, tied players share it
	Rank int `json:"rank"`
	// Place is the award group, first-place run, the next run, or none
	Place  Place `json:"place"`
	Points int   `json:"points"`
}

type Outcome struct {
	Placements []Placement `json:"placements"`
}

// Board receives awarded points
type Board interface {
	Award(playerID string, points int)
}

// Apply awards every placement its points. Callers apply an outcome once per round.
func (o Outcome) Apply(board Board) {
	for _, p := range o.Placements {
		if p.Points != 0 {
			board.Award(p.PlayerID, p.Points)
		}
	}
}

func (o Outcome) Winners() []Placement {
	return o.byPlace(PlaceFirst)
}

func (o Outcome) RunnersUp() []Placement {
	return o.byPlace(PlaceSecond)
}

func (o Outcome) byPlace(place Place) []Placement {
	var list []Placement
	for _, p := range o.Placements {
		if p.Place == place {
			list = append(list, p)
		}
	}

	return list
}

func NewCollator(policy Policy) *Collator {
	return &Collator{policy: policy}
}

type Collator struct {
	policy Policy
}

// Collate ranks a round's tallies. The leading run of equal vote counts takes first place,
// the following run takes second place, everyone else gets nothing.
func (c *Collator) Collate(tallies []Tally) Outcome {
	if len(tallies) == 0 {
		return Outcome{}
	}

	sorted := slices.Clone(tallies)
	slices.SortStableFunc(sorted, func(a, b Tally) int {
		return b.Votes - a.Votes
	})

	placements := make([]Placement, 0, len(sorted))
	for i, run := range runs(sorted, func(t Tally) int { return t.Votes }) {
		place := PlaceNone
		if i < int(PlaceSecond) {
			place = Place(i + 1)
		}

		rank := len(placements) + 1
		for _, t := range run {
			placements = append(placements, Placement{
				PlayerID: t.PlayerID,
				Votes:    t.Votes,
				Rank:     rank,
				Place:    place,
				Points:   c.policy.points(place),
			})
		}
	}

	return Outcome{Placements: placements}
}

// runs splits a sorted slice into maximal runs sharing the same key
func runs[T any](sorted []T, key func(T) int) [][]T {
	var groups [][]T
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || key(sorted[i]) != key(sorted[start]) {
			groups = append(groups, sorted[start:i])
			start = i
		}
	}

	return groups
}
