package score

import "slices"

// Entry is a player's cumulative score
type Entry struct {
	PlayerID string
	Name     string
	Score    int
}

type Standing struct {
	Entry
	Rank int
}

// Standings sorts players by cumulative score with competition ranks, roster order breaks ties
func Standings(entries []Entry) []Standing {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return b.Score - a.Score
	})

	standings := make([]Standing, 0, len(sorted))
	for _, run := range runs(sorted, func(e Entry) int { return e.Score }) {
		rank := len(standings) + 1
		for _, e := range run {
			standings = append(standings, Standing{Entry: e, Rank: rank})
		}
	}

	return standings
}

// Leaders returns every player sharing the top rank
func Leaders(standings []Standing) []Standing {
	var leaders []Standing
	for _, s := range standings {
		if s.Rank == 1 {
			leaders = append(leaders, s)
		}
	}

	return leaders
}
