package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusFavorite    Status = "favorite"
	StatusParticipant Status = "participant"
)

func NewStat(userID string) Stat {
	return Stat{ID: uuid.New(), UserID: userID, Conclusion: StatusParticipant, CreatedAt: time.Now()}
}

// Stat is one player's result of one finished match
type Stat struct {
	ID     uuid.UUID `json:"-"`
	UserID string    `json:"userID"`
	Code   int64     `json:"code"`

	Points int `json:"points"`
	// Final standing rank, tied players share it
	Place int `json:"place"`

	FirstPlaces   int `json:"firstPlaces"`
	SecondPlaces  int `json:"secondPlaces"`
	VotesReceived int `json:"votesReceived"`

	RoundsNum  int       `json:"roundsNum"`
	PlayersNum int       `json:"playersNum"`
	Conclusion Status    `json:"conclusion"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AggregationStat struct {
	Count        int `json:"count"`
	Stars        int `json:"stars"`
	FirstPlaces  int `json:"firstPlaces"`
	SecondPlaces int `json:"secondPlaces"`
	TotalVotes   int `json:"totalVotes"`
	AvgPoints    int `json:"avgPoints"`
	BestPoints   int `json:"bestPoints"`
	WorstPoints  int `json:"worstPoints"`
	BestPlace    int `json:"bestPlace"`
}

// Aggregate folds a player's match history into the profile summary
func Aggregate(stats []Stat) AggregationStat {
	var agg AggregationStat
	var sumPoints int

	for i, stat := range stats {
		if i == 0 || stat.Points > agg.BestPoints {
			agg.BestPoints = stat.Points
		}

		if i == 0 || stat.Points < agg.WorstPoints {
			agg.WorstPoints = stat.Points
		}

		if stat.Place > 0 && (agg.BestPlace == 0 || stat.Place < agg.BestPlace) {
			agg.BestPlace = stat.Place
		}

		if stat.Conclusion == StatusFavorite {
			agg.Stars++
		}

		sumPoints += stat.Points
		agg.FirstPlaces += stat.FirstPlaces
		agg.SecondPlaces += stat.SecondPlaces
		agg.TotalVotes += stat.VotesReceived
		agg.Count++
	}

	if agg.Count > 0 {
		agg.AvgPoints = sumPoints / agg.Count
	}

	return agg
}
