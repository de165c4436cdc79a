package model

import "time"

// Player is the persisted part of a match participant, only cumulative state survives a restart
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	// Medals won so far
	FirstPlaces  int `json:"firstPlaces"`
	SecondPlaces int `json:"secondPlaces"`
	Votes        int `json:"votes"`
}

type State struct {
	Code     int64  `json:"code"`
	AuthorID string `json:"authorId"`

	MaxPlayers       int           `json:"maxPlayers"`
	MinPlayers       int           `json:"minPlayers"`
	MaxRounds        int           `json:"maxRounds"`
	RoundTime        time.Duration `json:"roundTime"`
	VoteTime         time.Duration `json:"voteTime"`
	ReadyTime        time.Duration `json:"readyTime"`
	StrokesPerPlayer int           `json:"strokesPerPlayer"`
	Powerups         bool          `json:"powerups"`
	VoteWeights      []int         `json:"voteWeights"`
	FirstPlace       int           `json:"firstPlace"`
	SecondPlace      int           `json:"secondPlace"`

	Phase   uint8     `json:"phase"`
	Round   int       `json:"round"`
	Players []*Player `json:"players"`

	CreatedAt time.Time `json:"createdAt"`
}
