package competitive

import (
	"time"

	"github.com/drawberry-games/drawberry/internal/score"
	"github.com/jonboulle/clockwork"
)

const (
	defaultMaxPlayers         = 4
	defaultMinPlayers         = 2
	defaultMaxRounds          = 3
	defaultRoundTime          = 60 * time.Second
	defaultVoteTime           = 30 * time.Second
	defaultReadyTime          = 30 * time.Second
	defaultStrokesPerPlayer   = 1
	defaultFinishDrawingGrace = 3 * time.Second
	defaultPowerupChance      = 10
	defaultPowerupSpawnDelay  = 5 * time.Second
	defaultPowerupMinTimeLeft = 10 * time.Second
	defaultFadeDuration       = time.Second
	defaultTimeout            = 24 * time.Hour
)

// DefaultVoteWeights gives the best pick two votes and the second pick one
var DefaultVoteWeights = []int{2, 1}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:         defaultMaxPlayers,
		MinPlayers:         defaultMinPlayers,
		MaxRounds:          defaultMaxRounds,
		RoundTime:          defaultRoundTime,
		VoteTime:           defaultVoteTime,
		ReadyTime:          defaultReadyTime,
		StrokesPerPlayer:   defaultStrokesPerPlayer,
		FinishDrawingGrace: defaultFinishDrawingGrace,
		Powerups:           true,
		PowerupChance:      defaultPowerupChance,
		PowerupSpawnDelay:  defaultPowerupSpawnDelay,
		PowerupMinTimeLeft: defaultPowerupMinTimeLeft,
		FadeDuration:       defaultFadeDuration,
		VoteWeights:        DefaultVoteWeights,
		Policy:             score.DefaultPolicy,
		Timeout:            defaultTimeout,
	}
}

type Config struct {
	Code     int64  `json:"code"`
	AuthorID string `json:"authorId"`

	MaxPlayers int `json:"maxPlayers"`
	MinPlayers int `json:"minPlayers"`
	MaxRounds  int `json:"maxRounds"`

	RoundTime time.Duration `json:"roundTime"`
	VoteTime  time.Duration `json:"voteTime"`
	ReadyTime time.Duration `json:"readyTime"`

	StrokesPerPlayer int `json:"strokesPerPlayer"`
	// Once every player used all strokes the drawing timer is cut down to this
	FinishDrawingGrace time.Duration `json:"finishDrawingGrace"`

	Powerups bool `json:"powerups"`
	// Percent chance per player per second inside the spawn window
	PowerupChance      uint32        `json:"powerupChance"`
	PowerupSpawnDelay  time.Duration `json:"powerupSpawnDelay"`
	PowerupMinTimeLeft time.Duration `json:"powerupMinTimeLeft"`
	FadeDuration       time.Duration `json:"fadeDuration"`

	VoteWeights []int        `json:"voteWeights"`
	Policy      score.Policy `json:"policy"`

	Clock   clockwork.Clock              `json:"-"`
	Timeout time.Duration                `json:"-"`
	DoneFn  func(session *Session) error `json:"-"`
}

// withDefaults fills zero values, booleans are taken as given
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.MinPlayers <= 0 {
		c.MinPlayers = d.MinPlayers
	}
	if c.MinPlayers > c.MaxPlayers {
		c.MinPlayers = c.MaxPlayers
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.RoundTime <= 0 {
		c.RoundTime = d.RoundTime
	}
	if c.VoteTime <= 0 {
		c.VoteTime = d.VoteTime
	}
	if c.ReadyTime <= 0 {
		c.ReadyTime = d.ReadyTime
	}
	if c.StrokesPerPlayer <= 0 {
		c.StrokesPerPlayer = d.StrokesPerPlayer
	}
	if c.FinishDrawingGrace <= 0 {
		c.FinishDrawingGrace = d.FinishDrawingGrace
	}
	if c.PowerupChance == 0 {
		c.PowerupChance = d.PowerupChance
	}
	if c.PowerupSpawnDelay <= 0 {
		c.PowerupSpawnDelay = d.PowerupSpawnDelay
	}
	if c.PowerupMinTimeLeft <= 0 {
		c.PowerupMinTimeLeft = d.PowerupMinTimeLeft
	}
	if c.FadeDuration <= 0 {
		c.FadeDuration = d.FadeDuration
	}
	if len(c.VoteWeights) == 0 {
		c.VoteWeights = d.VoteWeights
	}
	if c.Policy == (score.Policy{}) {
		c.Policy = d.Policy
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}

	return c
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
