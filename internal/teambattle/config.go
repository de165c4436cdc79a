package teambattle

import (
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultMaxPlayers = 8
	defaultMaxRounds  = 3
	defaultMatchTime  = 5 * time.Minute
	defaultTimeout    = 24 * time.Hour

	// MaxNameLength is the longest display name in runes
	MaxNameLength = 32
)

type Config struct {
	Code     int64  `json:"code"`
	AuthorID string `json:"authorId"`

	MaxPlayers int `json:"maxPlayers"`
	MaxRounds  int `json:"maxRounds"`
	// The whole battle, rounds left unguessed when it runs out count as skipped
	MatchTime time.Duration `json:"matchTime"`
	Words     string        `json:"words"`

	Clock   clockwork.Clock            `json:"-"`
	Timeout time.Duration              `json:"-"`
	DoneFn  func(battle *Battle) error `json:"-"`
}

func (c Config) withDefaults() Config {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = defaultMaxPlayers
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = defaultMaxRounds
	}
	if c.MatchTime <= 0 {
		c.MatchTime = defaultMatchTime
	}
	if ParseWordList(c.Words).Len() == 0 {
		c.Words = DefaultWords
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	return c
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
