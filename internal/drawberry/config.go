package drawberry

import (
	"time"

	"github.com/drawberry-games/drawberry/internal/database"
	"github.com/drawberry-games/drawberry/internal/eventbus"
	"github.com/jonboulle/clockwork"
)

type Config struct {
	// Debug logging
	Debug bool `envconfig:"DRAWBERRY_DEBUG" default:"false"`

	// Number of items in the cache
	CacheSize int `envconfig:"DRAWBERRY_CACHE_SIZE" default:"1024"`

	// Port on which health check and REST API are launched
	Port string `envconfig:"DRAWBERRY_PORT" default:"8080"`

	// Base of the join links encoded into room QR codes
	PublicURL      string   `envconfig:"DRAWBERRY_PUBLIC_URL" default:"http://localhost:8080"`
	AllowedOrigins []string `envconfig:"DRAWBERRY_ALLOWED_ORIGINS" default:"*"`

	// Rooms nobody started are dropped after this
	BuildingTimeout time.Duration `envconfig:"DRAWBERRY_BUILDING_TIMEOUT" default:"60m"`

	// Waiting time for the game session to end
	PlayingTimeout  time.Duration `envconfig:"DRAWBERRY_PLAYING_TIMEOUT" default:"24h"`
	JanitorInterval time.Duration `envconfig:"DRAWBERRY_JANITOR_INTERVAL" default:"1m"`

	Game   GameConfig
	Battle BattleConfig
	Bus    eventbus.Config
	Db     database.Config

	Clock clockwork.Clock `ignored:"true"`
}

// GameConfig holds room defaults, a create request may override them
type GameConfig struct {
	MaxPlayers        int           `envconfig:"DRAWBERRY_MAX_PLAYERS" default:"4"`
	MinPlayers        int           `envconfig:"DRAWBERRY_MIN_PLAYERS" default:"2"`
	MaxRounds         int           `envconfig:"DRAWBERRY_MAX_ROUNDS" default:"3"`
	RoundTime         time.Duration `envconfig:"DRAWBERRY_ROUND_TIME" default:"60s"`
	VoteTime          time.Duration `envconfig:"DRAWBERRY_VOTE_TIME" default:"30s"`
	ReadyTime         time.Duration `envconfig:"DRAWBERRY_READY_TIME" default:"30s"`
	StrokesPerPlayer  int           `envconfig:"DRAWBERRY_STROKES_PER_PLAYER" default:"1"`
	Powerups          bool          `envconfig:"DRAWBERRY_POWERUPS" default:"true"`
	FirstPlacePoints  int           `envconfig:"DRAWBERRY_FIRST_PLACE_POINTS" default:"3"`
	SecondPlacePoints int           `envconfig:"DRAWBERRY_SECOND_PLACE_POINTS" default:"1"`
}

// BattleConfig holds team battle defaults
type BattleConfig struct {
	MaxPlayers int           `envconfig:"DRAWBERRY_BATTLE_MAX_PLAYERS" default:"8"`
	MaxRounds  int           `envconfig:"DRAWBERRY_BATTLE_MAX_ROUNDS" default:"3"`
	MatchTime  time.Duration `envconfig:"DRAWBERRY_BATTLE_MATCH_TIME" default:"5m"`
	// Topics joined by "/"
	Words string `envconfig:"DRAWBERRY_BATTLE_WORDS"`
}
