package competitive

import (
	"github.com/google/uuid"
	"github.com/valyala/fastrand"
)

type PowerupKind string

const (
	// PowerupExtraStroke grants the owner one more stroke this round
	PowerupExtraStroke PowerupKind = "extra_stroke"
	// PowerupFade fades every other player's canvas for a while
	PowerupFade PowerupKind = "fade"
)

var powerupKinds = []PowerupKind{PowerupExtraStroke, PowerupFade}

type Powerup struct {
	ID   string      `json:"id"`
	Kind PowerupKind `json:"kind"`
}

type randFn func(n uint32) uint32

func newPowerup(rand randFn) Powerup {
	return Powerup{
		ID:   uuid.NewString(),
		Kind: powerupKinds[rand(uint32(len(powerupKinds)))],
	}
}

var defaultRand randFn = fastrand.Uint32n

// inSpawnWindow reports whether powerups may appear, not right after the round starts and
// not when the round is about to end
func (s *Session) inSpawnWindow() bool {
	return s.elapsed >= seconds(s.Config.PowerupSpawnDelay) && s.timeLeft >= seconds(s.Config.PowerupMinTimeLeft)
}

func (s *Session) rollPowerups() {
	if !s.Config.Powerups || !s.inSpawnWindow() {
		return
	}

	for _, p := range s.players {
		if p.DrawingRef != "" {
			continue
		}

		if s.rand(100) >= s.Config.PowerupChance {
			continue
		}

		powerup := newPowerup(s.rand)
		p.Powerups = append(p.Powerups, powerup)
		s.emit(Event{Kind: EventPowerupSpawned, PlayerID: p.ID, Powerup: &powerup})
	}
}

func (s *Session) applyPowerup(owner *Player, powerup Powerup) []string {
	var targets []string
	switch powerup.Kind {
	case PowerupExtraStroke:
		owner.ExtraStrokes++
		targets = append(targets, owner.ID)
	case PowerupFade:
		for _, p := range s.players {
			if p.ID == owner.ID {
				continue
			}
			p.FadedFor = seconds(s.Config.FadeDuration)
			targets = append(targets, p.ID)
		}
	}

	return targets
}

func (s *Session) expireFades() {
	for _, p := range s.players {
		if p.FadedFor == 0 {
			continue
		}

		p.FadedFor--
		if p.FadedFor == 0 {
			s.emit(Event{Kind: EventFadeExpired, PlayerID: p.ID})
		}
	}
}
