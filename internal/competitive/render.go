package competitive

import (
	"fmt"
	"strconv"

	"github.com/drawberry-games/drawberry/internal/score"
	"github.com/drawberry-games/drawberry/internal/strpool"
	"github.com/drawberry-games/drawberry/internal/util"
	"github.com/enescakir/emoji"
)

func medalIcon(place score.Place) string {
	switch place {
	case score.PlaceFirst:
		return emoji.FirstPlaceMedal.String()
	case score.PlaceSecond:
		return emoji.SecondPlaceMedal.String()
	default:
		return ""
	}
}

func rankIcon(rank int) string {
	switch rank {
	case 1:
		return emoji.FirstPlaceMedal.String()
	case 2:
		return emoji.SecondPlaceMedal.String()
	case 3:
		return emoji.ThirdPlaceMedal.String()
	default:
		return ""
	}
}

func (s *Session) name(id string) string {
	if p, ok := s.players.find(id); ok && p.Name != "" {
		return p.Name
	}

	return id
}

func (s *Session) renderResults(outcome score.Outcome) string {
	buf := strpool.Get()
	defer strpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "%s Round %d results\n\n", emoji.ArtistPalette.String(), s.gate.Round())

	for _, p := range outcome.Placements {
		_, _ = fmt.Fprintf(
			buf,
			"%s %s - %s %s",
			medalIcon(p.Place),
			s.name(p.PlayerID),
			strconv.Itoa(p.Votes),
			util.Plural(p.Votes, "vote", "votes"),
		)
		if p.Points > 0 {
			_, _ = fmt.Fprintf(buf, ", +%d", p.Points)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

func (s *Session) renderStandings(standings []score.Standing) string {
	buf := strpool.Get()
	defer strpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "%s Leaderboard after round %d of %d\n\n", emoji.Trophy.String(), s.gate.Round(), s.gate.MaxRounds())

	for _, cell := range standings {
		_, _ = fmt.Fprintf(
			buf,
			"%s. %s%s, %s %s\n",
			strconv.Itoa(cell.Rank),
			rankIcon(cell.Rank),
			cell.Name,
			strconv.Itoa(cell.Score),
			util.Plural(cell.Score, "point", "points"),
		)
	}

	return buf.String()
}

func (s *Session) renderFinished(standings []score.Standing) string {
	buf := strpool.Get()
	defer strpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "%s Game over\n\n", emoji.ChequeredFlag.String())

	for _, leader := range score.Leaders(standings) {
		_, _ = fmt.Fprintf(
			buf,
			"%s %s - %s %s\n",
			emoji.SportsMedal.String(),
			leader.Name,
			strconv.Itoa(leader.Score),
			util.Plural(leader.Score, "point", "points"),
		)
	}

	return buf.String()
}

// RenderStandings is the leaderboard as text
func (s *Session) RenderStandings() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.renderStandings(s.standings())
}
