package enrich

import (
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
)

// affinity is +1 for roles that benefit from pass-leaning teams and -1 for
// roles that benefit from run-heavy teams.
func affinity(p model.Position) float64 {
	if p == model.RB {
		return -1
	}
	return 1
}

// PassRate returns the team's pass share of plays and false when the team
// ran no plays.
func PassRate(teamRows []model.TeamWeekRow) (float64, bool) {
	pass, rush := 0.0, 0.0
	for _, r := range teamRows {
		pass += r.Stats[model.StatTeamPassAttempts]
		rush += r.Stats[model.StatTeamRushAttempts]
	}
	if pass+rush <= 0 {
		return 0, false
	}
	return pass / (pass + rush), true
}

// SchemeFit scores how well the position suits the team's tendency, blended
// with the opponent-quality factor. An undetermined tendency is neutral.
func SchemeFit(pos model.Position, teamRows []model.TeamWeekRow, opponentQuality float64, priors prior.Config) float64 {
	rate, ok := PassRate(teamRows)
	if !ok {
		return Neutral
	}
	fit := pillar.Clamp(Neutral + affinity(pos)*(rate-priors.LeaguePassRate)*priors.SchemeSensitivity)
	w := priors.OpponentWeight
	return pillar.Clamp((1-w)*fit + w*opponentQuality)
}
