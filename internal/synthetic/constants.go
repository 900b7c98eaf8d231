package synthetic

// Performer tiers and how often each is drawn, mirroring a league where most
// players are average and few are elite.
const (
	tierElite = iota
	tierHigh
	tierAverage
	tierLow
)

// tierWeights are cumulative draw probabilities for the tiers above.
var tierWeights = [...]float64{0.08, 0.30, 0.80, 1.0}

// talentRange maps a tier to the [min, max) talent multiplier drawn for it.
var talentRange = [...][2]float64{
	tierElite:   {1.20, 1.40},
	tierHigh:    {1.05, 1.20},
	tierAverage: {0.90, 1.05},
	tierLow:     {0.70, 0.90},
}

// Team-level constants.
const (
	teamSnapsMin        = 58.0
	teamSnapsRange      = 14.0
	defenseRatingMin    = 20.0
	defenseRatingRange  = 60.0
	defenseRatingJitter = 6.0
	injuryProbability   = 0.04
)

// role describes a depth-chart slot.
type role struct {
	snapShare  float64
	targetRate float64
	rushRate   float64
}

// roles lists depth-chart slots per position, starter first.
var roles = map[string][]role{
	"QB": {{snapShare: 0.98, rushRate: 0.06}},
	"RB": {{snapShare: 0.62, targetRate: 0.08, rushRate: 0.42}, {snapShare: 0.36, targetRate: 0.06, rushRate: 0.38}},
	"WR": {{snapShare: 0.90, targetRate: 0.24}, {snapShare: 0.78, targetRate: 0.18}, {snapShare: 0.55, targetRate: 0.14}},
	"TE": {{snapShare: 0.76, targetRate: 0.15}},
}

var firstNames = []string{
	"Aaron", "Blake", "Caleb", "Darius", "Elijah", "Felix", "Grant", "Hunter",
	"Isaiah", "Jalen", "Kyle", "Logan", "Marcus", "Nolan", "Owen", "Parker",
}

var lastNames = []string{
	"Adams", "Brooks", "Carter", "Dawson", "Ellis", "Foster", "Gibson", "Hayes",
	"Irving", "Jensen", "Keller", "Lowry", "Mercer", "Nash", "Ortiz", "Porter",
}
