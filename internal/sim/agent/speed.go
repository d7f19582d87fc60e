package agent

import (
	"math/rand"

	"outpost.sim/internal/sim/tuning"
)

// ActionDelay derives the tick count until the unit may act again. Agility
// shifts a base delay by 5% per point around the average of 10, clamped to
// the configured band. The fractional remainder becomes a probabilistic
// extra tick, so average speeds are fractional without per-tick float state.
func ActionDelay(cfg tuning.Speed, agility int, rng *rand.Rand) int {
	pct := 100 + (agility-10)*5
	if pct < cfg.MinPercent {
		pct = cfg.MinPercent
	}
	if pct > cfg.MaxPercent {
		pct = cfg.MaxPercent
	}
	hundredths := cfg.BaseActionDelay * 10000 / pct
	full := hundredths / 100
	rem := hundredths % 100
	if rem > 0 && rng.Intn(100) < rem {
		full++
	}
	return full
}
