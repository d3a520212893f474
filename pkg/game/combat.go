package game

import "math"

// --- Combat Resolution ---

// Outcome is the terminal result of a battle plus the number of
// intermediate ticks the simulation should report before settling.
type Outcome struct {
	Success           bool
	AttackerSurvivors int
	DefenderSurvivors int
	Ticks             int
}

// EffectiveRatio is attacker strength scaled by leverage against the
// defender garrison. Defender count is floored at 1 so an undefended
// planet still produces a finite ratio.
func EffectiveRatio(attackers, defenders int, multiplier float64) float64 {
	effective := float64(attackers) * multiplier
	return effective / math.Max(1, float64(defenders))
}

// Resolve turns raw unit counts and a leverage multiplier into a battle
// outcome. roll supplies randomness in [0,1); tests inject a fixed roll
// to pin either branch of the probabilistic tiers.
//
// Tiers by power ratio:
//
//	>=2.0  guaranteed win, 70% of attackers survive
//	>=1.5  85% win (50% survive) / loss keeps 20% att, 60% def
//	>=1.0  45% win (30% survive) / loss keeps 10% att, 40% def
//	<1.0   15% win (20% survive) / loss keeps  0% att, 80% def
//
// Defenders never survive a lost defense: a captured planet is cleared.
func Resolve(attackers, defenders int, multiplier float64, roll func() float64) Outcome {
	ratio := EffectiveRatio(attackers, defenders, multiplier)

	var o Outcome
	switch {
	case ratio >= 2.0:
		o.Success = true
		o.AttackerSurvivors = max(1, int(float64(attackers)*0.7))
		o.DefenderSurvivors = 0
	case ratio >= 1.5:
		o.Success = roll() < 0.85
		if o.Success {
			o.AttackerSurvivors = max(1, int(float64(attackers)*0.5))
			o.DefenderSurvivors = 0
		} else {
			o.AttackerSurvivors = max(0, int(float64(attackers)*0.2))
			o.DefenderSurvivors = max(1, int(float64(defenders)*0.6))
		}
	case ratio >= 1.0:
		o.Success = roll() < 0.45
		if o.Success {
			o.AttackerSurvivors = max(1, int(float64(attackers)*0.3))
			o.DefenderSurvivors = 0
		} else {
			o.AttackerSurvivors = max(0, int(float64(attackers)*0.1))
			o.DefenderSurvivors = max(1, int(float64(defenders)*0.4))
		}
	default:
		o.Success = roll() < 0.15
		if o.Success {
			o.AttackerSurvivors = max(1, int(float64(attackers)*0.2))
			o.DefenderSurvivors = 0
		} else {
			o.AttackerSurvivors = 0
			o.DefenderSurvivors = max(1, int(float64(defenders)*0.8))
		}
	}

	o.Ticks = TickCount(ratio)
	return o
}

// TickCount shrinks the simulation for overwhelming attacks: 2 to 5
// ticks, fewer the stronger the ratio.
func TickCount(ratio float64) int {
	n := int(math.Round(10 / math.Max(0.1, ratio)))
	if n < 2 {
		n = 2
	}
	if n > 5 {
		n = 5
	}
	return n
}

// Interpolate reports the unit count at tick i of n, moving linearly
// from the starting count to the survivor count.
func Interpolate(start, survivors, i, n int) int {
	progress := float64(i) / float64(n)
	return int(float64(start)*(1-progress) + float64(survivors)*progress)
}

// --- Post-Battle World Effects ---

// CapturedDefense is the garrison a freshly captured planet keeps:
// one point per 20 surviving attackers, never less than 1.
func CapturedDefense(attackerSurvivors int) int {
	return max(1, attackerSurvivors/20)
}

// HeldDefense erodes a defended planet by one point per repelled
// attack, floored at 1 so planets never become free captures.
func HeldDefense(current int) int {
	return max(1, current-1)
}
