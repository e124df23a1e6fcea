package calculator

import (
	"math"

	"OptionSentinel/internal/model"
)

// CalculateVWAP returns the volume-weighted average typical price of the most
// recent trading session in bars. Sessions are split on calendar day in the
// bars' own location. Returns NaN when the session has no volume.
func CalculateVWAP(bars []model.OHLCV) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}

	last := bars[len(bars)-1].Time
	y, m, d := last.Date()

	var tpv, vol float64
	for i := len(bars) - 1; i >= 0; i-- {
		by, bm, bd := bars[i].Time.Date()
		if by != y || bm != m || bd != d {
			break
		}
		typical := (bars[i].High + bars[i].Low + bars[i].Close) / 3.0
		tpv += typical * bars[i].Volume
		vol += bars[i].Volume
	}
	if vol == 0 {
		return math.NaN()
	}
	return tpv / vol
}
