package calculator

import (
	"errors"
	"fmt"

	"OptionSentinel/internal/model"
)

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// The first average is the plain mean of the first `period` changes.
// Requires at least period+1 bars.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("RSI(%d) needs %d bars, got %d: %w", period, period+1, len(bars), model.ErrInsufficientHistory)
	}

	closes := extractCloses(bars)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	// No movement at all reads as 0.
	if avgGain+avgLoss == 0 {
		return 0, nil
	}
	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
