package calculator

import (
	"errors"
	"fmt"
	"math"

	"OptionSentinel/internal/model"
)

// BollingerBands is the latest value of each band.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// CalculateBollinger computes SMA(period) ± k standard deviations over the last
// `period` closes. The deviation is the population deviation (divide by N).
func CalculateBollinger(bars []model.OHLCV, period int, k float64) (BollingerBands, error) {
	if period <= 0 {
		return BollingerBands{}, errors.New("period must be positive")
	}
	if len(bars) < period {
		return BollingerBands{}, fmt.Errorf("Bollinger(%d) needs %d bars, got %d: %w", period, period, len(bars), model.ErrInsufficientHistory)
	}

	closes := extractCloses(bars)
	mid, err := CalculateSMA(closes, period)
	if err != nil {
		return BollingerBands{}, err
	}

	sumSq := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - mid
		sumSq += d * d
	}
	sd := math.Sqrt(sumSq / float64(period))

	return BollingerBands{
		Upper:  mid + k*sd,
		Middle: mid,
		Lower:  mid - k*sd,
	}, nil
}
