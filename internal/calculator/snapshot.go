package calculator

import (
	"fmt"

	"OptionSentinel/internal/model"
)

const (
	RSIPeriod       = 14
	BollingerPeriod = 20
	BollingerK      = 2.0
	SMAPeriod       = 5
)

// Compute derives the indicator snapshot at the latest bar.
// Fewer than BollingerPeriod bars yields model.ErrInsufficientHistory.
func Compute(bars []model.OHLCV) (model.IndicatorSnapshot, error) {
	var snap model.IndicatorSnapshot

	rsi, err := CalculateRSI(bars, RSIPeriod)
	if err != nil {
		return snap, fmt.Errorf("rsi: %w", err)
	}
	bb, err := CalculateBollinger(bars, BollingerPeriod, BollingerK)
	if err != nil {
		return snap, fmt.Errorf("bollinger: %w", err)
	}
	sma, err := CalculateSMA5(bars)
	if err != nil {
		return snap, fmt.Errorf("sma: %w", err)
	}

	last := bars[len(bars)-1]
	snap.RSI14 = rsi
	snap.BollingerLower = bb.Lower
	snap.SMA5 = sma
	snap.LatestVolume = int64(last.Volume)
	snap.VWAP = CalculateVWAP(bars)
	snap.LastClose = last.Close
	return snap, nil
}
