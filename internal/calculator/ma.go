package calculator

import (
	"errors"
	"fmt"

	"OptionSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last `period` prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("SMA(%d) needs %d prices, got %d: %w", period, period, len(prices), model.ErrInsufficientHistory)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateSMA5 returns the 5-bar simple moving average of closes.
func CalculateSMA5(bars []model.OHLCV) (float64, error) {
	return CalculateSMA(extractCloses(bars), 5)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
