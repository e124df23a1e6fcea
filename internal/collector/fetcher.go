package collector

import (
	"context"
	"time"

	"OptionSentinel/internal/model"
)

// Fetcher defines the interface for fetching intraday market data.
type Fetcher interface {
	FetchIntradayBars(ctx context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error)
	Name() string
}

// OptionQuote is the live quote of one option contract.
type OptionQuote struct {
	Symbol            string
	LastPrice         float64
	Bid               float64
	Ask               float64
	ImpliedVolatility float64 // fraction, 0.4 means 40%
	PrevClose         float64 // previous session close, 0 when unknown
}

// OptionSource lists option contracts on an underlying.
type OptionSource interface {
	OptionQuotes(ctx context.Context, underlying string) ([]OptionQuote, error)
}
