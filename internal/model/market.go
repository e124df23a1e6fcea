package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the intraday bars fetched for one underlying.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}
