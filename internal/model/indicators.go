package model

// IndicatorSnapshot holds the technical indicators of an underlying at the latest bar.
type IndicatorSnapshot struct {
	RSI14          float64
	BollingerLower float64
	SMA5           float64
	LatestVolume   int64
	VWAP           float64 // session VWAP, NaN when the session has no volume
	LastClose      float64
}
