package collector

import (
	"context"
	"time"

	"OptionSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	Err   error
	Count int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntradayBars(_ context.Context, symbol string, _, to time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	n := m.Count
	if n == 0 {
		n = 78
	}
	return generateMockBars(m.Price, n, to), nil
}

// MockOptionSource serves fixed option quotes per underlying.
type MockOptionSource struct {
	Quotes map[string][]OptionQuote
	Err    error
}

func (m *MockOptionSource) OptionQuotes(_ context.Context, underlying string) ([]OptionQuote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Quotes[underlying], nil
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-i) * 5 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 10000,
		}
	}
	return bars
}
