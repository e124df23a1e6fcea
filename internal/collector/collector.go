package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/model"
)

// Collector fetches bars and option quotes and assembles scoring candidates.
type Collector struct {
	Fetcher  Fetcher
	Options  OptionSource
	Symbols  []string
	Lookback time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, options OptionSource, symbols []string, lookbackDays int, logger *zap.Logger) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Options:  options,
		Symbols:  symbols,
		Lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Collect returns the candidates of every underlying that could be scored,
// in symbol order and then contract order. Underlyings whose bars cannot be
// fetched or are too short are skipped. It fails with model.ErrDataFetch only
// when no underlying produced market data at all.
func (c *Collector) Collect(ctx context.Context) ([]model.OptionCandidate, error) {
	var (
		candidates []model.OptionCandidate
		fetched    int
		lastErr    error
	)
	to := c.Now()
	from := to.Add(-c.Lookback)

	for _, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := c.Fetcher.FetchIntradayBars(ctx, sym, from, to)
		if err != nil {
			c.Logger.Warn("fetch bars failed, skipping underlying", zap.String("symbol", sym), zap.Error(err))
			lastErr = err
			continue
		}
		fetched++

		snap, err := calculator.Compute(bars)
		if err != nil {
			if errors.Is(err, model.ErrInsufficientHistory) {
				c.Logger.Warn("underlying not scoreable", zap.String("symbol", sym), zap.Int("bars", len(bars)), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("indicators for %s: %w", sym, err)
		}

		quotes, err := c.Options.OptionQuotes(ctx, sym)
		if err != nil {
			c.Logger.Warn("option chain failed, skipping underlying", zap.String("symbol", sym), zap.Error(err))
			continue
		}

		before := len(candidates)
		for _, q := range quotes {
			if cand, ok := BuildCandidate(sym, snap, q); ok {
				candidates = append(candidates, cand)
			}
		}
		c.Logger.Info("underlying collected",
			zap.String("symbol", sym),
			zap.Int("bars", len(bars)),
			zap.Float64("rsi14", snap.RSI14),
			zap.Float64("bb_lower", snap.BollingerLower),
			zap.Float64("sma5", snap.SMA5),
			zap.Int("candidates", len(candidates)-before),
		)
	}

	if fetched == 0 && len(c.Symbols) > 0 {
		if lastErr == nil {
			lastErr = model.ErrDataFetch
		}
		return nil, fmt.Errorf("no market data for any symbol: %w", lastErr)
	}
	return candidates, nil
}

// BuildCandidate turns an option quote into a candidate. Quotes without a last
// trade are dropped. Missing quote fields become NaN so their predicates fail.
func BuildCandidate(underlying string, snap model.IndicatorSnapshot, q OptionQuote) (model.OptionCandidate, bool) {
	if q.LastPrice <= 0 || math.IsNaN(q.LastPrice) {
		return model.OptionCandidate{}, false
	}

	spread := math.NaN()
	if q.Bid > 0 && q.Ask > 0 {
		spread = q.Bid - q.Ask
	}
	bid := math.NaN()
	if q.Bid > 0 {
		bid = q.Bid
	}
	iv := math.NaN()
	if q.ImpliedVolatility > 0 {
		iv = q.ImpliedVolatility * 100
	}
	gain := math.NaN()
	if q.PrevClose > 0 {
		gain = (q.LastPrice - q.PrevClose) / q.PrevClose * 100
	}

	return model.OptionCandidate{
		Symbol:            q.Symbol,
		Underlying:        underlying,
		OptionPrice:       q.LastPrice,
		CurrentBid:        bid,
		VWAP:              snap.VWAP,
		Spread:            spread,
		ImpliedVolatility: iv,
		TodayGain:         gain,
		Indicators:        snap,
	}, true
}
