package broker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"

	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/model"
)

// barLookback covers a long weekend plus a holiday.
const barLookback = 7 * 24 * time.Hour

// optionChainAPI is the subset of *marketdata.Client used for option data.
type optionChainAPI interface {
	GetOptionChain(underlyingSymbol string, req marketdata.GetOptionChainRequest) (map[string]marketdata.OptionSnapshot, error)
	GetMultiOptionBars(symbols []string, req marketdata.GetOptionBarsRequest) (map[string][]marketdata.OptionBar, error)
}

// OptionChain serves option quotes from Alpaca option chain snapshots and
// daily option bars.
type OptionChain struct {
	api          optionChainAPI
	maxContracts int
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewOptionChain creates an option source. dataURL may be empty for the default endpoint.
func NewOptionChain(apiKey, apiSecret, dataURL string, maxContracts int, timeout time.Duration, logger *zap.Logger) *OptionChain {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseURL:    dataURL,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &OptionChain{api: client, maxContracts: maxContracts, loc: loc, now: time.Now, logger: logger}
}

// OptionQuotes returns the chain of underlying sorted by contract symbol,
// truncated to the configured maximum.
func (o *OptionChain) OptionQuotes(ctx context.Context, underlying string) ([]collector.OptionQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataFetch, err)
	}
	chain, err := o.api.GetOptionChain(underlying, marketdata.GetOptionChainRequest{TotalLimit: o.maxContracts})
	if err != nil {
		return nil, fmt.Errorf("%w: option chain %s: %v", model.ErrDataFetch, underlying, err)
	}

	symbols := make([]string, 0, len(chain))
	for sym := range chain {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	if o.maxContracts > 0 && len(symbols) > o.maxContracts {
		symbols = symbols[:o.maxContracts]
	}

	prev := o.prevCloses(ctx, underlying, symbols)
	quotes := make([]collector.OptionQuote, 0, len(symbols))
	for _, sym := range symbols {
		q := toQuote(sym, chain[sym])
		q.PrevClose = prev[sym]
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// prevCloses returns the previous session close per contract. Contracts
// without a prior daily bar are absent, and a failed request yields none.
func (o *OptionChain) prevCloses(ctx context.Context, underlying string, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 || ctx.Err() != nil {
		return out
	}
	now := o.now()
	bars, err := o.api.GetMultiOptionBars(symbols, marketdata.GetOptionBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     now.Add(-barLookback),
		End:       now,
	})
	if err != nil {
		o.logger.Warn("daily option bars failed, today gain unavailable",
			zap.String("underlying", underlying), zap.Error(err))
		return out
	}

	today := now.In(o.loc).Format(time.DateOnly)
	for sym, series := range bars {
		if c, ok := lastCloseBefore(series, today, o.loc); ok {
			out[sym] = c
		}
	}
	return out
}

// lastCloseBefore returns the close of the latest bar dated before today.
func lastCloseBefore(bars []marketdata.OptionBar, today string, loc *time.Location) (float64, bool) {
	var (
		best  time.Time
		last  float64
		found bool
	)
	for _, b := range bars {
		if b.Timestamp.In(loc).Format(time.DateOnly) >= today {
			continue
		}
		if !found || b.Timestamp.After(best) {
			best, last, found = b.Timestamp, b.Close, true
		}
	}
	return last, found
}

func toQuote(symbol string, s marketdata.OptionSnapshot) collector.OptionQuote {
	q := collector.OptionQuote{Symbol: symbol, ImpliedVolatility: s.ImpliedVolatility}
	if s.LatestTrade != nil {
		q.LastPrice = s.LatestTrade.Price
	}
	if s.LatestQuote != nil {
		q.Bid = s.LatestQuote.BidPrice
		q.Ask = s.LatestQuote.AskPrice
	}
	return q
}
