package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"OptionSentinel/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL  string
	Interval string
	Client   *http.Client
}

// NewYahooFetcher creates a 5-minute bar fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL:  yahooChartURL,
		Interval: "5m",
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// FetchIntradayBars fetches regular-session bars between from and to.
// Every failure is wrapped with model.ErrDataFetch.
func (f *YahooFetcher) FetchIntradayBars(ctx context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	bars, err := f.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDataFetch, symbol, err)
	}
	return bars, nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("useYfid", "true")
	q.Set("interval", f.Interval)
	q.Set("includePrePost", "false")
	q.Set("lang", "en-US")
	q.Set("region", "US")
	u := f.BaseURL + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote block")
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // null bar, no trades in the interval
		}
		o, _ := at(quote.Open, i)
		h, _ := at(quote.High, i)
		l, _ := at(quote.Low, i)
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
