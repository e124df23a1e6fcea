package broker

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"OptionSentinel/internal/model"
)

// tradingAPI is the subset of *alpaca.Client used by the broker.
type tradingAPI interface {
	GetAccount() (*alpaca.Account, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
}

// Alpaca queries the account and submits orders through the Alpaca trading API.
type Alpaca struct {
	api    tradingAPI
	logger *zap.Logger
}

// NewAlpaca creates a broker bound to baseURL (live or paper).
func NewAlpaca(apiKey, apiSecret, baseURL string, timeout time.Duration, logger *zap.Logger) *Alpaca {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return &Alpaca{api: client, logger: logger}
}

// Account returns the current cash balance.
func (a *Alpaca) Account(ctx context.Context) (model.AccountState, error) {
	if err := ctx.Err(); err != nil {
		return model.AccountState{}, fmt.Errorf("%w: %v", model.ErrAccountQuery, err)
	}
	acct, err := a.api.GetAccount()
	if err != nil {
		return model.AccountState{}, fmt.Errorf("%w: %v", model.ErrAccountQuery, err)
	}
	cash, _ := acct.Cash.Float64()
	a.logger.Debug("account fetched", zap.String("account", acct.AccountNumber), zap.Float64("cash", cash))
	return model.AccountState{Cash: cash}, nil
}

// SubmitLimitBuy places a good-til-cancelled limit buy for qty contracts.
func (a *Alpaca) SubmitLimitBuy(ctx context.Context, symbol string, qty int64, limit float64) (*model.OrderResult, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: non-positive quantity %d", model.ErrOrderSubmission, qty)
	}
	if limit <= 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		return nil, fmt.Errorf("%w: invalid limit price %v", model.ErrOrderSubmission, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrOrderSubmission, err)
	}

	q := decimal.NewFromInt(qty)
	lp := decimal.NewFromFloat(limit).Round(2)
	req := alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         &q,
		Side:        alpaca.Buy,
		Type:        alpaca.Limit,
		TimeInForce: alpaca.GTC,
		LimitPrice:  &lp,
	}

	order, err := a.api.PlaceOrder(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s x%d @ %s: %v", model.ErrOrderSubmission, symbol, qty, lp.String(), err)
	}

	limitF, _ := lp.Float64()
	res := &model.OrderResult{
		ID:          order.ID,
		Status:      order.Status,
		Symbol:      symbol,
		Qty:         qty,
		LimitPrice:  limitF,
		SubmittedAt: order.SubmittedAt,
	}
	a.logger.Info("order submitted",
		zap.String("id", res.ID),
		zap.String("symbol", symbol),
		zap.Int64("qty", qty),
		zap.Float64("limit", limitF),
		zap.String("status", res.Status),
	)
	return res, nil
}
