package broker

import (
	"context"

	"OptionSentinel/internal/model"
)

// Broker is the brokerage account used by the executor.
type Broker interface {
	Account(ctx context.Context) (model.AccountState, error)
	SubmitLimitBuy(ctx context.Context, symbol string, qty int64, limit float64) (*model.OrderResult, error)
}

var _ Broker = (*Alpaca)(nil)
