package model

import "errors"

var (
	ErrDataFetch           = errors.New("market data fetch failed")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrAccountQuery        = errors.New("account query failed")
	ErrOrderSubmission     = errors.New("order submission failed")
	ErrNotification        = errors.New("notification failed")
)
