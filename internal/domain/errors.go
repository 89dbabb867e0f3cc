package domain

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrPriceUnavailable market data source could not supply a usable quote.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrMissingPrice limit order submitted without a price.
	ErrMissingPrice = errors.New("limit order requires a price")
	// ErrInsufficientFunds free balance does not cover the order.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHistory fewer candles than the strategy window needs.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrUnsupportedStrategy unknown strategy name.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
	// ErrInvalidAmount order amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidPair pair string could not be parsed.
	ErrInvalidPair = errors.New("invalid trading pair")
)

// InsufficientFundsError names the currency that was short.
type InsufficientFundsError struct {
	Currency string
	Have     decimal.Decimal
	Need     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: have %s need %s", e.Currency, e.Have.String(), e.Need.String())
}

// Is makes errors.Is(err, ErrInsufficientFunds) hold.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
