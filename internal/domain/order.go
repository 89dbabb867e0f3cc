package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderType market or limit.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Side buy or sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", errors.Errorf("unknown order side %q", s)
	}
}

// ParseOrderType accepts "market"/"limit" in any case.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case OrderTypeMarket:
		return OrderTypeMarket, nil
	case OrderTypeLimit:
		return OrderTypeLimit, nil
	default:
		return "", errors.Errorf("unknown order type %q", s)
	}
}

// OrderRequest instruction to trade Amount of the pair's base currency.
type OrderRequest struct {
	Pair   Pair
	Type   OrderType
	Side   Side
	Amount decimal.Decimal
	// Price is required for limit orders and ignored for market orders.
	Price *decimal.Decimal
}

// MarketOrder builds a market order request.
func MarketOrder(pair Pair, side Side, amount decimal.Decimal) OrderRequest {
	return OrderRequest{Pair: pair, Type: OrderTypeMarket, Side: side, Amount: amount}
}

// LimitOrder builds a limit order request.
func LimitOrder(pair Pair, side Side, amount, price decimal.Decimal) OrderRequest {
	return OrderRequest{Pair: pair, Type: OrderTypeLimit, Side: side, Amount: amount, Price: &price}
}

// Validate checks the request shape. Price availability for limit
// orders is reported as ErrMissingPrice.
func (r OrderRequest) Validate() error {
	if r.Pair.From == "" || r.Pair.To == "" {
		return errors.Wrapf(ErrInvalidPair, "%q", r.Pair.String())
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return errors.Errorf("unknown order side %q", r.Side)
	}
	switch r.Type {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if r.Price == nil || !r.Price.IsPositive() {
			return ErrMissingPrice
		}
	default:
		return errors.Errorf("unknown order type %q", r.Type)
	}
	if !r.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "got %s", r.Amount.String())
	}
	return nil
}
