package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Action represents the direction a strategy recommends.
type Action int

const (
	ActionBuy Action = iota + 1
	ActionSell
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Side maps the action to an order side.
func (a Action) Side() Side {
	if a == ActionSell {
		return SideSell
	}
	return SideBuy
}

// Signal strategy recommendation with a human-readable reason.
type Signal struct {
	Action Action
	Reason string
}

func (s Signal) String() string {
	return fmt.Sprintf("%s: %s", s.Action, s.Reason)
}

// GridOrder limit order intent produced by the grid strategy.
type GridOrder struct {
	Side   Side
	Price  decimal.Decimal
	Amount decimal.Decimal
	Reason string
}
