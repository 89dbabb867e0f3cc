package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker current market quote for a pair.
type Ticker struct {
	Pair      Pair            `json:"pair"`
	Last      decimal.Decimal `json:"last"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Volume    decimal.Decimal `json:"volume"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Timestamp time.Time       `json:"timestamp"`
}

// Spread returns ask - bid.
func (t Ticker) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

// SpreadPercent returns the spread relative to the bid, zero when bid is not positive.
func (t Ticker) SpreadPercent() decimal.Decimal {
	if !t.Bid.IsPositive() {
		return decimal.Zero
	}
	return t.Spread().Div(t.Bid).Mul(decimal.NewFromInt(100))
}
