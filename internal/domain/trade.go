package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord executed trade. Records are immutable once appended to a log.
type TradeRecord struct {
	// ID sequential, 1-based within the venue that produced it.
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Pair      Pair            `json:"pair"`
	Type      OrderType       `json:"type"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	// Cost is Amount * Price.
	Cost decimal.Decimal `json:"cost"`
	Fee  decimal.Decimal `json:"fee"`
	// Net is Cost+Fee paid for buys and Cost-Fee received for sells.
	Net decimal.Decimal `json:"net"`
	// ExternalID order id assigned by a live exchange.
	ExternalID string `json:"external_id,omitempty"`
}

// String returns a human-readable string representation.
func (t TradeRecord) String() string {
	return fmt.Sprintf("#%d %s %s %s %s @ %s fee %s",
		t.ID, t.Side, t.Type, t.Amount.String(), t.Pair.String(), t.Price.String(), t.Fee.String())
}
