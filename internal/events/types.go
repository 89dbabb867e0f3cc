package events

import (
	"time"

	"github.com/vadiminshakov/papertrade/internal/domain"
)

// AlertFired is published when a price alert triggers. Prices are strings
// so web consumers get exact decimals.
type AlertFired struct {
	Timestamp time.Time `json:"ts"`
	RuleID    int       `json:"rule_id"`
	Pair      string    `json:"pair"`
	Condition string    `json:"condition"`
	Threshold string    `json:"threshold"`
	Price     string    `json:"price"`
	Message   string    `json:"message"`
}

// TradeExecuted is published for every filled order.
type TradeExecuted struct {
	Timestamp time.Time `json:"ts"`
	Venue     string    `json:"venue"`
	ID        int       `json:"id"`
	Pair      string    `json:"pair"`
	Side      string    `json:"side"`
	Type      string    `json:"type"`
	Price     string    `json:"price"`
	Amount    string    `json:"amount"`
	Fee       string    `json:"fee"`
}

// NewTradeExecuted builds the event for trade filled on venue.
func NewTradeExecuted(venue string, t domain.TradeRecord) TradeExecuted {
	return TradeExecuted{
		Timestamp: t.Timestamp,
		Venue:     venue,
		ID:        t.ID,
		Pair:      t.Pair.String(),
		Side:      string(t.Side),
		Type:      string(t.Type),
		Price:     t.Price.String(),
		Amount:    t.Amount.String(),
		Fee:       t.Fee.String(),
	}
}
