// Package venue defines the trading venue contract shared by the paper
// exchange and live exchange accounts.
package venue

import (
	"context"

	"github.com/vadiminshakov/papertrade/internal/domain"
)

// Kind tells callers which venue they are talking to without type probing.
type Kind int

const (
	KindSimulated Kind = iota + 1
	KindLive
)

func (k Kind) String() string {
	switch k {
	case KindSimulated:
		return "paper"
	case KindLive:
		return "live"
	default:
		return "unknown"
	}
}

// TradingVenue places orders and reports balances in one account.
type TradingVenue interface {
	Kind() Kind
	GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
	GetBalance(ctx context.Context) (domain.Balances, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.TradeRecord, error)
	GetPortfolioValue(ctx context.Context) domain.PortfolioValue
	Trades() []domain.TradeRecord
}

// TickerSource quotes a pair.
type TickerSource interface {
	GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}
