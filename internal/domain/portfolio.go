package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetValuation value of one non-quote holding. Priced is false when the
// market lookup failed; such assets are excluded from the portfolio total.
type AssetValuation struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
	Priced   bool            `json:"priced"`
	Err      string          `json:"error,omitempty"`
}

// PortfolioValue current valuation of a ledger in its quote currency.
type PortfolioValue struct {
	QuoteCurrency     string           `json:"quote_currency"`
	QuoteFree         decimal.Decimal  `json:"quote_free"`
	TotalValue        decimal.Decimal  `json:"total_value"`
	InitialBalance    decimal.Decimal  `json:"initial_balance"`
	ProfitLoss        decimal.Decimal  `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal  `json:"profit_loss_percent"`
	Assets            []AssetValuation `json:"assets"`
	TradesCount       int              `json:"trades_count"`
}

// Complete reports whether every held asset could be priced.
func (v PortfolioValue) Complete() bool {
	for _, a := range v.Assets {
		if !a.Priced {
			return false
		}
	}
	return true
}

// PortfolioSnapshot timestamped portfolio valuation.
type PortfolioSnapshot struct {
	Timestamp         time.Time        `json:"ts"`
	TotalValue        decimal.Decimal  `json:"total_value"`
	ProfitLoss        decimal.Decimal  `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal  `json:"profit_loss_percent"`
	QuoteCurrency     string           `json:"quote_currency"`
	QuoteFree         decimal.Decimal  `json:"quote_free"`
	Details           []AssetValuation `json:"details"`
	TradesCount       int              `json:"trades_count"`
}

// NewPortfolioSnapshot stamps a valuation with ts.
func NewPortfolioSnapshot(ts time.Time, v PortfolioValue) PortfolioSnapshot {
	details := make([]AssetValuation, len(v.Assets))
	copy(details, v.Assets)
	return PortfolioSnapshot{
		Timestamp:         ts,
		TotalValue:        v.TotalValue,
		ProfitLoss:        v.ProfitLoss,
		ProfitLossPercent: v.ProfitLossPercent,
		QuoteCurrency:     v.QuoteCurrency,
		QuoteFree:         v.QuoteFree,
		Details:           details,
		TradesCount:       v.TradesCount,
	}
}

// PerformanceMetrics summary statistics over a snapshot history.
// Percent fields are expressed in percent (1.5 means 1.5%).
type PerformanceMetrics struct {
	TotalReturnPct  float64 `json:"total_return_pct"`
	HourlyReturnPct float64 `json:"hourly_return_pct"`
	DrawdownPct     float64 `json:"drawdown_pct"`
	VolatilityPct   float64 `json:"volatility_pct"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	TradingHours    float64 `json:"trading_hours"`
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
	TradesCount     int     `json:"trades_count"`
}
