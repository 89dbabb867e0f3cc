package cli

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/arbitrage"
	"github.com/vadiminshakov/papertrade/internal/services/market/indicators"
	"github.com/vadiminshakov/papertrade/internal/services/notifier"
	"github.com/vadiminshakov/papertrade/internal/services/strategy"
)

var btcusdt = domain.Pair{From: "BTC", To: "USDT"}

func TestLiveConfirmed(t *testing.T) {
	assert.True(t, LiveConfirmed("YES"))
	assert.True(t, LiveConfirmed(" YES\n"))
	assert.False(t, LiveConfirmed("yes"))
	assert.False(t, LiveConfirmed("Y"))
	assert.False(t, LiveConfirmed(""))
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("eth", "USDT")
	require.NoError(t, err)
	assert.Equal(t, domain.Pair{From: "ETH", To: "USDT"}, p)

	p, err = ParsePair("sol_usdc", "USDT")
	require.NoError(t, err)
	assert.Equal(t, domain.Pair{From: "SOL", To: "USDC"}, p)

	_, err = ParsePair("", "USDT")
	assert.ErrorIs(t, err, domain.ErrInvalidPair)
}

func TestPortfolio(t *testing.T) {
	v := domain.PortfolioValue{
		QuoteCurrency:     "USDT",
		QuoteFree:         decimal.NewFromInt(5000),
		TotalValue:        decimal.NewFromInt(10500),
		InitialBalance:    decimal.NewFromInt(10000),
		ProfitLoss:        decimal.NewFromInt(500),
		ProfitLossPercent: decimal.NewFromInt(5),
		TradesCount:       2,
		Assets: []domain.AssetValuation{
			{Currency: "BTC", Amount: decimal.RequireFromString("0.1"), Price: decimal.NewFromInt(55000), Value: decimal.NewFromInt(5500), Priced: true},
			{Currency: "ETH", Amount: decimal.NewFromInt(2), Err: domain.ErrPriceUnavailable},
		},
	}
	out := Portfolio(v)
	assert.Contains(t, out, "10500.00 USDT")
	assert.Contains(t, out, "+500.00 USDT")
	assert.Contains(t, out, "+5.00%")
	assert.Contains(t, out, "price unavailable")
	assert.Contains(t, out, "understated")
}

func TestPerformance(t *testing.T) {
	assert.Contains(t, Performance(domain.PerformanceMetrics{}, false), "Not enough snapshots")

	out := Performance(domain.PerformanceMetrics{TotalReturnPct: -2.5, DrawdownPct: 3, SharpeRatio: 1.25}, true)
	assert.Contains(t, out, "-2.50%")
	assert.Contains(t, out, "1.25")
}

func TestTrades(t *testing.T) {
	assert.Contains(t, Trades(nil), "No trades")

	out := Trades([]domain.TradeRecord{{
		ID: 7, Timestamp: time.Now(), Pair: btcusdt, Type: domain.OrderTypeMarket, Side: domain.SideBuy,
		Price: decimal.NewFromInt(50025), Amount: decimal.RequireFromString("0.1"), Fee: decimal.RequireFromString("5.0025"),
	}})
	assert.Contains(t, out, "BTC/USDT")
	assert.Contains(t, out, "50025.00")
	assert.Contains(t, out, "5.0025")
}

func TestAlerts(t *testing.T) {
	assert.Contains(t, Alerts(nil), "No alerts")

	last := decimal.NewFromInt(61000)
	out := Alerts([]domain.AlertRule{
		{ID: 1, Pair: btcusdt, Condition: domain.AlertAbove, Threshold: decimal.NewFromInt(60000), LastValue: &last, Message: "moon"},
		{ID: 2, Pair: btcusdt, Condition: domain.AlertBelow, Threshold: decimal.NewFromInt(40000), Active: true},
	})
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "fired")
	assert.Contains(t, out, "61000.00")
	assert.Contains(t, out, "moon")
	assert.Contains(t, out, "active")
}

func TestReport(t *testing.T) {
	r := strategy.ExecutionReport{
		Strategy: strategy.NameGrid,
		Pair:     btcusdt,
		Trades:   []domain.TradeRecord{{Side: domain.SideBuy, Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(98)}},
		Failures: []strategy.OrderFailure{{Reason: "Grid sell level 1", Err: domain.ErrInsufficientFunds}},
	}
	out := Report(r)
	assert.Contains(t, out, "1 filled, 1 failed")
	assert.Contains(t, out, "98.00")
	assert.Contains(t, out, "Grid sell level 1: insufficient funds")
}

func TestOpportunities(t *testing.T) {
	assert.Contains(t, Opportunities(nil), "No arbitrage")

	out := Opportunities(map[domain.Pair][]arbitrage.Opportunity{
		btcusdt: {{
			Pair: btcusdt, BuyExchange: "bybit", BuyPrice: decimal.NewFromInt(50000),
			SellExchange: "binance", SellPrice: decimal.NewFromInt(50400),
			SpreadPercent: decimal.RequireFromString("0.8"), ProfitPerUnit: decimal.NewFromInt(400),
		}},
	})
	assert.Contains(t, out, "buy on bybit")
	assert.Contains(t, out, "sell on binance")
}

func TestIndicatorTail(t *testing.T) {
	assert.Contains(t, IndicatorTail(btcusdt, nil, 5), "No candles")

	rows := make([]indicators.Row, 8)
	for i := range rows {
		rows[i].Candle = domain.MarketCandle{OpenTime: time.Unix(int64(i)*3600, 0), Close: decimal.NewFromInt(int64(100 + i))}
	}
	rows[7].RSI14 = decimal.NewNullDecimal(decimal.RequireFromString("55.55"))

	out := IndicatorTail(btcusdt, rows, 3)
	assert.NotContains(t, out, "104.00")
	assert.Contains(t, out, "105.00")
	assert.Contains(t, out, "107.00")
	assert.Contains(t, out, "55.6")
}

func TestNotifications(t *testing.T) {
	assert.Contains(t, Notifications(nil), "No notifications")

	out := Notifications([]notifier.Record{
		{Timestamp: time.Now(), Method: "console", Message: "Alert #1"},
		{Timestamp: time.Now(), Method: "telegram", Message: "Alert #2", Err: errors.New("401").Error()},
	})
	assert.Contains(t, out, "sent")
	assert.Contains(t, out, "failed: 401")
}
