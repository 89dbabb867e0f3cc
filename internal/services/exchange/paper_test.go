package exchange

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
)

// mockSource is a simple mock for the ticker source.
type mockSource struct {
	mu      sync.Mutex
	tickers map[domain.Pair]domain.Ticker
	err     error
}

func newMockSource() *mockSource {
	return &mockSource{tickers: make(map[domain.Pair]domain.Ticker)}
}

func (m *mockSource) set(pair domain.Pair, bid, ask, last string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[pair] = domain.Ticker{
		Pair: pair,
		Bid:  decimal.RequireFromString(bid),
		Ask:  decimal.RequireFromString(ask),
		Last: decimal.RequireFromString(last),
	}
}

func (m *mockSource) GetTicker(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Ticker{}, m.err
	}
	t, ok := m.tickers[pair]
	if !ok {
		return domain.Ticker{}, errors.Errorf("no ticker for %s", pair.String())
	}
	return t, nil
}

var btcusdt = domain.Pair{From: "BTC", To: "USDT"}

func newTestExchange(t *testing.T, src *mockSource) *PaperExchange {
	t.Helper()
	ex, err := NewPaperExchange(DefaultConfig(), src, zap.NewNop())
	require.NoError(t, err)
	return ex
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPaperExchange_New(t *testing.T) {
	ex := newTestExchange(t, newMockSource())

	balances, err := ex.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balances.Free("USDT").Equal(decimal.NewFromInt(10000)))
	assert.True(t, balances.Free("BTC").IsZero())
	assert.True(t, balances.Free("ETH").IsZero())
	assert.Equal(t, venue.KindSimulated, ex.Kind())

	t.Run("requires source", func(t *testing.T) {
		_, err := NewPaperExchange(DefaultConfig(), nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects bad rates", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FeeRate = d("-0.1")
		_, err := NewPaperExchange(cfg, newMockSource(), nil)
		assert.Error(t, err)
	})
}

func TestPaperExchange_MarketBuyScenario(t *testing.T) {
	src := newMockSource()
	src.set(btcusdt, "49990", "50000", "49995")
	ex := newTestExchange(t, src)

	trade, err := ex.CreateOrder(context.Background(), domain.MarketOrder(btcusdt, domain.SideBuy, d("0.1")))
	require.NoError(t, err)

	assert.Equal(t, 1, trade.ID)
	assert.True(t, trade.Price.Equal(d("50025")), "price %s", trade.Price)
	assert.True(t, trade.Cost.Equal(d("5002.5")), "cost %s", trade.Cost)
	assert.True(t, trade.Fee.Equal(d("5.0025")), "fee %s", trade.Fee)
	assert.True(t, trade.Net.Equal(d("5007.5025")), "net %s", trade.Net)

	balances, err := ex.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balances.Free("USDT").Equal(d("4992.4975")), "usdt %s", balances.Free("USDT"))
	assert.True(t, balances.Free("BTC").Equal(d("0.1")))
	for currency, b := range balances {
		assert.True(t, b.Total.Equal(b.Free.Add(b.Used)), currency)
		assert.False(t, b.Free.IsNegative(), currency)
	}
}

func TestPaperExchange_MarketSell(t *testing.T) {
	src := newMockSource()
	src.set(btcusdt, "50000", "50000", "50000")
	ex := newTestExchange(t, src)
	ctx := context.Background()

	_, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideBuy, d("0.1")))
	require.NoError(t, err)

	src.set(btcusdt, "60000", "60010", "60005")
	trade, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideSell, d("0.1")))
	require.NoError(t, err)

	// 60000 * (1 - 0.0005) = 59970
	assert.True(t, trade.Price.Equal(d("59970")), "price %s", trade.Price)
	assert.True(t, trade.Cost.Equal(d("5997")))
	assert.True(t, trade.Fee.Equal(d("5.997")))
	assert.True(t, trade.Net.Equal(d("5991.003")))

	balances, err := ex.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balances.Free("BTC").IsZero())
	// 10000 - 5002.5 - 5.0025 + 5991.003
	assert.True(t, balances.Free("USDT").Equal(d("10983.5005")), "usdt %s", balances.Free("USDT"))
}

func TestPaperExchange_LimitOrder(t *testing.T) {
	src := newMockSource()
	src.set(btcusdt, "50000", "50000", "50000")
	ex := newTestExchange(t, src)

	trade, err := ex.CreateOrder(context.Background(), domain.LimitOrder(btcusdt, domain.SideBuy, d("0.01"), d("48000")))
	require.NoError(t, err)
	assert.True(t, trade.Price.Equal(d("48000")))
	assert.Equal(t, domain.OrderTypeLimit, trade.Type)

	t.Run("missing price", func(t *testing.T) {
		req := domain.OrderRequest{Pair: btcusdt, Type: domain.OrderTypeLimit, Side: domain.SideBuy, Amount: d("0.01")}
		_, err := ex.CreateOrder(context.Background(), req)
		assert.True(t, errors.Is(err, domain.ErrMissingPrice))
	})
}

func TestPaperExchange_InsufficientFunds(t *testing.T) {
	src := newMockSource()
	src.set(btcusdt, "50000", "50000", "50000")
	ex := newTestExchange(t, src)
	ctx := context.Background()

	t.Run("buy more than quote allows", func(t *testing.T) {
		// 0.2 * 50025 + fee > 10000
		_, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideBuy, d("0.2")))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
		var fundsErr *domain.InsufficientFundsError
		require.True(t, errors.As(err, &fundsErr))
		assert.Equal(t, "USDT", fundsErr.Currency)
	})

	t.Run("sell without base", func(t *testing.T) {
		_, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideSell, d("1")))
		require.Error(t, err)
		var fundsErr *domain.InsufficientFundsError
		require.True(t, errors.As(err, &fundsErr))
		assert.Equal(t, "BTC", fundsErr.Currency)
		assert.Contains(t, err.Error(), "insufficient")
	})

	balances, err := ex.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balances.Free("USDT").Equal(decimal.NewFromInt(10000)))
	assert.True(t, balances.Free("BTC").IsZero())
	assert.Empty(t, ex.Trades())
}

func TestPaperExchange_PriceUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("source error", func(t *testing.T) {
		src := newMockSource()
		src.err = errors.New("timeout")
		ex := newTestExchange(t, src)

		_, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideBuy, d("0.1")))
		assert.True(t, errors.Is(err, domain.ErrPriceUnavailable))
		assert.Empty(t, ex.Trades())
	})

	t.Run("no ask for market buy", func(t *testing.T) {
		src := newMockSource()
		src.set(btcusdt, "50000", "0", "50000")
		ex := newTestExchange(t, src)

		_, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideBuy, d("0.1")))
		assert.True(t, errors.Is(err, domain.ErrPriceUnavailable))
	})
}

func TestPaperExchange_TradeIDsAndFeeConservation(t *testing.T) {
	src := newMockSource()
	ex := newTestExchange(t, src)
	ctx := context.Background()

	steps := []struct {
		bid, ask string
		side     domain.Side
		amount   string
	}{
		{"50000", "50010", domain.SideBuy, "0.05"},
		{"51000", "51020", domain.SideBuy, "0.02"},
		{"52000", "52005", domain.SideSell, "0.03"},
		{"49000", "49001", domain.SideSell, "0.04"},
	}

	for i, step := range steps {
		src.set(btcusdt, step.bid, step.ask, step.bid)

		before, err := ex.GetBalance(ctx)
		require.NoError(t, err)

		trade, err := ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, step.side, d(step.amount)))
		require.NoError(t, err)
		assert.Equal(t, i+1, trade.ID)

		after, err := ex.GetBalance(ctx)
		require.NoError(t, err)

		valueAt := func(b domain.Balances) decimal.Decimal {
			return b.Free("USDT").Add(b.Free("BTC").Mul(trade.Price))
		}
		assert.True(t, valueAt(before).Sub(valueAt(after)).Equal(trade.Fee),
			"step %d: value drop %s, fee %s", i, valueAt(before).Sub(valueAt(after)), trade.Fee)

		for currency, b := range after {
			assert.False(t, b.Free.IsNegative(), currency)
		}
	}

	trades := ex.Trades()
	require.Len(t, trades, len(steps))
	for i, tr := range trades {
		assert.Equal(t, i+1, tr.ID)
	}
}

func TestPaperExchange_ConcurrentBuysNeverOverdraw(t *testing.T) {
	src := newMockSource()
	src.set(btcusdt, "1000", "1000", "1000")
	cfg := DefaultConfig()
	cfg.FeeRate = decimal.Zero
	cfg.SlippageRate = decimal.Zero
	ex, err := NewPaperExchange(cfg, src, nil)
	require.NoError(t, err)

	// each buy costs 1000; only ten can succeed
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ex.CreateOrder(context.Background(), domain.MarketOrder(btcusdt, domain.SideBuy, d("1")))
		}()
	}
	wg.Wait()

	balances, err := ex.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balances.Free("USDT").IsZero())
	assert.True(t, balances.Free("BTC").Equal(decimal.NewFromInt(10)))

	trades := ex.Trades()
	require.Len(t, trades, 10)
	for i, tr := range trades {
		assert.Equal(t, i+1, tr.ID)
	}
}

func TestPaperExchange_GetPortfolioValue(t *testing.T) {
	src := newMockSource()
	ethusdt := domain.Pair{From: "ETH", To: "USDT"}
	src.set(btcusdt, "50000", "50000", "50000")
	src.set(ethusdt, "2000", "2000", "2000")

	cfg := DefaultConfig()
	cfg.FeeRate = decimal.Zero
	cfg.SlippageRate = decimal.Zero
	ex, err := NewPaperExchange(cfg, src, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ex.CreateOrder(ctx, domain.MarketOrder(btcusdt, domain.SideBuy, d("0.1")))
	require.NoError(t, err)
	_, err = ex.CreateOrder(ctx, domain.MarketOrder(ethusdt, domain.SideBuy, d("1")))
	require.NoError(t, err)

	src.set(btcusdt, "60000", "60000", "60000")
	v := ex.GetPortfolioValue(ctx)
	// 3000 USDT + 0.1*60000 + 1*2000
	assert.True(t, v.TotalValue.Equal(d("11000")), "total %s", v.TotalValue)
	assert.True(t, v.ProfitLoss.Equal(d("1000")))
	assert.True(t, v.ProfitLossPercent.Equal(d("10")))
	assert.Equal(t, 2, v.TradesCount)
	assert.True(t, v.Complete())

	t.Run("unpriced asset is excluded", func(t *testing.T) {
		src.mu.Lock()
		delete(src.tickers, ethusdt)
		src.mu.Unlock()

		v := ex.GetPortfolioValue(ctx)
		assert.True(t, v.TotalValue.Equal(d("9000")), "total %s", v.TotalValue)
		assert.False(t, v.Complete())

		var eth domain.AssetValuation
		for _, a := range v.Assets {
			if a.Currency == "ETH" {
				eth = a
			}
		}
		assert.False(t, eth.Priced)
		assert.NotEmpty(t, eth.Err)
		assert.True(t, eth.Amount.Equal(d("1")))
	})
}
