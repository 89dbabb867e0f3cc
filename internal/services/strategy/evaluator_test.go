package strategy

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/exchange"
	"go.uber.org/zap"
)

var btcusdt = domain.Pair{From: "BTC", To: "USDT"}

type fixedSource struct {
	ticker domain.Ticker
}

func (s fixedSource) GetTicker(context.Context, domain.Pair) (domain.Ticker, error) {
	return s.ticker, nil
}

type fakeKlines struct {
	candles   []domain.MarketCandle
	err       error
	lastLimit int
	lastTF    string
}

func (f *fakeKlines) GetKlines(_ context.Context, _ domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	f.lastLimit = limit
	f.lastTF = interval
	if f.err != nil {
		return nil, f.err
	}
	return f.candles, nil
}

func newEvaluator(t *testing.T, klines *fakeKlines) (*Evaluator, *exchange.PaperExchange) {
	t.Helper()
	price := decimal.NewFromInt(100)
	src := fixedSource{ticker: domain.Ticker{Pair: btcusdt, Bid: price, Ask: price, Last: price}}

	cfg := exchange.DefaultConfig()
	cfg.SlippageRate = decimal.Zero
	ex, err := exchange.NewPaperExchange(cfg, src, zap.NewNop())
	require.NoError(t, err)

	return NewEvaluator(ex, klines, zap.NewNop()), ex
}

func TestEvaluator_UnsupportedStrategy(t *testing.T) {
	ev, _ := newEvaluator(t, &fakeKlines{})

	_, err := ev.Execute(context.Background(), "martingale", btcusdt, nil, DefaultParams())
	assert.ErrorIs(t, err, domain.ErrUnsupportedStrategy)
}

func TestEvaluator_SignalAutoSizedBuy(t *testing.T) {
	klines := &fakeKlines{candles: candlesFrom(rampCloses(24, 130, -1)...)}
	ev, ex := newEvaluator(t, klines)

	report, err := ev.Execute(context.Background(), NameRSI, btcusdt, nil, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 24, klines.lastLimit)
	assert.Equal(t, "1h", klines.lastTF)
	require.NotNil(t, report.Signal)
	assert.Equal(t, domain.ActionBuy, report.Signal.Action)
	require.Len(t, report.Trades, 1)
	assert.True(t, report.Acted())

	// 10% of 10000 USDT at last price 100
	trade := report.Trades[0]
	assert.Equal(t, domain.OrderTypeMarket, trade.Type)
	assert.True(t, trade.Amount.Equal(decimal.NewFromInt(10)), trade.Amount.String())
	assert.Len(t, ex.Trades(), 1)
}

func TestEvaluator_ExplicitAmount(t *testing.T) {
	klines := &fakeKlines{candles: candlesFrom(rampCloses(24, 130, -1)...)}
	ev, _ := newEvaluator(t, klines)

	amount := decimal.RequireFromString("0.5")
	report, err := ev.Execute(context.Background(), NameRSI, btcusdt, &amount, DefaultParams())
	require.NoError(t, err)
	require.Len(t, report.Trades, 1)
	assert.True(t, report.Trades[0].Amount.Equal(amount))
}

func TestEvaluator_SellWithoutInventoryIsCollected(t *testing.T) {
	klines := &fakeKlines{candles: candlesFrom(rampCloses(24, 100, 1)...)}
	ev, ex := newEvaluator(t, klines)

	amount := decimal.NewFromInt(1)
	report, err := ev.Execute(context.Background(), NameRSI, btcusdt, &amount, DefaultParams())
	require.NoError(t, err)

	require.NotNil(t, report.Signal)
	assert.Equal(t, domain.ActionSell, report.Signal.Action)
	assert.Empty(t, report.Trades)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrInsufficientFunds)
	assert.Empty(t, ex.Trades())
}

func TestEvaluator_NoSignal(t *testing.T) {
	klines := &fakeKlines{candles: candlesFrom(rampCloses(40, 100, 0)...)}
	ev, _ := newEvaluator(t, klines)

	report, err := ev.Execute(context.Background(), "ma", btcusdt, nil, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, NameMACrossover, report.Strategy)
	assert.Equal(t, 40, klines.lastLimit)
	assert.Nil(t, report.Signal)
	assert.False(t, report.Acted())
	assert.Contains(t, report.String(), "no signal")
}

func TestEvaluator_InsufficientHistory(t *testing.T) {
	klines := &fakeKlines{candles: candlesFrom(rampCloses(10, 100, 1)...)}
	ev, _ := newEvaluator(t, klines)

	_, err := ev.Execute(context.Background(), NameBollinger, btcusdt, nil, DefaultParams())
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestEvaluator_KlinesUnavailable(t *testing.T) {
	klines := &fakeKlines{err: errors.New("connection refused")}
	ev, _ := newEvaluator(t, klines)

	_, err := ev.Execute(context.Background(), NameRSI, btcusdt, nil, DefaultParams())
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestEvaluator_Grid(t *testing.T) {
	ev, ex := newEvaluator(t, &fakeKlines{})

	params := DefaultParams()
	params.GridLevels = 2
	report, err := ev.Execute(context.Background(), NameGrid, btcusdt, nil, params)
	require.NoError(t, err)

	assert.Nil(t, report.Signal)
	require.Len(t, report.Trades, 4)
	assert.Empty(t, report.Failures)

	sides := make([]domain.Side, 0, 4)
	for _, tr := range report.Trades {
		assert.Equal(t, domain.OrderTypeLimit, tr.Type)
		sides = append(sides, tr.Side)
	}
	assert.Equal(t, []domain.Side{domain.SideBuy, domain.SideBuy, domain.SideSell, domain.SideSell}, sides)
	assert.True(t, report.Trades[0].Price.Equal(decimal.NewFromInt(98)))

	balances, err := ex.GetBalance(context.Background())
	require.NoError(t, err)
	// bought 2x20, sold 2x10
	assert.True(t, balances.Free("BTC").Equal(decimal.NewFromInt(20)), balances.Free("BTC").String())
}

func TestEvaluator_GridExplicitAmountHitsFunds(t *testing.T) {
	ev, _ := newEvaluator(t, &fakeKlines{})

	params := DefaultParams()
	params.GridLevels = 2
	amount := decimal.NewFromInt(60)
	report, err := ev.Execute(context.Background(), NameGrid, btcusdt, &amount, params)
	require.NoError(t, err)

	// first buy costs 5880 + fee, the second would need 5760 more
	require.Len(t, report.Failures, 2)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrInsufficientFunds)
	assert.Equal(t, "Grid buy level 2", report.Failures[0].Reason)
	assert.Equal(t, "Grid sell level 2", report.Failures[1].Reason)
	assert.Len(t, report.Trades, 2)
}
