package portfolio

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// scriptedValuer returns one total per call, repeating the last one.
type scriptedValuer struct {
	totals []int64
	calls  int
}

func (v *scriptedValuer) GetPortfolioValue(context.Context) domain.PortfolioValue {
	i := v.calls
	if i >= len(v.totals) {
		i = len(v.totals) - 1
	}
	v.calls++
	total := decimal.NewFromInt(v.totals[i])
	initial := decimal.NewFromInt(10000)
	pl := total.Sub(initial)
	return domain.PortfolioValue{
		QuoteCurrency:     "USDT",
		QuoteFree:         total,
		TotalValue:        total,
		InitialBalance:    initial,
		ProfitLoss:        pl,
		ProfitLossPercent: pl.Div(initial).Mul(decimal.NewFromInt(100)),
		TradesCount:       v.calls,
	}
}

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	ts := c.t
	c.t = c.t.Add(c.step)
	return ts
}

type memStore struct {
	saved []domain.PortfolioSnapshot
	err   error
}

func (m *memStore) Save(s domain.PortfolioSnapshot) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func newClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Hour}
}

func TestTracker_InsufficientData(t *testing.T) {
	tracker := NewTracker(&scriptedValuer{totals: []int64{10000}}, nil)

	_, ok := tracker.PerformanceMetrics()
	assert.False(t, ok)

	tracker.Snapshot(context.Background())
	_, ok = tracker.PerformanceMetrics()
	assert.False(t, ok)
}

func TestTracker_SnapshotAppendsDuplicates(t *testing.T) {
	store := &memStore{}
	tracker := NewTracker(&scriptedValuer{totals: []int64{10000}}, nil, WithStore(store), WithClock(newClock().now))

	tracker.Snapshot(context.Background())
	tracker.Snapshot(context.Background())

	history := tracker.History()
	require.Len(t, history, 2)
	assert.True(t, history[0].TotalValue.Equal(history[1].TotalValue))
	assert.Equal(t, 2, tracker.Len())
	assert.Len(t, store.saved, 2)
}

func TestTracker_StoreFailureIsNotFatal(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	tracker := NewTracker(&scriptedValuer{totals: []int64{10000}}, nil, WithStore(store))

	s := tracker.Snapshot(context.Background())
	assert.True(t, s.TotalValue.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 1, tracker.Len())
}

func TestTracker_PerformanceMetrics(t *testing.T) {
	valuer := &scriptedValuer{totals: []int64{10000, 11000, 9900, 10890}}
	tracker := NewTracker(valuer, nil, WithClock(newClock().now))
	for range valuer.totals {
		tracker.Snapshot(context.Background())
	}

	m, ok := tracker.PerformanceMetrics()
	require.True(t, ok)

	assert.InDelta(t, 3.0, m.TradingHours, 1e-9)
	assert.InDelta(t, 8.9, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, 8.9/3, m.HourlyReturnPct, 1e-9)
	assert.InDelta(t, 11000, m.PeakValue, 1e-9)
	assert.InDelta(t, 10890, m.CurrentValue, 1e-9)
	assert.InDelta(t, 1.0, m.DrawdownPct, 1e-9)

	// returns: +10%, -10%, +10%
	mean := 0.1 / 3
	variance := (math.Pow(0.1-mean, 2) + math.Pow(-0.1-mean, 2) + math.Pow(0.1-mean, 2)) / 2
	wantVol := math.Sqrt(variance) * 100
	assert.InDelta(t, wantVol, m.VolatilityPct, 1e-9)
	assert.InDelta(t, (8.9-2.0)/wantVol, m.SharpeRatio, 1e-9)
	assert.Equal(t, 4, m.TradesCount)
}

func TestComputeMetrics_EdgeCases(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("zero elapsed time", func(t *testing.T) {
		history := []domain.PortfolioSnapshot{
			{Timestamp: ts, TotalValue: decimal.NewFromInt(100)},
			{Timestamp: ts, TotalValue: decimal.NewFromInt(110), ProfitLossPercent: decimal.NewFromInt(10)},
		}
		m, ok := ComputeMetrics(history)
		require.True(t, ok)
		assert.Zero(t, m.HourlyReturnPct)
		// a single return sample has no volatility
		assert.Zero(t, m.VolatilityPct)
		assert.Zero(t, m.SharpeRatio)
	})

	t.Run("zero previous totals are skipped", func(t *testing.T) {
		history := []domain.PortfolioSnapshot{
			{Timestamp: ts, TotalValue: decimal.Zero},
			{Timestamp: ts.Add(time.Hour), TotalValue: decimal.Zero},
			{Timestamp: ts.Add(2 * time.Hour), TotalValue: decimal.NewFromInt(10)},
		}
		m, ok := ComputeMetrics(history)
		require.True(t, ok)
		assert.Zero(t, m.VolatilityPct)
		assert.False(t, math.IsNaN(m.DrawdownPct))
	})

	t.Run("zero peak", func(t *testing.T) {
		history := []domain.PortfolioSnapshot{
			{Timestamp: ts, TotalValue: decimal.Zero},
			{Timestamp: ts.Add(time.Hour), TotalValue: decimal.Zero},
		}
		m, ok := ComputeMetrics(history)
		require.True(t, ok)
		assert.Zero(t, m.DrawdownPct)
	})
}

func TestTracker_ExportCSV(t *testing.T) {
	snap := domain.PortfolioSnapshot{
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalValue:    decimal.NewFromInt(10100),
		ProfitLoss:    decimal.NewFromInt(100),
		QuoteCurrency: "USDT",
		QuoteFree:     decimal.NewFromInt(5100),
		Details: []domain.AssetValuation{
			{Currency: "BTC", Amount: decimal.NewFromFloat(0.1), Value: decimal.NewFromInt(5000), Priced: true},
			{Currency: "ETH", Amount: decimal.NewFromInt(1), Err: "timeout"},
		},
		TradesCount: 2,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []domain.PortfolioSnapshot{snap}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"timestamp", "total_value", "profit_loss", "profit_loss_percent", "trades_count", "quote_free",
		"BTC_amount", "BTC_value", "ETH_amount", "ETH_value",
	}, rows[0])
	assert.Equal(t, "2024-01-01T00:00:00Z", rows[1][0])
	assert.Equal(t, "10100", rows[1][1])
	assert.Equal(t, "0.1", rows[1][6])
	assert.Equal(t, "5000", rows[1][7])
	assert.Equal(t, "", rows[1][9])
}
