package collector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	btcusdt = domain.Pair{From: "BTC", To: "USDT"}
	ethusdt = domain.Pair{From: "ETH", To: "USDT"}
)

type countingProvider struct {
	calls  int
	err    error
	slopes map[domain.Pair]float64
}

func (p *countingProvider) GetKlines(_ context.Context, pair domain.Pair, _ string, limit int) ([]domain.MarketCandle, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	slope := 1.0
	if s, ok := p.slopes[pair]; ok {
		slope = s
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.MarketCandle, limit)
	for i := range out {
		c := decimal.NewFromFloat(1000 + slope*float64(i))
		out[i] = domain.MarketCandle{
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    decimal.NewFromInt(5),
			CloseTime: start.Add(time.Duration(i+1)*time.Hour - time.Millisecond),
		}
	}
	return out, nil
}

func newTestCollector(t *testing.T, p KlineProvider) (*Collector, *time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCollector(p, Config{Platform: "binance", CacheDir: t.TempDir()}, zap.NewNop())
	c.now = func() time.Time { return now }
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c, &now
}

func TestCollector_Cache(t *testing.T) {
	p := &countingProvider{}
	c, now := newTestCollector(t, p)
	ctx := context.Background()

	first, err := c.Fetch(ctx, btcusdt, "1h", 10, false)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, 1, p.calls)

	cached, err := c.GetKlines(ctx, btcusdt, "1h", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls, "fresh cache must be served")
	assert.True(t, cached[9].Close.Equal(first[9].Close))
	assert.True(t, cached[0].OpenTime.Equal(first[0].OpenTime))

	_, err = c.Fetch(ctx, btcusdt, "1h", 10, true)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls, "force bypasses cache")

	*now = now.Add(time.Hour)
	_, err = c.GetKlines(ctx, btcusdt, "1h", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls, "expired cache is refetched")

	_, err = c.GetKlines(ctx, btcusdt, "4h", 10)
	require.NoError(t, err)
	assert.Equal(t, 4, p.calls, "cache is keyed by interval")
}

func TestCollector_CorruptCache(t *testing.T) {
	p := &countingProvider{}
	c, _ := newTestCollector(t, p)

	path := c.cachePath(btcusdt, "1h", 5)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	candles, err := c.GetKlines(context.Background(), btcusdt, "1h", 5)
	require.NoError(t, err)
	assert.Len(t, candles, 5)
	assert.Equal(t, 1, p.calls)
}

func TestCollector_ProviderError(t *testing.T) {
	c, _ := newTestCollector(t, &countingProvider{err: errors.New("503")})

	_, err := c.GetKlines(context.Background(), btcusdt, "1h", 5)
	assert.Error(t, err)

	res, err := c.CollectMultiple(context.Background(), []domain.Pair{btcusdt}, "1h", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCollector_CollectMultipleAndExport(t *testing.T) {
	c, _ := newTestCollector(t, &countingProvider{})
	ctx := context.Background()

	res, err := c.CollectMultiple(ctx, []domain.Pair{btcusdt, ethusdt}, "1h", 30)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Len(t, res[ethusdt], 30)
	assert.True(t, res[btcusdt][29].MA25.Valid)

	dir := t.TempDir()
	path, err := c.ExportCSV(ctx, dir, btcusdt, "1h", 30)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BTC_USDT_indicators_20240601_1200.csv"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCollector_Correlation(t *testing.T) {
	p := &countingProvider{slopes: map[domain.Pair]float64{ethusdt: -2}}
	c, _ := newTestCollector(t, p)

	corr, err := c.Correlation(context.Background(), []domain.Pair{btcusdt, ethusdt}, "1d", 20)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, corr[btcusdt][btcusdt], 1e-9)
	assert.InDelta(t, -1.0, corr[btcusdt][ethusdt], 1e-9)

	_, err = c.Correlation(context.Background(), []domain.Pair{btcusdt}, "1d", 20)
	assert.Error(t, err)
}

func TestPearson_Degenerate(t *testing.T) {
	assert.True(t, math.IsNaN(pearson([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
}

func TestIntervalDuration(t *testing.T) {
	d, err := intervalDuration("4h")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, d)

	d, err = intervalDuration("1w")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	for _, bad := range []string{"", "h", "0m", "5y", "x1m"} {
		_, err := intervalDuration(bad)
		assert.Error(t, err, bad)
	}
}
