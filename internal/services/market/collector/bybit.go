package collector

import (
	"context"
	"slices"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

const bybitMaxKlines = 1000

// BybitKlineProvider serves spot candles from the Bybit v5 market API.
type BybitKlineProvider struct {
	client *bybit.Client
}

func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// GetKlines fetches up to limit candles, oldest first.
func (p *BybitKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := bybitInterval(interval)
	if err != nil {
		return nil, err
	}
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	batch := min(limit, bybitMaxKlines)
	resp, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Interval: bybit.Interval(code),
		Limit:    &batch,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "bybit klines for %s", pair)
	}
	if resp == nil || len(resp.Result.List) == 0 {
		return nil, errors.Errorf("no kline data returned from bybit for %s", pair)
	}

	candles := make([]domain.MarketCandle, 0, len(resp.Result.List))
	for i, k := range resp.Result.List {
		openTime, err := parseMillis(k.StartTime)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit candle %d of %s", i, pair)
		}
		raw := ohlcv{open: k.Open, high: k.High, low: k.Low, close: k.Close, volume: k.Volume}
		c, err := raw.candle(openTime, openTime.Add(step-time.Millisecond))
		if err != nil {
			return nil, errors.Wrapf(err, "bybit candle %d of %s", i, pair)
		}
		candles = append(candles, c)
	}

	// bybit lists newest first
	slices.Reverse(candles)
	return candles, nil
}
