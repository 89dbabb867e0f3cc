// Package collector fetches historical candles from exchanges and caches
// them on disk.
package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

const binanceMaxKlines = 1000

// BinanceKlineProvider serves spot candles from the Binance REST API.
type BinanceKlineProvider struct {
	client *binance.Client
}

func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines returns up to limit candles, oldest first. Binance caps a
// request at 1000 candles.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}
	if _, err := intervalDuration(interval); err != nil {
		return nil, err
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(min(limit, binanceMaxKlines)).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "binance klines for %s", pair)
	}

	candles := make([]domain.MarketCandle, 0, len(klines))
	for i, k := range klines {
		raw := ohlcv{open: k.Open, high: k.High, low: k.Low, close: k.Close, volume: k.Volume}
		c, err := raw.candle(time.UnixMilli(k.OpenTime), time.UnixMilli(k.CloseTime))
		if err != nil {
			return nil, errors.Wrapf(err, "binance candle %d of %s", i, pair)
		}
		candles = append(candles, c)
	}
	return candles, nil
}
