package collector

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// HyperliquidKlineProvider serves candles from the Hyperliquid info API.
// Markets are keyed by coin and always quoted in USD, so pair.To is ignored.
type HyperliquidKlineProvider struct {
	info *hyperliquid.Info
}

func NewHyperliquidKlineProvider(info *hyperliquid.Info) *HyperliquidKlineProvider {
	return &HyperliquidKlineProvider{info: info}
}

// GetKlines asks for a time window slightly wider than limit candles and
// keeps the newest limit of them.
func (p *HyperliquidKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	if p.info == nil {
		return nil, errors.New("hyperliquid info client is not configured")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	coin := strings.ToUpper(pair.From)
	end := time.Now()
	start := end.Add(-time.Duration(limit+2) * step)

	snapshot, err := p.info.CandlesSnapshot(ctx, coin, interval, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, errors.Wrapf(err, "hyperliquid candles for %s", coin)
	}
	if len(snapshot) == 0 {
		return nil, errors.Errorf("no candles from hyperliquid for %s %s", coin, interval)
	}
	if len(snapshot) > limit {
		snapshot = snapshot[len(snapshot)-limit:]
	}

	candles := make([]domain.MarketCandle, 0, len(snapshot))
	for i, s := range snapshot {
		raw := ohlcv{open: s.Open, high: s.High, low: s.Low, close: s.Close, volume: s.Volume}
		c, err := raw.candle(time.UnixMilli(s.TimeOpen), time.UnixMilli(s.TimeClose))
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid candle %d of %s", i, coin)
		}
		candles = append(candles, c)
	}
	return candles, nil
}
