package pricer

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// BinancePricer quotes pairs from the Binance 24h ticker endpoint.
// The endpoint is public, so the client may be created without API keys.
type BinancePricer struct {
	client *binance.Client
}

// NewBinancePricer creates a new Binance pricer.
func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

// GetTicker fetches last, best bid/ask and 24h range for pair.
func (p *BinancePricer) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	stats, err := p.client.NewListPriceChangeStatsService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "binance ticker for %s", pair.String())
	}
	if len(stats) == 0 {
		return domain.Ticker{}, errors.Errorf("binance API returned empty ticker for %s", pair.String())
	}

	s := stats[0]
	last, err := decimal.NewFromString(s.LastPrice)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse binance last price %q", s.LastPrice)
	}

	ts := time.Now()
	if s.CloseTime > 0 {
		ts = time.UnixMilli(s.CloseTime)
	}

	return domain.Ticker{
		Pair:      pair,
		Last:      last,
		Bid:       parseOptional(s.BidPrice),
		Ask:       parseOptional(s.AskPrice),
		Volume:    parseOptional(s.Volume),
		High:      parseOptional(s.HighPrice),
		Low:       parseOptional(s.LowPrice),
		Timestamp: ts,
	}, nil
}
