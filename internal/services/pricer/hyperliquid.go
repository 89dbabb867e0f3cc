package pricer

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// HyperliquidPricer fetches prices from Hyperliquid public Info API.
// Only mid prices are published there, so bid, ask and last all carry the mid.
type HyperliquidPricer struct {
	info *hyperliquid.Info
}

func NewHyperliquidPricer(info *hyperliquid.Info) *HyperliquidPricer {
	return &HyperliquidPricer{info: info}
}

func (p *HyperliquidPricer) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	if p.info == nil {
		return domain.Ticker{}, errors.New("hyperliquid info client is nil")
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "hyperliquid mids for %s", pair.String())
	}

	// mids are keyed by base coin (e.g., "BTC")
	mid, ok := mids[strings.ToUpper(pair.From)]
	if !ok || mid == "" {
		return domain.Ticker{}, errors.Errorf("hyperliquid API returned empty mid price for %s", pair.From)
	}
	price, err := decimal.NewFromString(mid)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse hyperliquid mid %q", mid)
	}

	return domain.Ticker{
		Pair:      pair,
		Last:      price,
		Bid:       price,
		Ask:       price,
		Timestamp: time.Now(),
	}, nil
}
