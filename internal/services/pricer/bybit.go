package pricer

import (
	"context"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

type BybitPricer struct {
	client *bybit.Client
}

func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

func (p *BybitPricer) GetTicker(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "bybit ticker for %s", pair.String())
	}
	if result.Result.Spot == nil || len(result.Result.Spot.List) == 0 {
		return domain.Ticker{}, errors.Errorf("bybit API returned empty prices for %s", pair.String())
	}

	item := result.Result.Spot.List[0]
	last, err := decimal.NewFromString(item.LastPrice)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse bybit last price %q", item.LastPrice)
	}

	return domain.Ticker{
		Pair:      pair,
		Last:      last,
		Bid:       parseOptional(item.Bid1Price),
		Ask:       parseOptional(item.Ask1Price),
		Volume:    parseOptional(item.Volume24H),
		High:      parseOptional(item.HighPrice24H),
		Low:       parseOptional(item.LowPrice24H),
		Timestamp: time.Now(),
	}, nil
}
