package venue

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Valuate prices every non-quote holding with a positive free balance in
// quote terms. A failed lookup marks that asset unpriced and leaves it out of
// the total; Valuate itself never fails.
func Valuate(
	ctx context.Context,
	src TickerSource,
	balances domain.Balances,
	quote string,
	initial decimal.Decimal,
	tradesCount int,
	logger *zap.Logger,
) domain.PortfolioValue {
	if logger == nil {
		logger = zap.NewNop()
	}

	quoteFree := balances.Free(quote)
	total := quoteFree
	assets := make([]domain.AssetValuation, 0, len(balances))

	for _, currency := range balances.Currencies() {
		if currency == quote {
			continue
		}
		amount := balances.Free(currency)
		if !amount.IsPositive() {
			continue
		}

		val := domain.AssetValuation{Currency: currency, Amount: amount}
		pair := domain.Pair{From: currency, To: quote}
		ticker, err := src.GetTicker(ctx, pair)
		switch {
		case err != nil:
			val.Err = err.Error()
			logger.Warn("asset valuation failed", zap.String("pair", pair.String()), zap.Error(err))
		case !ticker.Last.IsPositive():
			val.Err = domain.ErrPriceUnavailable.Error()
			logger.Warn("asset valuation got non-positive price", zap.String("pair", pair.String()))
		default:
			val.Price = ticker.Last
			val.Value = amount.Mul(ticker.Last)
			val.Priced = true
			total = total.Add(val.Value)
		}
		assets = append(assets, val)
	}

	pl := total.Sub(initial)
	plPct := decimal.Zero
	if initial.IsPositive() {
		plPct = pl.Div(initial).Mul(hundred)
	}

	return domain.PortfolioValue{
		QuoteCurrency:     quote,
		QuoteFree:         quoteFree,
		TotalValue:        total,
		InitialBalance:    initial,
		ProfitLoss:        pl,
		ProfitLossPercent: plPct,
		Assets:            assets,
		TradesCount:       tradesCount,
	}
}
