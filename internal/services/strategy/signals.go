// Package strategy turns price history into trade signals and executes
// them against a trading venue.
package strategy

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/market/indicators"
)

var (
	gridBuyShare  = decimal.NewFromFloat(0.2)
	gridSellRatio = decimal.NewFromFloat(0.5)
)

// MACrossover signals when the short SMA crosses the long SMA between the
// last two candles. Returns nil when there is no cross.
func MACrossover(candles []domain.MarketCandle, short, long int) (*domain.Signal, error) {
	if short < 1 || long <= short {
		return nil, errors.Errorf("invalid MA windows short=%d long=%d", short, long)
	}
	if len(candles) < long {
		return nil, errors.Wrapf(domain.ErrInsufficientHistory, "MA crossover needs %d candles, got %d", long, len(candles))
	}

	closes := domain.Closes(candles)
	shortMA, err := indicators.CalculateSMA(closes, short)
	if err != nil {
		return nil, errors.Wrap(err, "short SMA")
	}
	longMA, err := indicators.CalculateSMA(closes, long)
	if err != nil {
		return nil, errors.Wrap(err, "long SMA")
	}
	if len(longMA) < 2 {
		return nil, nil
	}

	// both series end at the last candle
	prev := shortMA[len(shortMA)-2].Sub(longMA[len(longMA)-2])
	cur := shortMA[len(shortMA)-1].Sub(longMA[len(longMA)-1])

	switch {
	case prev.Sign() <= 0 && cur.Sign() > 0:
		return &domain.Signal{
			Action: domain.ActionBuy,
			Reason: fmt.Sprintf("MA%d crossed above MA%d", short, long),
		}, nil
	case prev.Sign() >= 0 && cur.Sign() < 0:
		return &domain.Signal{
			Action: domain.ActionSell,
			Reason: fmt.Sprintf("MA%d crossed below MA%d", short, long),
		}, nil
	}
	return nil, nil
}

// RSI buys below oversold and sells above overbought.
func RSI(candles []domain.MarketCandle, period int, oversold, overbought float64) (*domain.Signal, error) {
	if len(candles) < period+1 {
		return nil, errors.Wrapf(domain.ErrInsufficientHistory, "RSI(%d) needs %d candles, got %d", period, period+1, len(candles))
	}

	series, err := indicators.CalculateRSI(domain.Closes(candles), period)
	if err != nil {
		return nil, errors.Wrap(err, "RSI")
	}
	rsi := series[len(series)-1]

	switch {
	case rsi < oversold:
		return &domain.Signal{Action: domain.ActionBuy, Reason: fmt.Sprintf("RSI oversold (%.1f)", rsi)}, nil
	case rsi > overbought:
		return &domain.Signal{Action: domain.ActionSell, Reason: fmt.Sprintf("RSI overbought (%.1f)", rsi)}, nil
	}
	return nil, nil
}

// BollingerBands buys when the last close touches the lower band and sells
// when it touches the upper one.
func BollingerBands(candles []domain.MarketCandle, period int, stdDev decimal.Decimal) (*domain.Signal, error) {
	if len(candles) < period {
		return nil, errors.Wrapf(domain.ErrInsufficientHistory, "Bollinger(%d) needs %d candles, got %d", period, period, len(candles))
	}

	bands, err := indicators.CalculateBollinger(domain.Closes(candles), period, stdDev)
	if err != nil {
		return nil, errors.Wrap(err, "Bollinger Bands")
	}
	last := candles[len(candles)-1].Close
	upper := bands.Upper[len(bands.Upper)-1]
	lower := bands.Lower[len(bands.Lower)-1]

	switch {
	case last.LessThanOrEqual(lower):
		return &domain.Signal{
			Action: domain.ActionBuy,
			Reason: fmt.Sprintf("Price touched lower band (%s <= %s)", last.StringFixed(2), lower.StringFixed(2)),
		}, nil
	case last.GreaterThanOrEqual(upper):
		return &domain.Signal{
			Action: domain.ActionSell,
			Reason: fmt.Sprintf("Price touched upper band (%s >= %s)", last.StringFixed(2), upper.StringFixed(2)),
		}, nil
	}
	return nil, nil
}

// Grid lays out levels buy limits below price and levels sell limits above
// it. Buys come first, nearest level first. Amounts are templates sized from
// the quote balance; the venue decides whether each order can be filled.
func Grid(price, quoteFree decimal.Decimal, levels int, spacing decimal.Decimal) ([]domain.GridOrder, error) {
	if !price.IsPositive() {
		return nil, errors.Wrap(domain.ErrPriceUnavailable, "grid needs a positive price")
	}
	if levels < 1 {
		return nil, errors.Errorf("grid levels must be at least 1, got %d", levels)
	}
	if !spacing.IsPositive() {
		return nil, errors.Errorf("grid spacing must be positive, got %s", spacing)
	}

	buyAmount := quoteFree.Mul(gridBuyShare).Div(price)
	sellAmount := buyAmount.Mul(gridSellRatio)

	orders := make([]domain.GridOrder, 0, 2*levels)
	for i := 1; i <= levels; i++ {
		offset := spacing.Mul(decimal.NewFromInt(int64(i)))
		orders = append(orders, domain.GridOrder{
			Side:   domain.SideBuy,
			Price:  price.Mul(decimal.NewFromInt(1).Sub(offset)),
			Amount: buyAmount,
			Reason: fmt.Sprintf("Grid buy level %d", i),
		})
	}
	for i := 1; i <= levels; i++ {
		offset := spacing.Mul(decimal.NewFromInt(int64(i)))
		orders = append(orders, domain.GridOrder{
			Side:   domain.SideSell,
			Price:  price.Mul(decimal.NewFromInt(1).Add(offset)),
			Amount: sellAmount,
			Reason: fmt.Sprintf("Grid sell level %d", i),
		})
	}
	return orders, nil
}
