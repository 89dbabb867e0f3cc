package strategy

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

// Strategy names accepted by Evaluator.Execute.
const (
	NameMACrossover = "ma_crossover"
	NameRSI         = "rsi"
	NameBollinger   = "bollinger"
	NameGrid        = "grid"
)

// Names lists the supported strategies in menu order.
func Names() []string {
	return []string{NameMACrossover, NameRSI, NameBollinger, NameGrid}
}

// Params tunes every strategy; only the fields of the selected one are used.
type Params struct {
	Timeframe string

	ShortWindow int
	LongWindow  int

	RSIPeriod  int
	Oversold   float64
	Overbought float64

	BBPeriod int
	BBStdDev decimal.Decimal

	GridLevels  int
	GridSpacing decimal.Decimal
}

// DefaultParams MA 10/30, RSI 14 (30/70), Bollinger 20/2, grid 5 levels 2% apart on 1h candles.
func DefaultParams() Params {
	return Params{
		Timeframe:   "1h",
		ShortWindow: 10,
		LongWindow:  30,
		RSIPeriod:   14,
		Oversold:    30,
		Overbought:  70,
		BBPeriod:    20,
		BBStdDev:    decimal.NewFromInt(2),
		GridLevels:  5,
		GridSpacing: decimal.NewFromFloat(0.02),
	}
}

// candleLimit history requested for a strategy: its window plus ten spare candles.
func (p Params) candleLimit(name string) int {
	switch name {
	case NameMACrossover:
		return p.LongWindow + 10
	case NameRSI:
		return p.RSIPeriod + 10
	case NameBollinger:
		return p.BBPeriod + 10
	default:
		return 0
	}
}

// NormalizeName maps user input to a strategy name.
func NormalizeName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "ma", "ma_cross", "macrossover", NameMACrossover:
		return NameMACrossover, nil
	case NameRSI:
		return NameRSI, nil
	case "bb", "bollinger_bands", NameBollinger:
		return NameBollinger, nil
	case NameGrid:
		return NameGrid, nil
	}
	return "", errors.Wrapf(domain.ErrUnsupportedStrategy, "%q", name)
}
