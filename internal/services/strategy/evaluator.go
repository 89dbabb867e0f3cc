package strategy

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
)

var autoSizeShare = decimal.NewFromFloat(0.1)

// KlineProvider returns chronological candles, most recent last.
type KlineProvider interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}

// OrderFailure an order the venue rejected while executing a strategy.
type OrderFailure struct {
	Request domain.OrderRequest
	Reason  string
	Err     error
}

// ExecutionReport result of one strategy run. Signal is nil for the grid
// strategy and when the strategy saw nothing to do.
type ExecutionReport struct {
	Strategy string
	Pair     domain.Pair
	Signal   *domain.Signal
	Trades   []domain.TradeRecord
	Failures []OrderFailure
}

// Acted reports whether at least one order was filled.
func (r ExecutionReport) Acted() bool {
	return len(r.Trades) > 0
}

func (r ExecutionReport) String() string {
	if r.Signal == nil && len(r.Trades) == 0 && len(r.Failures) == 0 {
		return fmt.Sprintf("%s %s: no signal", r.Strategy, r.Pair)
	}
	s := fmt.Sprintf("%s %s:", r.Strategy, r.Pair)
	if r.Signal != nil {
		s += " " + r.Signal.String()
	}
	return s + fmt.Sprintf(" (%d filled, %d failed)", len(r.Trades), len(r.Failures))
}

// Evaluator runs named strategies against a venue.
type Evaluator struct {
	venue  venue.TradingVenue
	klines KlineProvider
	logger *zap.Logger
}

// NewEvaluator creates an evaluator. Signals are sized from the venue's balance
// unless the caller passes an explicit amount.
func NewEvaluator(v venue.TradingVenue, klines KlineProvider, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{venue: v, klines: klines, logger: logger}
}

// Execute evaluates strategy name on pair and places the resulting orders.
// A nil amount sizes buys at 10% of the free quote balance and sells at 10%
// of the free base balance. Rejected orders are collected in the report.
func (e *Evaluator) Execute(ctx context.Context, name string, pair domain.Pair, amount *decimal.Decimal, params Params) (ExecutionReport, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return ExecutionReport{}, err
	}
	report := ExecutionReport{Strategy: name, Pair: pair}
	l := e.logger.With(zap.String("strategy", name), zap.String("pair", pair.String()))

	if name == NameGrid {
		return e.executeGrid(ctx, report, amount, params, l)
	}

	candles, err := e.klines.GetKlines(ctx, pair, params.Timeframe, params.candleLimit(name))
	if err != nil {
		return report, errors.Wrapf(domain.ErrPriceUnavailable, "fetch %s candles for %s: %s", params.Timeframe, pair, err)
	}

	var signal *domain.Signal
	switch name {
	case NameMACrossover:
		signal, err = MACrossover(candles, params.ShortWindow, params.LongWindow)
	case NameRSI:
		signal, err = RSI(candles, params.RSIPeriod, params.Oversold, params.Overbought)
	case NameBollinger:
		signal, err = BollingerBands(candles, params.BBPeriod, params.BBStdDev)
	}
	if err != nil {
		return report, err
	}
	report.Signal = signal
	if signal == nil {
		l.Debug("no signal")
		return report, nil
	}
	l.Info("signal", zap.String("action", signal.Action.String()), zap.String("reason", signal.Reason))

	side := signal.Action.Side()
	size, err := e.orderAmount(ctx, pair, side, amount)
	if err != nil {
		return report, err
	}

	req := domain.MarketOrder(pair, side, size)
	e.place(ctx, &report, req, signal.Reason, l)
	return report, nil
}

func (e *Evaluator) executeGrid(ctx context.Context, report ExecutionReport, amount *decimal.Decimal, params Params, l *zap.Logger) (ExecutionReport, error) {
	ticker, err := e.venue.GetTicker(ctx, report.Pair)
	if err != nil {
		return report, errors.Wrapf(domain.ErrPriceUnavailable, "ticker for %s: %s", report.Pair, err)
	}
	balances, err := e.venue.GetBalance(ctx)
	if err != nil {
		return report, errors.Wrap(err, "get balance")
	}

	orders, err := Grid(ticker.Last, balances.Free(report.Pair.To), params.GridLevels, params.GridSpacing)
	if err != nil {
		return report, err
	}

	for _, o := range orders {
		size := o.Amount
		if amount != nil {
			size = *amount
		}
		e.place(ctx, &report, domain.LimitOrder(report.Pair, o.Side, size, o.Price), o.Reason, l)
	}
	l.Info("grid placed", zap.Int("filled", len(report.Trades)), zap.Int("failed", len(report.Failures)))
	return report, nil
}

func (e *Evaluator) place(ctx context.Context, report *ExecutionReport, req domain.OrderRequest, reason string, l *zap.Logger) {
	trade, err := e.venue.CreateOrder(ctx, req)
	if err != nil {
		l.Warn("order rejected",
			zap.String("side", string(req.Side)),
			zap.String("amount", req.Amount.String()),
			zap.String("reason", reason),
			zap.Error(err))
		report.Failures = append(report.Failures, OrderFailure{Request: req, Reason: reason, Err: err})
		return
	}
	report.Trades = append(report.Trades, trade)
}

func (e *Evaluator) orderAmount(ctx context.Context, pair domain.Pair, side domain.Side, amount *decimal.Decimal) (decimal.Decimal, error) {
	if amount != nil {
		return *amount, nil
	}

	balances, err := e.venue.GetBalance(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get balance")
	}

	if side == domain.SideSell {
		return balances.Free(pair.From).Mul(autoSizeShare), nil
	}

	ticker, err := e.venue.GetTicker(ctx, pair)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "ticker for %s: %s", pair, err)
	}
	if !ticker.Last.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "no last price for %s", pair)
	}
	return balances.Free(pair.To).Mul(autoSizeShare).Div(ticker.Last), nil
}
