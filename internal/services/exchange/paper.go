// Package exchange implements the paper exchange: a simulated spot account
// that fills orders against live quotes with a fee and slippage model.
package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
)

var one = decimal.NewFromInt(1)

// Config paper account parameters. Rates are fractions: 0.001 is 0.1%.
type Config struct {
	InitialBalance decimal.Decimal
	QuoteCurrency  string
	FeeRate        decimal.Decimal
	SlippageRate   decimal.Decimal
	// Assets base currencies listed in the ledger from the start with zero balance.
	Assets []string
}

// DefaultConfig 10000 USDT, 0.1% fee, 0.05% slippage.
func DefaultConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(10000),
		QuoteCurrency:  "USDT",
		FeeRate:        decimal.RequireFromString("0.001"),
		SlippageRate:   decimal.RequireFromString("0.0005"),
		Assets:         []string{"BTC", "ETH"},
	}
}

func (c Config) validate() error {
	if c.QuoteCurrency == "" {
		return errors.New("quote currency is required")
	}
	if c.InitialBalance.IsNegative() {
		return errors.Errorf("initial balance must not be negative, got %s", c.InitialBalance.String())
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(one) {
		return errors.Errorf("fee rate must be in [0, 1), got %s", c.FeeRate.String())
	}
	if c.SlippageRate.IsNegative() || c.SlippageRate.GreaterThanOrEqual(one) {
		return errors.Errorf("slippage rate must be in [0, 1), got %s", c.SlippageRate.String())
	}
	return nil
}

// PaperExchange simulated spot account. Quotes are read outside the lock;
// the sufficiency check, ledger transfer and trade append happen atomically.
type PaperExchange struct {
	mu     sync.Mutex
	cfg    Config
	source venue.TickerSource
	logger *zap.Logger
	ledger domain.Balances
	trades []domain.TradeRecord
	now    func() time.Time
}

// NewPaperExchange creates a paper account funded with cfg.InitialBalance of cfg.QuoteCurrency.
func NewPaperExchange(cfg Config, source venue.TickerSource, logger *zap.Logger) (*PaperExchange, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil {
		return nil, errors.New("ticker source is required for PaperExchange")
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid paper exchange config")
	}

	ledger := domain.Balances{cfg.QuoteCurrency: domain.NewAssetBalance(cfg.InitialBalance)}
	for _, asset := range cfg.Assets {
		if asset == cfg.QuoteCurrency {
			continue
		}
		ledger[asset] = domain.NewAssetBalance(decimal.Zero)
	}

	logger.Info("paper exchange init",
		zap.String("quote", cfg.QuoteCurrency),
		zap.String("balance", cfg.InitialBalance.String()),
		zap.String("fee_rate", cfg.FeeRate.String()),
		zap.String("slippage_rate", cfg.SlippageRate.String()))

	return &PaperExchange{
		cfg:    cfg,
		source: source,
		logger: logger,
		ledger: ledger,
		now:    time.Now,
	}, nil
}

// Kind implements venue.TradingVenue.
func (e *PaperExchange) Kind() venue.Kind { return venue.KindSimulated }

// Config returns the account parameters.
func (e *PaperExchange) Config() Config { return e.cfg }

// GetTicker passes through to the market data source.
func (e *PaperExchange) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	return e.source.GetTicker(ctx, pair)
}

// GetBalance returns a copy of the ledger.
func (e *PaperExchange) GetBalance(context.Context) (domain.Balances, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Clone(), nil
}

// Trades returns a copy of the trade log in execution order.
func (e *PaperExchange) Trades() []domain.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.TradeRecord, len(e.trades))
	copy(out, e.trades)
	return out
}

// CreateOrder simulates the fill of req. The ledger is untouched on any error.
func (e *PaperExchange) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.TradeRecord, error) {
	if err := req.Validate(); err != nil {
		return domain.TradeRecord{}, err
	}

	ticker, err := e.source.GetTicker(ctx, req.Pair)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(domain.ErrPriceUnavailable, "%s: %v", req.Pair.String(), err)
	}

	price, err := e.executionPrice(req, ticker)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	cost := req.Amount.Mul(price)
	fee := cost.Mul(e.cfg.FeeRate)

	e.mu.Lock()
	defer e.mu.Unlock()

	base, quote := req.Pair.From, req.Pair.To
	var net decimal.Decimal

	switch req.Side {
	case domain.SideBuy:
		net = cost.Add(fee)
		if have := e.ledger.Free(quote); have.LessThan(net) {
			return domain.TradeRecord{}, &domain.InsufficientFundsError{Currency: quote, Have: have, Need: net}
		}
		e.credit(quote, net.Neg())
		e.credit(base, req.Amount)
	case domain.SideSell:
		net = cost.Sub(fee)
		if have := e.ledger.Free(base); have.LessThan(req.Amount) {
			return domain.TradeRecord{}, &domain.InsufficientFundsError{Currency: base, Have: have, Need: req.Amount}
		}
		e.credit(base, req.Amount.Neg())
		e.credit(quote, net)
	}

	trade := domain.TradeRecord{
		ID:        len(e.trades) + 1,
		Timestamp: e.now(),
		Pair:      req.Pair,
		Type:      req.Type,
		Side:      req.Side,
		Price:     price,
		Amount:    req.Amount,
		Cost:      cost,
		Fee:       fee,
		Net:       net,
	}
	e.trades = append(e.trades, trade)

	e.logger.Info("Simulated order executed",
		zap.Int("id", trade.ID),
		zap.String("pair", req.Pair.String()),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
		zap.String("price", price.String()),
		zap.String("fee", fee.String()),
		zap.String(quote, e.ledger.Free(quote).String()),
		zap.String(base, e.ledger.Free(base).String()))

	return trade, nil
}

// GetPortfolioValue values the ledger at current last prices.
func (e *PaperExchange) GetPortfolioValue(ctx context.Context) domain.PortfolioValue {
	e.mu.Lock()
	ledger := e.ledger.Clone()
	count := len(e.trades)
	e.mu.Unlock()

	return venue.Valuate(ctx, e.source, ledger, e.cfg.QuoteCurrency, e.cfg.InitialBalance, count, e.logger)
}

func (e *PaperExchange) executionPrice(req domain.OrderRequest, ticker domain.Ticker) (decimal.Decimal, error) {
	if req.Type == domain.OrderTypeLimit {
		return *req.Price, nil
	}

	if req.Side == domain.SideBuy {
		if !ticker.Ask.IsPositive() {
			return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "no ask for %s", req.Pair.String())
		}
		return ticker.Ask.Mul(one.Add(e.cfg.SlippageRate)), nil
	}

	if !ticker.Bid.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "no bid for %s", req.Pair.String())
	}
	return ticker.Bid.Mul(one.Sub(e.cfg.SlippageRate)), nil
}

// credit adds delta to the free balance of currency. Caller holds e.mu.
func (e *PaperExchange) credit(currency string, delta decimal.Decimal) {
	b := e.ledger[currency]
	b.Free = b.Free.Add(delta)
	b.Total = b.Free.Add(b.Used)
	e.ledger[currency] = b
}
