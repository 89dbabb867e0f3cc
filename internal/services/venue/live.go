package venue

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/trader"
	"go.uber.org/zap"
)

// ErrTradeTooLarge returned when an order's estimated notional exceeds the
// live risk limit.
var ErrTradeTooLarge = errors.New("trade exceeds max trade size")

// OrderPlacer real exchange account.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest, clientOrderID string) (trader.Fill, error)
	GetBalance(ctx context.Context) (domain.Balances, error)
}

// LiveConfig settings for a real account.
type LiveConfig struct {
	Platform      string
	QuoteCurrency string
	// MaxTradeQuote caps the estimated notional of one order; zero disables the cap.
	MaxTradeQuote decimal.Decimal
}

// Live routes orders to a real exchange. Each order is checked against the
// risk limit using the current quote before submission.
type Live struct {
	cfg    LiveConfig
	source TickerSource
	placer OrderPlacer
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	trades   []domain.TradeRecord
	baseline decimal.Decimal
}

// NewLive creates a live venue.
func NewLive(cfg LiveConfig, source TickerSource, placer OrderPlacer, logger *zap.Logger) (*Live, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil || placer == nil {
		return nil, errors.New("live venue needs a ticker source and an order placer")
	}
	if cfg.QuoteCurrency == "" {
		return nil, errors.New("quote currency is required")
	}
	if cfg.MaxTradeQuote.IsNegative() {
		return nil, errors.Errorf("max trade size must not be negative, got %s", cfg.MaxTradeQuote)
	}
	return &Live{
		cfg:    cfg,
		source: source,
		placer: placer,
		logger: logger.With(zap.String("platform", cfg.Platform)),
		now:    time.Now,
	}, nil
}

func (l *Live) Kind() Kind { return KindLive }

func (l *Live) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	return l.source.GetTicker(ctx, pair)
}

func (l *Live) GetBalance(ctx context.Context) (domain.Balances, error) {
	return l.placer.GetBalance(ctx)
}

// CreateOrder submits req to the exchange and records the reported fill.
func (l *Live) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.TradeRecord, error) {
	if err := req.Validate(); err != nil {
		return domain.TradeRecord{}, err
	}

	ticker, err := l.source.GetTicker(ctx, req.Pair)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(domain.ErrPriceUnavailable, "%s: %v", req.Pair.String(), err)
	}
	estimate := estimatePrice(req, ticker)
	if !estimate.IsPositive() {
		return domain.TradeRecord{}, errors.Wrapf(domain.ErrPriceUnavailable, "no quote for %s", req.Pair.String())
	}

	notional := req.Amount.Mul(estimate)
	if l.cfg.MaxTradeQuote.IsPositive() && notional.GreaterThan(l.cfg.MaxTradeQuote) {
		return domain.TradeRecord{}, errors.Wrapf(ErrTradeTooLarge, "%s %s > %s %s",
			notional.StringFixed(2), req.Pair.To, l.cfg.MaxTradeQuote.String(), req.Pair.To)
	}

	clientOrderID := trader.NewClientOrderID()
	fill, err := l.placer.PlaceOrder(ctx, req, clientOrderID)
	if err != nil {
		l.logger.Error("live order failed",
			zap.String("pair", req.Pair.String()),
			zap.String("side", string(req.Side)),
			zap.String("client_order_id", clientOrderID),
			zap.Error(err))
		return domain.TradeRecord{}, err
	}

	price := fill.Price
	if !price.IsPositive() {
		price = estimate
	}
	amount := fill.Amount
	if !amount.IsPositive() {
		amount = req.Amount
	}
	cost := amount.Mul(price)
	net := cost.Add(fill.Fee)
	if req.Side == domain.SideSell {
		net = cost.Sub(fill.Fee)
	}

	l.mu.Lock()
	trade := domain.TradeRecord{
		ID:         len(l.trades) + 1,
		Timestamp:  l.now(),
		Pair:       req.Pair,
		Type:       req.Type,
		Side:       req.Side,
		Price:      price,
		Amount:     amount,
		Cost:       cost,
		Fee:        fill.Fee,
		Net:        net,
		ExternalID: fill.ExternalID,
	}
	l.trades = append(l.trades, trade)
	l.mu.Unlock()

	l.logger.Info("Live order placed",
		zap.Int("id", trade.ID),
		zap.String("pair", req.Pair.String()),
		zap.String("side", string(req.Side)),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("external_id", fill.ExternalID))

	return trade, nil
}

func estimatePrice(req domain.OrderRequest, t domain.Ticker) decimal.Decimal {
	switch {
	case req.Type == domain.OrderTypeLimit:
		return *req.Price
	case req.Side == domain.SideBuy && t.Ask.IsPositive():
		return t.Ask
	case req.Side == domain.SideSell && t.Bid.IsPositive():
		return t.Bid
	default:
		return t.Last
	}
}

// GetPortfolioValue values the account. P&L is measured against the first
// successful valuation of this session.
func (l *Live) GetPortfolioValue(ctx context.Context) domain.PortfolioValue {
	balances, err := l.placer.GetBalance(ctx)
	if err != nil {
		l.logger.Warn("failed to fetch live balance", zap.Error(err))
		balances = domain.Balances{}
	}

	l.mu.Lock()
	count := len(l.trades)
	baseline := l.baseline
	l.mu.Unlock()

	v := Valuate(ctx, l.source, balances, l.cfg.QuoteCurrency, baseline, count, l.logger)
	if baseline.IsZero() && err == nil && v.TotalValue.IsPositive() {
		l.mu.Lock()
		if l.baseline.IsZero() {
			l.baseline = v.TotalValue
		}
		baseline = l.baseline
		l.mu.Unlock()
		v = Valuate(ctx, l.source, balances, l.cfg.QuoteCurrency, baseline, count, l.logger)
	}
	return v
}

func (l *Live) Trades() []domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}
