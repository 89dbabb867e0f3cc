// Package arbitrage compares quotes for the same pair across exchanges and
// reports direct buy-here, sell-there opportunities.
package arbitrage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultMinSpread       = 0.5
	defaultRequestInterval = 500 * time.Millisecond
)

var hundred = decimal.NewFromInt(100)

// Opportunity direct arbitrage: buy at the lowest ask, sell at the highest bid.
type Opportunity struct {
	Pair          domain.Pair
	BuyExchange   string
	BuyPrice      decimal.Decimal
	SellExchange  string
	SellPrice     decimal.Decimal
	SpreadPercent decimal.Decimal
	ProfitPerUnit decimal.Decimal
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s: buy on %s at %s, sell on %s at %s, profit %s per unit (%s%%)",
		o.Pair, o.BuyExchange, o.BuyPrice.StringFixed(2), o.SellExchange, o.SellPrice.StringFixed(2),
		o.ProfitPerUnit.StringFixed(2), o.SpreadPercent.StringFixed(2))
}

// Config scanner thresholds.
type Config struct {
	// MinSpreadPercent opportunities at or below this spread are ignored.
	MinSpreadPercent decimal.Decimal
	// RequestInterval minimum gap between two requests to the same exchange.
	RequestInterval time.Duration
}

// DefaultConfig 0.5% spread, one request per exchange every 500ms.
func DefaultConfig() Config {
	return Config{
		MinSpreadPercent: decimal.NewFromFloat(defaultMinSpread),
		RequestInterval:  defaultRequestInterval,
	}
}

type exchangeQuoter struct {
	name    string
	source  venue.TickerSource
	limiter *rate.Limiter
}

// Scanner quotes every exchange for a pair concurrently, pacing requests
// per exchange.
type Scanner struct {
	cfg       Config
	exchanges []exchangeQuoter
	logger    *zap.Logger
}

// NewScanner creates a scanner over the named ticker sources.
func NewScanner(cfg Config, sources map[string]venue.TickerSource, logger *zap.Logger) (*Scanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sources) < 2 {
		return nil, errors.Errorf("arbitrage needs at least two exchanges, got %d", len(sources))
	}
	if cfg.MinSpreadPercent.IsNegative() {
		return nil, errors.Errorf("min spread must not be negative, got %s", cfg.MinSpreadPercent)
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = defaultRequestInterval
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Scanner{cfg: cfg, logger: logger}
	for _, name := range names {
		s.exchanges = append(s.exchanges, exchangeQuoter{
			name:    name,
			source:  sources[name],
			limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		})
	}
	return s, nil
}

// Exchanges names of the scanned exchanges.
func (s *Scanner) Exchanges() []string {
	out := make([]string, len(s.exchanges))
	for i, e := range s.exchanges {
		out[i] = e.name
	}
	return out
}

// ScanPair returns the direct opportunity for pair, if any. Exchanges that
// fail to quote are skipped; fewer than two quotes yield nothing.
func (s *Scanner) ScanPair(ctx context.Context, pair domain.Pair) ([]Opportunity, error) {
	quotes, err := s.quotes(ctx, pair)
	if err != nil {
		return nil, err
	}
	if len(quotes) < 2 {
		return nil, nil
	}

	buy := quotes[0]
	sell := quotes[0]
	for _, q := range quotes[1:] {
		if q.ticker.Ask.LessThan(buy.ticker.Ask) {
			buy = q
		}
		if q.ticker.Bid.GreaterThan(sell.ticker.Bid) {
			sell = q
		}
	}
	if buy.exchange == sell.exchange {
		return nil, nil
	}

	profit := sell.ticker.Bid.Sub(buy.ticker.Ask)
	spread := profit.Div(buy.ticker.Ask).Mul(hundred)
	if !spread.GreaterThan(s.cfg.MinSpreadPercent) {
		return nil, nil
	}

	opp := Opportunity{
		Pair:          pair,
		BuyExchange:   buy.exchange,
		BuyPrice:      buy.ticker.Ask,
		SellExchange:  sell.exchange,
		SellPrice:     sell.ticker.Bid,
		SpreadPercent: spread,
		ProfitPerUnit: profit,
	}
	s.logger.Info("arbitrage opportunity", zap.String("opportunity", opp.String()))
	return []Opportunity{opp}, nil
}

type quote struct {
	exchange string
	ticker   domain.Ticker
}

func (s *Scanner) quotes(ctx context.Context, pair domain.Pair) ([]quote, error) {
	var (
		mu     sync.Mutex
		quotes []quote
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, ex := range s.exchanges {
		g.Go(func() error {
			if err := ex.limiter.Wait(gctx); err != nil {
				return errors.Wrapf(err, "rate limit wait for %s", ex.name)
			}
			t, err := ex.source.GetTicker(gctx, pair)
			if err != nil {
				s.logger.Warn("arbitrage quote failed",
					zap.String("exchange", ex.name),
					zap.String("pair", pair.String()),
					zap.Error(err))
				return nil
			}
			if !t.Ask.IsPositive() || !t.Bid.IsPositive() {
				return nil
			}
			mu.Lock()
			quotes = append(quotes, quote{exchange: ex.name, ticker: t})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].exchange < quotes[j].exchange })
	return quotes, nil
}

// ScanAll scans every pair and keeps the ones with opportunities.
func (s *Scanner) ScanAll(ctx context.Context, pairs []domain.Pair) (map[domain.Pair][]Opportunity, error) {
	out := make(map[domain.Pair][]Opportunity)
	for _, p := range pairs {
		opps, err := s.ScanPair(ctx, p)
		if err != nil {
			return out, err
		}
		if len(opps) > 0 {
			out[p] = opps
		}
	}
	return out, nil
}

// Watch rescans pairs every interval until ctx is done, handing each round
// to report.
func (s *Scanner) Watch(ctx context.Context, pairs []domain.Pair, interval time.Duration, report func(map[domain.Pair][]Opportunity)) error {
	if interval <= 0 {
		return errors.Errorf("watch interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.ScanAll(ctx, pairs)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		report(res)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
