// Package pricer provides market data sources that quote trading pairs.
package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/pkg/retrier"
	"go.uber.org/zap"
)

// TickerSource defines an interface for getting the current quote of a trading pair.
type TickerSource interface {
	GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

// RetryingSource retries transient ticker failures with exponential backoff.
type RetryingSource struct {
	next    TickerSource
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// NewRetryingSource wraps next. A nil retrier uses a short backoff suited to interactive use.
func NewRetryingSource(next TickerSource, r *retrier.Retrier, logger *zap.Logger) *RetryingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(Retryable),
			retrier.WithOnRetry(func(attempt int, delay time.Duration, err error) {
				logger.Debug("retrying ticker fetch", zap.Int("retry", attempt), zap.Duration("delay", delay), zap.Error(err))
			}),
		)
	}
	return &RetryingSource{next: next, retrier: r, logger: logger}
}

// GetTicker fetches the ticker, retrying on error.
func (s *RetryingSource) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	attempt := 0
	return retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (domain.Ticker, error) {
		attempt++
		t, err := s.next.GetTicker(ctx, pair)
		if err != nil {
			s.logger.Debug("ticker fetch failed",
				zap.String("pair", pair.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return t, err
	})
}

// Retryable reports whether a ticker error may succeed on a later attempt.
// Cancellation and malformed pairs are final.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInvalidPair):
		return false
	default:
		return true
	}
}

// LastPrice is a convenience helper returning Ticker.Last.
func LastPrice(ctx context.Context, src TickerSource, pair domain.Pair) (decimal.Decimal, error) {
	t, err := src.GetTicker(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Last, nil
}

func parseOptional(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
