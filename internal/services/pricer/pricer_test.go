package pricer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/pkg/retrier"
)

type flakySource struct {
	failures int
	calls    int
	price    decimal.Decimal
}

func (f *flakySource) GetTicker(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.Ticker{}, errors.New("connection reset")
	}
	return domain.Ticker{Pair: pair, Last: f.price, Bid: f.price, Ask: f.price}, nil
}

func TestRetryingSource_GetTicker(t *testing.T) {
	pair := domain.Pair{From: "BTC", To: "USDT"}
	fast := retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond))

	t.Run("recovers after transient errors", func(t *testing.T) {
		src := &flakySource{failures: 2, price: decimal.NewFromInt(50000)}
		ticker, err := NewRetryingSource(src, fast, nil).GetTicker(context.Background(), pair)
		require.NoError(t, err)
		assert.Equal(t, 3, src.calls)
		assert.True(t, ticker.Last.Equal(decimal.NewFromInt(50000)))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		src := &flakySource{failures: 10}
		_, err := NewRetryingSource(src, fast, nil).GetTicker(context.Background(), pair)
		assert.Error(t, err)
		assert.Equal(t, 3, src.calls)
	})
}

func TestLastPrice(t *testing.T) {
	src := &flakySource{price: decimal.NewFromInt(42)}
	price, err := LastPrice(context.Background(), src, domain.Pair{From: "ETH", To: "USDT"})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(42)))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(fmt.Errorf("quote: %w", context.DeadlineExceeded)))
	assert.False(t, Retryable(fmt.Errorf("BTCX: %w", domain.ErrInvalidPair)))
}
