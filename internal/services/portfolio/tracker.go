// Package portfolio records portfolio snapshots over time and derives
// performance statistics from them.
package portfolio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"go.uber.org/zap"
)

// riskFreeReturnPct baseline return subtracted in the Sharpe ratio.
const riskFreeReturnPct = 2.0

// Valuer values an account at current prices.
type Valuer interface {
	GetPortfolioValue(ctx context.Context) domain.PortfolioValue
}

// SnapshotSaver persists snapshots.
type SnapshotSaver interface {
	Save(snapshot domain.PortfolioSnapshot) error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore persists every snapshot to s. Save failures are logged only.
func WithStore(s SnapshotSaver) Option {
	return func(t *Tracker) {
		t.store = s
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker append-only snapshot history of one account.
type Tracker struct {
	mu      sync.RWMutex
	valuer  Valuer
	store   SnapshotSaver
	history []domain.PortfolioSnapshot
	now     func() time.Time
	logger  *zap.Logger
}

// NewTracker creates a tracker over valuer.
func NewTracker(valuer Valuer, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		valuer: valuer,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Snapshot values the account now and appends the result. Consecutive
// identical snapshots are kept.
func (t *Tracker) Snapshot(ctx context.Context) domain.PortfolioSnapshot {
	value := t.valuer.GetPortfolioValue(ctx)
	snapshot := domain.NewPortfolioSnapshot(t.now(), value)

	t.mu.Lock()
	t.history = append(t.history, snapshot)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Save(snapshot); err != nil {
			t.logger.Warn("failed to persist portfolio snapshot", zap.Error(err))
		}
	}

	t.logger.Debug("portfolio snapshot",
		zap.String("total", snapshot.TotalValue.String()),
		zap.String("pl_pct", snapshot.ProfitLossPercent.StringFixed(2)),
		zap.Int("trades", snapshot.TradesCount))

	return snapshot
}

// History returns a copy of all snapshots in order.
func (t *Tracker) History() []domain.PortfolioSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.PortfolioSnapshot, len(t.history))
	copy(out, t.history)
	return out
}

// Len returns the number of snapshots taken.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.history)
}

// PerformanceMetrics summarises the history. ok is false with fewer than two snapshots.
func (t *Tracker) PerformanceMetrics() (domain.PerformanceMetrics, bool) {
	return ComputeMetrics(t.History())
}

// ComputeMetrics derives performance statistics from chronological snapshots.
func ComputeMetrics(history []domain.PortfolioSnapshot) (domain.PerformanceMetrics, bool) {
	if len(history) < 2 {
		return domain.PerformanceMetrics{}, false
	}

	first, last := history[0], history[len(history)-1]
	elapsed := last.Timestamp.Sub(first.Timestamp).Hours()
	totalReturn := last.ProfitLossPercent.InexactFloat64()

	hourly := 0.0
	if elapsed > 0 {
		hourly = totalReturn / elapsed
	}

	peak := math.Inf(-1)
	for _, s := range history {
		peak = math.Max(peak, s.TotalValue.InexactFloat64())
	}
	current := last.TotalValue.InexactFloat64()

	drawdown := 0.0
	if peak > 0 {
		drawdown = (peak - current) / peak * 100
	}

	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].TotalValue.InexactFloat64()
		if prev <= 0 {
			continue
		}
		returns = append(returns, (history[i].TotalValue.InexactFloat64()-prev)/prev)
	}

	volatility := 0.0
	if len(returns) >= 2 {
		volatility = sampleStdDev(returns) * 100
	}

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (totalReturn - riskFreeReturnPct) / volatility
	}

	return domain.PerformanceMetrics{
		TotalReturnPct:  totalReturn,
		HourlyReturnPct: hourly,
		DrawdownPct:     drawdown,
		VolatilityPct:   volatility,
		SharpeRatio:     sharpe,
		TradingHours:    elapsed,
		PeakValue:       peak,
		CurrentValue:    current,
		TradesCount:     last.TradesCount,
	}, true
}

func sampleStdDev(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	sum := 0.0
	for _, x := range xs {
		sum += (x - mean) * (x - mean)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
