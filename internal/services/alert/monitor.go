// Package alert polls prices in the background and fires one-shot
// notifications when threshold rules trigger.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/events"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
)

// Notifier delivers a triggered alert message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// ErrAlreadyRunning returned by Start when the polling loop is active.
var ErrAlreadyRunning = errors.New("alert monitor is already running")

// Option configures a Monitor.
type Option func(*Monitor)

// WithEvents publishes every fired alert to b.
func WithEvents(b *events.Broadcaster[events.AlertFired]) Option {
	return func(m *Monitor) { m.events = b }
}

// WithClock overrides the rule creation and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor owns the alert rules and the polling loop that evaluates them.
type Monitor struct {
	source   venue.TickerSource
	notifier Notifier
	events   *events.Broadcaster[events.AlertFired]
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	rules  []*domain.AlertRule
	nextID int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor with no rules.
func NewMonitor(source venue.TickerSource, notifier Notifier, logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		source:   source,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		nextID:   1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers an active rule and returns its id. An empty message
// defaults to the rule description.
func (m *Monitor) Add(pair domain.Pair, cond domain.AlertCondition, threshold decimal.Decimal, message string) (int, error) {
	if pair.IsZero() {
		return 0, errors.Wrap(domain.ErrInvalidPair, "alert needs a pair")
	}
	if _, err := domain.ParseAlertCondition(string(cond)); err != nil {
		return 0, err
	}
	if !threshold.IsPositive() {
		return 0, errors.Errorf("alert threshold must be positive, got %s", threshold.String())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rule := &domain.AlertRule{
		ID:        m.nextID,
		Pair:      pair,
		Condition: cond,
		Threshold: threshold,
		Message:   message,
		Active:    true,
		CreatedAt: m.now(),
	}
	if rule.Message == "" {
		rule.Message = rule.Describe()
	}
	m.nextID++
	m.rules = append(m.rules, rule)

	m.logger.Info("alert added", zap.Int("id", rule.ID), zap.String("rule", rule.Describe()))
	return rule.ID, nil
}

// Remove deletes the rule with id. Returns false when no such rule exists.
func (m *Monitor) Remove(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.rules {
		if r.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true
		}
	}
	return false
}

// List returns copies of all rules, fired ones included, in creation order.
func (m *Monitor) List() []domain.AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AlertRule, 0, len(m.rules))
	for _, r := range m.rules {
		c := *r
		if r.LastValue != nil {
			v := *r.LastValue
			c.LastValue = &v
		}
		out = append(out, c)
	}
	return out
}

// ActiveCount number of rules that can still fire.
func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.rules {
		if r.Active {
			n++
		}
	}
	return n
}

type firing struct {
	rule  domain.AlertRule
	price decimal.Decimal
}

// CheckAlerts runs one polling tick and returns the rules that fired.
func (m *Monitor) CheckAlerts(ctx context.Context) []domain.AlertRule {
	m.mu.Lock()
	pending := make([]domain.AlertRule, 0, len(m.rules))
	for _, r := range m.rules {
		if r.Active {
			pending = append(pending, *r)
		}
	}
	m.mu.Unlock()

	// quotes are fetched without holding the rule lock
	prices := make(map[int]decimal.Decimal, len(pending))
	for _, r := range pending {
		ticker, err := m.source.GetTicker(ctx, r.Pair)
		if err != nil {
			m.logger.Warn("alert price check failed",
				zap.Int("id", r.ID),
				zap.String("pair", r.Pair.String()),
				zap.Error(err))
			continue
		}
		prices[r.ID] = ticker.Last
	}

	var fired []firing
	m.mu.Lock()
	for _, r := range m.rules {
		price, ok := prices[r.ID]
		if !ok || !r.Active {
			continue
		}
		p := price
		r.LastValue = &p
		if r.Triggered(price) {
			r.Active = false
			fired = append(fired, firing{rule: *r, price: price})
		}
	}
	m.mu.Unlock()

	out := make([]domain.AlertRule, 0, len(fired))
	for _, f := range fired {
		m.dispatch(ctx, f)
		out = append(out, f.rule)
	}
	return out
}

func (m *Monitor) dispatch(ctx context.Context, f firing) {
	msg := TriggerMessage(f.rule, f.price)
	m.logger.Info("alert triggered",
		zap.Int("id", f.rule.ID),
		zap.String("pair", f.rule.Pair.String()),
		zap.String("price", f.price.String()))

	if m.notifier != nil {
		if err := m.notifier.Send(ctx, msg); err != nil {
			m.logger.Error("failed to send alert notification", zap.Int("id", f.rule.ID), zap.Error(err))
		}
	}

	m.events.Publish(events.AlertFired{
		Timestamp: m.now(),
		RuleID:    f.rule.ID,
		Pair:      f.rule.Pair.String(),
		Condition: string(f.rule.Condition),
		Threshold: f.rule.Threshold.String(),
		Price:     f.price.String(),
		Message:   msg,
	})
}

// TriggerMessage text sent when rule fires at price.
func TriggerMessage(rule domain.AlertRule, price decimal.Decimal) string {
	var head string
	switch rule.Condition {
	case domain.AlertAbove:
		head = fmt.Sprintf("%s rose above %s! Now: %s", rule.Pair, rule.Threshold, price.StringFixed(2))
	case domain.AlertBelow:
		head = fmt.Sprintf("%s fell below %s! Now: %s", rule.Pair, rule.Threshold, price.StringFixed(2))
	default:
		head = fmt.Sprintf("%s at %s", rule.Pair, price.StringFixed(2))
	}
	if rule.Message != "" && rule.Message != rule.Describe() {
		head += " " + rule.Message
	}
	return fmt.Sprintf("Alert #%d: %s", rule.ID, head)
}

// Start launches the polling loop. The first check runs immediately.
func (m *Monitor) Start(interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("alert interval must be positive, got %s", interval)
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.loop(ctx, interval, done)
	m.logger.Info("alert monitoring started", zap.Duration("interval", interval))
	return nil
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.CheckAlerts(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.done != nil
}

// Stop cancels the loop and blocks until it has exited. Safe to call when
// the monitor is not running.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.done == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
	m.logger.Info("alert monitoring stopped")
}
