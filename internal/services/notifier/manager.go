package notifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultHistorySize = 100

// Record one delivery attempt.
type Record struct {
	Timestamp time.Time
	Method    string
	Message   string
	Err       string
}

// Manager sends through one configured method and remembers recent sends.
type Manager struct {
	method   string
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	history []Record
	limit   int
}

// NewManager wraps n, recording sends under method.
func NewManager(method string, n Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		method:   method,
		notifier: n,
		logger:   logger,
		now:      time.Now,
		limit:    defaultHistorySize,
	}
}

// Method delivery method name.
func (m *Manager) Method() string { return m.method }

// Send delivers message and records the attempt whether or not it succeeded.
func (m *Manager) Send(ctx context.Context, message string) error {
	err := m.notifier.Send(ctx, message)

	rec := Record{Timestamp: m.now(), Method: m.method, Message: message}
	if err != nil {
		rec.Err = err.Error()
		m.logger.Warn("notification failed", zap.String("method", m.method), zap.Error(err))
	}

	m.mu.Lock()
	m.history = append(m.history, rec)
	if len(m.history) > m.limit {
		m.history = m.history[len(m.history)-m.limit:]
	}
	m.mu.Unlock()

	return err
}

// History returns up to limit most recent records, oldest first.
func (m *Manager) History(limit int) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if limit > 0 && len(m.history) > limit {
		start = len(m.history) - limit
	}
	out := make([]Record, len(m.history)-start)
	copy(out, m.history[start:])
	return out
}
