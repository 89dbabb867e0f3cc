// Package journal keeps a per-session record of trades and portfolio
// snapshots in SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"github.com/vadiminshakov/papertrade/pkg/id"
	"go.uber.org/zap"
)

// ErrSessionNotFound returned when a session id is unknown.
var ErrSessionNotFound = errors.New("journal session not found")

// Session one run of the simulator.
type Session struct {
	ID            string
	Venue         string
	Platform      string
	QuoteCurrency string
	StartedAt     time.Time
	Trades        int
}

// SQLite journal backed by a single database file.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (or creates) the journal at path.
func NewSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create journal schema")
	}
	return &SQLite{db: db, logger: logger}, nil
}

// StartSession registers a new session and returns its id.
func (j *SQLite) StartSession(ctx context.Context, kind venue.Kind, platform, quote string, at time.Time) (string, error) {
	sessionID := id.NewAt(at)
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, venue, platform, quote_currency, started_ms)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, kind.String(), platform, quote, at.UnixMilli(),
	)
	if err != nil {
		return "", errors.Wrap(err, "insert session")
	}
	return sessionID, nil
}

// RecordTrade appends trade to session.
func (j *SQLite) RecordTrade(ctx context.Context, session string, t domain.TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(row_id, session_id, seq, ts_ms, pair, order_type, side, price, amount, cost, fee, net, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.NewAt(t.Timestamp), session, t.ID, t.Timestamp.UnixMilli(), t.Pair.String(),
		string(t.Type), string(t.Side), t.Price.String(), t.Amount.String(),
		t.Cost.String(), t.Fee.String(), t.Net.String(), t.ExternalID,
	)
	return errors.Wrapf(err, "insert trade %d", t.ID)
}

// RecordSnapshot appends s to session.
func (j *SQLite) RecordSnapshot(ctx context.Context, session string, s domain.PortfolioSnapshot) error {
	details, err := json.Marshal(s.Details)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot details")
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(row_id, session_id, ts_ms, total_value, profit_loss, profit_loss_percent, quote_free, trades_count, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.NewAt(s.Timestamp), session, s.Timestamp.UnixMilli(), s.TotalValue.String(),
		s.ProfitLoss.String(), s.ProfitLossPercent.String(), s.QuoteFree.String(),
		s.TradesCount, string(details),
	)
	return errors.Wrap(err, "insert snapshot")
}

// ListSessions returns all sessions, newest first.
func (j *SQLite) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.session_id, s.venue, s.platform, s.quote_currency, s.started_ms,
		       (SELECT COUNT(*) FROM trades t WHERE t.session_id = s.session_id)
		FROM sessions s
		ORDER BY s.started_ms DESC, s.session_id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s       Session
			started int64
		)
		if err := rows.Scan(&s.ID, &s.Venue, &s.Platform, &s.QuoteCurrency, &started, &s.Trades); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		s.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate sessions")
}

// LatestSession returns the most recently started session.
func (j *SQLite) LatestSession(ctx context.Context) (Session, error) {
	sessions, err := j.ListSessions(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, ErrSessionNotFound
	}
	return sessions[0], nil
}

// ListTrades returns the trades of session in execution order.
func (j *SQLite) ListTrades(ctx context.Context, session string) ([]domain.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, ts_ms, pair, order_type, side, price, amount, cost, fee, net, external_id
		FROM trades
		WHERE session_id = ?
		ORDER BY seq ASC, ts_ms ASC`, session)
	if err != nil {
		return nil, errors.Wrap(err, "query trades")
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var (
			t                                     domain.TradeRecord
			ts                                    int64
			pair, typ, side                       string
			price, amount, cost, fee, net, extern string
		)
		if err := rows.Scan(&t.ID, &ts, &pair, &typ, &side, &price, &amount, &cost, &fee, &net, &extern); err != nil {
			return nil, errors.Wrap(err, "scan trade")
		}
		if t.Pair, err = domain.ParsePair(pair); err != nil {
			return nil, errors.Wrapf(err, "trade %d", t.ID)
		}
		t.Timestamp = time.UnixMilli(ts).UTC()
		t.Type = domain.OrderType(typ)
		t.Side = domain.Side(side)
		t.ExternalID = extern
		if err := parseDecimals(
			[]string{price, amount, cost, fee, net},
			[]*decimal.Decimal{&t.Price, &t.Amount, &t.Cost, &t.Fee, &t.Net},
		); err != nil {
			return nil, errors.Wrapf(err, "trade %d", t.ID)
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "iterate trades")
}

// ListSnapshots returns the snapshots of session in time order.
func (j *SQLite) ListSnapshots(ctx context.Context, session string) ([]domain.PortfolioSnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT ts_ms, total_value, profit_loss, profit_loss_percent, quote_free, trades_count, details
		FROM snapshots
		WHERE session_id = ?
		ORDER BY ts_ms ASC, row_id ASC`, session)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()

	var out []domain.PortfolioSnapshot
	for rows.Next() {
		var (
			s                       domain.PortfolioSnapshot
			ts                      int64
			total, pl, plPct, qfree string
			details                 string
		)
		if err := rows.Scan(&ts, &total, &pl, &plPct, &qfree, &s.TradesCount, &details); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		s.Timestamp = time.UnixMilli(ts).UTC()
		if err := parseDecimals(
			[]string{total, pl, plPct, qfree},
			[]*decimal.Decimal{&s.TotalValue, &s.ProfitLoss, &s.ProfitLossPercent, &s.QuoteFree},
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &s.Details); err != nil {
			return nil, errors.Wrap(err, "decode snapshot details")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate snapshots")
}

// Observer returns a venue observer that journals every fill into session.
// Write failures are logged and never reach the order path.
func (j *SQLite) Observer(session string) venue.TradeObserver {
	return func(ctx context.Context, kind venue.Kind, t domain.TradeRecord) {
		if err := j.RecordTrade(ctx, session, t); err != nil {
			j.logger.Warn("failed to journal trade",
				zap.String("session", session),
				zap.String("venue", kind.String()),
				zap.Int("trade_id", t.ID),
				zap.Error(err))
		}
	}
}

// Close closes the database.
func (j *SQLite) Close() error {
	return j.db.Close()
}

func parseDecimals(raw []string, dst []*decimal.Decimal) error {
	for i, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return errors.Wrapf(err, "parse decimal %q", s)
		}
		*dst[i] = d
	}
	return nil
}

// SessionSnapshots adapts the journal to a snapshot saver for one session.
type SessionSnapshots struct {
	j       *SQLite
	session string
}

// Snapshots returns a saver that records into session.
func (j *SQLite) Snapshots(session string) *SessionSnapshots {
	return &SessionSnapshots{j: j, session: session}
}

func (s *SessionSnapshots) Save(snapshot domain.PortfolioSnapshot) error {
	return s.j.RecordSnapshot(context.Background(), s.session, snapshot)
}
