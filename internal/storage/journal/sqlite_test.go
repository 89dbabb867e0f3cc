package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/services/venue"
	"go.uber.org/zap"
)

var btcusdt = domain.Pair{From: "BTC", To: "USDT"}

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLite(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func trade(id int, at time.Time, side domain.Side, amount, price string) domain.TradeRecord {
	a := decimal.RequireFromString(amount)
	p := decimal.RequireFromString(price)
	cost := a.Mul(p)
	fee := cost.Mul(decimal.RequireFromString("0.001"))
	net := cost.Add(fee)
	if side == domain.SideSell {
		net = cost.Sub(fee)
	}
	return domain.TradeRecord{
		ID: id, Timestamp: at, Pair: btcusdt, Type: domain.OrderTypeMarket, Side: side,
		Price: p, Amount: a, Cost: cost, Fee: fee, Net: net,
	}
}

func TestSQLite_SchemaCreated(t *testing.T) {
	_, path := newTestSQLite(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())
	assert.True(t, found["sessions"])
	assert.True(t, found["trades"])
	assert.True(t, found["snapshots"])
}

func TestSQLite_TradesRoundTrip(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	session, err := j.StartSession(ctx, venue.KindSimulated, "binance", "USDT", start)
	require.NoError(t, err)
	other, err := j.StartSession(ctx, venue.KindSimulated, "binance", "USDT", start.Add(time.Hour))
	require.NoError(t, err)

	first := trade(1, start.Add(time.Minute), domain.SideBuy, "0.1", "50025")
	second := trade(2, start.Add(2*time.Minute), domain.SideSell, "0.05", "51000.5")
	second.ExternalID = "ext-2"
	require.NoError(t, j.RecordTrade(ctx, session, second))
	require.NoError(t, j.RecordTrade(ctx, session, first))
	require.NoError(t, j.RecordTrade(ctx, other, trade(1, start.Add(time.Hour), domain.SideBuy, "1", "1")))

	got, err := j.ListTrades(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, btcusdt, got[0].Pair)
	assert.Equal(t, domain.SideBuy, got[0].Side)
	assert.Equal(t, domain.OrderTypeMarket, got[0].Type)
	assert.True(t, got[0].Net.Equal(first.Net), got[0].Net.String())
	assert.True(t, got[0].Timestamp.Equal(first.Timestamp))
	assert.Equal(t, "ext-2", got[1].ExternalID)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("51000.5")))

	sessions, err := j.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, other, sessions[0].ID, "newest first")
	assert.Equal(t, 2, sessions[1].Trades)
	assert.Equal(t, "paper", sessions[1].Venue)

	latest, err := j.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, other, latest.ID)
}

func TestSQLite_LatestSessionEmpty(t *testing.T) {
	j, _ := newTestSQLite(t)
	_, err := j.LatestSession(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSQLite_Snapshots(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	session, err := j.StartSession(ctx, venue.KindLive, "bybit", "USDT", start)
	require.NoError(t, err)

	saver := j.Snapshots(session)
	for i, total := range []int64{10000, 10250} {
		require.NoError(t, saver.Save(domain.PortfolioSnapshot{
			Timestamp:         start.Add(time.Duration(i) * time.Hour),
			TotalValue:        decimal.NewFromInt(total),
			ProfitLoss:        decimal.NewFromInt(total - 10000),
			ProfitLossPercent: decimal.NewFromInt(total - 10000).Div(decimal.NewFromInt(100)),
			QuoteFree:         decimal.NewFromInt(5000),
			TradesCount:       i,
			Details: []domain.AssetValuation{{
				Currency: "BTC", Amount: decimal.RequireFromString("0.1"), Priced: true,
				Price: decimal.NewFromInt(50000), Value: decimal.NewFromInt(5000),
			}},
		}))
	}

	got, err := j.ListSnapshots(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].TotalValue.Equal(decimal.NewFromInt(10250)))
	assert.True(t, got[1].ProfitLossPercent.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 1, got[1].TradesCount)
	require.Len(t, got[0].Details, 1)
	assert.Equal(t, "BTC", got[0].Details[0].Currency)
	assert.True(t, got[0].Details[0].Priced)
}

func TestSQLite_Observer(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	session, err := j.StartSession(ctx, venue.KindSimulated, "binance", "USDT", at)
	require.NoError(t, err)

	observe := j.Observer(session)
	observe(ctx, venue.KindSimulated, trade(1, at, domain.SideBuy, "1", "100"))
	got, err := j.ListTrades(ctx, session)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// write failures are swallowed
	require.NoError(t, j.Close())
	assert.NotPanics(t, func() {
		observe(ctx, venue.KindSimulated, trade(2, at, domain.SideBuy, "1", "100"))
	})
}
