package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/events"
	"go.uber.org/zap"
)

type fakeSnapshots struct {
	records []domain.PortfolioSnapshotRecord
}

func (f *fakeSnapshots) SnapshotsAfter(index uint64) ([]domain.PortfolioSnapshotRecord, error) {
	var out []domain.PortfolioSnapshotRecord
	for _, r := range f.records {
		if r.Index > index {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAccount struct {
	trades []domain.TradeRecord
}

func (f fakeAccount) GetPortfolioValue(context.Context) domain.PortfolioValue {
	return domain.PortfolioValue{QuoteCurrency: "USDT", TotalValue: decimal.NewFromInt(10000)}
}

func (f fakeAccount) Trades() []domain.TradeRecord { return f.trades }

func records(n int) []domain.PortfolioSnapshotRecord {
	out := make([]domain.PortfolioSnapshotRecord, n)
	for i := range out {
		out[i] = domain.PortfolioSnapshotRecord{
			Index:    uint64(i + 1),
			Snapshot: domain.PortfolioSnapshot{TotalValue: decimal.NewFromInt(int64(10000 + i))},
		}
	}
	return out
}

// readEvents collects the event names of the first n SSE events.
func readEvents(t *testing.T, sc *bufio.Scanner, n int) []string {
	t.Helper()
	var names []string
	for len(names) < n && sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			names = append(names, name)
		}
	}
	require.Len(t, names, n)
	return names
}

func openStream(t *testing.T, url string, header http.Header) *bufio.Scanner {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewScanner(resp.Body)
}

func TestServer_JSONEndpoints(t *testing.T) {
	trade := domain.TradeRecord{ID: 1, Pair: domain.Pair{From: "BTC", To: "USDT"}, Side: domain.SideBuy}
	srv := httptest.NewServer(NewServer(":0", zap.NewNop(), WithAccount(fakeAccount{trades: []domain.TradeRecord{trade}})).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/trades")
	require.NoError(t, err)
	defer resp.Body.Close()
	var trades []domain.TradeRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "BTC/USDT", trades[0].Pair.String())

	resp, err = http.Get(srv.URL + "/portfolio")
	require.NoError(t, err)
	defer resp.Body.Close()
	var value domain.PortfolioValue
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&value))
	assert.True(t, value.TotalValue.Equal(decimal.NewFromInt(10000)))

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestServer_MissingDependencies(t *testing.T) {
	srv := httptest.NewServer(NewServer(":0", nil).Handler())
	t.Cleanup(srv.Close)

	for _, path := range []string{"/trades", "/portfolio", "/portfolio/stream", "/alerts/stream", "/trades/stream"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestServer_SnapshotStream(t *testing.T) {
	store := &fakeSnapshots{records: records(3)}
	srv := httptest.NewServer(NewServer(":0", zap.NewNop(), WithSnapshots(store)).Handler())
	t.Cleanup(srv.Close)

	sc := openStream(t, srv.URL+"/portfolio/stream", nil)
	assert.Equal(t, []string{"portfolio", "portfolio", "portfolio"}, readEvents(t, sc, 3))

	resumed := openStream(t, srv.URL+"/portfolio/stream", http.Header{"Last-Event-Id": {"2"}})
	for resumed.Scan() {
		if id, ok := strings.CutPrefix(resumed.Text(), "id: "); ok {
			assert.Equal(t, "3", id)
			break
		}
	}
}

func TestServer_SnapshotStreamEmpty(t *testing.T) {
	srv := httptest.NewServer(NewServer(":0", zap.NewNop(), WithSnapshots(&fakeSnapshots{})).Handler())
	t.Cleanup(srv.Close)

	sc := openStream(t, srv.URL+"/portfolio/stream", nil)
	assert.Equal(t, []string{"no_data"}, readEvents(t, sc, 1))
}

func TestServer_AlertStream(t *testing.T) {
	bus := events.NewBroadcaster[events.AlertFired](4)
	srv := httptest.NewServer(NewServer(":0", zap.NewNop(), WithAlerts(bus)).Handler())
	t.Cleanup(srv.Close)

	sc := openStream(t, srv.URL+"/alerts/stream", nil)
	require.True(t, sc.Scan())
	assert.Equal(t, ": connected", sc.Text())
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(events.AlertFired{RuleID: 7, Message: "Alert #7: BTC/USDT rose above 60000! Now: 61000.00"})

	var data string
	for sc.Scan() {
		if d, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			data = d
			break
		}
	}
	var ev events.AlertFired
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, 7, ev.RuleID)
}

func TestThinRecords(t *testing.T) {
	assert.Len(t, thinRecords(records(50)), 50)

	thinned := thinRecords(records(500))
	assert.Less(t, len(thinned), 500)
	assert.Greater(t, len(thinned), maxInitialSnapshots)
	for i := 1; i < len(thinned); i++ {
		assert.Less(t, thinned[i-1].Index, thinned[i].Index, "chronological order")
	}
	assert.Equal(t, uint64(500), thinned[len(thinned)-1].Index)
	assert.Equal(t, uint64(401), thinned[len(thinned)-maxInitialSnapshots].Index)
}

func TestParseLastEventID(t *testing.T) {
	assert.Equal(t, uint64(5), parseLastEventID(" 5 ", "9"))
	assert.Equal(t, uint64(9), parseLastEventID("", "9"))
	assert.Zero(t, parseLastEventID("abc", ""))
	assert.Zero(t, parseLastEventID("", ""))
}
