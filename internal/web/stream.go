package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/events"
	"go.uber.org/zap"
)

// maxInitialSnapshots records sent in full on first connect; older ones are thinned.
const maxInitialSnapshots = 100

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if s.account == nil {
		http.Error(w, "account not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.account.GetPortfolioValue(r.Context()))
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	if s.account == nil {
		http.Error(w, "account not available", http.StatusServiceUnavailable)
		return
	}
	trades := s.account.Trades()
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	writeJSON(w, trades)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return flusher, true
}

func writeEvent(w http.ResponseWriter, id, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	return nil
}

func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		http.Error(w, "snapshot store not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := startSSE(w)
	if !ok {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(s.pollEvery)
	defer poll.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"))
	firstLoad := lastIndex == 0

	send := func() error {
		records, err := s.snapshots.SnapshotsAfter(lastIndex)
		if err != nil {
			return err
		}
		if firstLoad {
			records = thinRecords(records)
			firstLoad = false
		}
		for _, rec := range records {
			if err := writeEvent(w, strconv.FormatUint(rec.Index, 10), "portfolio", rec.Snapshot); err != nil {
				return err
			}
			lastIndex = rec.Index
		}
		if len(records) > 0 {
			flusher.Flush()
		}
		return nil
	}

	if err := send(); err != nil {
		s.logger.Error("portfolio stream initial load", zap.Error(err))
		return
	}
	if lastIndex == 0 {
		fmt.Fprint(w, "event: no_data\ndata: {}\n\n")
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-poll.C:
			if err := send(); err != nil {
				s.logger.Warn("portfolio stream poll", zap.Error(err))
			}
		}
	}
}

func (s *Server) handleAlertStream(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		http.Error(w, "alerts not available", http.StatusServiceUnavailable)
		return
	}
	streamBroadcast(s, w, r, s.alerts, "alert")
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	if s.trades == nil {
		http.Error(w, "trades not available", http.StatusServiceUnavailable)
		return
	}
	streamBroadcast(s, w, r, s.trades, "trade")
}

func streamBroadcast[T any](s *Server, w http.ResponseWriter, r *http.Request, b *events.Broadcaster[T], event string) {
	flusher, ok := startSSE(w)
	if !ok {
		return
	}
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// headers go out before the first event
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := writeEvent(w, "", event, ev); err != nil {
				s.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
				continue
			}
			flusher.Flush()
		}
	}
}

// parseLastEventID reads the resume index from the Last-Event-ID header or,
// failing that, the query parameter.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// thinRecords keeps the newest maxInitialSnapshots records and thins older
// ones exponentially: every 2nd, then every 4th and so on.
func thinRecords(records []domain.PortfolioSnapshotRecord) []domain.PortfolioSnapshotRecord {
	if len(records) <= maxInitialSnapshots {
		return records
	}

	older := records[:len(records)-maxInitialSnapshots]
	var thinned []domain.PortfolioSnapshotRecord
	skip := 1
	kept := 0
	for i := len(older) - 1; i >= 0; i -= skip + 1 {
		thinned = append(thinned, older[i])
		kept++
		if kept%12 == 0 {
			skip *= 2
		}
	}
	slices.Reverse(thinned)
	return append(thinned, records[len(records)-maxInitialSnapshots:]...)
}
