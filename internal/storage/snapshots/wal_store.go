// Package snapshots persists portfolio snapshots in a write-ahead log so the
// dashboard and exports can replay a session's equity curve.
package snapshots

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/portfolio"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKeyPrefix    = "portfolio_snapshot_"
)

var errClosedStore = errors.New("portfolio snapshot store is not initialized")

// WALStore persists portfolio snapshots in a WAL.
type WALStore struct {
	wal     *gowal.Wal
	mu      sync.RWMutex
	session string
}

// NewWALStore initializes a WAL-backed snapshot store under dir. Records are
// keyed by session so several runs can share one log.
func NewWALStore(dir, session string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init portfolio snapshot WAL")
	}

	return &WALStore{wal: wal, session: session}, nil
}

// Save appends the snapshot to the WAL.
func (s *WALStore) Save(snapshot domain.PortfolioSnapshot) error {
	if !s.ready() {
		return errClosedStore
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "marshal portfolio snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, snapshotKeyPrefix+s.session, payload)
}

// SnapshotsAfter returns snapshots written after the provided WAL index,
// across all sessions.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.PortfolioSnapshotRecord, error) {
	return s.after(index, "")
}

// SessionSnapshotsAfter is SnapshotsAfter limited to one session.
func (s *WALStore) SessionSnapshotsAfter(index uint64, session string) ([]domain.PortfolioSnapshotRecord, error) {
	return s.after(index, session)
}

func (s *WALStore) after(index uint64, session string) ([]domain.PortfolioSnapshotRecord, error) {
	if !s.ready() {
		return nil, errClosedStore
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.PortfolioSnapshotRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, ok := s.wal.Get(idx)
		owner, isSnapshot := strings.CutPrefix(key, snapshotKeyPrefix)
		if !ok || !isSnapshot || (session != "" && owner != session) {
			continue
		}
		var snapshot domain.PortfolioSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrapf(err, "decode portfolio snapshot at index %d", idx)
		}
		records = append(records, domain.PortfolioSnapshotRecord{Index: idx, Snapshot: snapshot})
	}
	return records, nil
}

func (s *WALStore) ready() bool {
	return s != nil && s.wal != nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if !s.ready() {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if !s.ready() {
		return errClosedStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
