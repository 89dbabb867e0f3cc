package domain

// PortfolioSnapshotRecord bundles a persisted snapshot with its log index.
type PortfolioSnapshotRecord struct {
	Index    uint64
	Snapshot PortfolioSnapshot
}
