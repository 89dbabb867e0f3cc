package journal

// Schema creates the journal tables. Decimal columns are stored as TEXT so
// amounts round-trip without float error.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	venue TEXT NOT NULL,
	platform TEXT NOT NULL,
	quote_currency TEXT NOT NULL,
	started_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	row_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	seq INTEGER NOT NULL,
	ts_ms INTEGER NOT NULL,
	pair TEXT NOT NULL,
	order_type TEXT NOT NULL,
	side TEXT NOT NULL,
	price TEXT NOT NULL,
	amount TEXT NOT NULL,
	cost TEXT NOT NULL,
	fee TEXT NOT NULL,
	net TEXT NOT NULL,
	external_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS snapshots (
	row_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	ts_ms INTEGER NOT NULL,
	total_value TEXT NOT NULL,
	profit_loss TEXT NOT NULL,
	profit_loss_percent TEXT NOT NULL,
	quote_free TEXT NOT NULL,
	trades_count INTEGER NOT NULL,
	details TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, ts_ms);
`
