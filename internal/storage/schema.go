package storage

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_records (
	id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	ticker TEXT NOT NULL,
	action TEXT NOT NULL,
	shares INTEGER NOT NULL,
	price TEXT NOT NULL,
	ai_reasoning TEXT NOT NULL,
	pnl TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_records_date ON trade_records(date);
`

const portfolioKey = "portfolio"
