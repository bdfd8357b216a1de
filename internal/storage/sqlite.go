package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"microcap_trading/internal/logger"
	"microcap_trading/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the snapshot as a single keyed JSON row and trade
// records in their own table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fail("open database", err)
	}
	// one connection: the ledger has a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fail("create schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetPortfolio(ctx context.Context) (*models.Portfolio, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, portfolioKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fail("get portfolio", err)
	}

	var p models.Portfolio
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fail("decode portfolio", err)
	}
	if p.Positions == nil {
		p.Positions = []models.Position{}
	}
	if migrateState(&p) {
		logger.Infof("State migrated to version %s. Saving...", p.SchemaVersion)
		if err := s.PutPortfolio(ctx, p); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (s *SQLiteStore) PutPortfolio(ctx context.Context, p models.Portfolio) error {
	if p.SchemaVersion == "" {
		p.SchemaVersion = models.SchemaVersion
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fail("encode portfolio", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		portfolioKey, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fail("put portfolio", err)
	}
	return nil
}

func (s *SQLiteStore) AppendTradeRecord(ctx context.Context, r models.TradeRecord) (string, error) {
	r = stamp(r)

	// decimals go in as text so no precision is lost
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_records
		(id, date, ticker, action, shares, price, ai_reasoning, pnl, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Date, r.Ticker, string(r.Action), r.Shares, r.Price.String(),
		r.AIReasoning, r.PnL.String(), r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fail("append trade record", err)
	}
	return r.ID, nil
}

func (s *SQLiteStore) QueryTradeRecords(ctx context.Context, since time.Time) ([]models.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, ticker, action, shares, price, ai_reasoning, pnl, created_at
		FROM trade_records
		WHERE date >= ?
		ORDER BY id DESC`, sinceDate(since))
	if err != nil {
		return nil, fail("query trade records", err)
	}
	defer rows.Close()

	out := []models.TradeRecord{}
	for rows.Next() {
		var (
			r         models.TradeRecord
			action    string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Date, &r.Ticker, &action, &r.Shares, &r.Price,
			&r.AIReasoning, &r.PnL, &createdAt); err != nil {
			return nil, fail("scan trade record", err)
		}
		r.Action = models.Action(action)
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fail("parse trade record time", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("query trade records", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fail("close database", err)
	}
	return nil
}
