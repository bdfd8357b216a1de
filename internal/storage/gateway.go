package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/id"
	"microcap_trading/internal/models"
)

// ErrPersistence marks every failure reported by a Gateway.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError wraps the underlying I/O or database error with the
// operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func fail(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// Gateway is the only path to durable state. It holds no locks: callers
// guarantee a single writer.
type Gateway interface {
	// GetPortfolio returns the stored snapshot, or nil when none exists yet.
	GetPortfolio(ctx context.Context) (*models.Portfolio, error)
	// PutPortfolio replaces the snapshot as one unit.
	PutPortfolio(ctx context.Context, p models.Portfolio) error
	// AppendTradeRecord stores r and returns its id, assigning one if empty.
	AppendTradeRecord(ctx context.Context, r models.TradeRecord) (string, error)
	// QueryTradeRecords lists records dated on or after since, newest first.
	// A zero since returns everything.
	QueryTradeRecords(ctx context.Context, since time.Time) ([]models.TradeRecord, error)
	Close() error
}

// Open returns the backend selected by cfg.LedgerBackend.
func Open(cfg *config.Config) (Gateway, error) {
	switch cfg.LedgerBackend {
	case "sqlite":
		return NewSQLiteStore(cfg.DBPath)
	case "file", "":
		return NewFileStore(cfg.StateFile, cfg.JournalFile), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func sinceDate(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return since.UTC().Format(time.DateOnly)
}

// stamp fills CreatedAt, Date and ID when absent. A record that arrives with
// an id but no creation time takes the instant encoded in the id.
func stamp(r models.TradeRecord) models.TradeRecord {
	if r.CreatedAt.IsZero() && r.ID != "" {
		if t, ok := id.Time(r.ID); ok {
			r.CreatedAt = t
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Date == "" {
		r.Date = r.CreatedAt.UTC().Format(time.DateOnly)
	}
	if r.ID == "" {
		r.ID = id.New(r.CreatedAt)
	}
	return r
}
