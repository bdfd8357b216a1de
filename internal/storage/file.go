package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"time"

	"microcap_trading/internal/logger"
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

// FileStore keeps the snapshot in a JSON file and trade records in a
// JSON-lines journal next to it.
type FileStore struct {
	StateFile   string
	JournalFile string
}

func NewFileStore(stateFile, journalFile string) *FileStore {
	return &FileStore{StateFile: stateFile, JournalFile: journalFile}
}

func (s *FileStore) GetPortfolio(ctx context.Context) (*models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail("get portfolio", err)
	}

	b, err := os.ReadFile(s.StateFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fail("get portfolio", err)
	}

	var p models.Portfolio
	if err := json.Unmarshal(b, &p); err != nil {
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

// migrateState handles schema evolution.
// Returns true if changes were made and the snapshot needs to be saved.
func migrateState(p *models.Portfolio) bool {
	updated := false

	// 1.0 -> 1.1: costBasis and marketValue were not stored
	if p.SchemaVersion < "1.1" {
		logger.Infof("Migrating state schema from %q to 1.1", p.SchemaVersion)
		for i := range p.Positions {
			pos := &p.Positions[i]
			if pos.CostBasis.IsZero() {
				pos.CostBasis = pos.BuyPrice.Mul(decimal.NewFromInt(pos.Shares))
			}
			if pos.MarketValue.IsZero() {
				if pos.CurrentPrice != nil {
					pos.MarketValue = pos.CurrentPrice.Mul(decimal.NewFromInt(pos.Shares))
				} else {
					pos.MarketValue = pos.CostBasis
				}
			}
		}
		p.SchemaVersion = "1.1"
		updated = true
	}

	return updated
}

// PutPortfolio writes the snapshot using an atomic write pattern:
// temp file, fsync, rename over the destination.
func (s *FileStore) PutPortfolio(ctx context.Context, p models.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return fail("put portfolio", err)
	}
	if p.SchemaVersion == "" {
		p.SchemaVersion = models.SchemaVersion
	}

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fail("encode portfolio", err)
	}

	// same directory, so the rename stays on one filesystem
	tmpFile := s.StateFile + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fail("create temp state file", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fail("write temp state file", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync temp state file", err)
	}
	// close before rename (required on Windows)
	if err := f.Close(); err != nil {
		return fail("close temp state file", err)
	}

	if err := os.Rename(tmpFile, s.StateFile); err != nil {
		return fail("replace state file", err)
	}
	return nil
}

func (s *FileStore) AppendTradeRecord(ctx context.Context, r models.TradeRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fail("append trade record", err)
	}
	r = stamp(r)

	line, err := json.Marshal(r)
	if err != nil {
		return "", fail("encode trade record", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.JournalFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fail("open journal", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return "", fail("write journal", err)
	}
	if err := f.Sync(); err != nil {
		return "", fail("sync journal", err)
	}
	return r.ID, nil
}

func (s *FileStore) QueryTradeRecords(ctx context.Context, since time.Time) ([]models.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail("query trade records", err)
	}

	f, err := os.Open(s.JournalFile)
	if errors.Is(err, os.ErrNotExist) {
		return []models.TradeRecord{}, nil
	}
	if err != nil {
		return nil, fail("open journal", err)
	}
	defer f.Close()

	records, err := readJournal(f, sinceDate(since))
	if err != nil {
		return nil, fail("read journal", err)
	}

	// ids start with the date and then sort by creation time
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func readJournal(r io.Reader, from string) ([]models.TradeRecord, error) {
	out := []models.TradeRecord{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec models.TradeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		if from != "" && rec.Date < from {
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

func (s *FileStore) Close() error { return nil }
