package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/models"
	"microcap_trading/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.StateFile = filepath.Join(dir, "state.json")
	c.JournalFile = filepath.Join(dir, "journal.jsonl")
	c.Version = "v-test"
	cfg = c
	t.Cleanup(func() { cfg = nil })
	return c
}

func TestValidateCommand(t *testing.T) {
	useConfig(t)
	file := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"decisions":[{"action":"HOLD","ticker":"ABC","shares":0}]}`), 0644))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	require.NoError(t, validateCmd.RunE(validateCmd, []string{file}))
	assert.Contains(t, out.String(), `"ticker": "ABC"`)

	require.NoError(t, os.WriteFile(file, []byte(`{"decisions":[{"action":"BUY","ticker":"ABC","shares":1}]}`), 0644))
	err := validateCmd.RunE(validateCmd, []string{file})
	assert.ErrorContains(t, err, "decisions[0].stopLoss")
}

func TestShowAndTradesCommands(t *testing.T) {
	c := useConfig(t)
	gw, err := storage.Open(c)
	require.NoError(t, err)

	ctx := context.Background()
	p := models.Portfolio{
		Cash: decimal.NewFromInt(50), Equity: decimal.NewFromInt(60), TotalValue: decimal.NewFromInt(110),
		Positions: []models.Position{{Ticker: "ABC", Shares: 10, BuyPrice: decimal.NewFromInt(5),
			CostBasis: decimal.NewFromInt(50), MarketValue: decimal.NewFromInt(60), UnrealizedPnL: decimal.NewFromInt(10)}},
	}
	require.NoError(t, gw.PutPortfolio(ctx, p))
	_, err = gw.AppendTradeRecord(ctx, models.TradeRecord{
		Ticker: "ABC", Action: models.Buy, Shares: 10, Price: decimal.NewFromInt(5),
		AIReasoning: "breakout", CreatedAt: time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	showCmd.SetOut(&out)
	showCmd.SetContext(ctx)
	require.NoError(t, showCmd.RunE(showCmd, nil))
	assert.Contains(t, out.String(), "ABC")
	assert.Contains(t, out.String(), "Total 110.00")

	out.Reset()
	tradesCmd.SetOut(&out)
	tradesCmd.SetContext(ctx)
	require.NoError(t, tradesCmd.RunE(tradesCmd, nil))
	assert.Contains(t, out.String(), "2024-01-15")
	assert.Contains(t, out.String(), "breakout")
}

func TestRunCommandWithFileAndPaperBroker(t *testing.T) {
	c := useConfig(t)
	c.PriceSource = "yahoo"

	file := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"decisions":[{"action":"HOLD","ticker":"ABC","shares":0}]}`), 0644))

	runOpts = runOptions{decisionsFile: file, paper: true}
	t.Cleanup(func() { runOpts = runOptions{} })

	var out bytes.Buffer
	runCmd.SetOut(&out)
	runCmd.SetContext(context.Background())
	require.NoError(t, runCmd.RunE(runCmd, nil))
	assert.Contains(t, out.String(), "holds=1")

	_, err := os.Stat(c.StateFile)
	assert.NoError(t, err, "snapshot written on first cycle")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
