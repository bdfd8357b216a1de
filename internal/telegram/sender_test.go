package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"microcap_trading/internal/cycle"
	"microcap_trading/internal/ledger"
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *cycle.Report {
	return &cycle.Report{
		Applied: 1, Skipped: 1,
		Trades: []cycle.TradeResult{
			{
				Decision:  models.Decision{Action: models.Sell, Ticker: "ABC", Shares: 10},
				Status:    cycle.StatusApplied,
				Execution: &ledger.Execution{Ticker: "ABC", Action: models.Sell, Shares: 10, Price: decimal.RequireFromString("8"), RealizedPnL: decimal.RequireFromString("30")},
			},
			{
				Decision: models.Decision{Action: models.Buy, Ticker: "DEF", Shares: 100},
				Status:   cycle.StatusSkipped,
				Reason:   "insufficient_funds",
			},
		},
		StopLossUnmatched: []string{"ZZZ"},
		Portfolio: models.Portfolio{
			Cash:       decimal.RequireFromString("1234.567"),
			Equity:     decimal.Zero,
			TotalValue: decimal.RequireFromString("1234.567"),
		},
	}
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(sampleReport())

	assert.Contains(t, msg, "Applied: 1 | Skipped: 1 | Failed: 0 | Holds: 0")
	assert.Contains(t, msg, "✅ SELL ABC x10 @ $8 (P&L $30.00)")
	assert.Contains(t, msg, `insufficient\_funds`)
	assert.Contains(t, msg, "without position: ZZZ")
	assert.Contains(t, msg, "Cash: $1,234.57")
}

func TestNotify_PostsToBotAPI(t *testing.T) {
	var gotPath string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.client.SetBaseURL(srv.URL)

	require.NoError(t, n.NotifyCycle(context.Background(), sampleReport()))
	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "Markdown", body["parse_mode"])
	assert.Contains(t, body["text"], "Portfolio Update")
}

func TestNotify_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.client.SetBaseURL(srv.URL)

	assert.Error(t, n.Notify(context.Background(), "hello"))
}

func TestNotify_NoCredentialsIsNoop(t *testing.T) {
	n := NewNotifier("", "")
	assert.NoError(t, n.Notify(context.Background(), "hello"))
}
