package ai

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: s}}}}},
	}
}

func newTestClient(t *testing.T, gen generateFunc) *Client {
	t.Helper()
	prompt := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(prompt, []byte("You manage a micro-cap portfolio."), 0644))
	return &Client{
		generate:      gen,
		model:         "gemini-test",
		promptFile:    prompt,
		schemaVersion: "1.0",
		now:           func() time.Time { return time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC) },
	}
}

func TestFetch_SendsSnapshotAndReturnsText(t *testing.T) {
	var gotModel string
	var gotCfg *genai.GenerateContentConfig
	var gotPrompt string

	c := newTestClient(t, func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel, gotCfg = model, cfg
		gotPrompt = contents[0].Parts[0].Text
		return textResponse(` {"version":"1.0","decisions":[]} `), nil
	})

	p := models.Portfolio{Cash: decimal.NewFromInt(100), TotalValue: decimal.NewFromInt(100)}
	raw, err := c.Fetch(context.Background(), p)
	require.NoError(t, err)

	assert.JSONEq(t, `{"version":"1.0","decisions":[]}`, string(raw))
	assert.Equal(t, "gemini-test", gotModel)
	assert.Equal(t, "application/json", gotCfg.ResponseMIMEType)
	assert.Equal(t, "You manage a micro-cap portfolio.", gotCfg.SystemInstruction.Parts[0].Text)

	payload := gotPrompt[len("Analyze this portfolio state: "):]
	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &snap))
	assert.Equal(t, "1.0", snap["response_version"])
	assert.Equal(t, "2024-01-15T14:00:00Z", snap["timestamp"])
	assert.Equal(t, []any{}, snap["positions"])
}

func TestFetch_Errors(t *testing.T) {
	boom := errors.New("quota")
	c := newTestClient(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, boom
	})
	_, err := c.Fetch(context.Background(), models.Portfolio{})
	assert.ErrorIs(t, err, boom)

	c = newTestClient(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse(""), nil
	})
	_, err = c.Fetch(context.Background(), models.Portfolio{})
	assert.ErrorContains(t, err, "empty")

	c.promptFile = filepath.Join(t.TempDir(), "missing.md")
	_, err = c.Fetch(context.Background(), models.Portfolio{})
	assert.ErrorContains(t, err, "prompt file")
}

func TestNewClient_RequiresKey(t *testing.T) {
	cfg := config.Default()
	_, err := NewClient(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
