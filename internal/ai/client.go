package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/logger"
	"microcap_trading/internal/models"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no Gemini API key is set.
var ErrNotConfigured = errors.New("AI client not configured")

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client asks Gemini for a decision batch. It returns the model's raw text;
// parsing and validation happen downstream.
type Client struct {
	generate      generateFunc
	model         string
	promptFile    string
	schemaVersion string
	now           func() time.Time
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warnf("GEMINI_API_KEY not found. AI decisions are disabled.")
		return nil, ErrNotConfigured
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &Client{
		generate:      gc.Models.GenerateContent,
		model:         cfg.GeminiModel,
		promptFile:    cfg.PromptFile,
		schemaVersion: cfg.SchemaVersion,
		now:           time.Now,
	}, nil
}

// Fetch sends the portfolio snapshot with the system prompt and returns the
// JSON text of the answer.
func (c *Client) Fetch(ctx context.Context, p models.Portfolio) ([]byte, error) {
	instruction, err := c.systemInstruction()
	if err != nil {
		return nil, err
	}

	snap := newSnapshot(p, c.schemaVersion, c.now().UTC().Format(time.RFC3339))
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	gcfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		ResponseMIMEType:  "application/json",
	}

	logger.Debugf("Asking %s for decisions (%d positions)", c.model, len(snap.Positions))
	resp, err := c.generate(ctx, c.model, genai.Text("Analyze this portfolio state: "+string(snapJSON)), gcfg)
	if err != nil {
		return nil, fmt.Errorf("AI request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("empty AI response")
	}
	return []byte(text), nil
}

func (c *Client) systemInstruction() (string, error) {
	if c.promptFile == "" {
		return "", fmt.Errorf("no prompt file configured")
	}
	b, err := os.ReadFile(c.promptFile)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return string(b), nil
}
