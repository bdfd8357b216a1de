package decision

import (
	"encoding/json"
	"fmt"
	"regexp"

	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9-]+$`)

const tickerExpected = "ticker matching ^[A-Z0-9-]+$"

// Validate checks a parsed decision batch and converts it into its typed form.
// Constraints are checked in document order and the first violation aborts
// the batch. Validate has no side effects.
func Validate(doc any, expectedVersion string) (*models.DecisionBatch, error) {
	batch, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Section: "batch", Index: -1, Expected: "an object", Actual: typeName(doc)}
	}

	version, present := batch["version"]
	if !present || version == nil {
		return nil, &ValidationError{Section: "batch", Index: -1, Field: "version", Expected: fmt.Sprintf("version %q", expectedVersion), Missing: true}
	}
	if scalarString(version) != expectedVersion {
		return nil, &ValidationError{Section: "batch", Index: -1, Field: "version", Expected: fmt.Sprintf("version %q", expectedVersion), Actual: version}
	}

	generatedAt, present := batch["generatedAt"]
	if !present || generatedAt == nil {
		return nil, &ValidationError{Section: "batch", Index: -1, Field: "generatedAt", Expected: "a generation timestamp", Missing: true}
	}

	rawDecisions, ok := batch["decisions"].([]any)
	if !ok {
		return nil, &ValidationError{Section: "batch", Index: -1, Field: "decisions", Expected: "an array", Actual: typeName(batch["decisions"]), Missing: batch["decisions"] == nil}
	}

	out := &models.DecisionBatch{
		Version:         scalarString(version),
		GeneratedAt:     scalarString(generatedAt),
		Decisions:       make([]models.Decision, 0, len(rawDecisions)),
		StopLossUpdates: []models.StopLossUpdate{},
		RiskAssessment:  freeText(batch["riskAssessment"]),
		Notes:           freeText(batch["notes"]),
	}

	for i, raw := range rawDecisions {
		d, err := validateDecision(i, raw)
		if err != nil {
			return nil, err
		}
		out.Decisions = append(out.Decisions, d)
	}

	if v := batch["stopLossUpdates"]; v != nil {
		rawUpdates, ok := v.([]any)
		if !ok {
			return nil, &ValidationError{Section: "batch", Index: -1, Field: "stopLossUpdates", Expected: "an array", Actual: typeName(v)}
		}
		for i, raw := range rawUpdates {
			u, err := validateStopLossUpdate(i, raw)
			if err != nil {
				return nil, err
			}
			out.StopLossUpdates = append(out.StopLossUpdates, u)
		}
	}

	return out, nil
}

func validateDecision(i int, raw any) (models.Decision, error) {
	fail := func(field, expected string, actual any) error {
		return &ValidationError{Section: "decisions", Index: i, Field: field, Expected: expected, Actual: actual, Missing: actual == nil}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return models.Decision{}, &ValidationError{Section: "decisions", Index: i, Expected: "an object", Actual: typeName(raw)}
	}

	for _, field := range []string{"action", "ticker", "shares"} {
		if obj[field] == nil {
			return models.Decision{}, fail(field, "a value", nil)
		}
	}

	var d models.Decision

	action, _ := obj["action"].(string)
	switch models.Action(action) {
	case models.Buy, models.Sell, models.Hold:
		d.Action = models.Action(action)
	default:
		return d, fail("action", "one of BUY, SELL, HOLD", obj["action"])
	}

	ticker, _ := obj["ticker"].(string)
	if !tickerRe.MatchString(ticker) {
		return d, fail("ticker", tickerExpected, obj["ticker"])
	}
	d.Ticker = ticker

	shares, ok := number(obj["shares"])
	if !ok || !shares.IsInteger() || shares.IsNegative() {
		return d, fail("shares", "an integer >= 0", obj["shares"])
	}
	if !shares.LessThanOrEqual(decimal.NewFromInt(1 << 53)) {
		return d, fail("shares", "an integer >= 0", obj["shares"])
	}
	d.Shares = shares.IntPart()

	d.OrderType = models.Market
	if v := obj["orderType"]; v != nil {
		ot, _ := v.(string)
		switch models.OrderType(ot) {
		case models.Market, models.Limit:
			d.OrderType = models.OrderType(ot)
		default:
			return d, fail("orderType", "one of market, limit", v)
		}
	}

	if v := obj["limitPrice"]; v != nil || d.OrderType == models.Limit {
		lp, ok := number(v)
		if d.OrderType == models.Limit && (!ok || !lp.IsPositive()) {
			return d, fail("limitPrice", "a price > 0 for limit orders", v)
		}
		if ok && lp.IsPositive() {
			d.LimitPrice = models.Dec(lp)
		}
	}

	// stopLoss is only constrained for BUY; elsewhere a usable value is kept
	sl, ok := number(obj["stopLoss"])
	if d.Action == models.Buy && (!ok || !sl.IsPositive()) {
		return d, fail("stopLoss", "a price > 0 for BUY", obj["stopLoss"])
	}
	if ok && sl.IsPositive() {
		d.StopLoss = models.Dec(sl)
	}

	d.TimeInForce = models.Day
	if v := obj["timeInForce"]; v != nil {
		tif, _ := v.(string)
		switch models.TimeInForce(tif) {
		case models.Day, models.GTC:
			d.TimeInForce = models.TimeInForce(tif)
		default:
			return d, fail("timeInForce", "one of day, gtc", v)
		}
	}

	if v := obj["confidence"]; v != nil {
		c, ok := number(v)
		if !ok || c.IsNegative() || c.GreaterThan(decimal.NewFromInt(1)) {
			return d, fail("confidence", "a number in [0, 1]", v)
		}
		f := c.InexactFloat64()
		d.Confidence = &f
	}

	d.Reasoning = freeText(obj["reasoning"])
	return d, nil
}

func validateStopLossUpdate(i int, raw any) (models.StopLossUpdate, error) {
	fail := func(field, expected string, actual any) error {
		return &ValidationError{Section: "stopLossUpdates", Index: i, Field: field, Expected: expected, Actual: actual, Missing: actual == nil}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return models.StopLossUpdate{}, &ValidationError{Section: "stopLossUpdates", Index: i, Expected: "an object", Actual: typeName(raw)}
	}
	if obj["ticker"] == nil {
		return models.StopLossUpdate{}, fail("ticker", "a value", nil)
	}
	if obj["stopLoss"] == nil {
		return models.StopLossUpdate{}, fail("stopLoss", "a value", nil)
	}

	ticker, _ := obj["ticker"].(string)
	if !tickerRe.MatchString(ticker) {
		return models.StopLossUpdate{}, fail("ticker", tickerExpected, obj["ticker"])
	}
	sl, ok := number(obj["stopLoss"])
	if !ok || !sl.IsPositive() {
		return models.StopLossUpdate{}, fail("stopLoss", "a price > 0", obj["stopLoss"])
	}
	return models.StopLossUpdate{Ticker: ticker, StopLoss: sl}, nil
}

// number accepts JSON numbers only; numeric strings are rejected.
func number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// freeText keeps optional prose fields; structured values are kept as JSON.
func freeText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
