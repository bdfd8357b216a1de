package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microcap_trading/internal/cycle"
	"microcap_trading/internal/logger"
	"microcap_trading/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const apiBaseURL = "https://api.telegram.org"

var _ cycle.Notifier = (*Notifier)(nil)

// Notifier posts messages to one Telegram chat. Without credentials every
// call is a no-op.
type Notifier struct {
	client *resty.Client
	token  string
	chatID string
}

func NewNotifier(token, chatID string) *Notifier {
	client := resty.New()
	client.SetBaseURL(apiBaseURL)
	client.SetTimeout(15 * time.Second)

	if token == "" || chatID == "" {
		logger.Warnf("Telegram credentials missing, notifications disabled")
	}
	return &Notifier{client: client, token: token, chatID: chatID}
}

// Notify sends text to the configured chat.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if n.token == "" || n.chatID == "" {
		return nil
	}
	logger.Debugf("Telegram Notify: %s", text)

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    n.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post("/bot" + n.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram API error: status %s", resp.Status())
	}
	return nil
}

// NotifyCycle sends the cycle summary.
func (n *Notifier) NotifyCycle(ctx context.Context, r *cycle.Report) error {
	return n.Notify(ctx, FormatReport(r))
}

// FormatReport renders a cycle report as a Markdown message.
func FormatReport(r *cycle.Report) string {
	var sb strings.Builder
	sb.WriteString("📊 *Portfolio Update*\n")
	fmt.Fprintf(&sb, "Applied: %d | Skipped: %d | Failed: %d | Holds: %d\n", r.Applied, r.Skipped, r.Failed, r.Holds)

	for _, t := range r.Trades {
		switch t.Status {
		case cycle.StatusApplied:
			e := t.Execution
			fmt.Fprintf(&sb, "✅ %s %s x%d @ $%s", e.Action, escape(e.Ticker), e.Shares, e.Price.String())
			if e.Action == models.Sell {
				fmt.Fprintf(&sb, " (P&L %s)", usd(e.RealizedPnL))
			}
			sb.WriteString("\n")
		case cycle.StatusSkipped:
			fmt.Fprintf(&sb, "⚠️ %s %s skipped: %s\n", t.Decision.Action, escape(t.Decision.Ticker), escape(t.Reason))
		case cycle.StatusFailed:
			fmt.Fprintf(&sb, "❌ %s %s failed: %s\n", t.Decision.Action, escape(t.Decision.Ticker), escape(t.Reason))
		}
	}

	if len(r.StopLossUnmatched) > 0 {
		fmt.Fprintf(&sb, "Stop-loss updates without position: %s\n", escape(strings.Join(r.StopLossUnmatched, ", ")))
	}

	p := r.Portfolio
	fmt.Fprintf(&sb, "\n💵 Cash: %s\n📈 Equity: %s\n💼 Total: %s (%d positions)",
		usd(p.Cash), usd(p.Equity), usd(p.TotalValue), len(p.Positions))
	return sb.String()
}

// usd formats a dollar amount rounded to cents.
func usd(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), money.USD).Display()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
