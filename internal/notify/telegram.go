// Package notify delivers evaluation and restock summaries to operators
// over Telegram.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/models"
)

// Notifier sends formatted reports to a Telegram chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a Notifier for the given bot token and chat.
func New(botToken string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notifier").Logger(),
	}, nil
}

// SendEvaluationReport sends the quantile-loss report as a Markdown table.
func (n *Notifier) SendEvaluationReport(report *models.EvaluationReport) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatEvaluationReport(report))
	msg.ParseMode = "Markdown"

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("Failed to send evaluation report")
		return err
	}
	n.logger.Info().Int("rows", len(report.Rows)).Msg("Evaluation report sent")
	return nil
}

// SendAllocations sends a restock recommendation summary.
func (n *Notifier) SendAllocations(allocations []models.Allocation) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatAllocations(allocations))
	msg.ParseMode = "Markdown"

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("Failed to send restock recommendation")
		return err
	}
	n.logger.Info().Int("skus", len(allocations)).Msg("Restock recommendation sent")
	return nil
}

// FormatEvaluationReport renders the report as a fixed-width Markdown block.
func FormatEvaluationReport(report *models.EvaluationReport) string {
	var b strings.Builder
	b.WriteString("📊 *Forecast evaluation*\n")
	if report.ModelTag != "" {
		fmt.Fprintf(&b, "model: `%s`\n", report.ModelTag)
	}
	b.WriteString("```\n")
	b.WriteString("quantile  horizon  avg_quantile_loss\n")
	for _, row := range report.Rows {
		fmt.Fprintf(&b, "%8.2f  %6dd  %17.4f\n", row.Quantile, row.Horizon, row.AvgQuantileLoss)
	}
	b.WriteString("```")
	return b.String()
}

// FormatAllocations renders the allocation list as a fixed-width Markdown
// block with spend and profit totals.
func FormatAllocations(allocations []models.Allocation) string {
	var b strings.Builder
	b.WriteString("📦 *Restock recommendation*\n```\n")
	b.WriteString("sku       pct  qty      budget      profit\n")

	var totalBudget, totalProfit float64
	for _, a := range allocations {
		fmt.Fprintf(&b, "%-8s  %3d  %3d  %10.2f  %10.2f\n",
			a.SKU, a.Percentile, a.AllocatedQty, a.AllocatedBudget, a.ExpectedProfit)
		totalBudget += a.AllocatedBudget
		totalProfit += a.ExpectedProfit
	}
	fmt.Fprintf(&b, "\ntotal spend:  %.2f\ntotal profit: %.2f\n```", totalBudget, totalProfit)
	return b.String()
}
