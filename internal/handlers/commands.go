package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"networth-tracker/internal/config"
	"networth-tracker/internal/database"
	"networth-tracker/internal/models"
	"networth-tracker/internal/snapshots"
	"networth-tracker/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	recentSnapshotsLimit = 10
	historyRows          = 12
)

// Bot is the part of the Telegram client the handlers use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// AnalyticsReader serves the derived metrics of a user.
type AnalyticsReader interface {
	GetAnalytics(ctx context.Context, userID string) (models.AnalyticsResult, error)
	GetCategoryHistory(ctx context.Context, userID string) ([]models.CategoryHistoryPoint, error)
}

// SnapshotWriter manages items and snapshots of a user.
type SnapshotWriter interface {
	ListItems(ctx context.Context, userID string) ([]models.Item, error)
	CreateItem(ctx context.Context, userID string, in snapshots.ItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, userID, id string, in snapshots.ItemInput) error
	DeleteItem(ctx context.Context, userID, id string) error
	RecentSnapshots(ctx context.Context, userID string, limit int) ([]models.Snapshot, error)
	CreateSnapshot(ctx context.Context, userID string, in snapshots.SnapshotInput) (*models.Snapshot, error)
	UpdateSnapshot(ctx context.Context, userID, id string, in snapshots.SnapshotUpdate) error
	DeleteSnapshot(ctx context.Context, userID, id string) error
	SetEntry(ctx context.Context, userID, snapshotID, itemID string, value float64) error
	DeleteEntry(ctx context.Context, userID, snapshotID, itemID string) error
}

// CommandHandler handles bot commands
type CommandHandler struct {
	analytics AnalyticsReader
	snapshots SnapshotWriter
	config    *config.Config
	logger    *zap.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(analytics AnalyticsReader, snapshots SnapshotWriter, config *config.Config, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{
		analytics: analytics,
		snapshots: snapshots,
		config:    config,
		logger:    logger,
	}
}

func (h *CommandHandler) reply(bot Bot, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bot.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chatId", chatID), zap.Error(err))
	}
}

// userMessage maps a service error to the text shown in the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, snapshots.ErrInvalidInput):
		return "⚠️ " + err.Error()
	case errors.Is(err, database.ErrNotFound):
		return "❌ Not found."
	case errors.Is(err, database.ErrItemInUse):
		return "⚠️ The item is still used by a snapshot."
	default:
		return "Something went wrong, please retry later."
	}
}

func (h *CommandHandler) money(amount float64) string {
	return utils.FormatMoney(amount, h.config.Currency)
}

// SendWealth sends the headline metrics
func (h *CommandHandler) SendWealth(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	result, err := h.analytics.GetAnalytics(ctx, userID)
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error computing analytics.")
		return
	}

	var b strings.Builder
	b.WriteString("💰 NET WORTH\n")
	b.WriteString("═══════════════════\n\n")
	fmt.Fprintf(&b, "Total: %s\n", h.money(result.TotalWealth))
	fmt.Fprintf(&b, "Last change: %s (%s)\n", h.money(result.LastMonthChange), utils.FormatPercent(result.LastMonthChangePercent))
	fmt.Fprintf(&b, "Since start: %s\n\n", h.money(result.AbsoluteChange))

	b.WriteString("📈 Growth\n")
	fmt.Fprintf(&b, "   • Avg monthly savings: %s\n", h.money(result.MonthlyAvgSavings))
	fmt.Fprintf(&b, "   • CAGR total: %s\n", utils.FormatPercent(result.CAGRTotal))
	fmt.Fprintf(&b, "   • CAGR last 12 months: %s\n\n", utils.FormatPercent(result.CAGRYoY))

	b.WriteString("📉 Risk\n")
	fmt.Fprintf(&b, "   • Volatility: %s\n", h.money(result.Volatility))
	fmt.Fprintf(&b, "   • Annualized volatility: %.2f%%\n", result.VolatilityAnnualized)
	fmt.Fprintf(&b, "   • Max drawdown: %.2f%%\n", result.MaxDrawdown)
	fmt.Fprintf(&b, "   • Debt ratio: %.2f%%\n", result.DebtRatio)
	fmt.Fprintf(&b, "   • Runway: %.1f months (%.1f real)\n\n", result.Runway, result.RunwayReal)

	fmt.Fprintf(&b, "🔮 In %d months\n", result.Projection.Months)
	fmt.Fprintf(&b, "   • Optimistic: %s\n", h.money(result.Projection.Optimistic))
	fmt.Fprintf(&b, "   • Realistic: %s\n", h.money(result.Projection.Realistic))
	fmt.Fprintf(&b, "   • Pessimistic: %s\n", h.money(result.Projection.Pessimistic))

	h.reply(bot, chatID, b.String())
}

// SendBreakdown sends the category breakdown of the latest snapshot
func (h *CommandHandler) SendBreakdown(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	result, err := h.analytics.GetAnalytics(ctx, userID)
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error computing analytics.")
		return
	}
	if len(result.CategoryBreakdown) == 0 {
		h.reply(bot, chatID, "❌ No snapshots yet. Use /snapshot to record one.")
		return
	}

	var b strings.Builder
	b.WriteString("📊 CATEGORY BREAKDOWN\n")
	b.WriteString("═══════════════════\n\n")
	for _, row := range result.CategoryBreakdown {
		// 1 bar per 10%
		bars := int(row.Percentage / 10)
		if bars < 0 {
			bars = 0
		}
		if bars > 10 {
			bars = 10
		}
		if bars == 0 && row.Percentage > 0 {
			bars = 1
		}
		fmt.Fprintf(&b, "%s %s (%.1f%%, %s)\n%s%s\n",
			row.Category, h.money(row.Value), row.Percentage, h.money(row.Change),
			strings.Repeat("█", bars), strings.Repeat("░", 10-bars))
	}
	fmt.Fprintf(&b, "\n💵 TOTAL: %s", h.money(result.TotalWealth))

	h.reply(bot, chatID, b.String())
}

// SendHeatmap sends the month over month changes
func (h *CommandHandler) SendHeatmap(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	result, err := h.analytics.GetAnalytics(ctx, userID)
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error computing analytics.")
		return
	}
	if len(result.MonthlyHeatmap) == 0 {
		h.reply(bot, chatID, "❌ At least two months of snapshots are needed.")
		return
	}

	var b strings.Builder
	b.WriteString("🗓️ MONTHLY CHANGES\n")
	b.WriteString("═══════════════════\n\n")
	for _, cell := range result.MonthlyHeatmap {
		icon := "🟩"
		if cell.Change < 0 {
			icon = "🟥"
		} else if cell.Change == 0 {
			icon = "⬜"
		}
		fmt.Fprintf(&b, "%s %s %d: %s (%s)\n", icon, time.Month(cell.Month).String()[:3], cell.Year,
			h.money(cell.Change), utils.FormatPercent(cell.ChangePercent))
	}

	h.reply(bot, chatID, b.String())
}

// SendCategoryHistory sends the per-category totals of the latest snapshots
func (h *CommandHandler) SendCategoryHistory(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	history, err := h.analytics.GetCategoryHistory(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load category history", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error loading history.")
		return
	}
	if len(history) == 0 {
		h.reply(bot, chatID, "❌ No snapshots yet. Use /snapshot to record one.")
		return
	}
	if len(history) > historyRows {
		history = history[len(history)-historyRows:]
	}

	var b strings.Builder
	b.WriteString("📜 CATEGORY HISTORY\n")
	b.WriteString("═══════════════════\n")
	for _, point := range history {
		fmt.Fprintf(&b, "\n%s\n", point.Date.Format("2006-01-02"))
		for _, cat := range sortedCategories(point.Categories) {
			fmt.Fprintf(&b, "   • %s: %s\n", cat, h.money(point.Categories[cat]))
		}
	}

	h.reply(bot, chatID, b.String())
}

// SendSnapshots lists the most recent snapshots
func (h *CommandHandler) SendSnapshots(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	recent, err := h.snapshots.RecentSnapshots(ctx, userID, recentSnapshotsLimit)
	if err != nil {
		h.logger.Error("failed to list snapshots", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error loading snapshots.")
		return
	}
	if len(recent) == 0 {
		h.reply(bot, chatID, "❌ No snapshots yet. Use /snapshot to record one.")
		return
	}

	var b strings.Builder
	b.WriteString("📸 RECENT SNAPSHOTS\n")
	b.WriteString("═══════════════════\n\n")
	for _, s := range recent {
		fmt.Fprintf(&b, "%s (%s) %s\n   id: %s\n", s.Date.Format("2006-01-02"), s.Frequency, h.money(s.TotalValue), s.ID)
	}
	b.WriteString("\n🗑️ Use /delete <id> to remove one")

	h.reply(bot, chatID, b.String())
}

// SendItems lists the items in their display order
func (h *CommandHandler) SendItems(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	items, err := h.snapshots.ListItems(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list items", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error loading items.")
		return
	}
	if len(items) == 0 {
		h.reply(bot, chatID, "❌ No items yet. Use /item <name> | <category> to add one.")
		return
	}

	var b strings.Builder
	b.WriteString("🏦 ITEMS\n")
	b.WriteString("═══════════════════\n\n")
	for _, item := range items {
		marker := ""
		if item.Category.IsLiability() {
			marker = " (liability)"
		} else if item.Category.IsCustom() {
			marker = " (custom)"
		}
		fmt.Fprintf(&b, "• %s [%s]%s\n", item.Name, item.Category, marker)
	}

	h.reply(bot, chatID, b.String())
}

// AddItem creates an item. Without an explicit category the item is filed
// under the first default category and a keyboard lets the user change it.
func (h *CommandHandler) AddItem(bot Bot, chatID int64, userID, args string) {
	name, category, err := utils.ParseItemArgs(args)
	if err != nil {
		h.reply(bot, chatID, "Usage: /item <name> | <category>")
		return
	}
	explicit := category != ""
	if !explicit {
		category = models.DefaultCategories[0]
	}

	ctx := context.Background()
	item, err := h.snapshots.CreateItem(ctx, userID, snapshots.ItemInput{Name: name, Category: category})
	if err != nil {
		h.logger.Error("failed to create item", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}

	content := fmt.Sprintf("✅ Added %s to %s category.", item.Name, item.Category)
	if explicit {
		h.reply(bot, chatID, content)
		return
	}

	msg := tgbotapi.NewMessage(chatID, content+"\n\nTap a different category to change:")
	msg.ReplyMarkup = utils.BuildCategoryKeyboard(models.DefaultCategories, item.ID)
	if _, err := bot.Send(msg); err != nil {
		h.logger.Warn("failed to send category selection", zap.Error(err))
	}
}

// RecordSnapshot records a snapshot from "<date>; <item>=<value>; ..."
func (h *CommandHandler) RecordSnapshot(bot Bot, chatID int64, userID, args string) {
	date, values, err := utils.ParseSnapshotArgs(args)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("⚠️ %v\nUsage: /snapshot 2025-01-31; Conto=1200; ETF=3400", err))
		return
	}

	ctx := context.Background()
	byName, ok := h.itemsByName(ctx, bot, chatID, userID)
	if !ok {
		return
	}

	entries := make([]snapshots.EntryInput, 0, len(values))
	for _, v := range values {
		id, ok := h.lookupItem(bot, chatID, byName, v.Name)
		if !ok {
			return
		}
		entries = append(entries, snapshots.EntryInput{ItemID: id, Value: v.Value})
	}

	snapshot, err := h.snapshots.CreateSnapshot(ctx, userID, snapshots.SnapshotInput{
		Date:    date,
		Entries: entries,
	})
	if err != nil {
		h.logger.Error("failed to create snapshot", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}

	content := fmt.Sprintf("✅ Snapshot of %s recorded: %s across %d items.",
		snapshot.Date.Format("2006-01-02"), h.money(snapshot.TotalValue), len(entries))
	msg := tgbotapi.NewMessage(chatID, content)
	msg.ReplyMarkup = utils.BuildSnapshotKeyboard(snapshot.ID)
	if _, err := bot.Send(msg); err != nil {
		h.logger.Warn("failed to send snapshot confirmation", zap.Error(err))
	}
}

// itemsByName loads the user's items keyed by lower-cased name. It replies
// with an error and returns false when they cannot be loaded.
func (h *CommandHandler) itemsByName(ctx context.Context, bot Bot, chatID int64, userID string) (map[string]string, bool) {
	items, err := h.snapshots.ListItems(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list items", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error loading items.")
		return nil, false
	}
	byName := make(map[string]string, len(items))
	for _, item := range items {
		byName[strings.ToLower(item.Name)] = item.ID
	}
	return byName, true
}

func (h *CommandHandler) lookupItem(bot Bot, chatID int64, byName map[string]string, name string) (string, bool) {
	id, ok := byName[strings.ToLower(name)]
	if !ok {
		h.reply(bot, chatID, fmt.Sprintf("❌ Unknown item %q. Use /items to see them.", name))
	}
	return id, ok
}

// RemoveItem deletes an item no snapshot uses
func (h *CommandHandler) RemoveItem(bot Bot, chatID int64, userID, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		h.reply(bot, chatID, "Usage: /rmitem <name>")
		return
	}

	ctx := context.Background()
	byName, ok := h.itemsByName(ctx, bot, chatID, userID)
	if !ok {
		return
	}
	id, ok := h.lookupItem(bot, chatID, byName, name)
	if !ok {
		return
	}
	if err := h.snapshots.DeleteItem(ctx, userID, id); err != nil {
		h.logger.Error("failed to delete item", zap.String("userId", userID), zap.String("itemId", id), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}
	h.reply(bot, chatID, fmt.Sprintf("🗑️ Item %s deleted.", name))
}

// ReorderItems sets the display position of items from "<item>=<n>; ..."
func (h *CommandHandler) ReorderItems(bot Bot, chatID int64, userID, args string) {
	positions, err := utils.ParseOrderArgs(args)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("⚠️ %v\nUsage: /order ETF=1; Conto=2", err))
		return
	}

	ctx := context.Background()
	byName, ok := h.itemsByName(ctx, bot, chatID, userID)
	if !ok {
		return
	}
	for _, p := range positions {
		id, ok := h.lookupItem(bot, chatID, byName, p.Name)
		if !ok {
			return
		}
		position := p.Position
		if err := h.snapshots.UpdateItem(ctx, userID, id, snapshots.ItemInput{SortOrder: &position}); err != nil {
			h.logger.Error("failed to reorder item", zap.String("userId", userID), zap.String("itemId", id), zap.Error(err))
			h.reply(bot, chatID, userMessage(err))
			return
		}
	}
	h.reply(bot, chatID, fmt.Sprintf("✅ Reordered %d items. Use /items to see them.", len(positions)))
}

// SetEntries sets item values inside an existing snapshot from
// "<snapshot id>; <item>=<value>; ...". The snapshot total is left as is.
func (h *CommandHandler) SetEntries(bot Bot, chatID int64, userID, args string) {
	snapshotID, values, err := utils.ParseEntryArgs(args)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("⚠️ %v\nUsage: /entry <snapshot id>; ETF=3500", err))
		return
	}

	ctx := context.Background()
	byName, ok := h.itemsByName(ctx, bot, chatID, userID)
	if !ok {
		return
	}
	for _, v := range values {
		id, ok := h.lookupItem(bot, chatID, byName, v.Name)
		if !ok {
			return
		}
		if err := h.snapshots.SetEntry(ctx, userID, snapshotID, id, v.Value); err != nil {
			h.logger.Error("failed to set entry", zap.String("userId", userID), zap.String("snapshotId", snapshotID), zap.Error(err))
			h.reply(bot, chatID, userMessage(err))
			return
		}
	}
	h.reply(bot, chatID, fmt.Sprintf("✅ Updated %d entries. The snapshot total is unchanged, use /total to set it.", len(values)))
}

// RemoveEntry removes an item from a snapshot from "<snapshot id>; <item>"
func (h *CommandHandler) RemoveEntry(bot Bot, chatID int64, userID, args string) {
	snapshotID, name, err := utils.ParseEntryRef(args)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("⚠️ %v\nUsage: /rmentry <snapshot id>; <item>", err))
		return
	}

	ctx := context.Background()
	byName, ok := h.itemsByName(ctx, bot, chatID, userID)
	if !ok {
		return
	}
	id, ok := h.lookupItem(bot, chatID, byName, name)
	if !ok {
		return
	}
	if err := h.snapshots.DeleteEntry(ctx, userID, snapshotID, id); err != nil {
		h.logger.Error("failed to delete entry", zap.String("userId", userID), zap.String("snapshotId", snapshotID), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}
	h.reply(bot, chatID, fmt.Sprintf("🗑️ %s removed from the snapshot.", name))
}

// SetTotal overrides a snapshot's total from "<snapshot id> <value>"
func (h *CommandHandler) SetTotal(bot Bot, chatID int64, userID, args string) {
	snapshotID, total, err := utils.ParseTotalArgs(args)
	if err != nil {
		h.reply(bot, chatID, fmt.Sprintf("⚠️ %v\nUsage: /total <snapshot id> <value>", err))
		return
	}

	ctx := context.Background()
	if err := h.snapshots.UpdateSnapshot(ctx, userID, snapshotID, snapshots.SnapshotUpdate{TotalValue: &total}); err != nil {
		h.logger.Error("failed to update snapshot", zap.String("userId", userID), zap.String("snapshotId", snapshotID), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}
	h.reply(bot, chatID, fmt.Sprintf("✅ Snapshot total set to %s.", h.money(total)))
}

// DeleteSnapshot deletes a snapshot and its entries
func (h *CommandHandler) DeleteSnapshot(bot Bot, chatID int64, userID, snapshotID string) {
	snapshotID = strings.TrimSpace(snapshotID)
	if snapshotID == "" {
		h.reply(bot, chatID, "Usage: /delete <snapshot id>")
		return
	}

	ctx := context.Background()
	if err := h.snapshots.DeleteSnapshot(ctx, userID, snapshotID); err != nil {
		h.logger.Error("failed to delete snapshot", zap.String("userId", userID), zap.String("snapshotId", snapshotID), zap.Error(err))
		h.reply(bot, chatID, userMessage(err))
		return
	}
	h.reply(bot, chatID, "🗑️ Snapshot deleted.")
}

// ExportData sends the analytics report, the category history and the
// monthly changes as CSV documents
func (h *CommandHandler) ExportData(bot Bot, chatID int64, userID string) {
	ctx := context.Background()
	history, err := h.analytics.GetCategoryHistory(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load category history", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error loading history.")
		return
	}
	if len(history) == 0 {
		h.reply(bot, chatID, "❌ Nothing to export yet.")
		return
	}
	result, err := h.analytics.GetAnalytics(ctx, userID)
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.String("userId", userID), zap.Error(err))
		h.reply(bot, chatID, "Error computing analytics.")
		return
	}

	stamp := time.Now().Format("2006-01-02")
	h.sendCSV(bot, chatID, fmt.Sprintf("networth_report_%s.csv", stamp), "📊 Net worth report", func(w io.Writer) error {
		return utils.GenerateAnalyticsCSV(result, h.config.Currency, w)
	})
	h.sendCSV(bot, chatID, fmt.Sprintf("category_history_%s.csv", stamp),
		fmt.Sprintf("📜 Category history, %d snapshots", len(history)), func(w io.Writer) error {
			return utils.GenerateCategoryHistoryCSV(history, w)
		})
	h.sendCSV(bot, chatID, fmt.Sprintf("monthly_changes_%s.csv", stamp), "🗓️ Monthly changes", func(w io.Writer) error {
		return utils.GenerateHeatmapCSV(result.MonthlyHeatmap, w)
	})
}

func (h *CommandHandler) sendCSV(bot Bot, chatID int64, filename, caption string, generate func(io.Writer) error) {
	var buffer bytes.Buffer
	if err := generate(&buffer); err != nil {
		h.logger.Error("failed to generate CSV", zap.String("file", filename), zap.Error(err))
		h.reply(bot, chatID, "⚠️ CSV generation failed.")
		return
	}

	document := tgbotapi.FileBytes{
		Name:  filename,
		Bytes: buffer.Bytes(),
	}
	documentMsg := tgbotapi.NewDocument(chatID, document)
	documentMsg.Caption = caption

	if _, err := bot.Send(documentMsg); err != nil {
		h.logger.Error("failed to send CSV file", zap.String("file", filename), zap.Error(err))
		h.reply(bot, chatID, "⚠️ Failed to send CSV file.")
	}
}

// SendHelp sends help information
func (h *CommandHandler) SendHelp(bot Bot, chatID int64) {
	var categories []string
	for _, c := range models.DefaultCategories {
		categories = append(categories, string(c))
	}

	helpText := `📊 Net Worth Tracker Bot

🏠 Overview:
• /wealth - Net worth, growth and risk metrics
• /breakdown - Category breakdown of the latest snapshot
• /heatmap - Month over month changes
• /history - Per-category totals over time
• /export - Export CSV data

🏦 Items:
• /items - List your items
• /item <name> | <category> - Add an item
• /rmitem <name> - Delete an item no snapshot uses
• /order <item>=<n>; ... - Set the display order

📸 Snapshots:
• /snapshot <date>; <item>=<value>; ... - Record a snapshot
• /snapshots - List recent snapshots
• /delete <id> - Delete a snapshot
• /entry <id>; <item>=<value>; ... - Change values in a snapshot
• /rmentry <id>; <item> - Remove an item from a snapshot
• /total <id> <value> - Set a snapshot total

Categories: ` + strings.Join(categories, ", ") + `
Debts and loans count as liabilities: record them as negative values.`

	h.reply(bot, chatID, helpText)
}

func sortedCategories(m map[models.Category]float64) []models.Category {
	out := make([]models.Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
