package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"networth-tracker/internal/config"
	"networth-tracker/internal/models"
	"networth-tracker/internal/snapshots"
	"networth-tracker/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// EventHandler handles Telegram events
type EventHandler struct {
	snapshots  SnapshotWriter
	config     *config.Config
	commands   *CommandHandler
	logger     *zap.Logger
	confirmTTL time.Duration
}

// NewEventHandler creates a new event handler
func NewEventHandler(analytics AnalyticsReader, snapshots SnapshotWriter, config *config.Config, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{
		snapshots:  snapshots,
		config:     config,
		commands:   NewCommandHandler(analytics, snapshots, config, logger),
		logger:     logger,
		confirmTTL: 5 * time.Second,
	}
}

func userKey(user *tgbotapi.User) string {
	return strconv.FormatInt(user.ID, 10)
}

// HandleMessage handles incoming messages
func (h *EventHandler) HandleMessage(bot Bot, message *tgbotapi.Message) {
	// Ignore channel posts and messages from bots
	if message.From == nil || message.From.IsBot {
		return
	}

	// Only process messages from the configured chat
	if !h.config.IsAuthorizedChat(message.Chat.ID) {
		return
	}

	if message.IsCommand() {
		h.handleCommand(bot, message)
	}
}

// handleCommand processes bot commands
func (h *EventHandler) handleCommand(bot Bot, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := userKey(message.From)
	args := message.CommandArguments()

	h.logger.Debug("command received",
		zap.String("command", message.Command()),
		zap.String("userId", userID))

	switch message.Command() {
	case "wealth":
		h.commands.SendWealth(bot, chatID, userID)
	case "breakdown":
		h.commands.SendBreakdown(bot, chatID, userID)
	case "heatmap":
		h.commands.SendHeatmap(bot, chatID, userID)
	case "history":
		h.commands.SendCategoryHistory(bot, chatID, userID)
	case "snapshots":
		h.commands.SendSnapshots(bot, chatID, userID)
	case "items":
		h.commands.SendItems(bot, chatID, userID)
	case "item":
		h.commands.AddItem(bot, chatID, userID, args)
	case "rmitem":
		h.commands.RemoveItem(bot, chatID, userID, args)
	case "order":
		h.commands.ReorderItems(bot, chatID, userID, args)
	case "snapshot":
		h.commands.RecordSnapshot(bot, chatID, userID, args)
	case "delete":
		h.commands.DeleteSnapshot(bot, chatID, userID, args)
	case "entry":
		h.commands.SetEntries(bot, chatID, userID, args)
	case "rmentry":
		h.commands.RemoveEntry(bot, chatID, userID, args)
	case "total":
		h.commands.SetTotal(bot, chatID, userID, args)
	case "export":
		h.commands.ExportData(bot, chatID, userID)
	case "help", "start":
		h.commands.SendHelp(bot, chatID)
	}
}

// HandleCallbackQuery handles inline button callbacks
func (h *EventHandler) HandleCallbackQuery(bot Bot, callback *tgbotapi.CallbackQuery) {
	// Only process callbacks from the configured chat
	if callback.Message == nil || callback.From == nil || !h.config.IsAuthorizedChat(callback.Message.Chat.ID) {
		return
	}

	if strings.HasPrefix(callback.Data, "category_") {
		h.handleCategorySelection(bot, callback)
	} else if strings.HasPrefix(callback.Data, "delete_") {
		h.handleSnapshotDeletion(bot, callback)
	}

	// Answer the callback to remove loading state
	if _, err := bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Debug("failed to answer callback", zap.Error(err))
	}
}

// handleCategorySelection moves an item to the selected category
func (h *EventHandler) handleCategorySelection(bot Bot, callback *tgbotapi.CallbackQuery) {
	itemID, category, err := utils.ParseCategoryCallback(callback.Data, models.DefaultCategories)
	if err != nil {
		h.logger.Warn("invalid category callback", zap.String("data", callback.Data), zap.Error(err))
		return
	}

	ctx := context.Background()
	userID := userKey(callback.From)
	err = h.snapshots.UpdateItem(ctx, userID, itemID, snapshots.ItemInput{Category: category})
	if err != nil {
		h.logger.Error("failed to update item category",
			zap.String("userId", userID), zap.String("itemId", itemID), zap.Error(err))
		return
	}

	// Show confirmation and allow re-selection
	content := fmt.Sprintf("✅ Moved to %s category.\n\nTap a different category to change:", category)
	keyboard := utils.BuildCategoryKeyboard(models.DefaultCategories, itemID)

	editMsg := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, content)
	editMsg.ReplyMarkup = &keyboard

	if _, err := bot.Send(editMsg); err != nil {
		h.logger.Warn("failed to update category selection message", zap.Error(err))
	}
}

// handleSnapshotDeletion handles snapshot deletion via callback
func (h *EventHandler) handleSnapshotDeletion(bot Bot, callback *tgbotapi.CallbackQuery) {
	snapshotID := strings.TrimPrefix(callback.Data, "delete_")
	if snapshotID == "" {
		return
	}

	chatID := callback.Message.Chat.ID
	ctx := context.Background()
	userID := userKey(callback.From)
	if err := h.snapshots.DeleteSnapshot(ctx, userID, snapshotID); err != nil {
		h.logger.Error("failed to delete snapshot",
			zap.String("userId", userID), zap.String("snapshotId", snapshotID), zap.Error(err))
		h.commands.reply(bot, chatID, userMessage(err))
		return
	}

	// Delete the confirmation message carrying the button
	bot.Request(tgbotapi.NewDeleteMessage(chatID, callback.Message.MessageID))

	sentConfirm, err := bot.Send(tgbotapi.NewMessage(chatID, "🗑️ Deleted snapshot."))
	if err == nil {
		// Auto-delete the confirmation message
		go func() {
			time.Sleep(h.confirmTTL)
			bot.Request(tgbotapi.NewDeleteMessage(chatID, sentConfirm.MessageID))
		}()
	}
}
