package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"networth-tracker/internal/analytics"
	"networth-tracker/internal/cache"
	"networth-tracker/internal/config"
	"networth-tracker/internal/database"
	"networth-tracker/internal/handlers"
	"networth-tracker/internal/snapshots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	// Load configuration
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()
	if !dotenv {
		logger.Info("no .env file found, using environment variables")
	}

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}
	cancel()

	// Analytics engine and write path
	results := cache.New(cfg.CacheTTL)
	analyticsService := analytics.NewService(db, results, logger)
	snapshotService := snapshots.NewService(db, analyticsService, logger)

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("failed to create Telegram bot", zap.Error(err))
	}
	bot.Debug = false
	logger.Info("bot started", zap.String("username", bot.Self.UserName))

	eventHandler := handlers.NewEventHandler(analyticsService, snapshotService, cfg, logger)

	// Drop expired analytics results
	c := cron.New()
	_, err = c.AddFunc(cfg.CacheSweepSchedule, func() {
		if n := results.Prune(); n > 0 {
			logger.Debug("pruned expired analytics", zap.Int("entries", n), zap.Int("remaining", results.Len()))
		}
	})
	if err != nil {
		logger.Fatal("failed to add cron job", zap.Error(err))
	}
	c.Start()

	// Start listening for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	// Handle updates
	go func() {
		for update := range updates {
			if update.Message != nil {
				eventHandler.HandleMessage(bot, update.Message)
			} else if update.CallbackQuery != nil {
				eventHandler.HandleCallbackQuery(bot, update.CallbackQuery)
			}
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	logger.Info("shutting down bot")
	bot.StopReceivingUpdates()
	<-c.Stop().Done()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := db.Close(closeCtx); err != nil {
		logger.Warn("failed to close MongoDB", zap.Error(err))
	}
}
