package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"telegram-fetch-bot/internal/bot"
	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/database"
	"telegram-fetch-bot/internal/downloader/manager"
	"telegram-fetch-bot/internal/handlers"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/registry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lang.SetLang(cfg.Lang)

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		logrus.WithError(err).Fatal("Cannot create download directory")
	}

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	if counts, err := db.CountJobsByStatus(context.Background()); err == nil && len(counts) > 0 {
		logrus.WithField("jobs", counts).Info("Persisted jobs from previous run")
	}

	botService, err := bot.InitBot(cfg.BotToken)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New(db)
	mgr := manager.NewManager(ctx, cfg, reg, botService, db)
	handler := handlers.NewHandler(cfg, botService, db, reg, mgr)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := botService.Api.GetUpdatesChan(updateConfig)

	logrus.Info("Bot is running")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Shutting down")
			botService.Api.StopReceivingUpdates()
			mgr.Shutdown()
			return
		case update := <-updates:
			go handler.HandleUpdate(ctx, update)
		}
	}
}
