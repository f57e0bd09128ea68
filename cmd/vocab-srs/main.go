// cmd/vocab-srs/main.go
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"github.com/smith3v/vocab-srs/pkg/bot/handlers"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/reminders"
	"github.com/smith3v/vocab-srs/pkg/session"
	"github.com/spf13/pflag"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to read .env file", "error", err)
	}

	flags := pflag.NewFlagSet("vocab-srs", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])
	configPath, _ := flags.GetString("config")

	if err := config.Load(configPath, flags); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	gdb, err := db.Open(cfg.Database, cfg.Logging.GormLevel)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	repo := db.NewRepository(gdb, db.RetryPolicy{
		Attempts: cfg.Persistence.RetryAttempts,
		Backoff:  cfg.Persistence.RetryBackoff,
	})

	dispatcher := session.NewDispatcher(cfg.Persistence.Workers, nil)
	manager := session.NewManager(repo, dispatcher, session.WithLimits(session.Limits{
		Review:        cfg.Session.ReviewLimit,
		Learning:      cfg.Session.LearningLimit,
		MixedReview:   cfg.Session.MixedReviewLimit,
		MixedLearning: cfg.Session.MixedLearningLimit,
	}))
	registry := session.NewRegistry(time.Now, cfg.Session.InactivityTimeout)
	h := handlers.New(repo, manager, registry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(h.DefaultHandler))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	h.Register(b)

	notifier := handlers.NewNotifier(b)
	dispatcher.SetWarningHandler(notifier.PersistenceWarning)

	go registry.StartSweeper(ctx, session.DefaultSweeperInterval, h.ExpireSession)
	go repo.StartSessionCleanup(ctx, cfg.Cleanup.Interval, cfg.Cleanup.SessionTTL, time.Now)

	var scheduler *reminders.Scheduler
	if cfg.Reminders.Enabled {
		scheduler = reminders.New(repo, notifier, cfg.Reminders.Interval, time.Now)
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("failed to start reminders", "error", err)
			scheduler = nil
		}
	}

	logger.Info("Starting bot...", "driver", cfg.Database.Driver)
	b.Start(ctx)

	logger.Info("Shutting down...")
	if scheduler != nil {
		scheduler.Stop()
	}
	if n := h.AbandonAll(); n > 0 {
		logger.Info("abandoned live sessions", "count", n)
	}
	dispatcher.Close()
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
