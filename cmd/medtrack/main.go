package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/MedTrack/internal/api"
	"github.com/hray3182/MedTrack/internal/bot"
	"github.com/hray3182/MedTrack/internal/bot/handlers"
	"github.com/hray3182/MedTrack/internal/config"
	"github.com/hray3182/MedTrack/internal/coord"
	"github.com/hray3182/MedTrack/internal/database"
	"github.com/hray3182/MedTrack/internal/logger"
	"github.com/hray3182/MedTrack/internal/notify"
	"github.com/hray3182/MedTrack/internal/pushrelay"
	"github.com/hray3182/MedTrack/internal/reminder"
	"github.com/hray3182/MedTrack/internal/repository"
	"github.com/hray3182/MedTrack/internal/repository/memory"
	"github.com/hray3182/MedTrack/internal/scheduler"
)

type userStore interface {
	reminder.RecipientResolver
	api.UserStore
	handlers.Users
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "err", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, LogDir: cfg.LogDir}); err != nil {
		logger.Fatal("Failed to init logger", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		doses  api.DoseStore
		users  userStore
		roster reminder.Roster
	)
	if cfg.DatabaseURI != "" {
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer db.Close()
		logger.Info("Connected to database")

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
		logger.Info("Database migrations completed")

		doses = repository.NewDoseRepository(db)
		users = repository.NewUserRepository(db)
		roster = repository.NewRosterRepository(db)
	} else {
		logger.Warn("DATABASE_URI not set, keeping everything in memory")
		store := memory.NewStore()
		doses, users, roster = store, store, store
	}

	// Push goes straight to OneSignal when this process holds the
	// credentials, otherwise through an external relay.
	var (
		push     notify.Dispatcher
		oneSig   *notify.OneSignal
		telegram notify.Dispatcher
		tgAPI    *tgbotapi.BotAPI
	)
	switch {
	case cfg.OneSignalEnabled():
		oneSig = notify.NewOneSignal(cfg.OneSignalURL, cfg.OneSignalAppID, cfg.OneSignalAPIKey, 2)
		push = oneSig
		logger.Info("Push via OneSignal")
	case cfg.PushRelayURL != "":
		push = notify.NewRelay(cfg.PushRelayURL)
		logger.Info("Push via relay", "url", cfg.PushRelayURL)
	default:
		logger.Warn("No push channel configured")
	}

	if cfg.TelegramToken != "" {
		tgAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create Telegram API", "err", err)
		}
		telegram = notify.NewTelegram(tgAPI)
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, bot disabled")
	}

	dispatcher := notify.NewFanout(push, telegram)

	opts := reminder.Options{Clock: reminder.SystemClock(cfg.Location())}
	if cfg.RedisAddr != "" {
		guard, err := coord.NewRedisGuard(ctx, coord.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, sessions fire independently", "err", err)
		} else {
			defer guard.Close()
			opts.Guard = guard
			logger.Info("Fire guard enabled", "addr", cfg.RedisAddr)
		}
	}

	query := reminder.NewQuery(doses)
	sched := reminder.NewScheduler(ctx, query, users, dispatcher, opts)
	defer sched.Close()
	welcome := reminder.NewWelcomeNotifier(query, users, roster, dispatcher, opts.Clock, cfg.MissedGraceMinutes)

	rollover := scheduler.New(sched, opts.Clock.Now)
	go rollover.Start(ctx)

	apiOpts := api.Options{
		Doses:     doses,
		Users:     users,
		Query:     query,
		Scheduler: sched,
		Welcome:   welcome,
		Clock:     opts.Clock,
	}
	if oneSig != nil {
		apiOpts.Relay = pushrelay.NewHandler(oneSig)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(apiOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "err", err)
			cancel()
		}
	}()

	if tgAPI != nil {
		b := bot.New(tgAPI, handlers.Deps{
			Users:    users,
			Doses:    doses,
			Sessions: sched,
			Welcome:  welcome,
			Clock:    opts.Clock,
		})
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Bot stopped", "err", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "err", err)
	}
}
