// Command server runs the multi-account restock and sales monitor: one
// supervised worker per enabled account, a push scheduler, and the dashboard
// control surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/storewatch/storewatch/internal/api"
	"github.com/storewatch/storewatch/internal/api/handler"
	"github.com/storewatch/storewatch/internal/core/service"
	"github.com/storewatch/storewatch/internal/infrastructure/push"
	"github.com/storewatch/storewatch/internal/infrastructure/store"
	"github.com/storewatch/storewatch/internal/infrastructure/upstream"
	"github.com/storewatch/storewatch/internal/pkg/config"
	"github.com/storewatch/storewatch/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Infrastructure ---
	accounts := store.NewFileStore(cfg.AccountsFile, log)
	client := upstream.NewClient(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		RequestTimeout: cfg.Upstream.RequestTimeout,
		LoginKey:       cfg.Upstream.LoginKey,
	}, log)
	notifier := push.NewNotifier(push.Config{
		Endpoint: cfg.Push.Endpoint,
		Token:    cfg.Push.Token,
		Topic:    cfg.Push.Topic,
		Template: cfg.Push.Template,
	}, log)

	// --- Core services ---
	board := service.NewStatusBoard()
	workerCfg := service.WorkerConfig{
		LoginInterval:   cfg.Worker.LoginInterval,
		SoldOutInterval: cfg.Worker.SoldOutInterval,
		SalesInterval:   cfg.Worker.SalesInterval,
	}
	super := service.NewSupervisor(accounts, client, board, workerCfg, cfg.Worker.RestartBackoff, log)
	pusher := service.NewPushScheduler(board, notifier, service.PushConfig{
		Minute:         cfg.Push.Minute,
		QuietFromHour:  cfg.Push.QuietFromHour,
		QuietUntilHour: cfg.Push.QuietUntilHour,
	}, log)

	// One worker per enabled account, from a clean slate.
	super.ReconcileAll()

	// --- Process-wide schedules ---
	sched := cron.New()
	if _, err := sched.AddFunc("* * * * *", pusher.Tick); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule push tick")
	}
	sweepSpec := "@every " + cfg.Worker.SweepInterval.String()
	if _, err := sched.AddFunc(sweepSpec, func() { super.SweepOrphans() }); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule status sweep")
	}
	sched.Start()

	// --- Control surface ---
	e := api.NewRouter(api.Deps{
		Store:  accounts,
		Super:  super,
		Board:  board,
		Pusher: pusher,
		Info: handler.SystemInfo{
			LoginInterval:   cfg.Worker.LoginInterval,
			SoldOutInterval: cfg.Worker.SoldOutInterval,
			SalesInterval:   cfg.Worker.SalesInterval,
			PushMinute:      cfg.Push.Minute,
			QuietFromHour:   cfg.Push.QuietFromHour,
			QuietUntilHour:  cfg.Push.QuietUntilHour,
		},
		StaticDir: cfg.StaticDir,
		Log:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Int("accounts", len(accounts.List())).Msg("storewatch started")

	// --- Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	sched.Stop()
	super.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
