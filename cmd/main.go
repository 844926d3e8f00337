package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"courierbot/config"
	"courierbot/jobs"
	"courierbot/pkg/bot"
	"courierbot/pkg/lock"
	"courierbot/pkg/logger"
	"courierbot/service"
	"courierbot/storage/snapshot"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	// 3. Initialize Storage (single JSON snapshot)
	store, err := snapshot.New(cfg.DataFile, log)
	if err != nil {
		log.Error("Failed to open data file", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("🚀 Dispatch backend is initializing...")

	// 4. Initialize Bot (also serves as the outbound gateway)
	tgBot, err := bot.New(&cfg, store, log)
	if err != nil {
		log.Error("Failed to initialize bot", logger.Error(err))
		os.Exit(1)
	}

	// 5. Wire services and re-arm live sessions that survived a restart
	locker := lock.NewAssignLocker(cfg.LocksDir)
	svc := service.New(store, tgBot, locker, cfg.AdminID, clock.New(), log)
	tgBot.Attach(svc)
	svc.Live().Rehydrate()

	// 6. Background jobs
	archive := jobs.NewArchiveJob(svc.Dispatch(), store, log)
	if err := archive.Start(); err != nil {
		log.Error("Failed to start archive job", logger.Error(err))
		os.Exit(1)
	}
	defer archive.Stop()

	// 7. Status API + bot polling
	go func() {
		if err := bot.RunServer(cfg.AppPort, store, log); err != nil {
			log.Error("Status API stopped", logger.Error(err))
		}
	}()
	go tgBot.Start()

	log.Info("🚀 Bot is now running.")

	// 8. Graceful shutdown: stop timers, drain queued snapshot writes
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Stopping bot and shutting down...")
	tgBot.Stop()
	svc.Live().Shutdown()
	if err := store.Flush(); err != nil {
		log.Error("Failed to flush snapshot", logger.Error(err))
	}
}
