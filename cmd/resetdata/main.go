package main

import (
	"fmt"
	"os"

	"courierbot/config"
	"courierbot/pkg/logger"
	"courierbot/storage/snapshot"
)

// resetdata wipes the durable document and its backup, leaving a fresh empty
// snapshot behind. Meant for development resets, not production.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	for _, p := range []string{cfg.DataFile, cfg.DataFile + ".bak"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Error(fmt.Sprintf("Failed to remove %s: %v", p, err))
			os.Exit(1)
		}
	}

	store, err := snapshot.New(cfg.DataFile, log)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	store.Save()
	if err := store.Flush(); err != nil {
		log.Error(fmt.Sprintf("Failed to write empty snapshot: %v", err))
		os.Exit(1)
	}
	log.Info("Data file reset.")
}
