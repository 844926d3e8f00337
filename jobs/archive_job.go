// Package jobs holds the scheduled background jobs.
package jobs

import (
	"github.com/robfig/cron/v3"

	"courierbot/pkg/logger"
	"courierbot/service"
	"courierbot/storage"
)

// ArchiveJob retires stale orders on a nightly schedule. The retention
// window comes from settings so the admin can change it at runtime.
type ArchiveJob struct {
	dispatch service.DispatchService
	stg      storage.IStorage
	cron     *cron.Cron
	log      logger.ILogger
}

func NewArchiveJob(dispatch service.DispatchService, stg storage.IStorage, log logger.ILogger) *ArchiveJob {
	return &ArchiveJob{
		dispatch: dispatch,
		stg:      stg,
		cron:     cron.New(),
		log:      log,
	}
}

// Start schedules the nightly archival run at 03:30.
func (j *ArchiveJob) Start() error {
	_, err := j.cron.AddFunc("30 3 * * *", j.run)
	if err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("archive job started")
	return nil
}

func (j *ArchiveJob) run() {
	days := j.stg.Settings().ArchiveDays
	if days <= 0 {
		return
	}
	n := j.dispatch.ArchiveOlderThan(days)
	if n > 0 {
		j.log.Info("archived stale orders", logger.Int("count", n), logger.Int("older_than_days", days))
	}
}

func (j *ArchiveJob) Stop() {
	j.cron.Stop()
	j.log.Info("archive job stopped")
}
