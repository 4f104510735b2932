// Package scheduler runs periodic JSON backups of the event collection while a
// long-lived process (the web server) is up.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventcal/internal/log"
	"eventcal/internal/store"
)

// BackupTarget is what a backup run needs from the store.
type BackupTarget interface {
	WriteBackup(ctx context.Context, now time.Time) (string, error)
	PruneBackups(keep int) ([]string, error)
}

type Reporter interface {
	Backup(err error)
}

type Backups struct {
	Target   BackupTarget
	Keep     int
	Reporter Reporter
	Now      func() time.Time
}

var _ BackupTarget = store.Store{}

// RunOnce writes one snapshot and prunes old ones.
func (b Backups) RunOnce(ctx context.Context) (string, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	path, err := b.Target.WriteBackup(ctx, now())
	if err == nil {
		var removed []string
		removed, err = b.Target.PruneBackups(b.Keep)
		if len(removed) > 0 {
			appLog.Debug("pruned backups", "count", len(removed))
		}
	}
	if b.Reporter != nil {
		b.Reporter.Backup(err)
	}
	if err != nil {
		return path, err
	}
	appLog.Info("backup written", "path", path)
	return path, nil
}

// Start schedules RunOnce on spec (standard cron or @descriptor). An empty spec
// schedules nothing. The returned stop waits for a running backup to finish.
func (b Backups) Start(ctx context.Context, spec string) (stop func(), err error) {
	if spec == "" {
		return func() {}, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := b.RunOnce(ctx); err != nil {
			appLog.Error("scheduled backup failed", err)
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	appLog.Debug("backup schedule started", "schedule", spec, "keep", b.Keep)
	return func() { <-c.Stop().Done() }, nil
}
