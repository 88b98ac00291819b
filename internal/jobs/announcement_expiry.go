// Package jobs contains background workers that run on a schedule.
// The announcement expiry job retires published announcements whose expires_at
// has passed. Jobs are designed to be idempotent; re-running after a crash
// produces the same result as a clean run.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// AnnouncementExpiryJob periodically moves published announcements past their
// expiry time back to archived status.
type AnnouncementExpiryJob struct {
	announcementRepo *repositories.AnnouncementRepository
	stopCh           chan struct{}
	wg               sync.WaitGroup
}

// NewAnnouncementExpiryJob creates a new announcement expiry job
func NewAnnouncementExpiryJob(announcementRepo *repositories.AnnouncementRepository) *AnnouncementExpiryJob {
	return &AnnouncementExpiryJob{
		announcementRepo: announcementRepo,
		stopCh:           make(chan struct{}),
	}
}

// Start begins the periodic expiry sweep
func (j *AnnouncementExpiryJob) Start(ctx context.Context, intervalMinutes int) {
	if intervalMinutes <= 0 {
		intervalMinutes = 15
	}
	slog.Info("starting announcement expiry job", "interval_minutes", intervalMinutes)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
		defer ticker.Stop()

		// Run an initial sweep immediately so a restart does not leave
		// expired announcements visible for a full interval.
		j.runSweep(ctx)

		for {
			select {
			case <-ticker.C:
				j.runSweep(ctx)
			case <-j.stopCh:
				slog.Info("announcement expiry job stopped")
				return
			case <-ctx.Done():
				slog.Info("announcement expiry job context cancelled")
				return
			}
		}
	}()
}

// Stop stops the expiry job
func (j *AnnouncementExpiryJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}

func (j *AnnouncementExpiryJob) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := j.announcementRepo.ExpirePublished(sweepCtx)
	if err != nil {
		slog.Error("announcement expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		telemetry.AnnouncementsExpiredTotal.Add(float64(n))
		slog.Info("expired announcements", "count", n)
	}
}
