package apqueue

import (
	"time"
)

// CleanupStats holds statistics about one cleanup pass.
type CleanupStats struct {
	TotalJobs     int
	OrphanedJobs  int
	RemovedJobs   int
	FailedCleanup int
	Duration      time.Duration
}

// OrphanCheck reports whether the job's external reference still exists.
// For workflow jobs this asks the workflow store, keeping the queue free of
// any dependency on the store package.
type OrphanCheck func(owner, name string) bool

// CleanupOrphanedJobs removes jobs whose workflow has been deleted since
// they were enqueued.
func (q *Queue) CleanupOrphanedJobs(exists OrphanCheck) (*CleanupStats, error) {
	startTime := time.Now()
	stats := &CleanupStats{}

	q.logger.Debug("starting orphaned jobs cleanup")

	for _, status := range []jobStatus{jobPending, jobInProgress, jobFailed} {
		kvs, err := q.db.GetByPrefix(q.getQueueKeyPrefix(status))
		if err != nil {
			q.logger.Error("failed to get jobs for cleanup", "status", status.HumanReadable(), "error", err)
			stats.FailedCleanup++
			continue
		}

		for _, kv := range kvs {
			stats.TotalJobs++

			job, err := decodeJob(kv.Value)
			if err != nil {
				q.logger.Error("failed to decode job during cleanup", "key", string(kv.Key), "error", err)
				stats.FailedCleanup++
				continue
			}

			if exists(job.Owner, job.Name) {
				continue
			}
			stats.OrphanedJobs++

			q.dbLock.Lock()
			if delErr := q.db.Delete(kv.Key); delErr != nil {
				q.logger.Error("failed to remove orphaned job", "job_id", job.ID, "workflow_id", job.Name, "error", delErr)
				stats.FailedCleanup++
			} else {
				stats.RemovedJobs++
				q.logger.Debug("removed orphaned job",
					"job_id", job.ID,
					"workflow_id", job.Name,
					"status", status.HumanReadable())
			}
			q.dbLock.Unlock()
		}
	}

	stats.Duration = time.Since(startTime)

	q.logger.Info("orphaned jobs cleanup completed",
		"total_jobs", stats.TotalJobs,
		"orphaned_jobs", stats.OrphanedJobs,
		"removed_jobs", stats.RemovedJobs,
		"failed_cleanup", stats.FailedCleanup,
		"duration_ms", stats.Duration.Milliseconds())

	return stats, nil
}

// SchedulePeriodicCleanup runs cleanup every interval until the queue closes.
func (q *Queue) SchedulePeriodicCleanup(interval time.Duration, exists OrphanCheck) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				if stats, err := q.CleanupOrphanedJobs(exists); err != nil {
					q.logger.Error("periodic cleanup failed", "error", err)
				} else if stats.RemovedJobs > 0 {
					q.logger.Info("periodic cleanup removed orphaned jobs",
						"removed_jobs", stats.RemovedJobs)
				}
			case <-q.closeCh:
				ticker.Stop()
				return
			}
		}
	}()
}
