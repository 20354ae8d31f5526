package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bms/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

const statusSyncJob = "status-sync"

// StatusSyncer repairs every flat whose stored status drifted.
type StatusSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// JobScheduler runs the periodic maintenance jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	syncer    StatusSyncer
	log       logrus.FieldLogger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler registers the status sync on syncCron, a five-field cron
// expression evaluated in loc.
func NewJobScheduler(syncCron string, loc *time.Location, syncer StatusSyncer, log logrus.FieldLogger) (*JobScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		syncer:    syncer,
		log:       log,
		jobs:      make(map[string]gocron.Job),
	}

	job, err := scheduler.NewJob(
		gocron.CronJob(syncCron, false),
		gocron.NewTask(js.syncStatuses, context.Background()),
		gocron.WithName(statusSyncJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create %s job: %w", statusSyncJob, err)
	}
	js.jobs[statusSyncJob] = job

	log.WithField("jobs", len(js.jobs)).Info("registered background jobs")
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.log.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) syncStatuses(ctx context.Context) error {
	start := time.Now()
	changed, err := js.syncer.SyncAll(ctx)
	if err != nil {
		js.log.WithError(err).Error("scheduled status sync failed")
		return err
	}
	js.log.WithFields(logrus.Fields{
		"changed":  changed,
		"duration": time.Since(start).String(),
	}).Info("scheduled status sync completed")
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, ok := js.jobs[name]
	if !ok {
		return fmt.Errorf("job %q: %w", name, models.ErrNotFound)
	}
	return job.RunNow()
}

// GetJobStatus reports the next run of every job.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make(map[string]string, len(js.jobs))
	for name, job := range js.jobs {
		next, err := job.NextRun()
		if err != nil || next.IsZero() {
			jobs[name] = "not scheduled"
			continue
		}
		jobs[name] = next.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
