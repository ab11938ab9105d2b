// Package scheduler runs the agent cycle and engagement jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/timmy/agentfeed/internal/logger"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"nextRun"`
	LastRun  time.Time `json:"lastRun"`
}

type scheduledJob struct {
	id       cron.EntryID
	schedule string
}

// Scheduler manages periodic tasks. Overlapping runs of the same job are
// skipped.
type Scheduler struct {
	cron       *cron.Cron
	log        *logger.Logger
	jobTimeout time.Duration

	mu   sync.Mutex
	jobs map[string]scheduledJob
}

// New creates a new scheduler in the given timezone.
// Parameters:
//   - timezone: IANA location name; empty means UTC.
//   - jobTimeout: deadline for each job run; zero means 30 minutes.
//   - log: logger for job lifecycle messages.
//
// Returns:
//   - *Scheduler: scheduler ready for AddJob.
//   - error: non-nil if the timezone is unknown.
func New(timezone string, jobTimeout time.Duration, log *logger.Logger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:        log.WithField(logger.FieldComponent, "scheduler"),
		jobTimeout: jobTimeout,
		jobs:       make(map[string]scheduledJob),
	}, nil
}

// AddJob adds a job with a standard five-field cron schedule.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(name, job); err != nil {
			s.log.WithError(err).WithField("job", name).Error("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name] = scheduledJob{id: entryID, schedule: schedule}
	s.mu.Unlock()

	s.log.WithFields(logger.Fields{"job": name, "schedule": schedule}).Info("Added job")
	return nil
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	ctx = s.log.WithField("job", name).WithContext(ctx)

	start := time.Now()
	s.log.WithField("job", name).Info("Starting job")
	if err := job(ctx); err != nil {
		return err
	}
	logger.With(logger.Fields{}).WithDuration(time.Since(start)).Info(ctx, "Job completed")
	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[name]; ok {
		s.cron.Remove(job.id)
		delete(s.jobs, name)
		s.log.WithField("job", name).Info("Removed job")
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job with the scheduler's timeout.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		entry := s.cron.Entry(job.id)
		infos = append(infos, JobInfo{
			Name:     name,
			Schedule: job.schedule,
			NextRun:  entry.Next,
			LastRun:  entry.Prev,
		})
	}
	return infos
}
