package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 10 * time.Minute

// SyncJobName is the name the bot list sync is registered under
const SyncJobName = "sync"

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules in one timezone
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates a new scheduler with the given timezone
func New(timezone string, log logrus.FieldLogger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	return &Scheduler{
		// A slow sync must not overlap the next tick.
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:  log.WithField("component", "scheduler"),
		jobs: make(map[string]cron.EntryID),
	}, nil
}

// AddJob adds a job with a standard five field cron schedule,
// e.g. "*/30 * * * *"
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.WithField("job", name).Infof("Added job (schedule: %s)", schedule)
	return nil
}

// AddSyncJob schedules the bot list sync
func (s *Scheduler) AddSyncJob(schedule string, job Job) error {
	return s.AddJob(SyncJobName, schedule, job)
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := s.log.WithField("job", name)
	log.Info("Starting job")
	start := time.Now()

	if err := job(ctx); err != nil {
		log.Errorf("Job failed: %v", err)
		return
	}
	log.Infof("Job completed in %v", time.Since(start).Round(time.Millisecond))
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.log.WithField("job", name).Info("Removed job")
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job outside the schedule
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	s.log.WithField("job", name).Info("Running job now")
	return job(ctx)
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}
	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
