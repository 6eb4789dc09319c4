// Package scheduler runs the periodic maintenance jobs: the stale-score
// sweep and snapshot retention pruning.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/signalhouse/pqascore/pkg/logger"
	"github.com/signalhouse/pqascore/pkg/metrics"
)

// Job is a named unit of scheduled work.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Schedule returns the cron spec the job runs on.
	Schedule() string

	// Run executes one iteration of the job.
	Run(ctx context.Context) error
}

// Scheduler registers jobs against a cron runner and drives them until
// stopped.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]Job
	mu     sync.Mutex
	logger logger.Logger
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		cron: cron.New(),
		jobs: make(map[string]Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	return s
}

// Register adds a job. It fails when the job's name is already taken or its
// cron spec does not parse.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	}); err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	s.jobs[name] = job

	s.logger.Info(context.Background(), "job registered",
		logger.String("job", name),
		logger.String("schedule", job.Schedule()),
	)
	return nil
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info(context.Background(), "scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	ctx := context.Background()
	if err := job.Run(ctx); err != nil {
		metrics.RecordErrorByComponent("scheduler", job.Name())
		s.logger.Error(ctx, "scheduled job failed",
			logger.String("job", job.Name()),
			logger.Error(err),
		)
	}
}
