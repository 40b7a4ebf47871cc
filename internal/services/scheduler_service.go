package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mcstatus/internal/config"

	"github.com/go-co-op/gocron/v2"
)

// ErrCycleInProgress is returned by a job asked to run while its previous run is still going
var ErrCycleInProgress = errors.New("status cycle already in progress")

// ScheduledJob is a unit of work run on the poll schedule
type ScheduledJob interface {
	Name() string
	Run(ctx context.Context) error
}

// SchedulerService runs one job on a cron schedule.
// Triggers that fire while a run is still going are rescheduled, never overlapped.
type SchedulerService struct {
	scheduler gocron.Scheduler
	cronExpr  string
	job       ScheduledJob

	mu     sync.RWMutex
	handle gocron.Job
	cancel context.CancelFunc
}

// NewSchedulerService creates a scheduler for job on cronExpr (five-field cron)
func NewSchedulerService(cronExpr string, job ScheduledJob) (*SchedulerService, error) {
	if _, err := config.ParseCron(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &SchedulerService{
		scheduler: scheduler,
		cronExpr:  cronExpr,
		job:       job,
	}, nil
}

// Start registers the job, runs it once immediately and starts the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	log.Println("⏰ Starting scheduler service...")

	runCtx, cancel := context.WithCancel(ctx)

	handle, err := s.scheduler.NewJob(
		gocron.CronJob(s.cronExpr, false),
		gocron.NewTask(func() {
			s.execute(runCtx)
		}),
		gocron.WithName(s.job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to register job %s: %w", s.job.Name(), err)
	}

	s.mu.Lock()
	s.handle = handle
	s.cancel = cancel
	s.mu.Unlock()

	s.scheduler.Start()

	if schedule, err := config.ParseCron(s.cronExpr); err == nil {
		next := schedule.Next(time.Now())
		log.Printf("✅ Scheduler service started: job '%s' on '%s', first scheduled run at %s (in %v)",
			s.job.Name(), s.cronExpr, next.Format(time.RFC3339), time.Until(next).Round(time.Second))
	}
	return nil
}

// Stop cancels an in-flight run and waits for the scheduler to shut down
func (s *SchedulerService) Stop() error {
	log.Println("⏹️ Stopping scheduler service...")

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	return s.scheduler.Shutdown()
}

// NextRun returns the next scheduled run, or the zero time before Start
func (s *SchedulerService) NextRun() time.Time {
	s.mu.RLock()
	handle := s.handle
	s.mu.RUnlock()

	if handle == nil {
		return time.Time{}
	}
	next, err := handle.NextRun()
	if err != nil {
		return time.Time{}
	}
	return next
}

func (s *SchedulerService) execute(ctx context.Context) {
	if err := s.job.Run(ctx); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			log.Printf("⏭️ [SCHEDULER] Skipping '%s': previous run still in progress", s.job.Name())
			return
		}
		log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", s.job.Name(), err)
	}
}
