package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	// Spec is a six-field cron expression (seconds first).
	Spec string
	Run  func(ctx context.Context, now time.Time) (int, error)
}

// SchedulerService wraps cron-based jobs. Each firing runs in its own
// goroutine, a firing is skipped while the previous run of the same job is
// still going, and panics are recovered.
type SchedulerService struct {
	cron *cron.Cron
	loc  *time.Location
	log  *slog.Logger
	now  func() time.Time
}

func NewSchedulerService(loc *time.Location, log *slog.Logger) *SchedulerService {
	cl := cronLogger{log: log.With("component", "cron")}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		loc: loc,
		log: log,
		now: time.Now,
	}
}

// Register adds a job under its cron spec.
func (s *SchedulerService) Register(job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(job.Spec, func() { s.RunJob(context.Background(), job) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s %q: %w", job.Name, job.Spec, err)
	}
	s.log.Info("scheduled job", "job", job.Name, "spec", job.Spec)
	return id, nil
}

// RunJob executes one run of job at the current time and logs the outcome.
// Errors stay contained to the run.
func (s *SchedulerService) RunJob(ctx context.Context, job Job) {
	started := s.now().In(s.loc)
	log := s.log.With("job", job.Name, "run_id", uuid.NewString())

	count, err := job.Run(ctx, started)
	if err != nil {
		log.Error("job failed", "error", err, "duration", time.Since(started))
		return
	}
	log.Debug("job finished", "processed", count, "duration", time.Since(started))
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ReminderJobs lists the engine's jobs with their cron specs.
func ReminderJobs(r *ReminderService, specs JobSpecs) []Job {
	return []Job{
		{Name: "carry-forward", Spec: specs.CarryForward, Run: r.CarryForward},
		{Name: "daily-digest", Spec: specs.Daily, Run: r.SendDailyDigest},
		{Name: "overdue-alert", Spec: specs.Overdue, Run: r.SendOverdueAlerts},
		{Name: "monthly-summary", Spec: specs.Monthly, Run: r.SendMonthlySummary},
		{Name: "timed-reminders", Spec: specs.Reminder, Run: r.SendTimedReminders},
	}
}

// JobSpecs are the cron expressions of the reminder jobs.
type JobSpecs struct {
	CarryForward string
	Daily        string
	Overdue      string
	Monthly      string
	Reminder     string
}

// cronLogger routes robfig/cron's logging into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
