package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskminder/internal/logger"
)

func TestRegisterRejectsInvalidSpec(t *testing.T) {
	s := NewSchedulerService(time.UTC, logger.Discard())

	_, err := s.Register(Job{Name: "broken", Spec: "not a cron", Run: func(context.Context, time.Time) (int, error) { return 0, nil }})
	assert.ErrorContains(t, err, "schedule broken")

	_, err = s.Register(Job{Name: "five-fields", Spec: "0 8 * * *", Run: func(context.Context, time.Time) (int, error) { return 0, nil }})
	assert.Error(t, err, "specs carry a seconds field")
}

func TestReminderJobsRegisterWithDefaultSpecs(t *testing.T) {
	reminders := newTestReminderService(newMemStore(), &recordingSender{}, testMail)
	specs := JobSpecs{
		CarryForward: "0 5 0 * * *",
		Daily:        "0 0 8 * * *",
		Overdue:      "0 0 18 * * *",
		Monthly:      "0 0 9 1 * *",
		Reminder:     "0 * * * * *",
	}

	jobs := ReminderJobs(reminders, specs)
	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Name)
	}
	assert.Equal(t, []string{"carry-forward", "daily-digest", "overdue-alert", "monthly-summary", "timed-reminders"}, names)
	assert.Equal(t, specs.Monthly, jobs[3].Spec)

	s := NewSchedulerService(time.UTC, logger.Discard())
	for _, job := range jobs {
		_, err := s.Register(job)
		require.NoError(t, err, job.Name)
	}
	assert.Len(t, s.cron.Entries(), 5)
}

func TestRunJobUsesSchedulerClock(t *testing.T) {
	colombo := time.FixedZone("Asia/Colombo", 5*3600+1800)
	s := NewSchedulerService(colombo, logger.Discard())
	s.now = func() time.Time { return testNow }

	var got time.Time
	s.RunJob(context.Background(), Job{Name: "clock check", Run: func(_ context.Context, now time.Time) (int, error) {
		got = now
		return 1, nil
	}})

	assert.True(t, got.Equal(testNow))
	assert.Equal(t, colombo, got.Location())
}

func TestRunJobContainsErrors(t *testing.T) {
	var buf bytes.Buffer
	s := NewSchedulerService(time.UTC, logger.Setup("debug", &buf))

	assert.NotPanics(t, func() {
		s.RunJob(context.Background(), Job{Name: "digest", Run: func(context.Context, time.Time) (int, error) {
			return 0, errors.New("database is locked")
		}})
	})
	assert.Contains(t, buf.String(), `"msg":"job failed"`)
	assert.Contains(t, buf.String(), `"job":"digest"`)
	assert.Contains(t, buf.String(), "database is locked")
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewSchedulerService(time.UTC, logger.Discard())
	_, err := s.Register(Job{Name: "noop", Spec: "0 0 0 1 1 *", Run: func(context.Context, time.Time) (int, error) { return 0, nil }})
	require.NoError(t, err)

	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
