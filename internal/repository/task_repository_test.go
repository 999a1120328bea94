package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskminder/internal/logger"
	"taskminder/internal/model"
)

func newTestRepository(t *testing.T) *TaskRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := NewDB(dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewTaskRepository(db)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	task := &model.Task{
		Title:           "Write report",
		Status:          model.StatusTodo,
		Priority:        model.PriorityHigh,
		Recurrence:      model.RecurrenceNone,
		DueDate:         day(2024, 1, 10),
		ReminderEnabled: false,
	}
	require.NoError(t, repo.Create(ctx, task))
	require.NotZero(t, task.ID)

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", found.Title)
	assert.False(t, found.ReminderEnabled, "false must survive the insert")
	require.NotNil(t, found.DueDate)
	assert.True(t, found.DueDate.Equal(*day(2024, 1, 10)))

	found.Status = model.StatusCompleted
	require.NoError(t, repo.Update(ctx, found))

	again, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, again.Status)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), model.ErrTaskNotFound)
}

func TestTaskRepositoryListScheduledBefore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seed := []model.Task{
		{Title: "yesterday", Status: model.StatusTodo, ScheduledDate: day(2024, 1, 14)},
		{Title: "yesterday done", Status: model.StatusCompleted, ScheduledDate: day(2024, 1, 14)},
		{Title: "today", Status: model.StatusTodo, ScheduledDate: day(2024, 1, 15)},
		{Title: "unscheduled", Status: model.StatusTodo},
		{Title: "last month", Status: model.StatusPending, ScheduledDate: day(2023, 12, 1)},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	tasks, err := repo.ListScheduledBefore(ctx, *day(2024, 1, 15), model.StatusCompleted)
	require.NoError(t, err)

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"yesterday", "last month"}, titles)
}

func TestTaskRepositoryListDueBefore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seed := []model.Task{
		{Title: "late", Status: model.StatusTodo, DueDate: day(2024, 1, 10)},
		{Title: "late but done", Status: model.StatusCompleted, DueDate: day(2024, 1, 10)},
		{Title: "due today", Status: model.StatusTodo, DueDate: day(2024, 1, 15)},
		{Title: "no due date", Status: model.StatusTodo},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	tasks, err := repo.ListDueBefore(ctx, *day(2024, 1, 15), model.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "late", tasks[0].Title)
}

func TestTaskRepositoryUpdateDoesNotRecreateDeletedTask(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	task := model.Task{Title: "a", Status: model.StatusTodo}
	require.NoError(t, repo.Create(ctx, &task))

	task.Status = model.StatusInProgress
	require.NoError(t, repo.Update(ctx, &task))
	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, "a", got.Title)

	require.NoError(t, repo.Delete(ctx, task.ID))
	task.Title = "stale copy"
	assert.ErrorIs(t, repo.Update(ctx, &task), model.ErrTaskNotFound)

	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestTaskRepositoryStampRemindersTouchesOnlyTheStamp(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first := model.Task{Title: "a", Status: model.StatusTodo, ReminderEnabled: true}
	second := model.Task{Title: "b", Status: model.StatusTodo, ReminderEnabled: true}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	// Another writer completes the first task and deletes the second
	// while the caller still holds the old rows.
	completedAt := time.Date(2024, 1, 15, 9, 0, 5, 0, time.UTC)
	done := first
	done.Status = model.StatusCompleted
	done.CompletedAt = &completedAt
	require.NoError(t, repo.Update(ctx, &done))
	require.NoError(t, repo.Delete(ctx, second.ID))

	sentAt := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.StampReminders(ctx, []uint{first.ID, second.ID}, sentAt))
	require.NoError(t, repo.StampReminders(ctx, nil, sentAt))

	tasks, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1, "a deleted task stays deleted")
	assert.Equal(t, model.StatusCompleted, tasks[0].Status)
	require.NotNil(t, tasks[0].CompletedAt)
	require.NotNil(t, tasks[0].LastReminderSentAt)
	assert.True(t, tasks[0].LastReminderSentAt.Equal(sentAt))
}

func TestTaskRepositoryCarryForward(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seed := []model.Task{
		{Title: "todo", Status: model.StatusTodo, Recurrence: model.RecurrenceNone, ScheduledDate: day(2024, 1, 14)},
		{Title: "in progress", Status: model.StatusInProgress, ScheduledDate: day(2024, 1, 10)},
		{Title: "pending", Status: model.StatusPending, Recurrence: model.RecurrenceNone, ScheduledDate: day(2024, 1, 12)},
		{Title: "completed meanwhile", Status: model.StatusTodo, Recurrence: model.RecurrenceNone, ScheduledDate: day(2024, 1, 13)},
		{Title: "rescheduled meanwhile", Status: model.StatusTodo, Recurrence: model.RecurrenceNone, ScheduledDate: day(2024, 1, 13)},
		{Title: "daily", Status: model.StatusTodo, Recurrence: model.RecurrenceDaily, ScheduledDate: day(2024, 1, 1)},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	completed := seed[3]
	completed.Status = model.StatusCompleted
	require.NoError(t, repo.Update(ctx, &completed))
	moved := seed[4]
	moved.ScheduledDate = day(2024, 1, 20)
	require.NoError(t, repo.Update(ctx, &moved))

	ids := make([]uint, 0, len(seed))
	for _, task := range seed {
		ids = append(ids, task.ID)
	}
	count, err := repo.CarryForward(ctx, ids, *day(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	tasks, err := repo.ListAll(ctx)
	require.NoError(t, err)
	want := []struct {
		status    model.Status
		scheduled *time.Time
	}{
		{model.StatusPending, day(2024, 1, 15)},
		{model.StatusPending, day(2024, 1, 15)},
		{model.StatusPending, day(2024, 1, 15)},
		{model.StatusCompleted, day(2024, 1, 13)},
		{model.StatusTodo, day(2024, 1, 20)},
		{model.StatusTodo, day(2024, 1, 1)},
	}
	require.Len(t, tasks, len(want))
	for i, w := range want {
		assert.Equal(t, w.status, tasks[i].Status, tasks[i].Title)
		require.NotNil(t, tasks[i].ScheduledDate, tasks[i].Title)
		assert.True(t, w.scheduled.Equal(*tasks[i].ScheduledDate), tasks[i].Title)
	}

	count, err = repo.CarryForward(ctx, nil, *day(2024, 1, 15))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewDBCreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")

	db, err := NewDB("file:"+path+"?_busy_timeout=5000", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}
