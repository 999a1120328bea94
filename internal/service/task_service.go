package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskminder/internal/model"
)

// TaskStore is the persistence the task service needs.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	StampReminders(ctx context.Context, ids []uint, at time.Time) error
	CarryForward(ctx context.Context, ids []uint, day time.Time) (int, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	ListScheduledBefore(ctx context.Context, day time.Time, excluded model.Status) ([]model.Task, error)
	ListDueBefore(ctx context.Context, day time.Time, excluded model.Status) ([]model.Task, error)
	Delete(ctx context.Context, id uint) error
}

// TaskInput is the full replacement value for a task on create and update.
// Zero values of the optional fields pick the defaults.
type TaskInput struct {
	Title           string           `validate:"required,max=255"`
	Description     string           `validate:"max=4000"`
	Status          model.Status     `validate:"omitempty,oneof=TODO IN_PROGRESS PENDING COMPLETED"`
	Priority        model.Priority   `validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Recurrence      model.Recurrence `validate:"omitempty,oneof=NONE DAILY WEEKLY MONTHLY"`
	ScheduledDate   *time.Time
	DueDate         *time.Time
	ReminderEnabled *bool
	ReminderTime    string
}

// Dashboard aggregates task counters for one day.
type Dashboard struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	DueToday   int `json:"dueToday"`
	Overdue    int `json:"overdue"`
	Upcoming   int `json:"upcoming"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store    TaskStore
	loc      *time.Location
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskService(store TaskStore, loc *time.Location) *TaskService {
	return &TaskService{
		store:    store,
		loc:      loc,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Location is the zone all calendar days are evaluated in.
func (s *TaskService) Location() *time.Location {
	return s.loc
}

// Today is the current calendar day in the service's zone.
func (s *TaskService) Today() time.Time {
	return model.Today(s.now(), s.loc)
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	task, err := s.apply(model.Task{}, input)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces every editable field of the task with input.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, input TaskInput) (*model.Task, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.apply(*current, input)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks a task as done through the regular update path.
func (s *TaskService) CompleteTask(ctx context.Context, id uint) (*model.Task, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromTask(*current)
	input.Status = model.StatusCompleted
	return s.UpdateTask(ctx, id, input)
}

// SetReminder turns the task's reminder on at clock ("HH:mm"), or off when
// clock is empty.
func (s *TaskService) SetReminder(ctx context.Context, id uint, clock string) (*model.Task, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromTask(*current)
	enabled := clock != ""
	input.ReminderEnabled = &enabled
	input.ReminderTime = clock
	return s.UpdateTask(ctx, id, input)
}

func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	return s.store.FindByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.store.ListAll(ctx)
}

// StampReminders records that the reminders of tasks went out at at.
func (s *TaskService) StampReminders(ctx context.Context, tasks []model.Task, at time.Time) error {
	return s.store.StampReminders(ctx, taskIDs(tasks), at)
}

// TasksForDate returns every task active or due on date.
func (s *TaskService) TasksForDate(ctx context.Context, date time.Time) ([]model.Task, error) {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterTasks(tasks, func(task model.Task) bool { return IsForDate(task, date) }), nil
}

// OverdueTasks returns unfinished tasks whose deadline is before date.
func (s *TaskService) OverdueTasks(ctx context.Context, date time.Time) ([]model.Task, error) {
	return s.store.ListDueBefore(ctx, model.Day(date), model.StatusCompleted)
}

// Dashboard counts tasks for date from a single listing.
func (s *TaskService) Dashboard(ctx context.Context, date time.Time) (Dashboard, error) {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return buildDashboard(tasks, date), nil
}

func (s *TaskService) TodayTasks(ctx context.Context) ([]model.Task, error) {
	return s.TasksForDate(ctx, s.Today())
}

func (s *TaskService) TodayOverdue(ctx context.Context) ([]model.Task, error) {
	return s.OverdueTasks(ctx, s.Today())
}

func (s *TaskService) TodayDashboard(ctx context.Context) (Dashboard, error) {
	return s.Dashboard(ctx, s.Today())
}

// CarryForwardOverdue moves unfinished one-off tasks scheduled before today
// onto today and returns how many were moved. TODO and IN_PROGRESS tasks
// become PENDING. Recurring tasks are never touched.
func (s *TaskService) CarryForwardOverdue(ctx context.Context, today time.Time) (int, error) {
	today = model.Day(today)
	candidates, err := s.store.ListScheduledBefore(ctx, today, model.StatusCompleted)
	if err != nil {
		return 0, err
	}

	ids := make([]uint, 0, len(candidates))
	for _, task := range candidates {
		if !task.IsRecurring() {
			ids = append(ids, task.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	carried, err := s.store.CarryForward(ctx, ids, today)
	if err != nil {
		return 0, fmt.Errorf("carry forward: %w", err)
	}
	return carried, nil
}

// apply builds the next version of task from input. task is a copy; the
// caller persists the result.
func (s *TaskService) apply(task model.Task, input TaskInput) (model.Task, error) {
	if err := s.validate.Struct(input); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if strings.TrimSpace(input.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", model.ErrValidation)
	}

	reminderTime, err := model.ParseClock(input.ReminderTime)
	if err != nil {
		return model.Task{}, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.Status = orDefault(input.Status, model.StatusTodo)
	task.Priority = orDefault(input.Priority, model.PriorityMedium)
	task.Recurrence = orDefault(input.Recurrence, model.RecurrenceNone)
	task.ScheduledDate = model.DayPtr(input.ScheduledDate)
	task.DueDate = model.DayPtr(input.DueDate)
	task.ReminderEnabled = input.ReminderEnabled == nil || *input.ReminderEnabled
	task.ReminderTime = reminderTime

	if task.Status == model.StatusCompleted {
		if task.CompletedAt == nil {
			completedAt := s.now().In(s.loc)
			task.CompletedAt = &completedAt
		}
	} else {
		task.CompletedAt = nil
	}
	return task, nil
}

func inputFromTask(task model.Task) TaskInput {
	enabled := task.ReminderEnabled
	input := TaskInput{
		Title:           task.Title,
		Description:     task.Description,
		Status:          task.Status,
		Priority:        task.Priority,
		Recurrence:      task.Recurrence,
		ScheduledDate:   task.ScheduledDate,
		DueDate:         task.DueDate,
		ReminderEnabled: &enabled,
	}
	if task.ReminderTime != nil {
		input.ReminderTime = *task.ReminderTime
	}
	return input
}

func buildDashboard(tasks []model.Task, date time.Time) Dashboard {
	d := Dashboard{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case model.StatusTodo:
			d.Todo++
		case model.StatusInProgress:
			d.InProgress++
		case model.StatusCompleted:
			d.Completed++
		case model.StatusPending:
			d.Pending++
		}
		if IsForDate(task, date) && !task.IsCompleted() {
			d.DueToday++
		}
		if IsOverdue(task, date) {
			d.Overdue++
		}
		if IsUpcoming(task, date) {
			d.Upcoming++
		}
	}
	return d
}

func filterTasks(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if keep(task) {
			out = append(out, task)
		}
	}
	return out
}

func taskIDs(tasks []model.Task) []uint {
	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func orDefault[T ~string](value, fallback T) T {
	if value == "" {
		return fallback
	}
	return value
}
