package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskminder/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes the editable columns of an existing task. A task deleted in
// the meantime is reported as not found, never recreated.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(task).Select("*").Omit("id", "created_at").Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// StampReminders sets last_reminder_sent_at on the given tasks and touches
// nothing else. Ids that no longer exist are skipped.
func (r *TaskRepository) StampReminders(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id IN ?", ids).
		Update("last_reminder_sent_at", at).Error
	if err != nil {
		return fmt.Errorf("stamp reminders: %w", err)
	}
	return nil
}

// CarryForward moves the given one-off tasks onto day. Rows completed,
// rescheduled or made recurring since they were listed are left alone.
// TODO and IN_PROGRESS become PENDING. It returns the number of rows moved.
func (r *TaskRepository) CarryForward(ctx context.Context, ids []uint, day time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	day = model.Day(day)
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id IN ? AND status <> ? AND scheduled_date < ?", ids, model.StatusCompleted, day).
		Where("(recurrence = '' OR recurrence = ?)", model.RecurrenceNone).
		Updates(map[string]any{
			"scheduled_date": day,
			"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN ? ELSE status END",
				model.StatusTodo, model.StatusInProgress, model.StatusPending),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("carry forward tasks: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrTaskNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListScheduledBefore returns tasks scheduled strictly before day whose status is not excluded.
func (r *TaskRepository) ListScheduledBefore(ctx context.Context, day time.Time, excluded model.Status) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("scheduled_date IS NOT NULL AND scheduled_date < ? AND status <> ?", model.Day(day), excluded).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list scheduled tasks: %w", err)
	}
	return tasks, nil
}

// ListDueBefore returns tasks due strictly before day whose status is not excluded.
func (r *TaskRepository) ListDueBefore(ctx context.Context, day time.Time, excluded model.Status) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ? AND status <> ?", model.Day(day), excluded).
		Order("due_date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// Delete removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}
