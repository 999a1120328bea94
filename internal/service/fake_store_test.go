package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskminder/internal/model"
)

// memStore is an in-memory TaskStore. It hands out copies so tests catch
// code that mutates a task without saving it.
type memStore struct {
	mu      sync.Mutex
	nextID  uint
	tasks   map[uint]model.Task
	writes  int
	listErr error
}

var _ TaskStore = (*memStore)(nil)

func newMemStore(seed ...model.Task) *memStore {
	s := &memStore{tasks: make(map[uint]model.Task)}
	for _, task := range seed {
		_ = s.Create(context.Background(), &task)
	}
	return s
}

func (s *memStore) Create(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task.ID = s.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	s.tasks[task.ID] = *task
	return nil
}

func (s *memStore) Update(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return model.ErrTaskNotFound
	}
	s.writes++
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = *task
	return nil
}

func (s *memStore) StampReminders(_ context.Context, ids []uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for _, id := range ids {
		task, ok := s.tasks[id]
		if !ok {
			continue
		}
		stamp := at
		task.LastReminderSentAt = &stamp
		s.tasks[id] = task
	}
	return nil
}

func (s *memStore) CarryForward(_ context.Context, ids []uint, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	moved := 0
	for _, id := range ids {
		task, ok := s.tasks[id]
		if !ok || task.IsCompleted() || task.IsRecurring() ||
			task.ScheduledDate == nil || !task.ScheduledDate.Before(day) {
			continue
		}
		scheduled := day
		task.ScheduledDate = &scheduled
		if task.Status == model.StatusTodo || task.Status == model.StatusInProgress {
			task.Status = model.StatusPending
		}
		s.tasks[id] = task
		moved++
	}
	return moved, nil
}

func (s *memStore) FindByID(_ context.Context, id uint) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	return &task, nil
}

func (s *memStore) ListAll(_ context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sorted(func(model.Task) bool { return true }), nil
}

func (s *memStore) ListScheduledBefore(_ context.Context, day time.Time, excluded model.Status) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(task model.Task) bool {
		return task.ScheduledDate != nil && task.ScheduledDate.Before(day) && task.Status != excluded
	}), nil
}

func (s *memStore) ListDueBefore(_ context.Context, day time.Time, excluded model.Status) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(task model.Task) bool {
		return task.DueDate != nil && task.DueDate.Before(day) && task.Status != excluded
	}), nil
}

func (s *memStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return model.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memStore) get(id uint) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *memStore) sorted(keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if keep(task) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
