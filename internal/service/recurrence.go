package service

import (
	"time"

	"taskminder/internal/model"
)

// IsActiveOn reports whether the task's recurrence rule places it on date.
func IsActiveOn(task model.Task, date time.Time) bool {
	date = model.Day(date)
	scheduled := model.DayPtr(task.ScheduledDate)

	switch task.Recurrence {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		return scheduled != nil && scheduled.Weekday() == date.Weekday()
	case model.RecurrenceMonthly:
		return scheduled != nil && scheduled.Day() == date.Day()
	default:
		return scheduled != nil && scheduled.Equal(date)
	}
}

// IsDueOn reports whether the task's deadline is exactly date.
func IsDueOn(task model.Task, date time.Time) bool {
	return task.DueDate != nil && model.Day(*task.DueDate).Equal(model.Day(date))
}

// IsForDate is true when the task is active on date or due on it.
func IsForDate(task model.Task, date time.Time) bool {
	return IsActiveOn(task, date) || IsDueOn(task, date)
}

// IsOverdue reports an unfinished task whose deadline is before date.
func IsOverdue(task model.Task, date time.Time) bool {
	return task.DueDate != nil &&
		model.Day(*task.DueDate).Before(model.Day(date)) &&
		!task.IsCompleted()
}

// IsUpcoming reports an unfinished task whose deadline is after date.
func IsUpcoming(task model.Task, date time.Time) bool {
	return task.DueDate != nil &&
		model.Day(*task.DueDate).After(model.Day(date)) &&
		!task.IsCompleted()
}
