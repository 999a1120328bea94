package model

import "time"

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPending    Status = "PENDING"
	StatusCompleted  Status = "COMPLETED"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Recurrence decides on which dates besides ScheduledDate a task shows up.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "NONE"
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// Task represents a single item in the planner.
//
// ScheduledDate and DueDate hold calendar days (see Day). ReminderTime is a
// "15:04" clock value in the configured zone.
type Task struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              string     `gorm:"size:255;not null" json:"title"`
	Description        string     `gorm:"size:4000" json:"description,omitempty"`
	Status             Status     `gorm:"size:16;index" json:"status"`
	Priority           Priority   `gorm:"size:16" json:"priority"`
	Recurrence         Recurrence `gorm:"size:16" json:"recurrence"`
	ScheduledDate      *time.Time `gorm:"index" json:"scheduledDate,omitempty"`
	DueDate            *time.Time `gorm:"index" json:"dueDate,omitempty"`
	ReminderEnabled    bool       `json:"reminderEnabled"`
	ReminderTime       *string    `gorm:"size:5" json:"reminderTime,omitempty"`
	LastReminderSentAt *time.Time `json:"lastReminderSentAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

// IsRecurring reports whether the task renews itself through its recurrence rule.
func (t Task) IsRecurring() bool {
	return t.Recurrence != "" && t.Recurrence != RecurrenceNone
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}
