package model

import "errors"

var (
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrValidation is returned when task input fails validation.
	// It is usually wrapped with the offending field.
	ErrValidation = errors.New("invalid task data")

	// ErrInvalidReminderTime is returned when a reminder time is not HH:mm.
	ErrInvalidReminderTime = errors.New("invalid reminder time, use HH:mm")
)
