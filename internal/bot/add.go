package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskminder/internal/model"
	"taskminder/internal/service"
)

const addUsage = "Usage: /add Pay rent; due=2024-01-31; at=09:00; repeat=monthly; priority=high"

// parseAddArgs reads "/add <title>; key=value; ..." into a task input.
// Without on= the task is scheduled for today. The reminder time is passed
// through untouched so the service reports a malformed one.
func parseAddArgs(args string, today time.Time) (service.TaskInput, error) {
	parts := strings.Split(args, ";")
	input := service.TaskInput{Title: strings.TrimSpace(parts[0])}
	if input.Title == "" {
		return service.TaskInput{}, errors.New(addUsage)
	}

	scheduled := today
	input.ScheduledDate = &scheduled

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return service.TaskInput{}, fmt.Errorf("expected key=value, got %q. %s", part, addUsage)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "due":
			due, err := parseDate(key, value)
			if err != nil {
				return service.TaskInput{}, err
			}
			input.DueDate = &due
		case "on":
			on, err := parseDate(key, value)
			if err != nil {
				return service.TaskInput{}, err
			}
			input.ScheduledDate = &on
		case "at":
			input.ReminderTime = value
		case "repeat":
			recurrence := model.Recurrence(strings.ToUpper(value))
			switch recurrence {
			case model.RecurrenceNone, model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly:
				input.Recurrence = recurrence
			default:
				return service.TaskInput{}, fmt.Errorf("repeat must be none, daily, weekly or monthly, got %q", value)
			}
		case "priority":
			priority := model.Priority(strings.ToUpper(value))
			switch priority {
			case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
				input.Priority = priority
			default:
				return service.TaskInput{}, fmt.Errorf("priority must be low, medium, high or urgent, got %q", value)
			}
		case "note":
			input.Description = value
		default:
			return service.TaskInput{}, fmt.Errorf("unknown field %q. %s", key, addUsage)
		}
	}
	return input, nil
}

func parseDate(key, value string) (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must look like 2024-01-31, got %q", key, value)
	}
	return parsed, nil
}
