package model

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the layout of reminder times.
const ClockLayout = "15:04"

// Day returns the calendar day of t as midnight UTC. Calendar days are
// compared with Equal/Before/After only after going through Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayPtr is Day for optional dates.
func DayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return Day(now.In(loc))
}

// ParseClock parses a reminder time in HH:mm (HH:mm:ss is accepted, seconds
// are dropped). A blank value yields nil.
func ParseClock(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			clock := t.Format(ClockLayout)
			return &clock, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidReminderTime, raw)
}

// Clock formats t as a reminder time, truncated to the minute.
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}
