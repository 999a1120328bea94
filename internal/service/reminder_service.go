package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskminder/internal/model"
	"taskminder/internal/notify"
)

// MailSettings are the addresses notifications go from and to.
type MailSettings struct {
	From string
	To   string
}

// ReminderService runs the notification jobs. Every job is a function of the
// tick time and the store, so it can be driven without a real scheduler.
type ReminderService struct {
	tasks  *TaskService
	sender notify.Sender
	mail   MailSettings
	loc    *time.Location
	log    *slog.Logger
}

func NewReminderService(tasks *TaskService, sender notify.Sender, mail MailSettings, log *slog.Logger) *ReminderService {
	return &ReminderService{
		tasks:  tasks,
		sender: sender,
		mail:   mail,
		loc:    tasks.Location(),
		log:    log.With("component", "reminders"),
	}
}

// CarryForward moves yesterday's unfinished one-off tasks onto today.
// It runs whether or not mail is configured.
func (s *ReminderService) CarryForward(ctx context.Context, now time.Time) (int, error) {
	carried, err := s.tasks.CarryForwardOverdue(ctx, model.Today(now, s.loc))
	if err != nil {
		return 0, err
	}
	if carried > 0 {
		s.log.Info("carried forward tasks to today", "count", carried)
	}
	return carried, nil
}

// SendDailyDigest mails today's open tasks.
func (s *ReminderService) SendDailyDigest(ctx context.Context, now time.Time) (int, error) {
	if !s.canSendMail("daily digest") {
		return 0, nil
	}
	today := model.Today(now, s.loc)
	tasks, err := s.tasks.TasksForDate(ctx, today)
	if err != nil {
		return 0, err
	}
	tasks = filterTasks(tasks, openWithReminder)
	if len(tasks) == 0 {
		return 0, nil
	}

	s.dispatch(ctx, "Daily Task Digest", notify.Notification{
		Variant: notify.VariantDaily,
		Heading: "Today's tasks",
		Title:   "Daily Task Digest",
		Intro:   "Here is your plan for today.",
		Summary: notify.FormatCount("task", len(tasks)) + " scheduled for today.",
		Tip:     "Tip: Start with a high-priority item to build momentum.",
		Tasks:   tasks,
		Date:    today,
	})
	return len(tasks), nil
}

// SendOverdueAlerts mails open tasks past their deadline.
func (s *ReminderService) SendOverdueAlerts(ctx context.Context, now time.Time) (int, error) {
	if !s.canSendMail("overdue alert") {
		return 0, nil
	}
	today := model.Today(now, s.loc)
	tasks, err := s.tasks.OverdueTasks(ctx, today)
	if err != nil {
		return 0, err
	}
	tasks = filterTasks(tasks, openWithReminder)
	if len(tasks) == 0 {
		return 0, nil
	}

	s.dispatch(ctx, "Overdue Task Alert", notify.Notification{
		Variant: notify.VariantOverdue,
		Heading: "Overdue tasks",
		Title:   "Overdue Task Alert",
		Intro:   "A quick review now can reset the day.",
		Summary: notify.FormatCount("task", len(tasks)) + " past due.",
		Tip:     "Tip: Pick one quick win to reduce the list.",
		Tasks:   tasks,
		Date:    today,
	})
	return len(tasks), nil
}

// SendMonthlySummary mails every task with reminders on, finished or not.
func (s *ReminderService) SendMonthlySummary(ctx context.Context, now time.Time) (int, error) {
	if !s.canSendMail("monthly summary") {
		return 0, nil
	}
	today := model.Today(now, s.loc)
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	tasks = filterTasks(tasks, func(task model.Task) bool { return task.ReminderEnabled })
	if len(tasks) == 0 {
		return 0, nil
	}

	s.dispatch(ctx, "Monthly Task Summary", notify.Notification{
		Variant: notify.VariantMonthly,
		Heading: "Monthly summary",
		Title:   "Monthly Task Summary",
		Intro:   "A snapshot of everything on your radar.",
		Summary: notify.FormatCount("task", len(tasks)) + " in your list. " + statusMix(tasks),
		Tip:     "Tip: Review pending items and set priorities for the new month.",
		Tasks:   tasks,
		Date:    today,
	})
	return len(tasks), nil
}

// SendTimedReminders mails tasks whose reminder time is the current minute
// and stamps them so the same minute is never sent twice. The stamp is
// written even if delivery failed.
func (s *ReminderService) SendTimedReminders(ctx context.Context, now time.Time) (int, error) {
	if !s.canSendMail("timed reminders") {
		return 0, nil
	}
	local := now.In(s.loc)
	today := model.Day(local)
	minute := model.Clock(local)

	tasks, err := s.tasks.TasksForDate(ctx, today)
	if err != nil {
		return 0, err
	}
	tasks = filterTasks(tasks, func(task model.Task) bool {
		return openWithReminder(task) &&
			task.ReminderTime != nil &&
			*task.ReminderTime == minute &&
			!s.sentAt(task, today, minute)
	})
	if len(tasks) == 0 {
		return 0, nil
	}

	s.dispatch(ctx, "Task Reminder", notify.Notification{
		Variant: notify.VariantReminder,
		Heading: "Task reminders",
		Title:   "Task Reminder",
		Intro:   "This is your scheduled reminder.",
		Summary: fmt.Sprintf("Reminder time: %s (%s).", minute, s.loc),
		Tip:     "Tip: Tackle the smallest task first to build momentum.",
		Tasks:   tasks,
		Date:    today,
	})

	if err := s.tasks.StampReminders(ctx, tasks, local); err != nil {
		return 0, fmt.Errorf("stamp reminders: %w", err)
	}
	return len(tasks), nil
}

// sentAt reports whether the task's reminder already went out at minute on today.
func (s *ReminderService) sentAt(task model.Task, today time.Time, minute string) bool {
	if task.LastReminderSentAt == nil {
		return false
	}
	last := task.LastReminderSentAt.In(s.loc)
	return model.Day(last).Equal(today) && model.Clock(last) == minute
}

func (s *ReminderService) canSendMail(job string) bool {
	if s.mail.From == "" {
		s.log.Debug("mail credentials not configured, skipping "+job, "job", job)
		return false
	}
	if s.mail.To == "" {
		s.log.Warn("admin email is missing, skipping "+job, "job", job)
		return false
	}
	return true
}

// dispatch renders and sends one notification. Delivery errors are logged and swallowed.
func (s *ReminderService) dispatch(ctx context.Context, subject string, n notify.Notification) {
	text, html := notify.Render(n)
	msg := notify.Message{
		From:    s.mail.From,
		To:      s.mail.To,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.Warn("failed to send task reminder email", "subject", subject, "error", err)
		return
	}
	s.log.Info("sent task notification", "subject", subject, "tasks", len(n.Tasks))
}

func openWithReminder(task model.Task) bool {
	return task.ReminderEnabled && !task.IsCompleted()
}

func statusMix(tasks []model.Task) string {
	var todo, inProgress, completed, pending int
	for _, task := range tasks {
		switch task.Status {
		case model.StatusTodo:
			todo++
		case model.StatusInProgress:
			inProgress++
		case model.StatusCompleted:
			completed++
		case model.StatusPending:
			pending++
		}
	}
	return fmt.Sprintf("Status mix: %d todo, %d in progress, %d completed, %d pending.",
		todo, inProgress, completed, pending)
}
