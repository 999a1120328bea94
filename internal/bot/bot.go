package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskminder/internal/model"
	"taskminder/internal/notify"
	"taskminder/internal/service"
)

const (
	cbCompletePrefix      = "complete:"
	cbDeletePrefix        = "delete:"
	cbConfirmDeletePrefix = "confirm-delete:"
	cbCancelPrefix        = "cancel:"
)

const (
	menuLabelToday     = "📅 Today"
	menuLabelOverdue   = "⚠️ Overdue"
	menuLabelDashboard = "📊 Dashboard"
	menuLabelHelp      = "ℹ️ Help"
)

// API is the part of the Telegram client the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Tasks is the task service surface exposed over chat.
type Tasks interface {
	Today() time.Time
	TodayTasks(ctx context.Context) ([]model.Task, error)
	TodayOverdue(ctx context.Context) ([]model.Task, error)
	TodayDashboard(ctx context.Context) (service.Dashboard, error)
	CreateTask(ctx context.Context, input service.TaskInput) (*model.Task, error)
	CompleteTask(ctx context.Context, id uint) (*model.Task, error)
	SetReminder(ctx context.Context, id uint, clock string) (*model.Task, error)
	GetTask(ctx context.Context, id uint) (*model.Task, error)
	DeleteTask(ctx context.Context, id uint) error
}

// Bot answers task commands in Telegram.
type Bot struct {
	api    API
	tasks  Tasks
	chatID int64
	log    *slog.Logger
}

// New builds a bot. A non-zero chatID limits it to that chat, otherwise any
// private chat is served.
func New(api API, tasks Tasks, chatID int64, log *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		tasks:  tasks,
		chatID: chatID,
		log:    log.With("component", "bot"),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", "error", err)
		}
	case update.Message != nil:
		if !b.allowed(update.Message.Chat) {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "error", err)
		}
	}
}

func (b *Bot) allowed(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	if b.chatID != 0 {
		return chat.ID == b.chatID
	}
	return chat.IsPrivate()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		b.log.Info("command received", "chat_id", msg.Chat.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}
	if handled, err := b.handleMenuAlias(ctx, msg.Chat.ID, msg.Text); handled {
		return err
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText)
	case "today":
		return b.handleToday(ctx, chatID)
	case "overdue":
		return b.handleOverdue(ctx, chatID)
	case "dashboard":
		return b.handleDashboard(ctx, chatID)
	case "add":
		return b.handleAdd(ctx, chatID, msg.CommandArguments())
	case "remind":
		return b.handleRemind(ctx, chatID, msg.CommandArguments())
	case "done":
		return b.handleDone(ctx, chatID, msg.CommandArguments())
	case "delete":
		return b.handleDelete(ctx, chatID, msg.CommandArguments())
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /add &lt;title&gt;; due=2024-01-31; on=2024-01-20; at=09:00; repeat=weekly; priority=high: add a task (only the title is required, the date defaults to today)\n" +
	"• /remind &lt;id&gt; &lt;HH:mm|off&gt;: set or clear a reminder time\n" +
	"• /today: tasks for today\n" +
	"• /overdue: open tasks past their due date\n" +
	"• /dashboard: counters for today\n" +
	"• /done &lt;id&gt;: mark a task completed (for example /done 3)\n" +
	"• /delete &lt;id&gt;: delete a task\n" +
	"• /help: this message"

func (b *Bot) handleMenuAlias(ctx context.Context, chatID int64, text string) (bool, error) {
	switch strings.TrimSpace(text) {
	case menuLabelToday:
		return true, b.handleToday(ctx, chatID)
	case menuLabelOverdue:
		return true, b.handleOverdue(ctx, chatID)
	case menuLabelDashboard:
		return true, b.handleDashboard(ctx, chatID)
	case menuLabelHelp:
		return true, b.sendText(chatID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	tasks, err := b.tasks.TodayTasks(ctx)
	if err != nil {
		return b.sendError(chatID, "Could not load tasks", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "Nothing planned for today.")
	}
	heading := fmt.Sprintf("📅 <b>Today</b> (%s)", b.tasks.Today().Format("Jan 02, 2006"))
	return b.sendTaskList(chatID, heading, tasks)
}

func (b *Bot) handleOverdue(ctx context.Context, chatID int64) error {
	tasks, err := b.tasks.TodayOverdue(ctx)
	if err != nil {
		return b.sendError(chatID, "Could not load tasks", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No overdue tasks. 🎉")
	}
	return b.sendTaskList(chatID, "⚠️ <b>Overdue</b>", tasks)
}

func (b *Bot) handleDashboard(ctx context.Context, chatID int64) error {
	dashboard, err := b.tasks.TodayDashboard(ctx)
	if err != nil {
		return b.sendError(chatID, "Could not build dashboard", err)
	}
	return b.sendText(chatID, formatDashboard(dashboard, b.tasks.Today()))
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	taskID, err := parseTaskID(strings.TrimSpace(args), "")
	if err != nil {
		return b.sendText(chatID, "Give the task id as a number: /done 12")
	}
	return b.completeTask(ctx, chatID, taskID)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, taskID uint) error {
	task, err := b.tasks.CompleteTask(ctx, taskID)
	if err != nil {
		return b.sendError(chatID, "Could not complete task", err)
	}
	b.log.Info("task completed", "task_id", task.ID)
	return b.sendText(chatID, fmt.Sprintf("✅ Task <b>#%d</b> %s is done.", task.ID, escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) error {
	input, err := parseAddArgs(args, b.tasks.Today())
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	task, err := b.tasks.CreateTask(ctx, input)
	if err != nil {
		return b.sendError(chatID, "Could not add task", err)
	}
	b.log.Info("task created", "task_id", task.ID, "recurrence", task.Recurrence)
	return b.sendText(chatID, formatTaskList("🆕 <b>Task saved</b>", []model.Task{*task}))
}

func (b *Bot) handleRemind(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(chatID, "Usage: /remind 12 09:30 or /remind 12 off")
	}
	taskID, err := parseTaskID(fields[0], "")
	if err != nil {
		return b.sendText(chatID, "Usage: /remind 12 09:30 or /remind 12 off")
	}
	clock := fields[1]
	if strings.EqualFold(clock, "off") {
		clock = ""
	}
	task, err := b.tasks.SetReminder(ctx, taskID, clock)
	if err != nil {
		return b.sendError(chatID, "Could not set reminder", err)
	}
	if task.ReminderTime == nil {
		return b.sendText(chatID, fmt.Sprintf("🔕 Reminders off for <b>#%d</b>.", task.ID))
	}
	return b.sendText(chatID, fmt.Sprintf("⏰ <b>#%d</b> will remind you at %s.", task.ID, *task.ReminderTime))
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, taskID uint) error {
	task, err := b.tasks.GetTask(ctx, taskID)
	if err != nil {
		return b.sendError(chatID, "Could not delete task", err)
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete task <b>#%d</b> %s?", task.ID, escape(normalizeTitle(task.Title))))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbConfirmDeletePrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", cbCancelPrefix),
	))
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args string) error {
	taskID, err := parseTaskID(strings.TrimSpace(args), "")
	if err != nil {
		return b.sendText(chatID, "Give the task id as a number: /delete 12")
	}
	task, err := b.tasks.GetTask(ctx, taskID)
	if err != nil {
		return b.sendError(chatID, "Could not delete task", err)
	}
	if err := b.tasks.DeleteTask(ctx, taskID); err != nil {
		return b.sendError(chatID, "Could not delete task", err)
	}
	b.log.Info("task deleted", "task_id", taskID)
	return b.sendText(chatID, fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || !b.allowed(cb.Message.Chat) {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}

	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		taskID, err := parseTaskID(cb.Data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.completeTask(ctx, chatID, taskID)
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		taskID, err := parseTaskID(cb.Data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, taskID)
	case strings.HasPrefix(cb.Data, cbConfirmDeletePrefix):
		taskID, err := parseTaskID(cb.Data, cbConfirmDeletePrefix)
		if err != nil {
			return nil
		}
		return b.handleDelete(ctx, chatID, strconv.FormatUint(uint64(taskID), 10))
	default:
		return nil
	}
}

func (b *Bot) sendTaskList(chatID int64, heading string, tasks []model.Task) error {
	msg := tgbotapi.NewMessage(chatID, formatTaskList(heading, tasks))
	msg.ParseMode = tgbotapi.ModeHTML
	if buttons := taskButtons(tasks); len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendError(chatID int64, prefix string, err error) error {
	switch {
	case errors.Is(err, model.ErrTaskNotFound):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidReminderTime):
		return b.sendText(chatID, fmt.Sprintf("%s: %s", prefix, escape(err.Error())))
	default:
		b.log.Error(strings.ToLower(prefix), "error", err)
		return b.sendText(chatID, prefix+". Please try again later.")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelOverdue),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDashboard),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// taskButtons offers one-tap completion and deletion for every open task.
func taskButtons(tasks []model.Task) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.IsCompleted() {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)),
				fmt.Sprintf("%s%d", cbCompletePrefix, task.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}
	return rows
}

func formatTaskList(heading string, tasks []model.Task) string {
	var builder strings.Builder
	builder.WriteString(heading)
	builder.WriteString("\n\n")
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, escape(strings.TrimPrefix(notify.FormatTaskLine(task), "- "))))
	}
	return strings.TrimSpace(builder.String())
}

func formatDashboard(d service.Dashboard, today time.Time) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📊 <b>Dashboard</b> (%s)\n", today.Format("Jan 02, 2006")))
	builder.WriteString(fmt.Sprintf("• Total: %d\n", d.Total))
	builder.WriteString(fmt.Sprintf("• Todo: %d · In progress: %d · Pending: %d · Completed: %d\n",
		d.Todo, d.InProgress, d.Pending, d.Completed))
	builder.WriteString(fmt.Sprintf("• Due today: %d\n", d.DueToday))
	builder.WriteString(fmt.Sprintf("• Overdue: %d\n", d.Overdue))
	builder.WriteString(fmt.Sprintf("• Upcoming: %d", d.Upcoming))
	return builder.String()
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func escape(s string) string {
	return html.EscapeString(s)
}
