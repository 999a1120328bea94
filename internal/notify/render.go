package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"taskminder/internal/model"
)

const (
	dateLayout   = "Jan 02, 2006"
	snippetLimit = 160
)

// Variant is the visual theme of a notification.
type Variant int

const (
	VariantDaily Variant = iota
	VariantOverdue
	VariantMonthly
	VariantReminder
)

type variantStyle struct {
	label  string
	accent string
}

var variantStyles = map[Variant]variantStyle{
	VariantDaily:    {label: "Daily Digest", accent: "#1B7C6E"},
	VariantOverdue:  {label: "Overdue Alert", accent: "#A63D40"},
	VariantMonthly:  {label: "Monthly Summary", accent: "#2E6E4F"},
	VariantReminder: {label: "Task Reminder", accent: "#3B5BDB"},
}

// Label is the banner caption of the variant.
func (v Variant) Label() string { return variantStyles[v].label }

// AccentColor is the banner colour of the variant.
func (v Variant) AccentColor() string { return variantStyles[v].accent }

var priorityColors = map[model.Priority]string{
	model.PriorityUrgent: "#B42318",
	model.PriorityHigh:   "#B54708",
	model.PriorityMedium: "#2F7E56",
	model.PriorityLow:    "#3B5BDB",
}

const noPriorityColor = "#5B6B5B"

// PriorityColor maps a priority onto its card colour; unknown or empty
// priorities are grey.
func PriorityColor(p model.Priority) string {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return noPriorityColor
}

// Notification is everything needed to render one message.
type Notification struct {
	Variant Variant
	// Heading opens the plain-text body, Title the HTML banner.
	Heading string
	Title   string
	Intro   string
	Summary string
	Tip     string
	Tasks   []model.Task
	Date    time.Time
}

// Render returns the plain-text and HTML bodies of n.
func Render(n Notification) (string, string) {
	return RenderText(n), RenderHTML(n)
}

// RenderText lists one line per task under a dated heading.
func RenderText(n Notification) string {
	lines := make([]string, 0, len(n.Tasks))
	for _, task := range n.Tasks {
		lines = append(lines, FormatTaskLine(task))
	}
	return fmt.Sprintf("%s (%s)\n\n%s", n.Heading, n.Date.Format(dateLayout), strings.Join(lines, "\n"))
}

// FormatTaskLine renders a task as
// "- title [Status | Priority] (Due: date | Reminder: HH:mm)".
func FormatTaskLine(task model.Task) string {
	due := "none"
	if task.DueDate != nil {
		due = task.DueDate.Format(dateLayout)
	}
	reminder := ""
	if task.ReminderTime != nil {
		reminder = " | Reminder: " + *task.ReminderTime
	}
	return fmt.Sprintf("- %s [%s | %s] (Due: %s%s)",
		task.Title, FormatLabel(string(task.Status)), FormatLabel(string(task.Priority)), due, reminder)
}

// FormatLabel turns an enum value like IN_PROGRESS into "In progress".
func FormatLabel(value string) string {
	if value == "" {
		return ""
	}
	raw := strings.ReplaceAll(strings.ToLower(value), "_", " ")
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// FormatCount renders "1 task" / "3 tasks".
func FormatCount(noun string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}

// RenderHTML builds a self-contained HTML mail. Every piece of user text is escaped.
func RenderHTML(n Notification) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html>`)
	sb.WriteString(`<html><head><meta charset="UTF-8"></head>`)
	sb.WriteString(`<body style="margin:0; padding:0; background-color:#F7F4EF;">`)
	sb.WriteString(`<div style="display:none; max-height:0; overflow:hidden; opacity:0;">`)
	sb.WriteString(esc(n.Summary))
	sb.WriteString(`</div>`)
	sb.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="background-color:#F7F4EF; padding:24px 0;">`)
	sb.WriteString(`<tr><td align="center">`)
	sb.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" width="600" style="width:100%; max-width:600px; font-family:'Trebuchet MS', Arial, sans-serif;">`)
	sb.WriteString(`<tr><td style="background-color:#FFFFFF; border-radius:16px; overflow:hidden; border:1px solid #E6E1D8;">`)

	fmt.Fprintf(&sb, `<div style="background-color:%s; padding:20px 24px;">`, n.Variant.AccentColor())
	fmt.Fprintf(&sb, `<div style="font-size:12px; letter-spacing:1px; text-transform:uppercase; color:#F7F4EF;">%s</div>`, esc(n.Variant.Label()))
	fmt.Fprintf(&sb, `<div style="font-size:24px; font-weight:700; color:#FFFFFF; margin-top:6px;">%s</div>`, esc(n.Title))
	fmt.Fprintf(&sb, `<div style="font-size:13px; color:#F2EFEA; margin-top:8px;">%s</div>`, esc(n.Intro))
	sb.WriteString(`</div>`)

	sb.WriteString(`<div style="padding:22px 24px 10px 24px;">`)
	fmt.Fprintf(&sb, `<div style="font-size:14px; color:#2B2B2B; margin-bottom:6px;">%s</div>`, esc(n.Summary))
	fmt.Fprintf(&sb, `<div style="font-size:12px; color:#6A6A6A; margin-bottom:16px;">%s | %s</div>`,
		esc(n.Date.Format(dateLayout)), esc(FormatCount("task", len(n.Tasks))))
	for _, task := range n.Tasks {
		writeTaskCard(&sb, task, n.Variant, n.Date)
	}
	sb.WriteString(`</div>`)

	fmt.Fprintf(&sb, `<div style="background-color:#F8F6F2; border-top:1px solid #E6E1D8; padding:14px 24px; font-size:12px; color:#6A6A6A;">%s</div>`, esc(n.Tip))
	sb.WriteString(`</td></tr></table></td></tr></table></body></html>`)
	return sb.String()
}

func writeTaskCard(sb *strings.Builder, task model.Task, variant Variant, today time.Time) {
	color := PriorityColor(task.Priority)

	fmt.Fprintf(sb, `<div style="border-left:4px solid %s; border:1px solid #EFE9DF; border-radius:12px; padding:12px 14px; margin-bottom:12px; background-color:#FFFFFF;">`, color)
	fmt.Fprintf(sb, `<div style="font-size:16px; font-weight:700; color:#1E1E1E; margin-bottom:6px;">%s</div>`, esc(task.Title))
	sb.WriteString(`<div style="margin-bottom:6px;">`)
	writeBadge(sb, "Status: "+FormatLabel(string(task.Status)), "#EFF3F6", "#2F3A44")
	writeBadge(sb, "Priority: "+FormatLabel(string(task.Priority)), "#F6EFE7", color)
	sb.WriteString(`</div>`)
	fmt.Fprintf(sb, `<div style="font-size:12px; color:#6A6A6A;">%s</div>`, esc(taskMeta(task, variant, today)))
	if snippet := Snippet(task.Description); snippet != "" {
		fmt.Fprintf(sb, `<div style="font-size:13px; color:#3F3F3F; margin-top:8px;">%s</div>`, esc(snippet))
	}
	sb.WriteString(`</div>`)
}

func writeBadge(sb *strings.Builder, text, background, color string) {
	fmt.Fprintf(sb, `<span style="display:inline-block; background-color:%s; color:%s; font-size:11px; padding:2px 8px; border-radius:999px; margin-right:6px;">%s</span>`,
		background, color, esc(text))
}

func taskMeta(task model.Task, variant Variant, today time.Time) string {
	var meta []string
	switch {
	case task.DueDate != nil:
		meta = append(meta, "Due: "+task.DueDate.Format(dateLayout))
	case task.ScheduledDate != nil:
		meta = append(meta, "Scheduled: "+task.ScheduledDate.Format(dateLayout))
	default:
		meta = append(meta, "No due date")
	}
	if task.ReminderTime != nil {
		meta = append(meta, "Reminder: "+*task.ReminderTime)
	}
	if variant == VariantOverdue && task.DueDate != nil {
		if days := daysBetween(*task.DueDate, today); days > 0 {
			meta = append(meta, fmt.Sprintf("Overdue: %d day(s)", days))
		}
	}
	return strings.Join(meta, " | ")
}

func daysBetween(from, to time.Time) int {
	return int(model.Day(to).Sub(model.Day(from)).Hours() / 24)
}

// Snippet trims s and cuts it to 160 characters, ellipsis included.
func Snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= snippetLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:snippetLimit-3]) + "..."
}

func esc(s string) string {
	return html.EscapeString(s)
}
