package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	store     *repository.Store
	recurring *Recurring
}

func NewReminderService(store *repository.Store, recurring *Recurring) *ReminderService {
	return &ReminderService{store: store, recurring: recurring}
}

// DailySummary lists tasks due today or overdue, unscheduled tasks and the
// user's repeating rules. now decides what "today" is.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.store.Tasks.ListOpen(ctx, user.ID)
	if err != nil {
		return "", err
	}

	areas, err := s.store.Areas.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	areaNames := make(map[uint]string)
	for _, area := range areas {
		areaNames[area.ID] = area.Name
	}

	rules, err := s.recurring.ListRules(ctx, user.ID)
	if err != nil {
		return "", err
	}

	today := recurrence.Day(now)
	var due, inbox []model.Task
	for _, task := range tasks {
		switch {
		case task.ScheduledDate == nil:
			inbox = append(inbox, task)
		case !recurrence.Day(*task.ScheduledDate).After(today):
			due = append(due, task)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].ScheduledDate.Before(*due[j].ScheduledDate)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>На сегодня</b>\n")
	if len(due) == 0 {
		builder.WriteString("— на сегодня ничего не запланировано\n")
	} else {
		for _, task := range due {
			builder.WriteString(formatTask(task, areaNames, today))
		}
	}

	builder.WriteString("\n📥 <b>Без даты</b>\n")
	if len(inbox) == 0 {
		builder.WriteString("— пусто\n")
	} else {
		for _, task := range inbox {
			builder.WriteString(formatTask(task, areaNames, today))
		}
	}

	builder.WriteString("\n♻️ <b>Регулярные задачи</b>\n")
	if len(rules) == 0 {
		builder.WriteString("— нет повторяющихся задач\n")
	} else {
		for _, view := range rules {
			builder.WriteString(formatRule(view))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.Task, areaNames map[uint]string, today time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.ScheduledDate != nil && recurrence.Day(*task.ScheduledDate).Before(today) {
		icon = "⚠️"
	}
	if task.RepeatingRuleID != nil {
		icon = "♻️"
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, title))

	if task.AreaID != nil {
		if name, ok := areaNames[*task.AreaID]; ok {
			trimmed := strings.TrimSpace(name)
			if trimmed != "" {
				sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(trimmed)))
			}
		}
	}

	if task.ScheduledDate != nil {
		d := recurrence.Day(*task.ScheduledDate)
		if d.Before(today) {
			sb.WriteString(fmt.Sprintf("\n   📆 %s — <b>просрочено</b>", d.Format(recurrence.DateLayout)))
		} else {
			sb.WriteString(fmt.Sprintf("\n   📆 %s", d.Format(recurrence.DateLayout)))
		}
	}

	if task.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Notes))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatRule(view RuleView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("♻️ [%d] %s", view.Rule.ID, html.EscapeString(strings.TrimSpace(view.Rule.Template.Title))))
	sb.WriteString(fmt.Sprintf("\n   🔄 %s", html.EscapeString(view.Description)))
	sb.WriteString(fmt.Sprintf("\n   ⏭ Следующая: %s", view.Rule.NextOccurrence.Format(recurrence.DateLayout)))
	sb.WriteByte('\n')
	return sb.String()
}
