package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/service"
)

const (
	btnSkip          = "⏭️ Пропустить"
	btnConfirm       = "✅ Подтвердить"
	btnCancel        = "↩️ Отмена"
	btnCancelDialog  = "⏪ Отменить ввод"
	noArea           = "Без области"
	noAreaKey        = "__no_area__"
	iconDefault      = "🟢"
	iconDue          = "⏳"
	iconOverdue      = "⚠️"
	iconRecurring    = "♻️"
	menuLabelNewTask = "➕ Новая задача"
	menuLabelTasks   = "📋 Задачи"
	menuLabelRules   = "♻️ Регулярные"
	menuLabelHelp    = "ℹ️ Помощь"
)

const ruleSyntaxHint = "Формат правила: <code>daily|weekly|monthly|yearly [интервал] [дни]</code>, " +
	"например <code>weekly 2 mon,fri</code> или <code>monthly 1 15</code>."

// errorText turns a service error into a user-facing message.
func errorText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Не найдено. Проверь номер."
	case errors.Is(err, service.ErrInvalidRule):
		return "Некорректное правило повторения. " + ruleSyntaxHint
	case errors.Is(err, service.ErrTaskAlreadyRepeating):
		return "Эта задача уже повторяется. Измени правило через /ruleedit."
	default:
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}

func formatTask(task model.Task, today time.Time) string {
	var b strings.Builder
	icon := iconDefault
	if task.ScheduledDate != nil {
		d := recurrence.Day(*task.ScheduledDate)
		switch {
		case d.Before(today):
			icon = iconOverdue
		case d.Equal(today):
			icon = iconDue
		}
	}
	if task.RepeatingRuleID != nil {
		icon = iconRecurring
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeTitle(task.Title))))
	if task.ScheduledDate != nil {
		d := recurrence.Day(*task.ScheduledDate)
		if d.Before(today) {
			b.WriteString(fmt.Sprintf("   📆 %s — <b>просрочено</b>\n", d.Format(recurrence.DateLayout)))
		} else {
			b.WriteString(fmt.Sprintf("   📆 %s\n", d.Format(recurrence.DateLayout)))
		}
	}
	if task.Deadline != nil {
		b.WriteString(fmt.Sprintf("   ⏰ Дедлайн: %s\n", task.Deadline.Format(recurrence.DateLayout)))
	}
	if len(task.Tags) > 0 {
		names := make([]string, len(task.Tags))
		for i, tag := range task.Tags {
			names[i] = "#" + escape(tag.Name)
		}
		b.WriteString(fmt.Sprintf("   🏷 %s\n", strings.Join(names, " ")))
	}
	if task.Notes != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Notes)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatRuleView(view service.RuleView) string {
	return fmt.Sprintf("♻️ <b>[%d]</b> %s\n   🔄 %s\n   ⏭ %s\n\n",
		view.Rule.ID,
		escape(normalizeTitle(view.Rule.Template.Title)),
		escape(view.Description),
		view.Rule.NextOccurrence.Format(recurrence.DateLayout),
	)
}

func normalizedArea(areaID *uint, areaNames map[uint]string) (string, string) {
	if areaID == nil {
		return noAreaKey, areaLabel(noArea)
	}
	if name, ok := areaNames[*areaID]; ok {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return noAreaKey, areaLabel(noArea)
		}
		return strings.ToLower(trimmed), areaLabel(trimmed)
	}
	return noAreaKey, areaLabel(noArea)
}

func areaLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "учеба":
		icon = "🎓"
	case "работа":
		icon = "💼"
	case "покупки":
		icon = "🛒"
	case "здоровье":
		icon = "🩺"
	case "дом":
		icon = "🏠"
	case strings.ToLower(noArea):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
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

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip" || value == "нет"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRules),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func areaKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Учеба"),
			tgbotapi.NewKeyboardButton("Работа"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Дом"),
			tgbotapi.NewKeyboardButton("Здоровье"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("daily"),
			tgbotapi.NewKeyboardButton("weekly"),
			tgbotapi.NewKeyboardButton("monthly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
