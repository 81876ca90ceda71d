package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageNotes
	stageArea
	stageScheduled
	stageRepeat
)

type conversationState struct {
	stage  conversationStage
	input  service.TaskInput
	repeat string
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.log.Info("start new task conversation", "from", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageNotes
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь заметку (или нажми «Пропустить»).", skipKeyboard())
	case stageNotes:
		if !isSkipInput(text) {
			state.input.Notes = text
		}
		state.stage = stageArea
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери область или отправь свою (можно «Пропустить»).", areaKeyboard())
	case stageArea:
		if !isSkipInput(text) {
			state.input.Area = text
		}
		state.stage = stageScheduled
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Когда сделать? Дата в формате <code>2025-11-30</code> (или «Пропустить»).", skipKeyboard())
	case stageScheduled:
		if !isSkipInput(text) {
			parsed, err := recurrence.ParseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
			}
			state.input.ScheduledDate = &parsed
		}
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Повторять задачу? "+ruleSyntaxHint+" Или «Пропустить».", repeatKeyboard())
	case stageRepeat:
		if !isSkipInput(text) {
			if _, err := recurrence.Parse(text); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, errorText(err), repeatKeyboard())
			}
			state.repeat = text
		}
		err := b.finishTaskCreation(ctx, msg.From, state, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, state *conversationState, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.CreateTask(ctx, user, state.input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}
	b.log.Info("task created", "task_id", task.ID, "user_id", user.ID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Заметка:</b> %s\n", escape(task.Notes)))
	}
	if task.ScheduledDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Дата:</b> %s\n", task.ScheduledDate.Format(recurrence.DateLayout)))
	}

	if state.repeat != "" {
		var start time.Time
		if task.ScheduledDate != nil {
			start = *task.ScheduledDate
		}
		ruleID, err := b.svc.Recurring.CreateRuleFromTask(ctx, user.ID, task.ID, state.repeat, start)
		if err != nil {
			summary.WriteString(fmt.Sprintf("• <b>Повтор:</b> не удалось включить (%s)\n", errorText(err)))
		} else {
			desc, _ := service.DescribeRule(state.repeat)
			summary.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s (правило [%d])\n", escape(desc), ruleID))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}
