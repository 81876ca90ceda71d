package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

const helpText = "ℹ️ <b>Подсказки</b>\n" +
	"• /newtask — добавить задачу пошагово\n" +
	"• /tasks — активные задачи, завершить по кнопке\n" +
	"• /today — отчёт на сегодня\n" +
	"• /complete &lt;id&gt; — отметить задачу выполненной\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /edit &lt;id&gt; title|notes|date|tags &lt;значение&gt; — изменить задачу\n" +
	"• /repeat &lt;id&gt; &lt;правило&gt; [дата начала] — сделать задачу повторяющейся\n" +
	"• /rules — список правил повторения\n" +
	"• /ruleedit &lt;правило id&gt; &lt;правило&gt; — изменить расписание\n" +
	"• /unrepeat &lt;правило id&gt; — убрать повтор\n" +
	"• /describe &lt;правило&gt; — проверить правило\n" +
	"• /areas — список областей\n" +
	"• /report — ежедневный отчёт\n" +
	"• /cancel — отменить текущий ввод\n\n" + ruleSyntaxHint

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я планировщик: веду задачи и сам создаю повторяющиеся.</b>\n\n%s",
		escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message, materialize bool) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if materialize {
		b.materialize(ctx, user)
	}
	text, err := b.svc.Reminders.DailySummary(ctx, *user, b.config.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	b.materialize(ctx, user)
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /complete 12")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if task.IsCompleted() {
		return b.sendText(msg.Chat.ID, "Задача уже выполнена.")
	}
	return b.completeTask(ctx, msg.Chat.ID, user, task, b.sendText)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось удалить задачу: %s", escape(err.Error())))
	}
	b.log.Info("task deleted", "task_id", task.ID, "user_id", user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Задача \"%s\" удалена.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	args, err := parseEditArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Пример: /edit 12 title Новое название, /edit 12 date 2025-11-30, /edit 12 tags дом,срочно")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.EditTask(ctx, user, args.taskID, args.edit)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	text := fmt.Sprintf("✏️ Задача #%d обновлена.\n\n%s", task.ID, formatTask(*task, b.svc.Recurring.Today()))
	if task.RepeatingRuleID != nil {
		text += "Изменения попадут в следующие повторы после выполнения этой задачи."
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(text))
}

func (b *Bot) handleRepeat(ctx context.Context, msg *tgbotapi.Message) error {
	args, err := parseRepeatArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Пример: /repeat 12 weekly 1 mon 2025-01-06\n"+ruleSyntaxHint)
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	ruleID, err := b.svc.Recurring.CreateRuleFromTask(ctx, user.ID, args.taskID, args.rule, args.start)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	rule, err := b.svc.Recurring.GetRule(ctx, user.ID, ruleID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	desc, _ := recurrence.Describe(rule.Rule())
	return b.sendText(msg.Chat.ID, fmt.Sprintf("♻️ Задача #%d теперь повторяется: %s.\nПравило [%d], следующий повтор %s.",
		args.taskID, escape(desc), rule.ID, rule.NextOccurrence.Format(recurrence.DateLayout)))
}

func (b *Bot) handleRules(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	views, err := b.svc.Recurring.ListRules(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if len(views) == 0 {
		return b.sendText(msg.Chat.ID, "Повторяющихся задач пока нет. Сделай задачу регулярной через /repeat.")
	}
	var builder strings.Builder
	builder.WriteString("♻️ <b>Правила повторения</b>\n\n")
	for _, view := range views {
		builder.WriteString(formatRuleView(view))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleRuleEdit(ctx context.Context, msg *tgbotapi.Message) error {
	args, err := parseRuleEditArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Пример: /ruleedit 3 monthly 1 15\n"+ruleSyntaxHint)
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	rule, err := b.svc.Recurring.UpdateRuleDefinition(ctx, user.ID, args.ruleID, args.rule)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	desc, _ := recurrence.Describe(rule.Rule())
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔄 Правило [%d] обновлено: %s. Следующий повтор %s.",
		rule.ID, escape(desc), rule.NextOccurrence.Format(recurrence.DateLayout)))
}

func (b *Bot) handleUnrepeat(ctx context.Context, msg *tgbotapi.Message) error {
	ruleID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи номер правила: /unrepeat 3 (список в /rules)")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.svc.Recurring.RemoveRule(ctx, user.ID, ruleID); err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Правило [%d] удалено. Уже созданные задачи остались в списке.", ruleID))
}

func (b *Bot) handleDescribe(msg *tgbotapi.Message) error {
	raw := strings.TrimSpace(msg.CommandArguments())
	if raw == "" {
		return b.sendText(msg.Chat.ID, ruleSyntaxHint)
	}
	desc, err := service.DescribeRule(raw)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, "🔄 "+escape(desc))
}

func (b *Bot) handleAreas(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	areas, err := b.svc.Areas.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить области: %s", escape(err.Error())))
	}
	if len(areas) == 0 {
		return b.sendText(msg.Chat.ID, "Областей пока нет. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Области</b>\n")
	for _, area := range areas {
		builder.WriteString(fmt.Sprintf("• %s\n", areaLabel(area.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelRules):
		return true, b.handleRules(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Подтверди или отмени выполнение задачи."
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление задачи."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.svc.Tasks.ListOpen(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет активных задач. Добавь новую через /newtask.")
	}

	areas, _ := b.svc.Areas.List(ctx, user)
	areaNames := make(map[uint]string)
	for _, area := range areas {
		areaNames[area.ID] = area.Name
	}

	type areaGroup struct {
		Name  string
		Tasks []model.Task
	}
	groups := make(map[string]*areaGroup)
	order := make([]string, 0, len(tasks))
	for _, task := range tasks {
		key, display := normalizedArea(task.AreaID, areaNames)
		group, ok := groups[key]
		if !ok {
			group = &areaGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noAreaKey {
			return false
		}
		if order[j] == noAreaKey {
			return true
		}
		return strings.Compare(groups[order[i]].Name, groups[order[j]].Name) < 0
	})

	today := b.svc.Recurring.Today()
	var builder strings.Builder
	builder.WriteString("📋 <b>Текущие задачи</b>\n")
	builder.WriteString("Нажми на кнопку, чтобы отметить задачу выполненной или удалить её.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.Name))
		for _, task := range section.Tasks {
			builder.WriteString(formatTask(task, today))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), cbCompletePrefix+strconv.FormatUint(uint64(task.ID), 10)),
				tgbotapi.NewInlineKeyboardButtonData("\U0001F5D1", cbDeletePrefix+strconv.FormatUint(uint64(task.ID), 10)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "err", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseID(strings.TrimPrefix(data, cbCompletePrefix))
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseID(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID, actionDelete)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, action confirmationAction) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}

	var text string
	switch action {
	case actionDelete:
		text = fmt.Sprintf("Удалить задачу \"%s\" (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
		if task.RepeatingRuleID != nil {
			text += "\nПравило повторения останется, следующая задача появится по расписанию."
		}
	default:
		if task.IsCompleted() {
			return b.sendText(chatID, "Задача уже выполнена.")
		}
		text = fmt.Sprintf("Отметить задачу «%s» (#%d) как выполненную?", escape(normalizeTitle(task.Title)), task.ID)
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}
	if task.IsCompleted() {
		return b.sendTextWithRemove(chatID, "Задача уже была выполнена.")
	}
	if err := b.completeTask(ctx, chatID, user, task, b.sendTextWithRemove); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// completeTask reports through send so callers pick the keyboard.
func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, task *model.Task, send func(int64, string) error) error {
	ruleID := task.RepeatingRuleID
	completed, err := b.svc.Tasks.CompleteTask(ctx, user, task.ID, b.config.Now())
	if err != nil {
		return send(chatID, errorText(err))
	}
	b.log.Info("task completed", "task_id", completed.ID, "user_id", user.ID)

	info := fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(completed.Title)))
	if ruleID != nil {
		if rule, err := b.svc.Recurring.GetRule(ctx, user.ID, *ruleID); err == nil {
			info = fmt.Sprintf("♻️ Задача «%s» выполнена. Следующий повтор %s.",
				escape(normalizeTitle(completed.Title)), rule.NextOccurrence.Format(recurrence.DateLayout))
		}
	}
	return send(chatID, info)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}

	b.log.Info("task deleted", "task_id", task.ID, "user_id", user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("\U0001F5D1 Задача \"%s\" удалена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}
