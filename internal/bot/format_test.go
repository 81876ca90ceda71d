package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recurring-planner/internal/model"
	"recurring-planner/internal/service"
)

func TestFormatTaskIcons(t *testing.T) {
	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	ruleID := uint(3)

	overdue := formatTask(model.Task{ID: 1, Title: "pay <bill>", ScheduledDate: &yesterday}, today)
	assert.Contains(t, overdue, iconOverdue)
	assert.Contains(t, overdue, "Pay &lt;bill&gt;")
	assert.Contains(t, overdue, "просрочено")

	due := formatTask(model.Task{ID: 2, Title: "call", ScheduledDate: &today}, today)
	assert.Contains(t, due, iconDue)
	assert.NotContains(t, due, "просрочено")

	repeating := formatTask(model.Task{
		ID: 4, Title: "gym", ScheduledDate: &today, RepeatingRuleID: &ruleID,
		Tags: []model.Tag{{Name: "health"}},
	}, today)
	assert.Contains(t, repeating, iconRecurring)
	assert.Contains(t, repeating, "#health")

	plain := formatTask(model.Task{ID: 5, Title: "someday", Notes: "maybe"}, today)
	assert.Contains(t, plain, iconDefault)
	assert.Contains(t, plain, "📝 maybe")
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, errorText(fmt.Errorf("find: %w", service.ErrNotFound)), "Не найдено")
	assert.Contains(t, errorText(fmt.Errorf("parse: %w", service.ErrInvalidRule)), "weekly 2 mon,fri")
	assert.Contains(t, errorText(service.ErrTaskAlreadyRepeating), "/ruleedit")
	assert.Equal(t, "Ошибка: a &amp; b", errorText(errors.New("a & b")))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Short", shortTitle("short", 10))
	assert.Equal(t, "Abcd…", shortTitle("abcdefgh", 5))
	assert.Equal(t, "Два слова", shortTitle("два\nслова", 20))
}

func TestNormalizedArea(t *testing.T) {
	names := map[uint]string{1: "Работа", 2: "  "}
	one, two, missing := uint(1), uint(2), uint(9)

	key, label := normalizedArea(&one, names)
	assert.Equal(t, "работа", key)
	assert.Equal(t, "💼 Работа", label)

	for _, id := range []*uint{nil, &two, &missing} {
		key, _ := normalizedArea(id, names)
		assert.Equal(t, noAreaKey, key)
	}
}

func TestInputMatchers(t *testing.T) {
	assert.True(t, isSkipInput(btnSkip))
	assert.True(t, isSkipInput(" - "))
	assert.True(t, isConfirmInput("Да"))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.False(t, isSkipInput("weekly"))
}
