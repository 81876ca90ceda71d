package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, TaskInput{Title: "Overdue <bill>", ScheduledDate: dayPtr(t, "2024-01-09")})
	env.createTask(t, TaskInput{Title: "Today", Area: "Work", ScheduledDate: dayPtr(t, "2024-01-10")})
	env.createTask(t, TaskInput{Title: "Later", ScheduledDate: dayPtr(t, "2024-02-01")})
	env.createTask(t, TaskInput{Title: "Inbox", Notes: "no date"})
	env.repeatingRule(t, "Stretch", "daily 2", "2024-01-01")

	reminders := NewReminderService(env.store, env.recurring)
	summary, err := reminders.DailySummary(env.ctx, *env.user, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, summary, "10.01.2024")
	assert.Contains(t, summary, "Overdue &lt;bill&gt;")
	assert.Contains(t, summary, "просрочено")
	assert.Contains(t, summary, "Today <i>(Work)</i>")
	assert.Contains(t, summary, "Inbox")
	assert.Contains(t, summary, "Every 2 days")
	assert.Contains(t, summary, "Stretch")
	assert.NotContains(t, summary, "Later")
}

func TestDailySummaryEmpty(t *testing.T) {
	env := newTestEnv(t)
	reminders := NewReminderService(env.store, env.recurring)

	summary, err := reminders.DailySummary(env.ctx, *env.user, env.now)
	require.NoError(t, err)
	assert.Contains(t, summary, "на сегодня ничего не запланировано")
	assert.Contains(t, summary, "нет повторяющихся задач")
}
