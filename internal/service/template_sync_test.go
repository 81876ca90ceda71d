package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncFromTask(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Read", Tags: []string{"books"}, ScheduledDate: dayPtr(t, "2024-01-01")})
	ruleID, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", day(t, "2024-01-01"))
	require.NoError(t, err)
	before := env.rule(t, ruleID)

	changed, err := env.recurring.TemplateSync().SyncFromTask(env.ctx, env.user.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	notes := "30 pages"
	_, err = env.tasks.EditTask(env.ctx, env.user, task.ID, TaskEdit{Notes: &notes, Tags: []string{"books", "evening"}})
	require.NoError(t, err)

	changed, err = env.recurring.TemplateSync().SyncFromTask(env.ctx, env.user.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = env.recurring.TemplateSync().SyncFromTask(env.ctx, env.user.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	after := env.rule(t, ruleID)
	assert.Equal(t, "Read", after.Template.Title)
	assert.Equal(t, "30 pages", after.Template.Notes)
	assert.Len(t, after.Template.TagIDs, 2)
	assert.Equal(t, before.NextOccurrence, after.NextOccurrence)
	assert.Equal(t, before.Rule(), after.Rule())
}

func TestSyncFromTaskErrors(t *testing.T) {
	env := newTestEnv(t)
	plain := env.createTask(t, TaskInput{Title: "One-off"})

	_, err := env.recurring.TemplateSync().SyncFromTask(env.ctx, env.user.ID, plain.ID)
	assert.ErrorIs(t, err, ErrNotRepeating)

	_, err = env.recurring.TemplateSync().SyncFromTask(env.ctx, env.user.ID, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
