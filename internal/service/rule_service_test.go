package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
)

func TestCreateRuleFromScheduledTask(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{
		Title:         "Water plants",
		Notes:         "balcony too",
		Area:          "Home",
		Tags:          []string{"chores", "Garden"},
		ScheduledDate: dayPtr(t, "2024-01-01"),
	})

	ruleID, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "weekly 1 mon", day(t, "2024-01-01"))
	require.NoError(t, err)

	rule := env.rule(t, ruleID)
	assertDate(t, "2024-01-01", rule.StartDate)
	assertDate(t, "2024-01-08", rule.NextOccurrence)
	assert.True(t, rule.Active)
	assert.Equal(t, recurrence.Weekly, rule.Rule().Frequency)
	assert.Equal(t, "Water plants", rule.Template.Title)
	assert.Equal(t, "balcony too", rule.Template.Notes)
	assert.Equal(t, task.AreaID, rule.Template.AreaID)
	assert.Equal(t, task.TagIDs(), []uint(rule.Template.TagIDs))

	linked := env.task(t, task.ID)
	require.NotNil(t, linked.RepeatingRuleID)
	assert.Equal(t, ruleID, *linked.RepeatingRuleID)
}

func TestCreateRuleFromUnscheduledTask(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Inbox item"})

	ruleID, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", day(t, "2024-02-10"))
	require.NoError(t, err)

	assertDate(t, "2024-02-10", env.rule(t, ruleID).NextOccurrence)
}

func TestCreateRuleDefaultsStartToToday(t *testing.T) {
	env := newTestEnv(t)
	env.now = time.Date(2024, 5, 5, 18, 30, 0, 0, time.UTC)
	task := env.createTask(t, TaskInput{Title: "Stretch"})

	ruleID, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", time.Time{})
	require.NoError(t, err)

	rule := env.rule(t, ruleID)
	assertDate(t, "2024-05-05", rule.StartDate)
	assertDate(t, "2024-05-05", rule.NextOccurrence)
}

func TestCreateRuleFromCompletedTaskLeavesItUnlinked(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Report", "monthly", "2024-01-15")

	assertDate(t, "2024-02-15", rule.NextOccurrence)
	tasks, err := env.store.Tasks.ListByRule(env.ctx, rule.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateRuleErrors(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Gym", ScheduledDate: dayPtr(t, "2024-01-01")})

	t.Run("invalid rule", func(t *testing.T) {
		_, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, `{"frequency":"hourly","interval":1}`, day(t, "2024-01-01"))
		assert.ErrorIs(t, err, ErrInvalidRule)

		_, err = env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily 0", day(t, "2024-01-01"))
		assert.ErrorIs(t, err, ErrInvalidRule)

		rules, err := env.store.Rules.ListByUser(env.ctx, env.user.ID, true)
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run("foreign task", func(t *testing.T) {
		other := env.newUser(t, 2)
		_, err := env.recurring.CreateRuleFromTask(env.ctx, other.ID, task.ID, "daily", day(t, "2024-01-01"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("already repeating", func(t *testing.T) {
		_, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", day(t, "2024-01-01"))
		require.NoError(t, err)

		_, err = env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "weekly", day(t, "2024-01-01"))
		assert.ErrorIs(t, err, ErrTaskAlreadyRepeating)
	})
}

func TestCreateRuleAfterRemovingPreviousRule(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Gym", ScheduledDate: dayPtr(t, "2024-01-01")})
	first, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", day(t, "2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, env.recurring.RemoveRule(env.ctx, env.user.ID, first))

	second, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "weekly", day(t, "2024-01-01"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestUpdateRuleDefinitionRecomputesFromToday(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Standup", "daily", "2024-01-01")
	env.now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // Wednesday

	updated, err := env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "weekly 1 fri")
	require.NoError(t, err)
	assertDate(t, "2024-01-12", updated.NextOccurrence)

	stored := env.rule(t, rule.ID)
	assert.Equal(t, []time.Weekday{time.Friday}, stored.Rule().Weekdays)
	assertDate(t, "2024-01-12", stored.NextOccurrence)
	assertDate(t, "2024-01-01", stored.StartDate)
}

func TestUpdateRuleDefinitionStartsAfterToday(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Standup", "weekly 1 mon", "2024-01-01")
	env.now = day(t, "2024-01-10")

	updated, err := env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "daily")
	require.NoError(t, err)
	assertDate(t, "2024-01-11", updated.NextOccurrence)
}

func TestUpdateRuleDefinitionDoesNotRespawnToday(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Standup", "daily", "2024-01-01")
	env.now = time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC) // Wednesday

	ids, err := env.recurring.MaterializeDue(env.ctx, env.user.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	_, err = env.tasks.CompleteTask(env.ctx, env.user, ids[0], env.now)
	require.NoError(t, err)

	updated, err := env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "weekly 1 wed")
	require.NoError(t, err)
	assertDate(t, "2024-01-17", updated.NextOccurrence)

	again, err := env.recurring.MaterializeDue(env.ctx, env.user.ID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestUpdateRuleDefinitionBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Taxes", "yearly", "2025-04-15")
	env.now = day(t, "2024-01-01")

	updated, err := env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "monthly")
	require.NoError(t, err)
	assertDate(t, "2025-05-15", updated.NextOccurrence)
}

func TestUpdateRuleTemplateKeepsPointer(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Old title", "daily", "2024-01-01")

	tmpl := rule.Template
	tmpl.Title = "New title"
	require.NoError(t, env.recurring.UpdateRule(env.ctx, env.user.ID, rule.ID, RuleChanges{Template: &tmpl}))

	stored := env.rule(t, rule.ID)
	assert.Equal(t, "New title", stored.Template.Title)
	assert.Equal(t, rule.NextOccurrence, stored.NextOccurrence)
}

func TestUpdateRuleErrors(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Standup", "daily", "2024-01-01")

	_, err := env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "weekly 0")
	assert.ErrorIs(t, err, ErrInvalidRule)

	other := env.newUser(t, 2)
	_, err = env.recurring.UpdateRuleDefinition(env.ctx, other.ID, rule.ID, "daily 2")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.recurring.RemoveRule(env.ctx, env.user.ID, rule.ID))
	_, err = env.recurring.UpdateRuleDefinition(env.ctx, env.user.ID, rule.ID, "daily 2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, env.rule(t, rule.ID).Rule().Interval)
}

func TestRemoveRuleKeepsSpawnedTasks(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Run", ScheduledDate: dayPtr(t, "2024-01-01")})
	ruleID, err := env.recurring.CreateRuleFromTask(env.ctx, env.user.ID, task.ID, "daily", day(t, "2024-01-01"))
	require.NoError(t, err)

	require.NoError(t, env.recurring.RemoveRule(env.ctx, env.user.ID, ruleID))

	_, err = env.recurring.GetRule(env.ctx, env.user.ID, ruleID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.recurring.RemoveRule(env.ctx, env.user.ID, ruleID), ErrNotFound)

	kept := env.task(t, task.ID)
	assert.Equal(t, "Run", kept.Title)
	assert.Equal(t, model.StatusScheduled, kept.Status)

	deleted := env.rule(t, ruleID)
	assert.False(t, deleted.Active)
	assert.True(t, deleted.DeletedAt.Valid)

	views, err := env.recurring.ListRules(env.ctx, env.user.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestRemoveRuleForeignOwner(t *testing.T) {
	env := newTestEnv(t)
	rule := env.repeatingRule(t, "Run", "daily", "2024-01-01")
	other := env.newUser(t, 2)

	assert.ErrorIs(t, env.recurring.RemoveRule(env.ctx, other.ID, rule.ID), ErrNotFound)
	assert.True(t, env.rule(t, rule.ID).Active)
}

func TestListRulesDescribes(t *testing.T) {
	env := newTestEnv(t)
	env.repeatingRule(t, "Run", "weekly 1 mon,wed,fri", "2024-01-01")
	env.repeatingRule(t, "Rent", "monthly 1 15", "2024-01-15")

	views, err := env.recurring.ListRules(env.ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	descriptions := []string{views[0].Description, views[1].Description}
	assert.ElementsMatch(t, []string{"Every week on Mon, Wed, Fri", "Every month on day 15"}, descriptions)
}

func TestDescribeRule(t *testing.T) {
	desc, err := DescribeRule(`{"frequency":"daily","interval":3}`)
	require.NoError(t, err)
	assert.Equal(t, "Every 3 days", desc)

	_, err = DescribeRule(`{"frequency":"daily"}`)
	assert.ErrorIs(t, err, ErrInvalidRule)
}
