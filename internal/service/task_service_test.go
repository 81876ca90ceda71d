package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/model"
)

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)

	task := env.createTask(t, TaskInput{Title: "  Buy milk  ", Area: "Errands", Tags: []string{"shop", "Shop"}})
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.StatusTodo, task.Status)
	require.NotNil(t, task.AreaID)
	assert.Len(t, task.Tags, 1)

	scheduled := env.createTask(t, TaskInput{Title: "Dentist", ScheduledDate: dayPtr(t, "2024-02-01")})
	assert.Equal(t, model.StatusScheduled, scheduled.Status)

	_, err := env.tasks.CreateTask(env.ctx, env.user, TaskInput{Title: "   "})
	assert.Error(t, err)
}

func TestListOpenSkipsCompleted(t *testing.T) {
	env := newTestEnv(t)
	open := env.createTask(t, TaskInput{Title: "Open"})
	done := env.createTask(t, TaskInput{Title: "Done"})
	_, err := env.tasks.CompleteTask(env.ctx, env.user, done.ID, day(t, "2024-01-01"))
	require.NoError(t, err)

	tasks, err := env.tasks.ListOpen(env.ctx, env.user)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}

func TestCompleteTaskTwiceIsNoop(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Once"})

	first, err := env.tasks.CompleteTask(env.ctx, env.user, task.ID, day(t, "2024-01-01"))
	require.NoError(t, err)
	second, err := env.tasks.CompleteTask(env.ctx, env.user, task.ID, day(t, "2024-01-05"))
	require.NoError(t, err)

	require.NotNil(t, second.CompletedAt)
	assertDate(t, "2024-01-01", *second.CompletedAt)
	assert.Equal(t, first.ID, second.ID)
}

func TestEditTaskIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Private"})
	other := env.newUser(t, 2)

	title := "Hijacked"
	_, err := env.tasks.EditTask(env.ctx, other, task.ID, TaskEdit{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.tasks.DeleteTask(env.ctx, other, task.ID), ErrNotFound)
	assert.Equal(t, "Private", env.task(t, task.ID).Title)
}

func TestEditTaskReschedules(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Someday"})

	edited, err := env.tasks.EditTask(env.ctx, env.user, task.ID, TaskEdit{ScheduledDate: dayPtr(t, "2024-06-01")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, edited.Status)
	assertDate(t, "2024-06-01", *env.task(t, task.ID).ScheduledDate)

	empty := ""
	_, err = env.tasks.EditTask(env.ctx, env.user, task.ID, TaskEdit{Title: &empty})
	assert.Error(t, err)
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, TaskInput{Title: "Temp", Tags: []string{"x"}})

	require.NoError(t, env.tasks.DeleteTask(env.ctx, env.user, task.ID))
	_, err := env.tasks.GetTask(env.ctx, env.user, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
