package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

type testEnv struct {
	ctx       context.Context
	store     *repository.Store
	recurring *Recurring
	tasks     *TaskService
	user      *model.User
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	env := &testEnv{
		ctx:   context.Background(),
		store: repository.NewStore(db),
		now:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	env.recurring = NewRecurring(env.store, log, func() time.Time { return env.now })
	env.tasks = NewTaskService(env.store, env.recurring.Materializer(), log)
	env.user = env.newUser(t, 1)
	return env
}

func (e *testEnv) newUser(t *testing.T, telegramID int64) *model.User {
	t.Helper()
	user, err := e.store.Users.Touch(e.ctx, repository.Profile{TelegramID: telegramID, FirstName: "Test"}, e.now)
	require.NoError(t, err)
	return user
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := recurrence.ParseDate(s)
	require.NoError(t, err)
	return d
}

func dayPtr(t *testing.T, s string) *time.Time {
	d := day(t, s)
	return &d
}

func (e *testEnv) createTask(t *testing.T, input TaskInput) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(e.ctx, e.user, input)
	require.NoError(t, err)
	return task
}

// repeatingRule creates a rule whose seed task was scheduled on start and is
// already completed, so the rule has no live occurrence and points at
// next(rule, start).
func (e *testEnv) repeatingRule(t *testing.T, title, rrule, start string) *model.RepeatingRule {
	t.Helper()
	task := e.createTask(t, TaskInput{Title: title, ScheduledDate: dayPtr(t, start)})
	_, err := e.tasks.CompleteTask(e.ctx, e.user, task.ID, day(t, start))
	require.NoError(t, err)
	ruleID, err := e.recurring.CreateRuleFromTask(e.ctx, e.user.ID, task.ID, rrule, day(t, start))
	require.NoError(t, err)
	return e.rule(t, ruleID)
}

func (e *testEnv) rule(t *testing.T, id uint) *model.RepeatingRule {
	t.Helper()
	rule, err := e.store.Rules.FindByIDWithDeleted(e.ctx, e.user.ID, id)
	require.NoError(t, err)
	return rule
}

func (e *testEnv) task(t *testing.T, id uint) *model.Task {
	t.Helper()
	task, err := e.store.Tasks.FindByID(e.ctx, e.user.ID, id)
	require.NoError(t, err)
	return task
}

func assertDate(t *testing.T, want string, got time.Time) {
	t.Helper()
	require.Equal(t, want, got.Format(recurrence.DateLayout))
}
