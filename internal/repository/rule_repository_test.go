package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
)

func createRule(t *testing.T, s *Store, userID uint, next string) *model.RepeatingRule {
	t.Helper()
	rule := &model.RepeatingRule{
		UserID:         userID,
		Definition:     datatypes.NewJSONType(recurrence.Rule{Frequency: recurrence.Daily, Interval: 1}),
		StartDate:      day(t, "2024-01-01"),
		NextOccurrence: day(t, next),
		Template:       model.Template{Title: "Water plants", TagIDs: []uint{2, 5}},
		Active:         true,
	}
	require.NoError(t, s.Rules.Create(testCtx(t), rule))
	return rule
}

func TestRuleRepository_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, 1)
	rule := createRule(t, s, user.ID, "2024-01-05")

	got, err := s.Rules.FindByID(testCtx(t), user.ID, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, recurrence.Rule{Frequency: recurrence.Daily, Interval: 1}, got.Rule())
	assert.True(t, got.NextOccurrence.Equal(day(t, "2024-01-05")))
	assert.Equal(t, "Water plants", got.Template.Title)
	assert.Equal(t, []uint{2, 5}, []uint(got.Template.TagIDs))
	assert.True(t, got.Active)
}

func TestRuleRepository_FindScopedByOwner(t *testing.T) {
	s := newTestStore(t)
	owner := createUser(t, s, 1)
	other := createUser(t, s, 2)
	rule := createRule(t, s, owner.ID, "2024-01-05")

	_, err := s.Rules.FindByID(testCtx(t), other.ID, rule.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleRepository_ListDue(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, 1)
	other := createUser(t, s, 2)

	due := createRule(t, s, user.ID, "2024-01-05")
	dueToday := createRule(t, s, user.ID, "2024-01-10")
	createRule(t, s, user.ID, "2024-01-11")
	deleted := createRule(t, s, user.ID, "2024-01-01")
	require.NoError(t, s.Rules.SoftDelete(testCtx(t), deleted, day(t, "2024-01-02")))
	createRule(t, s, other.ID, "2024-01-01")

	rules, err := s.Rules.ListDue(testCtx(t), user.ID, day(t, "2024-01-10"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, due.ID, rules[0].ID)
	assert.Equal(t, dueToday.ID, rules[1].ID)
}

func TestRuleRepository_SoftDelete(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, 1)
	rule := createRule(t, s, user.ID, "2024-01-05")

	require.NoError(t, s.Rules.SoftDelete(testCtx(t), rule, day(t, "2024-02-01")))

	_, err := s.Rules.FindByID(testCtx(t), user.ID, rule.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Rules.FindByIDWithDeleted(testCtx(t), user.ID, rule.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.DeletedAt.Valid)

	visible, err := s.Rules.ListByUser(testCtx(t), user.ID, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.Rules.ListByUser(testCtx(t), user.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = s.Rules.SoftDelete(testCtx(t), rule, day(t, "2024-02-02"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleRepository_AdvanceNextOccurrence(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, 1)
	rule := createRule(t, s, user.ID, "2024-01-05")
	stale := *rule

	ok, err := s.Rules.AdvanceNextOccurrence(testCtx(t), rule, day(t, "2024-01-05"), day(t, "2024-01-06"))
	require.NoError(t, err)
	assert.True(t, ok)

	// The stale snapshot still expects 01-05 and must lose.
	ok, err = s.Rules.AdvanceNextOccurrence(testCtx(t), &stale, day(t, "2024-01-05"), day(t, "2024-01-06"))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Rules.FindByID(testCtx(t), user.ID, rule.ID)
	require.NoError(t, err)
	assert.True(t, got.NextOccurrence.Equal(day(t, "2024-01-06")))
}

func TestTaskRepository_LiveOccurrence(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, 1)
	rule := createRule(t, s, user.ID, "2024-01-05")

	tags, err := s.Tags.GetOrCreateMany(testCtx(t), user.ID, []string{"Home", "home", " chores "})
	require.NoError(t, err)
	require.Len(t, tags, 2)

	ruleID := rule.ID
	task := &model.Task{UserID: user.ID, Title: "Water plants", Status: model.StatusScheduled, RepeatingRuleID: &ruleID, Tags: tags}
	require.NoError(t, s.Tasks.Create(testCtx(t), task))

	live, err := s.Tasks.HasLiveOccurrence(testCtx(t), rule.ID)
	require.NoError(t, err)
	assert.True(t, live)

	got, err := s.Tasks.FindByID(testCtx(t), user.ID, task.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)

	require.NoError(t, s.Tasks.MarkCompleted(testCtx(t), got, day(t, "2024-01-05")))
	live, err = s.Tasks.HasLiveOccurrence(testCtx(t), rule.ID)
	require.NoError(t, err)
	assert.False(t, live)

	require.NoError(t, s.Tasks.ClearRuleLink(testCtx(t), got))
	linked, err := s.Tasks.ListByRule(testCtx(t), rule.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)
}
