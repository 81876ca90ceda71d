package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// Materializer spawns task occurrences for due rules and advances rule
// pointers. Each spawn runs in its own transaction that re-checks the rule,
// so an occurrence is created at most once across concurrent passes.
type Materializer struct {
	store *repository.Store
	log   *slog.Logger
}

func NewMaterializer(store *repository.Store, log *slog.Logger) *Materializer {
	if log == nil {
		log = slog.Default()
	}
	return &Materializer{store: store, log: log}
}

// SpawnDue runs one materialization pass for ownerID as of referenceDate and
// returns the ids of the tasks it created. A rule that fell several periods
// behind spawns only its latest due occurrence.
func (m *Materializer) SpawnDue(ctx context.Context, ownerID uint, referenceDate time.Time) ([]uint, error) {
	ref := recurrence.Day(referenceDate)
	log := m.log.With("pass", uuid.NewString(), "user_id", ownerID, "date", ref.Format(recurrence.DateLayout))

	rules, err := m.store.Rules.ListDue(ctx, ownerID, ref)
	if err != nil {
		return nil, err
	}

	var spawned []uint
	for i := range rules {
		rule := &rules[i]
		taskID, err := m.spawnOne(ctx, rule, ref)
		switch {
		case errors.Is(err, errAlreadySpawned), errors.Is(err, errOccurrenceOpen):
			log.Debug("skip rule", "rule_id", rule.ID, "reason", err.Error())
			continue
		case err != nil:
			return spawned, fmt.Errorf("spawn rule %d: %w", rule.ID, err)
		}
		log.Info("spawned occurrence", "rule_id", rule.ID, "task_id", taskID)
		spawned = append(spawned, taskID)
	}

	log.Debug("materialization pass done", "due", len(rules), "spawned", len(spawned))
	return spawned, nil
}

// spawnOne creates the task for observed's latest due occurrence and moves the
// pointer past ref, all in one transaction. observed is the snapshot read by
// the scan; if the stored rule no longer matches it, the spawn is skipped.
func (m *Materializer) spawnOne(ctx context.Context, observed *model.RepeatingRule, ref time.Time) (uint, error) {
	occurrence, next, err := catchUp(observed.Rule(), observed.StartDate, observed.NextOccurrence, ref)
	if err != nil {
		return 0, err
	}

	var taskID uint
	err = m.store.InTx(ctx, func(tx *repository.Store) error {
		rule, err := tx.Rules.FindByID(ctx, observed.UserID, observed.ID)
		if errors.Is(err, ErrNotFound) {
			return errAlreadySpawned
		}
		if err != nil {
			return err
		}
		if !rule.NextOccurrence.Equal(observed.NextOccurrence) {
			return errAlreadySpawned
		}
		live, err := tx.Tasks.HasLiveOccurrence(ctx, rule.ID)
		if err != nil {
			return err
		}
		state := stateOf(rule, live)
		if state == StateSpawned {
			return errOccurrenceOpen
		}
		if _, err := Transition(state, EventSpawn); err != nil {
			return errAlreadySpawned
		}

		tags, err := tx.Tags.FindByIDs(ctx, rule.UserID, rule.Template.TagIDs)
		if err != nil {
			return err
		}
		task := newOccurrence(rule, occurrence, tags)
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return err
		}

		ok, err := tx.Rules.AdvanceNextOccurrence(ctx, rule, observed.NextOccurrence, next)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadySpawned
		}
		taskID = task.ID
		return nil
	})
	return taskID, err
}

// catchUp walks from the stored pointer to the latest occurrence on or before
// ref and returns it together with the first occurrence after ref.
func catchUp(def recurrence.Rule, start, pointer, ref time.Time) (time.Time, time.Time, error) {
	occurrence := pointer
	for {
		next, err := recurrence.Next(def, start, occurrence)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if next.After(ref) {
			return occurrence, next, nil
		}
		occurrence = next
	}
}

func newOccurrence(rule *model.RepeatingRule, date time.Time, tags []model.Tag) *model.Task {
	ruleID := rule.ID
	scheduled := date
	return &model.Task{
		UserID:          rule.UserID,
		AreaID:          model.CloneID(rule.Template.AreaID),
		ProjectID:       model.CloneID(rule.Template.ProjectID),
		HeadingID:       model.CloneID(rule.Template.HeadingID),
		Title:           rule.Template.Title,
		Notes:           rule.Template.Notes,
		Status:          model.StatusScheduled,
		ScheduledDate:   &scheduled,
		RepeatingRuleID: &ruleID,
		Tags:            tags,
	}
}

// AdvanceOnCompletion handles a linked task that was just completed: its
// fields are synced into the template, the rule's next occurrence restarts
// from the completion date, and the task's rule link is cleared.
func (m *Materializer) AdvanceOnCompletion(ctx context.Context, ownerID, taskID uint, completedAt time.Time) error {
	return m.store.InTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		return m.advance(ctx, tx, task, completedAt)
	})
}

// advance must run inside tx.
func (m *Materializer) advance(ctx context.Context, tx *repository.Store, task *model.Task, completedAt time.Time) error {
	if task.RepeatingRuleID == nil {
		return nil
	}
	rule, err := tx.Rules.FindByIDWithDeleted(ctx, task.UserID, *task.RepeatingRuleID)
	if errors.Is(err, ErrNotFound) {
		return tx.Tasks.ClearRuleLink(ctx, task)
	}
	if err != nil {
		return err
	}

	// The completing task is the live occurrence.
	if _, err := Transition(stateOf(rule, true), EventComplete); err != nil {
		m.log.Debug("completed occurrence of inactive rule", "rule_id", rule.ID, "task_id", task.ID)
		return tx.Tasks.ClearRuleLink(ctx, task)
	}

	if _, err := syncTemplate(ctx, tx, task, rule); err != nil {
		return err
	}

	anchor := recurrence.Day(completedAt)
	if task.ScheduledDate != nil {
		// Completing early must not respawn the same scheduled date: no two
		// occurrences of a rule may share a scheduled date.
		if scheduled := recurrence.Day(*task.ScheduledDate); scheduled.After(anchor) {
			anchor = scheduled
		}
	}
	next, err := recurrence.Next(rule.Rule(), rule.StartDate, anchor)
	if err != nil {
		return err
	}
	if err := tx.Rules.SetNextOccurrence(ctx, rule, next); err != nil {
		return err
	}
	m.log.Info("rule advanced on completion", "rule_id", rule.ID, "task_id", task.ID,
		"next", next.Format(recurrence.DateLayout))

	return tx.Tasks.ClearRuleLink(ctx, task)
}
