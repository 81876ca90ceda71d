package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// RuleChanges is a partial update of a repeating rule. Nil fields are kept.
type RuleChanges struct {
	Definition *recurrence.Rule
	Template   *model.Template
}

// RuleService owns the lifecycle of repeating rules.
type RuleService struct {
	store *repository.Store
}

func NewRuleService(store *repository.Store) *RuleService {
	return &RuleService{store: store}
}

// CreateFromTask turns an existing task into the first occurrence of a new
// rule. The task's fields become the template and, unless the task is already
// completed, the task is linked as the rule's live occurrence.
func (s *RuleService) CreateFromTask(ctx context.Context, ownerID, taskID uint, def recurrence.Rule, startDate time.Time) (*model.RepeatingRule, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	start := recurrence.Day(startDate)

	var rule *model.RepeatingRule
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		if task.RepeatingRuleID != nil {
			_, err := tx.Rules.FindByID(ctx, ownerID, *task.RepeatingRuleID)
			switch {
			case err == nil:
				return fmt.Errorf("task %d: %w", task.ID, ErrTaskAlreadyRepeating)
			case !errors.Is(err, ErrNotFound):
				return err
			}
		}

		next := start
		if task.ScheduledDate != nil {
			if next, err = recurrence.Next(def, start, start); err != nil {
				return err
			}
		}

		rule = &model.RepeatingRule{
			UserID:         ownerID,
			Definition:     datatypes.NewJSONType(def),
			StartDate:      start,
			NextOccurrence: next,
			Template:       model.TemplateFromTask(task),
			Active:         true,
		}
		if err := tx.Rules.Create(ctx, rule); err != nil {
			return err
		}
		if task.IsCompleted() {
			return nil
		}
		return tx.Tasks.LinkToRule(ctx, task, rule.ID)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// Update applies changes. A new definition recomputes the next occurrence as
// the first one strictly after max(today, start date), so a date that may
// already hold an occurrence is never scheduled again.
func (s *RuleService) Update(ctx context.Context, ownerID, ruleID uint, changes RuleChanges, today time.Time) (*model.RepeatingRule, error) {
	if changes.Definition != nil {
		if err := changes.Definition.Validate(); err != nil {
			return nil, err
		}
	}

	var rule *model.RepeatingRule
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		if rule, err = tx.Rules.FindByID(ctx, ownerID, ruleID); err != nil {
			return err
		}
		live, err := tx.Tasks.HasLiveOccurrence(ctx, rule.ID)
		if err != nil {
			return err
		}
		if _, err := Transition(stateOf(rule, live), EventEdit); err != nil {
			return err
		}

		if changes.Definition != nil {
			anchor := recurrence.Day(today)
			if anchor.Before(rule.StartDate) {
				anchor = rule.StartDate
			}
			next, err := recurrence.Next(*changes.Definition, rule.StartDate, anchor)
			if err != nil {
				return err
			}
			rule.Definition = datatypes.NewJSONType(*changes.Definition)
			rule.NextOccurrence = next
		}
		if changes.Template != nil {
			rule.Template = *changes.Template
		}
		return tx.Rules.Save(ctx, rule)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// Remove soft-deletes the rule. Tasks it already spawned are left alone.
func (s *RuleService) Remove(ctx context.Context, ownerID, ruleID uint, now time.Time) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		rule, err := tx.Rules.FindByID(ctx, ownerID, ruleID)
		if err != nil {
			return err
		}
		if _, err := Transition(stateOf(rule, false), EventDelete); err != nil {
			return err
		}
		return tx.Rules.SoftDelete(ctx, rule, now)
	})
}

func (s *RuleService) Get(ctx context.Context, ownerID, ruleID uint) (*model.RepeatingRule, error) {
	return s.store.Rules.FindByID(ctx, ownerID, ruleID)
}

func (s *RuleService) List(ctx context.Context, ownerID uint, includeDeleted bool) ([]model.RepeatingRule, error) {
	return s.store.Rules.ListByUser(ctx, ownerID, includeDeleted)
}
