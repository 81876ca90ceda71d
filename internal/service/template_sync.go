package service

import (
	"context"
	"fmt"

	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

// TemplateSync copies a live occurrence's fields back onto its rule template,
// so later spawns carry the user's latest edits.
type TemplateSync struct {
	store *repository.Store
}

func NewTemplateSync(store *repository.Store) *TemplateSync {
	return &TemplateSync{store: store}
}

// SyncFromTask absorbs the task's title, notes, project, area, heading and
// tags into its rule. It reports whether the template changed.
func (s *TemplateSync) SyncFromTask(ctx context.Context, ownerID, taskID uint) (bool, error) {
	var changed bool
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		if task.RepeatingRuleID == nil {
			return fmt.Errorf("task %d: %w", task.ID, ErrNotRepeating)
		}
		rule, err := tx.Rules.FindByID(ctx, ownerID, *task.RepeatingRuleID)
		if err != nil {
			return err
		}
		changed, err = syncTemplate(ctx, tx, task, rule)
		return err
	})
	return changed, err
}

// syncTemplate never touches the rule's definition or next occurrence.
func syncTemplate(ctx context.Context, tx *repository.Store, task *model.Task, rule *model.RepeatingRule) (bool, error) {
	tmpl := model.TemplateFromTask(task)
	if tmpl.Equal(rule.Template) {
		return false, nil
	}
	rule.Template = tmpl
	if err := tx.Rules.UpdateTemplate(ctx, rule); err != nil {
		return false, err
	}
	return true, nil
}
