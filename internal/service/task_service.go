package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title         string
	Notes         string
	Area          string
	Tags          []string
	ScheduledDate *time.Time
	Deadline      *time.Time
}

// TaskEdit is a partial edit of a task; nil fields are kept.
type TaskEdit struct {
	Title         *string
	Notes         *string
	ScheduledDate *time.Time
	Tags          []string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store        *repository.Store
	materializer *Materializer
	log          *slog.Logger
}

func NewTaskService(store *repository.Store, materializer *Materializer, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{store: store, materializer: materializer, log: log}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var task *model.Task
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var areaID *uint
		if input.Area != "" {
			area, err := tx.Areas.GetOrCreate(ctx, user.ID, input.Area)
			if err != nil {
				return err
			}
			if area != nil {
				areaID = &area.ID
			}
		}
		tags, err := tx.Tags.GetOrCreateMany(ctx, user.ID, input.Tags)
		if err != nil {
			return err
		}

		task = &model.Task{
			UserID:        user.ID,
			AreaID:        areaID,
			Title:         title,
			Notes:         input.Notes,
			Status:        model.StatusTodo,
			ScheduledDate: input.ScheduledDate,
			Deadline:      input.Deadline,
			Tags:          tags,
		}
		if task.ScheduledDate != nil {
			task.Status = model.StatusScheduled
		}
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ListOpen(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.store.Tasks.ListOpen(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.store.Tasks.FindByID(ctx, user.ID, taskID)
}

// EditTask changes a task in place. Editing a live occurrence does not touch
// its rule until the occurrence is completed.
func (s *TaskService) EditTask(ctx context.Context, user *model.User, taskID uint, edit TaskEdit) (*model.Task, error) {
	var task *model.Task
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		if task, err = tx.Tasks.FindByID(ctx, user.ID, taskID); err != nil {
			return err
		}
		if edit.Title != nil {
			title := strings.TrimSpace(*edit.Title)
			if title == "" {
				return fmt.Errorf("title is required")
			}
			task.Title = title
		}
		if edit.Notes != nil {
			task.Notes = *edit.Notes
		}
		if edit.ScheduledDate != nil && !task.IsCompleted() {
			scheduled := *edit.ScheduledDate
			task.ScheduledDate = &scheduled
			task.Status = model.StatusScheduled
		}
		if err := tx.Tasks.UpdateFields(ctx, task); err != nil {
			return err
		}
		if edit.Tags != nil {
			tags, err := tx.Tags.GetOrCreateMany(ctx, user.ID, edit.Tags)
			if err != nil {
				return err
			}
			if err := tx.Tasks.ReplaceTags(ctx, task, tags); err != nil {
				return err
			}
			task.Tags = tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marks a task as done. A linked occurrence also advances its
// rule in the same transaction.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (*model.Task, error) {
	var task *model.Task
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		if task, err = tx.Tasks.FindByID(ctx, user.ID, taskID); err != nil {
			return err
		}
		if task.IsCompleted() {
			return nil
		}
		if err := tx.Tasks.MarkCompleted(ctx, task, completedAt); err != nil {
			return err
		}
		return s.materializer.advance(ctx, tx, task, completedAt)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task completely. Deleting a live occurrence releases
// its rule, which spawns again at its next occurrence.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, user.ID, taskID)
		if err != nil {
			return err
		}
		if task.RepeatingRuleID != nil && !task.IsCompleted() {
			rule, err := tx.Rules.FindByIDWithDeleted(ctx, user.ID, *task.RepeatingRuleID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			// An occurrence of a deleted rule is plain data; only an active
			// rule is released.
			if rule != nil && stateOf(rule, true) != StateDeleted {
				if _, err := Transition(stateOf(rule, true), EventRelease); err != nil {
					return err
				}
				s.log.Info("live occurrence released", "rule_id", rule.ID, "task_id", task.ID)
			}
		}
		return tx.Tasks.Delete(ctx, task)
	})
}
