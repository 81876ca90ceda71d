package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts task; tags already present on task.Tags are linked.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("Tags").
		Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, fmt.Errorf("find task %d: %w", taskID, notFound(err))
	}
	return &task, nil
}

// ListOpen returns tasks that are not completed, scheduled ones first.
func (r *TaskRepository) ListOpen(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Tags").
		Where("user_id = ? AND status <> ?", userID, model.StatusCompleted).
		Order("scheduled_date NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListByRule returns every task still linked to ruleID.
func (r *TaskRepository) ListByRule(ctx context.Context, ruleID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("repeating_rule_id = ?", ruleID).
		Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks of rule %d: %w", ruleID, err)
	}
	return tasks, nil
}

// HasLiveOccurrence reports whether a non-completed task still links to ruleID.
func (r *TaskRepository) HasLiveOccurrence(ctx context.Context, ruleID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("repeating_rule_id = ? AND status <> ?", ruleID, model.StatusCompleted).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count live occurrences: %w", err)
	}
	return count > 0, nil
}

// UpdateFields writes the user-editable columns of task.
func (r *TaskRepository) UpdateFields(ctx context.Context, task *model.Task) error {
	updates := map[string]interface{}{
		"title":          task.Title,
		"notes":          task.Notes,
		"area_id":        task.AreaID,
		"project_id":     task.ProjectID,
		"heading_id":     task.HeadingID,
		"scheduled_date": task.ScheduledDate,
		"deadline":       task.Deadline,
		"status":         task.Status,
	}
	if err := r.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) ReplaceTags(ctx context.Context, task *model.Task, tags []model.Tag) error {
	if err := r.db.WithContext(ctx).Model(task).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace task tags: %w", err)
	}
	return nil
}

func (r *TaskRepository) LinkToRule(ctx context.Context, task *model.Task, ruleID uint) error {
	if err := r.db.WithContext(ctx).Model(task).Update("repeating_rule_id", ruleID).Error; err != nil {
		return fmt.Errorf("link task to rule: %w", err)
	}
	task.RepeatingRuleID = &ruleID
	return nil
}

// ClearRuleLink detaches task from its repeating rule.
func (r *TaskRepository) ClearRuleLink(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Model(task).Update("repeating_rule_id", nil).Error; err != nil {
		return fmt.Errorf("clear rule link: %w", err)
	}
	task.RepeatingRuleID = nil
	return nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) error {
	updates := map[string]interface{}{
		"status":       model.StatusCompleted,
		"completed_at": completedAt,
	}
	if err := r.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	task.Status = model.StatusCompleted
	task.CompletedAt = &completedAt
	return nil
}

// Delete removes a task and its tag links.
func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Select("Tags").Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
