package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// RuleRepository persists repeating rules. Soft-deleted rules are hidden
// unless a method says otherwise.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.RepeatingRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) FindByID(ctx context.Context, userID, ruleID uint) (*model.RepeatingRule, error) {
	return r.find(r.db.WithContext(ctx), userID, ruleID)
}

// FindByIDWithDeleted also returns soft-deleted rules.
func (r *RuleRepository) FindByIDWithDeleted(ctx context.Context, userID, ruleID uint) (*model.RepeatingRule, error) {
	return r.find(r.db.WithContext(ctx).Unscoped(), userID, ruleID)
}

func (r *RuleRepository) find(db *gorm.DB, userID, ruleID uint) (*model.RepeatingRule, error) {
	var rule model.RepeatingRule
	if err := db.Where("user_id = ? AND id = ?", userID, ruleID).First(&rule).Error; err != nil {
		return nil, fmt.Errorf("find rule %d: %w", ruleID, notFound(err))
	}
	return &rule, nil
}

func (r *RuleRepository) ListByUser(ctx context.Context, userID uint, includeDeleted bool) ([]model.RepeatingRule, error) {
	db := r.db.WithContext(ctx)
	if includeDeleted {
		db = db.Unscoped()
	}
	var rules []model.RepeatingRule
	if err := db.Where("user_id = ?", userID).Order("next_occurrence, id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// ListDue returns active rules whose next occurrence is on or before day.
func (r *RuleRepository) ListDue(ctx context.Context, userID uint, day time.Time) ([]model.RepeatingRule, error) {
	var rules []model.RepeatingRule
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ? AND next_occurrence <= ?", userID, true, day).
		Order("next_occurrence, id").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list due rules: %w", err)
	}
	return rules, nil
}

// Save writes definition, dates and template of rule.
func (r *RuleRepository) Save(ctx context.Context, rule *model.RepeatingRule) error {
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

// UpdateTemplate writes only the template columns.
func (r *RuleRepository) UpdateTemplate(ctx context.Context, rule *model.RepeatingRule) error {
	t := rule.Template
	updates := map[string]interface{}{
		"template_title":      t.Title,
		"template_notes":      t.Notes,
		"template_project_id": t.ProjectID,
		"template_area_id":    t.AreaID,
		"template_heading_id": t.HeadingID,
		"template_tag_ids":    t.TagIDs,
	}
	if err := r.db.WithContext(ctx).Model(rule).Updates(updates).Error; err != nil {
		return fmt.Errorf("update rule template: %w", err)
	}
	return nil
}

// SetNextOccurrence moves the rule pointer unconditionally.
func (r *RuleRepository) SetNextOccurrence(ctx context.Context, rule *model.RepeatingRule, next time.Time) error {
	if err := r.db.WithContext(ctx).Model(rule).Update("next_occurrence", next).Error; err != nil {
		return fmt.Errorf("set next occurrence: %w", err)
	}
	rule.NextOccurrence = next
	return nil
}

// AdvanceNextOccurrence moves the pointer from expected to next only if the
// rule is still active and still points at expected. It reports whether the
// row was updated; false means a concurrent writer got there first.
func (r *RuleRepository) AdvanceNextOccurrence(ctx context.Context, rule *model.RepeatingRule, expected, next time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RepeatingRule{}).
		Where("id = ? AND user_id = ? AND active = ? AND next_occurrence = ?", rule.ID, rule.UserID, true, expected).
		Updates(map[string]interface{}{
			"next_occurrence": next,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("advance next occurrence: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	rule.NextOccurrence = next
	return true, nil
}

// SoftDelete deactivates rule and stamps deleted_at. Linked tasks are untouched.
func (r *RuleRepository) SoftDelete(ctx context.Context, rule *model.RepeatingRule, at time.Time) error {
	res := r.db.WithContext(ctx).Model(rule).Updates(map[string]interface{}{
		"active":     false,
		"deleted_at": at,
	})
	if res.Error != nil {
		return fmt.Errorf("delete rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete rule %d: %w", rule.ID, ErrNotFound)
	}
	rule.Active = false
	rule.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	return nil
}
