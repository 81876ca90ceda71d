package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// TagRepository manages per-user tags.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreateMany resolves tag names, creating the missing ones.
func (r *TagRepository) GetOrCreateMany(ctx context.Context, userID uint, names []string) ([]model.Tag, error) {
	db := r.db.WithContext(ctx)
	seen := make(map[string]bool, len(names))
	tags := make([]model.Tag, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag model.Tag
		err := db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			tag = model.Tag{UserID: userID, Name: name}
			if err := db.Create(&tag).Error; err != nil {
				return nil, fmt.Errorf("create tag: %w", err)
			}
		default:
			return nil, fmt.Errorf("find tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// FindByIDs loads the user's tags with the given ids; unknown ids are skipped.
func (r *TagRepository) FindByIDs(ctx context.Context, userID uint, ids []uint) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).
		Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	return tags, nil
}
