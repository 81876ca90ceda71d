package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// UserRepository stores planner owners.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Profile is the account data a front end knows about a user.
type Profile struct {
	TelegramID   int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// Touch returns the owner for p.TelegramID, creating it on first contact.
// Profile fields and the last-seen stamp are refreshed on every call.
func (r *UserRepository) Touch(ctx context.Context, p Profile, seenAt time.Time) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where(model.User{TelegramID: p.TelegramID}).
		Assign(model.User{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Username:     p.Username,
			LanguageCode: p.LanguageCode,
			LastSeenAt:   &seenAt,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("touch user %d: %w", p.TelegramID, err)
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %d: %w", telegramID, notFound(err))
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListWithDueRules returns the ids of owners that have an active rule due on
// or before day. A pass over all owners only needs to visit these.
func (r *UserRepository) ListWithDueRules(ctx context.Context, day time.Time) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.RepeatingRule{}).
		Where("active = ? AND next_occurrence <= ?", true, day).
		Distinct().Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list owners with due rules: %w", err)
	}
	return ids, nil
}
