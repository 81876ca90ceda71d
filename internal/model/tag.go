package model

import "time"

// Tag is a free-form label; tasks and rule templates reference tags by id.
type Tag struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_user_tag_name"`
	Name      string `gorm:"uniqueIndex:idx_user_tag_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
