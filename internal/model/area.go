package model

import "time"

// Area groups tasks by sphere of life (work, health, study, etc.).
type Area struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_user_area_name"`
	Name      string `gorm:"uniqueIndex:idx_user_area_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:AreaID"`
}
