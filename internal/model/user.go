package model

import "time"

// User is a planner owner identified by a Telegram account. Rules, tasks,
// areas and tags all carry the owning user's ID.
type User struct {
	ID           uint  `gorm:"primaryKey"`
	TelegramID   int64 `gorm:"uniqueIndex"`
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	LastSeenAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the best human label available for u.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "user"
	}
}
