package model

import (
	"sort"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo      TaskStatus = "todo"
	StatusScheduled TaskStatus = "scheduled"
	StatusCompleted TaskStatus = "completed"
)

// Task represents a single item in the planner. RepeatingRuleID is set while
// the task is the live occurrence of a repeating rule.
type Task struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          uint  `gorm:"index"`
	AreaID          *uint `gorm:"index"`
	ProjectID       *uint `gorm:"index"`
	HeadingID       *uint
	Title           string
	Notes           string
	Status          TaskStatus `gorm:"index"`
	ScheduledDate   *time.Time `gorm:"index"`
	Deadline        *time.Time
	CompletedAt     *time.Time
	RepeatingRuleID *uint `gorm:"index"`
	Tags            []Tag `gorm:"many2many:task_tags"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// TagIDs returns the ids of the task's tags in ascending order.
func (t *Task) TagIDs() []uint {
	if len(t.Tags) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
