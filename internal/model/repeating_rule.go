package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"recurring-planner/internal/recurrence"
)

// Template holds the task fields copied onto every spawned occurrence.
type Template struct {
	Title     string
	Notes     string
	ProjectID *uint
	AreaID    *uint
	HeadingID *uint
	TagIDs    datatypes.JSONSlice[uint]
}

// TemplateFromTask captures the editable fields of task.
func TemplateFromTask(task *Task) Template {
	return Template{
		Title:     task.Title,
		Notes:     task.Notes,
		ProjectID: CloneID(task.ProjectID),
		AreaID:    CloneID(task.AreaID),
		HeadingID: CloneID(task.HeadingID),
		TagIDs:    task.TagIDs(),
	}
}

// Equal reports whether both templates would spawn identical tasks.
func (t Template) Equal(o Template) bool {
	return t.Title == o.Title &&
		t.Notes == o.Notes &&
		sameID(t.ProjectID, o.ProjectID) &&
		sameID(t.AreaID, o.AreaID) &&
		sameID(t.HeadingID, o.HeadingID) &&
		slices.Equal(t.TagIDs, o.TagIDs)
}

// RepeatingRule turns a recurrence definition into scheduled task occurrences.
// Dates are calendar dates stored as UTC midnight.
type RepeatingRule struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index:idx_rule_due,priority:1"`
	Definition     datatypes.JSONType[recurrence.Rule]
	StartDate      time.Time
	NextOccurrence time.Time      `gorm:"index:idx_rule_due,priority:3"`
	Template       Template       `gorm:"embedded;embeddedPrefix:template_"`
	Active         bool           `gorm:"index:idx_rule_due,priority:2"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Rule returns the decoded recurrence definition.
func (r *RepeatingRule) Rule() recurrence.Rule {
	return r.Definition.Data()
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CloneID copies an optional id so records never share pointers.
func CloneID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
