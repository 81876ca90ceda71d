package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db    *gorm.DB
	Users *UserRepository
	Areas *AreaRepository
	Tags  *TagRepository
	Tasks *TaskRepository
	Rules *RuleRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		Users: NewUserRepository(db),
		Areas: NewAreaRepository(db),
		Tags:  NewTagRepository(db),
		Tasks: NewTaskRepository(db),
		Rules: NewRuleRepository(db),
	}
}

// InTx runs fn inside a transaction. fn must use only the Store it receives;
// returning an error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
