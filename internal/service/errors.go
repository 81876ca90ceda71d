package service

import (
	"errors"

	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

var (
	// ErrNotFound covers missing records and records owned by someone else.
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidRule is returned for malformed rule definitions.
	ErrInvalidRule = recurrence.ErrInvalidRule
	// ErrTaskAlreadyRepeating is returned when a task already belongs to an active rule.
	ErrTaskAlreadyRepeating = errors.New("task already repeats")
	// ErrNotRepeating is returned when a task has no repeating rule link.
	ErrNotRepeating = errors.New("task is not linked to a repeating rule")
	// ErrIllegalTransition is returned when a rule cannot accept an event in its state.
	ErrIllegalTransition = errors.New("illegal rule transition")

	// errAlreadySpawned means a concurrent pass moved the rule first.
	errAlreadySpawned = errors.New("occurrence already spawned")
	// errOccurrenceOpen means the previous occurrence is still live.
	errOccurrenceOpen = errors.New("previous occurrence still open")
)
