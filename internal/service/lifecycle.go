package service

import (
	"fmt"

	"recurring-planner/internal/model"
)

// RuleState is the lifecycle state of a repeating rule. It is derived from
// stored data: the rule's active flag and whether a live occurrence exists.
type RuleState string

const (
	StateAwaiting RuleState = "awaiting"
	StateSpawned  RuleState = "spawned"
	StateDeleted  RuleState = "deleted"
)

// RuleEvent is something that happens to a rule.
type RuleEvent string

const (
	// EventSpawn creates the live occurrence.
	EventSpawn RuleEvent = "spawn"
	// EventComplete finishes the live occurrence and advances the pointer.
	EventComplete RuleEvent = "complete"
	// EventRelease drops the live occurrence without completing it (task deleted).
	EventRelease RuleEvent = "release"
	// EventEdit changes the definition or template.
	EventEdit RuleEvent = "edit"
	// EventDelete soft-deletes the rule.
	EventDelete RuleEvent = "delete"
)

// ruleTransitions is the full transition table. Missing entries are illegal.
var ruleTransitions = map[RuleState]map[RuleEvent]RuleState{
	StateAwaiting: {
		EventSpawn:  StateSpawned,
		EventEdit:   StateAwaiting,
		EventDelete: StateDeleted,
	},
	StateSpawned: {
		EventComplete: StateAwaiting,
		EventRelease:  StateAwaiting,
		EventEdit:     StateSpawned,
		EventDelete:   StateDeleted,
	},
	StateDeleted: {},
}

// Transition returns the state reached from `from` on ev.
func Transition(from RuleState, ev RuleEvent) (RuleState, error) {
	to, ok := ruleTransitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s rule", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// stateOf derives the state of rule given whether a live occurrence exists.
func stateOf(rule *model.RepeatingRule, live bool) RuleState {
	switch {
	case !rule.Active || rule.DeletedAt.Valid:
		return StateDeleted
	case live:
		return StateSpawned
	default:
		return StateAwaiting
	}
}
