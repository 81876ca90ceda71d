package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// RuleView is a rule together with its human-readable description.
type RuleView struct {
	Rule        model.RepeatingRule
	Description string
}

// Recurring is the entry point the rest of the planner uses for repeating
// tasks. Dates default to the injected clock's current day.
type Recurring struct {
	store        *repository.Store
	rules        *RuleService
	sync         *TemplateSync
	materializer *Materializer
	now          func() time.Time
	log          *slog.Logger
}

func NewRecurring(store *repository.Store, log *slog.Logger, now func() time.Time) *Recurring {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Recurring{
		store:        store,
		rules:        NewRuleService(store),
		sync:         NewTemplateSync(store),
		materializer: NewMaterializer(store, log),
		now:          now,
		log:          log,
	}
}

func (r *Recurring) Materializer() *Materializer { return r.materializer }

func (r *Recurring) TemplateSync() *TemplateSync { return r.sync }

// Today is the current calendar date according to the clock.
func (r *Recurring) Today() time.Time {
	return recurrence.Day(r.now())
}

// CreateRuleFromTask makes taskID repeat per rrule (JSON or short text form).
// A zero startDate means today.
func (r *Recurring) CreateRuleFromTask(ctx context.Context, ownerID, taskID uint, rrule string, startDate time.Time) (uint, error) {
	def, err := recurrence.Parse(rrule)
	if err != nil {
		return 0, err
	}
	if startDate.IsZero() {
		startDate = r.Today()
	}
	rule, err := r.rules.CreateFromTask(ctx, ownerID, taskID, def, startDate)
	if err != nil {
		return 0, err
	}
	r.log.Info("rule created", "user_id", ownerID, "rule_id", rule.ID, "task_id", taskID)
	return rule.ID, nil
}

func (r *Recurring) UpdateRule(ctx context.Context, ownerID, ruleID uint, changes RuleChanges) error {
	_, err := r.rules.Update(ctx, ownerID, ruleID, changes, r.Today())
	return err
}

// UpdateRuleDefinition replaces the definition with one parsed from rrule.
func (r *Recurring) UpdateRuleDefinition(ctx context.Context, ownerID, ruleID uint, rrule string) (*model.RepeatingRule, error) {
	def, err := recurrence.Parse(rrule)
	if err != nil {
		return nil, err
	}
	return r.rules.Update(ctx, ownerID, ruleID, RuleChanges{Definition: &def}, r.Today())
}

func (r *Recurring) RemoveRule(ctx context.Context, ownerID, ruleID uint) error {
	if err := r.rules.Remove(ctx, ownerID, ruleID, r.now()); err != nil {
		return err
	}
	r.log.Info("rule removed", "user_id", ownerID, "rule_id", ruleID)
	return nil
}

func (r *Recurring) DescribeRule(rrule string) (string, error) {
	return DescribeRule(rrule)
}

// DescribeRule parses rrule and renders it as a phrase.
func DescribeRule(rrule string) (string, error) {
	def, err := recurrence.Parse(rrule)
	if err != nil {
		return "", err
	}
	return recurrence.Describe(def)
}

func (r *Recurring) GetRule(ctx context.Context, ownerID, ruleID uint) (*model.RepeatingRule, error) {
	return r.rules.Get(ctx, ownerID, ruleID)
}

// ListRules returns the owner's active rules with descriptions.
func (r *Recurring) ListRules(ctx context.Context, ownerID uint) ([]RuleView, error) {
	rules, err := r.rules.List(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}
	views := make([]RuleView, 0, len(rules))
	for _, rule := range rules {
		desc, err := recurrence.Describe(rule.Rule())
		if err != nil {
			return nil, err
		}
		views = append(views, RuleView{Rule: rule, Description: desc})
	}
	return views, nil
}

// MaterializeDue spawns due occurrences for ownerID. A zero referenceDate
// means today.
func (r *Recurring) MaterializeDue(ctx context.Context, ownerID uint, referenceDate time.Time) ([]uint, error) {
	if referenceDate.IsZero() {
		referenceDate = r.Today()
	}
	return r.materializer.SpawnDue(ctx, ownerID, referenceDate)
}

// MaterializeAll runs a pass for every owner with a due rule. A failing owner
// is logged and skipped; the first error is returned after all were tried.
func (r *Recurring) MaterializeAll(ctx context.Context, referenceDate time.Time) (int, error) {
	if referenceDate.IsZero() {
		referenceDate = r.Today()
	}
	owners, err := r.store.Users.ListWithDueRules(ctx, recurrence.Day(referenceDate))
	if err != nil {
		return 0, err
	}
	var (
		total    int
		firstErr error
	)
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ids, err := r.MaterializeDue(ctx, ownerID, referenceDate)
		total += len(ids)
		if err != nil {
			r.log.Error("materialize user", "user_id", ownerID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return total, firstErr
}

// OnTaskCompleted must be called when a task linked to a rule is completed.
func (r *Recurring) OnTaskCompleted(ctx context.Context, ownerID, taskID uint, completedAt time.Time) error {
	err := r.materializer.AdvanceOnCompletion(ctx, ownerID, taskID, completedAt)
	if errors.Is(err, ErrNotFound) {
		r.log.Warn("completion hook for unknown task", "user_id", ownerID, "task_id", taskID)
	}
	return err
}
