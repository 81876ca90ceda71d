package bot

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/service"
)

var errUsage = errors.New("usage")

type repeatArgs struct {
	taskID uint
	rule   string
	start  time.Time
}

type editArgs struct {
	taskID uint
	edit   service.TaskEdit
}

type ruleEditArgs struct {
	ruleID uint
	rule   string
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, errUsage
	}
	return uint(value), nil
}

// splitID separates a leading numeric id from the rest of the arguments.
func splitID(args string) (uint, string, error) {
	args = strings.TrimSpace(args)
	head, rest, _ := strings.Cut(args, " ")
	id, err := parseID(head)
	if err != nil {
		return 0, "", err
	}
	return id, strings.TrimSpace(rest), nil
}

// parseRepeatArgs reads "<taskID> <rule> [YYYY-MM-DD]".
func parseRepeatArgs(args string) (repeatArgs, error) {
	id, rest, err := splitID(args)
	if err != nil {
		return repeatArgs{}, err
	}
	if _, err := recurrence.ParseDate(rest); err == nil {
		return repeatArgs{}, errUsage
	}
	out := repeatArgs{taskID: id, rule: rest}
	if i := strings.LastIndexByte(rest, ' '); i > 0 {
		if start, err := recurrence.ParseDate(rest[i+1:]); err == nil {
			out.start = start
			out.rule = strings.TrimSpace(rest[:i])
		}
	}
	if out.rule == "" {
		return repeatArgs{}, errUsage
	}
	return out, nil
}

// parseEditArgs reads "<taskID> <title|notes|date|tags> <value>".
func parseEditArgs(args string) (editArgs, error) {
	id, rest, err := splitID(args)
	if err != nil {
		return editArgs{}, err
	}
	field, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)

	out := editArgs{taskID: id}
	switch strings.ToLower(field) {
	case "title", "название":
		if value == "" {
			return editArgs{}, errUsage
		}
		out.edit.Title = &value
	case "notes", "заметка":
		out.edit.Notes = &value
	case "date", "дата":
		date, err := recurrence.ParseDate(value)
		if err != nil {
			return editArgs{}, errUsage
		}
		out.edit.ScheduledDate = &date
	case "tags", "теги":
		out.edit.Tags = splitTags(value)
	default:
		return editArgs{}, errUsage
	}
	return out, nil
}

func parseRuleEditArgs(args string) (ruleEditArgs, error) {
	id, rest, err := splitID(args)
	if err != nil {
		return ruleEditArgs{}, err
	}
	if rest == "" {
		return ruleEditArgs{}, errUsage
	}
	return ruleEditArgs{ruleID: id, rule: rest}, nil
}

// splitTags never returns nil, so an empty value clears the task's tags.
func splitTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimPrefix(strings.TrimSpace(part), "#"); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
