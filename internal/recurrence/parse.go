package recurrence

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Parse reads a rule from either the JSON encoding or the short text form
//
//	<frequency> [interval] [weekdays | day-of-month]
//
// e.g. "daily 3", "weekly 2 mon,fri", "monthly 1 31", "yearly".
func Parse(raw string) (Rule, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Rule{}, invalid("empty rule")
	}
	if strings.HasPrefix(raw, "{") {
		var r Rule
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			if errors.Is(err, ErrInvalidRule) {
				return Rule{}, err
			}
			return Rule{}, invalid("%v", err)
		}
		return r, nil
	}

	fields := strings.Fields(strings.ToLower(raw))
	r := Rule{Frequency: Frequency(fields[0]), Interval: 1}
	rest := fields[1:]
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			r.Interval = n
			rest = rest[1:]
		}
	}
	if len(rest) > 1 {
		return Rule{}, invalid("unexpected %q", strings.Join(rest[1:], " "))
	}
	if r.Frequency == Monthly && len(rest) == 0 && r.Interval > 12 {
		// "monthly 31" reads as a day of month; ask for the explicit form.
		return Rule{}, invalid("interval %d for monthly rule, use \"monthly 1 %d\" for a day of month", r.Interval, r.Interval)
	}
	if len(rest) == 1 {
		switch r.Frequency {
		case Weekly:
			for _, name := range strings.Split(rest[0], ",") {
				if name == "" {
					continue
				}
				d, err := ParseWeekday(name)
				if err != nil {
					return Rule{}, err
				}
				r.Weekdays = append(r.Weekdays, d)
			}
		case Monthly:
			n, err := strconv.Atoi(rest[0])
			if err != nil || n == 0 {
				return Rule{}, invalid("day of month %q", rest[0])
			}
			r.DayOfMonth = n
		default:
			return Rule{}, invalid("unexpected %q for %s rule", rest[0], r.Frequency)
		}
	}

	r.normalize()
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}
