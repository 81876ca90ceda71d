package recurrence

import (
	"fmt"
	"strings"
)

var unitNames = map[Frequency][2]string{
	Daily:   {"day", "days"},
	Weekly:  {"week", "weeks"},
	Monthly: {"month", "months"},
	Yearly:  {"year", "years"},
}

// Describe renders rule as a phrase such as "Every 3 days" or
// "Every week on Mon, Wed, Fri".
func Describe(rule Rule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", err
	}
	rule.normalize()

	unit := unitNames[rule.Frequency]
	var sb strings.Builder
	if rule.Interval == 1 {
		sb.WriteString("Every " + unit[0])
	} else {
		sb.WriteString(fmt.Sprintf("Every %d %s", rule.Interval, unit[1]))
	}

	if len(rule.Weekdays) > 0 {
		names := make([]string, len(rule.Weekdays))
		for i, d := range rule.Weekdays {
			names[i] = WeekdayName(d)
		}
		sb.WriteString(" on " + strings.Join(names, ", "))
	}
	if rule.DayOfMonth > 0 {
		sb.WriteString(fmt.Sprintf(" on day %d", rule.DayOfMonth))
	}
	return sb.String(), nil
}
