package recurrence

import "time"

// DateLayout is the calendar date format used across the planner.
const DateLayout = "2006-01-02"

// Day returns the calendar date of t (in t's own location) as UTC midnight.
// All dates handled by this package are normalized this way.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Next returns the first calendar date strictly after `after` that satisfies
// rule, for a recurrence anchored at start. The result is never before start.
func Next(rule Rule, start, after time.Time) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}
	start, after = Day(start), Day(after)

	switch rule.Frequency {
	case Daily:
		return nextDaily(rule, start, after), nil
	case Weekly:
		return nextWeekly(rule, start, after), nil
	case Monthly:
		return nextMonthly(rule, start, after), nil
	default:
		return nextYearly(rule, start, after), nil
	}
}

func nextDaily(rule Rule, start, after time.Time) time.Time {
	if after.Before(start) {
		return start
	}
	return after.AddDate(0, 0, rule.Interval)
}

func mondayOf(d time.Time) time.Time {
	return d.AddDate(0, 0, -mondayIndex(d.Weekday()))
}

func nextWeekly(rule Rule, start, after time.Time) time.Time {
	var allowed [7]bool
	if len(rule.Weekdays) == 0 {
		allowed[start.Weekday()] = true
	}
	for _, d := range rule.Weekdays {
		allowed[d] = true
	}

	anchor := mondayOf(start)
	from := after.AddDate(0, 0, 1)
	if from.Before(start) {
		from = start
	}
	// An aligned week with an allowed day is always reached within interval+1 weeks.
	for i := 0; i < 7*(rule.Interval+1); i++ {
		d := from.AddDate(0, 0, i)
		if !allowed[d.Weekday()] {
			continue
		}
		weeks := int(mondayOf(d).Sub(anchor).Hours()/24) / 7
		if weeks%rule.Interval == 0 {
			return d
		}
	}
	// unreachable for a validated rule
	return from
}

// clamped builds year/month/day, pulling day back to the month's last day.
func clamped(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func nextMonthly(rule Rule, start, after time.Time) time.Time {
	day := start.Day()
	if rule.DayOfMonth > 0 {
		day = rule.DayOfMonth
	}
	elapsed := (after.Year()-start.Year())*12 + int(after.Month()) - int(start.Month())
	k := 0
	if elapsed > 0 {
		k = elapsed / rule.Interval
	}
	for ; ; k++ {
		offset := int(start.Month()) - 1 + k*rule.Interval
		c := clamped(start.Year()+offset/12, time.Month(offset%12+1), day)
		if c.After(after) && !c.Before(start) {
			return c
		}
	}
}

func nextYearly(rule Rule, start, after time.Time) time.Time {
	k := 0
	if elapsed := after.Year() - start.Year(); elapsed > 0 {
		k = elapsed / rule.Interval
	}
	for ; ; k++ {
		c := clamped(start.Year()+k*rule.Interval, start.Month(), start.Day())
		if c.After(after) && !c.Before(start) {
			return c
		}
	}
}
