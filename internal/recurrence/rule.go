package recurrence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidRule reports a malformed or impossible rule definition.
var ErrInvalidRule = errors.New("invalid rule")

// Frequency is the base period of a rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Rule is a recurrence definition: every Interval periods of Frequency,
// optionally restricted to Weekdays (weekly) or pinned to DayOfMonth (monthly).
// DayOfMonth == 0 means "use the start date's day".
type Rule struct {
	Frequency  Frequency
	Interval   int
	Weekdays   []time.Weekday
	DayOfMonth int
}

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

// Validate checks the rule shape. It never corrects anything.
func (r Rule) Validate() error {
	switch r.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	case "":
		return invalid("frequency is required")
	default:
		return invalid("unknown frequency %q", string(r.Frequency))
	}
	if r.Interval < 1 {
		return invalid("interval must be at least 1, got %d", r.Interval)
	}
	if len(r.Weekdays) > 0 && r.Frequency != Weekly {
		return invalid("weekdays apply only to weekly rules")
	}
	for _, d := range r.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return invalid("weekday %d out of range", int(d))
		}
	}
	if r.DayOfMonth != 0 {
		if r.Frequency != Monthly {
			return invalid("dayOfMonth applies only to monthly rules")
		}
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return invalid("dayOfMonth must be within 1..31, got %d", r.DayOfMonth)
		}
	}
	return nil
}

// normalize sorts weekdays Monday first and drops duplicates.
func (r *Rule) normalize() {
	if len(r.Weekdays) == 0 {
		r.Weekdays = nil
		return
	}
	seen := make(map[time.Weekday]bool, len(r.Weekdays))
	days := make([]time.Weekday, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return mondayIndex(days[i]) < mondayIndex(days[j]) })
	r.Weekdays = days
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ParseWeekday accepts short or full English names in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, short := range weekdayNames {
		full := strings.ToLower(time.Weekday(i).String())
		if name == strings.ToLower(short) || name == full {
			return time.Weekday(i), nil
		}
	}
	return 0, invalid("unknown weekday %q", s)
}

// WeekdayName returns the three-letter name used in the persisted encoding.
func WeekdayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

type wireRule struct {
	Frequency  Frequency `json:"frequency"`
	Interval   *int      `json:"interval"`
	Weekdays   []string  `json:"weekdays,omitempty"`
	DayOfMonth *int      `json:"dayOfMonth,omitempty"`
}

// MarshalJSON writes the persisted encoding
// {frequency, interval, weekdays?, dayOfMonth?}.
func (r Rule) MarshalJSON() ([]byte, error) {
	interval := r.Interval
	w := wireRule{Frequency: r.Frequency, Interval: &interval}
	for _, d := range r.Weekdays {
		w.Weekdays = append(w.Weekdays, WeekdayName(d))
	}
	if r.DayOfMonth != 0 {
		dom := r.DayOfMonth
		w.DayOfMonth = &dom
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts only the persisted encoding; unknown fields,
// missing interval or an invalid shape fail with ErrInvalidRule.
func (r *Rule) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var w wireRule
	if err := dec.Decode(&w); err != nil {
		return invalid("%v", err)
	}
	if w.Interval == nil {
		return invalid("interval is required")
	}
	out := Rule{Frequency: w.Frequency, Interval: *w.Interval}
	for _, name := range w.Weekdays {
		d, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		out.Weekdays = append(out.Weekdays, d)
	}
	if w.DayOfMonth != nil {
		if *w.DayOfMonth == 0 {
			return invalid("dayOfMonth must be within 1..31, got 0")
		}
		out.DayOfMonth = *w.DayOfMonth
	}
	out.normalize()
	if err := out.Validate(); err != nil {
		return err
	}
	*r = out
	return nil
}
