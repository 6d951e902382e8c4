package schedule

import (
	"fmt"
	"time"
)

// windowDays is the horizon over which a template is expanded and reconciled
// against existing appointments during a schedule commit.
const windowDays = 7

// WeeklyTemplate maps each weekday to the whole hours a provider is bookable.
// A closed struct rather than a day-name map, so there is no missing or
// misspelled key to handle. Hour lists are strictly ascending, values 0-23.
type WeeklyTemplate struct {
	Monday    []int `json:"monday"`
	Tuesday   []int `json:"tuesday"`
	Wednesday []int `json:"wednesday"`
	Thursday  []int `json:"thursday"`
	Friday    []int `json:"friday"`
	Saturday  []int `json:"saturday"`
	Sunday    []int `json:"sunday"`
}

// HoursOn returns the allowed hours for the given weekday. A nil slice means
// the provider takes no appointments that day.
func (t *WeeklyTemplate) HoursOn(day time.Weekday) []int {
	switch day {
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	case time.Saturday:
		return t.Saturday
	default:
		return t.Sunday
	}
}

// Validate rejects out-of-range hours and hour lists that are not strictly
// ascending. Expansion assumes a validated template and never re-checks.
func (t *WeeklyTemplate) Validate() error {
	days := []struct {
		name  string
		hours []int
	}{
		{"monday", t.Monday},
		{"tuesday", t.Tuesday},
		{"wednesday", t.Wednesday},
		{"thursday", t.Thursday},
		{"friday", t.Friday},
		{"saturday", t.Saturday},
		{"sunday", t.Sunday},
	}

	for _, d := range days {
		prev := -1
		for _, h := range d.hours {
			if h < 0 || h > 23 {
				return fmt.Errorf("%w: %s hour %d out of range 0-23", ErrInvalidTemplate, d.name, h)
			}
			if h <= prev {
				return fmt.Errorf("%w: %s hours must be unique and ascending", ErrInvalidTemplate, d.name)
			}
			prev = h
		}
	}

	return nil
}

// TruncateHour normalizes a timestamp to UTC at the top of its hour. Every
// timestamp crossing the engine boundary goes through this; the engine never
// holds sub-hour precision.
func TruncateHour(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

// ExpandTemplate expands tpl into concrete slot timestamps over the given
// number of calendar days, starting at start's calendar day (inclusive).
// Output is chronological: days in sequence, hours ascending within a day.
// Pure and deterministic; callers validate the template beforehand.
func ExpandTemplate(tpl WeeklyTemplate, start time.Time, days int) []time.Time {
	start = TruncateHour(start)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		for _, h := range tpl.HoursOn(day.Weekday()) {
			out = append(out, day.Add(time.Duration(h)*time.Hour))
		}
		day = day.AddDate(0, 0, 1)
	}

	return out
}
