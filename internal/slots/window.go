package slots

import (
	"meetslot/internal/models"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a full weekday name, ignoring case and surrounding space.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// Window computes the search window for a request made at now.
//
// Urgent requests search from the start of the current hour for UrgentWindow.
// Routine requests search the working day of the next occurrence of weekday
// (a week ahead when today already is that weekday), or tomorrow when weekday
// is empty or unrecognised.
func (p Policy) Window(now time.Time, urgent bool, weekday string) models.Interval {
	loc := p.location()
	now = now.In(loc)

	if urgent {
		// Truncate in local time; time.Truncate is offset-blind for zones like +05:30.
		start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc)
		return models.Interval{Start: start, End: start.Add(p.UrgentWindow)}
	}

	day := now.AddDate(0, 0, 1)
	if wd, ok := ParseWeekday(weekday); ok {
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		day = now.AddDate(0, 0, ahead)
	}

	return models.Interval{
		Start: time.Date(day.Year(), day.Month(), day.Day(), p.DayStartHour, 0, 0, 0, loc),
		End:   time.Date(day.Year(), day.Month(), day.Day(), p.DayEndHour, 0, 0, 0, loc),
	}
}
