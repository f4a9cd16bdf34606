package models

import (
	"fmt"
	"time"
)

// TimeWindow is the half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow returns [start, end), swapping the bounds when reversed
func NewTimeWindow(start, end time.Time) TimeWindow {
	if end.Before(start) {
		start, end = end, start
	}
	return TimeWindow{Start: start, End: end}
}

// Contains reports whether t lies in [Start, End)
func (w TimeWindow) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// Unbounded reports whether the window has no bounds set
func (w TimeWindow) Unbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format("2006-01-02 15:04"), w.End.Format("2006-01-02 15:04"))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayWindow covers one calendar day in loc
func DayWindow(day time.Time, loc *time.Location) TimeWindow {
	start := midnight(day.In(loc))
	return TimeWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// DailyWindow returns the default daily window for now and the row label.
// Yesterday on weekdays; Friday 00:00 to Monday 00:00 on Mondays. The label is today.
func DailyWindow(now time.Time, loc *time.Location) (TimeWindow, time.Time) {
	today := midnight(now.In(loc))
	days := 1
	if today.Weekday() == time.Monday {
		days = 3
	}
	return TimeWindow{Start: today.AddDate(0, 0, -days), End: today}, today
}

// LastDays returns [now - days, now)
func LastDays(now time.Time, days int) TimeWindow {
	return TimeWindow{Start: now.AddDate(0, 0, -days), End: now}
}

// BackfillDays lists every day from start to end inclusive, in loc.
// Reversed bounds are swapped.
func BackfillDays(start, end time.Time, loc *time.Location) []time.Time {
	s := midnight(start.In(loc))
	e := midnight(end.In(loc))
	if e.Before(s) {
		s, e = e, s
	}

	var days []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
