package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the canonical calendar-day format used everywhere.
const DayLayout = "2006-01-02"

// ErrInvalidWindow is returned for malformed or reversed window bounds.
var ErrInvalidWindow = errors.New("invalid window")

// Window is an inclusive calendar-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Parse builds a Window from start and end date strings (YYYY-MM-DD).
// Both bounds are inclusive and start must not be after end.
func Parse(start, end string) (Window, error) {
	s, err := time.Parse(DayLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad start date %q", ErrInvalidWindow, start)
	}
	e, err := time.Parse(DayLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad end date %q", ErrInvalidWindow, end)
	}
	if s.After(e) {
		return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidWindow, start, end)
	}
	return Window{Start: s, End: e}, nil
}

// LastDays returns the window covering the n days ending at end (inclusive).
func LastDays(end time.Time, n int) Window {
	if n < 1 {
		n = 1
	}
	day, _ := time.Parse(DayLayout, end.Format(DayLayout))
	return Window{Start: day.AddDate(0, 0, -(n - 1)), End: day}
}

// StartDate returns the start bound as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format(DayLayout) }

// EndDate returns the end bound as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format(DayLayout) }

// Key returns the stable identifier for the window.
// A single day collapses to the date itself (e.g. "2026-02-06"),
// a range joins the bounds (e.g. "2026-02-01..2026-02-06").
func (w Window) Key() string {
	start, end := w.StartDate(), w.EndDate()
	if start == end {
		return start
	}
	return start + ".." + end
}

// Days enumerates every calendar day in the window, ascending.
func (w Window) Days() []string {
	var days []string
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}

// DayCount returns the number of calendar days in the window.
func (w Window) DayCount() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether the given YYYY-MM-DD date lies in the window.
func (w Window) Contains(date string) bool {
	d, err := time.Parse(DayLayout, date)
	if err != nil {
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

// Display formats a window for human-readable output.
// Single day: "Feb 06, 2026". Range: "Feb 01 - Feb 06, 2026".
func (w Window) Display() string {
	if w.StartDate() == w.EndDate() {
		return w.End.Format("Jan 02, 2006")
	}
	return fmt.Sprintf("%s - %s", w.Start.Format("Jan 02"), w.End.Format("Jan 02, 2006"))
}

// ParseKey parses a window key back into a Window.
func ParseKey(key string) (Window, error) {
	if strings.Contains(key, "..") {
		parts := strings.SplitN(key, "..", 2)
		return Parse(parts[0], parts[1])
	}
	return Parse(key, key)
}
