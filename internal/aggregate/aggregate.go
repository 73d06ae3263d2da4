// Package aggregate groups one window's normalized entries by day and theme
// and computes coverage statistics for report synthesis.
package aggregate

import (
	"log"
	"sort"

	"github.com/knagato/hansei/internal/normalize"
	"github.com/knagato/hansei/internal/sentiment"
	"github.com/knagato/hansei/internal/window"
)

// Theme is a tag and the ascending list of dates it appears on.
type Theme struct {
	Name  string
	Dates []string
}

// Aggregate owns everything the synthesizer needs for one window.
// The gap set and the entry dates are disjoint and together cover every
// calendar day in the window.
type Aggregate struct {
	Window window.Window

	// Entries are the valid entries, one per date, ascending.
	Entries []normalize.Entry
	// Invalid are defective entries excluded from the chronology and
	// theme index but surfaced in the report.
	Invalid       []normalize.Entry
	WindowDefects []string

	// Themes maps each tag to the ascending dates it occurs on.
	Themes map[string][]string
	// Gaps are the calendar days in the window with no valid entry.
	Gaps []string

	Timeline []sentiment.DayScore
	Mood     sentiment.Summary
}

// Build computes the window aggregate from normalized entries.
func Build(w window.Window, res *normalize.Result) *Aggregate {
	agg := &Aggregate{
		Window:        w,
		Entries:       res.Entries,
		Invalid:       res.Invalid,
		WindowDefects: res.WindowDefects,
		Themes:        make(map[string][]string),
	}

	covered := make(map[string]struct{}, len(res.Entries))
	inputs := make([]sentiment.Input, 0, len(res.Entries))
	for _, entry := range res.Entries {
		covered[entry.Date] = struct{}{}
		inputs = append(inputs, sentiment.Input{Date: entry.Date, Text: entry.JoinedText()})
		for _, tag := range entry.Tags {
			agg.Themes[tag] = append(agg.Themes[tag], entry.Date)
		}
	}

	// Gap set by difference against the full day range. Single-occurrence
	// themes stay in; filtering is a rendering decision.
	for _, day := range w.Days() {
		if _, ok := covered[day]; !ok {
			agg.Gaps = append(agg.Gaps, day)
		}
	}

	agg.Timeline, agg.Mood = sentiment.Analyze(inputs)

	log.Printf("Aggregated %s: %d entries, %d gaps, %d themes",
		w.Key(), len(agg.Entries), len(agg.Gaps), len(agg.Themes))
	return agg
}

// ThemesByCount returns themes ordered by descending occurrence count,
// ties broken alphabetically.
func (a *Aggregate) ThemesByCount() []Theme {
	themes := make([]Theme, 0, len(a.Themes))
	for name, dates := range a.Themes {
		themes = append(themes, Theme{Name: name, Dates: dates})
	}
	sort.Slice(themes, func(i, j int) bool {
		if len(themes[i].Dates) != len(themes[j].Dates) {
			return len(themes[i].Dates) > len(themes[j].Dates)
		}
		return themes[i].Name < themes[j].Name
	})
	return themes
}

// EntryFor returns the entry on the given date, or nil when the date is a gap.
func (a *Aggregate) EntryFor(date string) *normalize.Entry {
	for i := range a.Entries {
		if a.Entries[i].Date == date {
			return &a.Entries[i]
		}
	}
	return nil
}

// ScoreFor returns the day score for the given date, or nil for gaps.
func (a *Aggregate) ScoreFor(date string) *sentiment.DayScore {
	for i := range a.Timeline {
		if a.Timeline[i].Date == date {
			return &a.Timeline[i]
		}
	}
	return nil
}
