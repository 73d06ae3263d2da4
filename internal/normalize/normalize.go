// Package normalize validates raw reflection records and coerces them into
// canonical entries. Malformed records are flagged with defects rather than
// silently dropped; only unusable ones are excluded from aggregation.
package normalize

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/window"
)

// Defect names recorded against entries or the window.
const (
	DefectBadDate       = "BadDate"
	DefectOutOfWindow   = "OutOfWindow"
	DefectMissingStage  = "MissingStage:"
	DefectDuplicateDate = "DuplicateDate:"
)

// StageNames lists the four reflective-learning stages in fixed order.
var StageNames = []string{"experience", "reflection", "abstraction", "next_action"}

// Stage is one named stage text of an entry.
type Stage struct {
	Name string
	Text string
}

// Entry is a reflection record in canonical shape, immutable once built.
type Entry struct {
	ID          string
	Date        string
	Experience  string
	Reflection  string
	Abstraction string
	NextAction  string
	Tags        []string
	Valid       bool
	Defects     []string
}

// Stages returns the four stage texts in schema order.
func (e Entry) Stages() []Stage {
	return []Stage{
		{Name: "experience", Text: e.Experience},
		{Name: "reflection", Text: e.Reflection},
		{Name: "abstraction", Text: e.Abstraction},
		{Name: "next_action", Text: e.NextAction},
	}
}

// JoinedText returns all stage texts joined for whole-entry analysis.
func (e Entry) JoinedText() string {
	var parts []string
	for _, s := range e.Stages() {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Result holds the normalized view of one window's raw records.
type Result struct {
	// Entries are the valid entries, exactly one per date, ascending.
	Entries []Entry
	// Invalid are entries excluded from aggregation but reported.
	Invalid []Entry
	// WindowDefects are defects recorded against the window itself.
	WindowDefects []string
}

// Records normalizes raw records in store order. When two records resolve to
// the same date the later-fetched one wins and a DuplicateDate defect is
// recorded against the window.
func Records(records []store.Record, w window.Window) *Result {
	res := &Result{}
	byDate := make(map[string]Entry)

	for _, rec := range records {
		entry := one(rec, w)
		if !entry.Valid {
			res.Invalid = append(res.Invalid, entry)
			continue
		}

		if _, dup := byDate[entry.Date]; dup {
			res.WindowDefects = append(res.WindowDefects, DefectDuplicateDate+entry.Date)
			log.Printf("Duplicate entry for %s, keeping later record %s", entry.Date, entry.ID)
		}
		byDate[entry.Date] = entry
	}

	for _, entry := range byDate {
		res.Entries = append(res.Entries, entry)
	}
	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].Date < res.Entries[j].Date })
	sort.Strings(res.WindowDefects)

	return res
}

// one normalizes a single raw record.
func one(rec store.Record, w window.Window) Entry {
	entry := Entry{
		ID:          rec.ID,
		Experience:  strings.TrimSpace(rec.Experience),
		Reflection:  strings.TrimSpace(rec.Reflection),
		Abstraction: strings.TrimSpace(rec.Abstraction),
		NextAction:  strings.TrimSpace(rec.NextAction),
		Tags:        normalizeTags(rec.Tags),
		Valid:       true,
	}

	date, ok := parseDate(rec.Date)
	if !ok {
		entry.Date = strings.TrimSpace(rec.Date)
		entry.Valid = false
		entry.Defects = append(entry.Defects, DefectBadDate)
	} else {
		entry.Date = date
		if !w.Contains(date) {
			entry.Valid = false
			entry.Defects = append(entry.Defects, DefectOutOfWindow)
		}
	}

	for _, s := range entry.Stages() {
		if s.Text == "" {
			entry.Defects = append(entry.Defects, DefectMissingStage+s.Name)
		}
	}

	return entry
}

// parseDate accepts a calendar day, optionally with a time suffix
// (the store sometimes returns full RFC 3339 timestamps).
func parseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(window.DayLayout, raw); err == nil {
		return t.Format(window.DayLayout), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(window.DayLayout), true
	}
	return "", false
}

// normalizeTags lower-cases, trims, de-duplicates, and sorts tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
