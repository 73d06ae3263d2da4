// Package synthesize renders a window aggregate into the report artifact.
// Rendering is a pure transform: the same aggregate always produces
// byte-identical output, which is what makes republishing idempotent.
package synthesize

import (
	"fmt"
	"strings"

	"github.com/knagato/hansei/internal/aggregate"
	"github.com/knagato/hansei/internal/normalize"
)

// DefaultTitlePrefix heads report titles unless overridden in config.
const DefaultTitlePrefix = "Reflection Report"

var stageLabels = map[string]string{
	"experience":  "Experience",
	"reflection":  "Reflection",
	"abstraction": "Abstraction",
	"next_action": "Next action",
}

// Report is the rendered artifact for one window.
type Report struct {
	Key        string
	Start      string
	End        string
	Title      string
	Body       string
	EntryCount int
	GapCount   int
	ThemeCount int
}

// Render builds the report for an aggregate. No timestamps or other
// run-varying data may enter the body.
func Render(agg *aggregate.Aggregate, titlePrefix string) *Report {
	if titlePrefix == "" {
		titlePrefix = DefaultTitlePrefix
	}

	var b strings.Builder
	writeOverview(&b, agg)
	writeThemes(&b, agg)
	writeMood(&b, agg)
	writeDetail(&b, agg)
	writeDefects(&b, agg)

	return &Report{
		Key:        agg.Window.Key(),
		Start:      agg.Window.StartDate(),
		End:        agg.Window.EndDate(),
		Title:      fmt.Sprintf("%s: %s", titlePrefix, agg.Window.Display()),
		Body:       strings.TrimRight(b.String(), "\n") + "\n",
		EntryCount: len(agg.Entries),
		GapCount:   len(agg.Gaps),
		ThemeCount: len(agg.Themes),
	}
}

func writeOverview(b *strings.Builder, agg *aggregate.Aggregate) {
	fmt.Fprintf(b, "## Overview\n\n")
	fmt.Fprintf(b, "- Window: %s\n", agg.Window.Key())
	fmt.Fprintf(b, "- Days: %d\n", agg.Window.DayCount())
	fmt.Fprintf(b, "- Entries: %d\n", len(agg.Entries))
	fmt.Fprintf(b, "- Gaps: %d\n", len(agg.Gaps))
	fmt.Fprintf(b, "\n")
}

func writeThemes(b *strings.Builder, agg *aggregate.Aggregate) {
	fmt.Fprintf(b, "## Themes\n\n")
	themes := agg.ThemesByCount()
	if len(themes) == 0 {
		fmt.Fprintf(b, "No themes tagged this window.\n\n")
		return
	}
	for _, theme := range themes {
		noun := "days"
		if len(theme.Dates) == 1 {
			noun = "day"
		}
		fmt.Fprintf(b, "- **%s** — %d %s (%s)\n",
			theme.Name, len(theme.Dates), noun, strings.Join(theme.Dates, ", "))
	}
	fmt.Fprintf(b, "\n")
}

func writeMood(b *strings.Builder, agg *aggregate.Aggregate) {
	fmt.Fprintf(b, "## Mood\n\n")
	if agg.Mood.Days == 0 {
		fmt.Fprintf(b, "No entries to score.\n\n")
		return
	}

	fmt.Fprintf(b, "- Average score: %.3f\n", agg.Mood.AverageScore)
	fmt.Fprintf(b, "- Labels: %d positive, %d neutral, %d negative\n",
		agg.Mood.Positive, agg.Mood.Neutral, agg.Mood.Negative)
	fmt.Fprintf(b, "- Trend: %s\n", agg.Mood.Trend)
	if len(agg.Mood.CommonEmotions) > 0 {
		var parts []string
		for _, e := range agg.Mood.CommonEmotions {
			parts = append(parts, fmt.Sprintf("%s (%d)", e.Name, e.Count))
		}
		fmt.Fprintf(b, "- Common emotions: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(b, "\n")
}

func writeDetail(b *strings.Builder, agg *aggregate.Aggregate) {
	fmt.Fprintf(b, "## Daily Detail\n\n")
	for _, day := range agg.Window.Days() {
		fmt.Fprintf(b, "### %s\n\n", day)

		entry := agg.EntryFor(day)
		if entry == nil {
			fmt.Fprintf(b, "_No entry recorded._\n\n")
			continue
		}

		if len(entry.Tags) > 0 {
			fmt.Fprintf(b, "Tags: %s\n\n", strings.Join(entry.Tags, ", "))
		}
		if score := agg.ScoreFor(day); score != nil {
			fmt.Fprintf(b, "Mood: %s (%.3f) — %s\n\n",
				score.Label, score.Score, strings.Join(score.Emotions, ", "))
		}

		for _, stage := range entry.Stages() {
			fmt.Fprintf(b, "**%s**\n\n", stageLabels[stage.Name])
			if stage.Text == "" {
				fmt.Fprintf(b, "_Missing._\n\n")
			} else {
				fmt.Fprintf(b, "%s\n\n", stage.Text)
			}
		}
	}
}

func writeDefects(b *strings.Builder, agg *aggregate.Aggregate) {
	fmt.Fprintf(b, "## Data Defects\n\n")

	var lines []string
	for _, defect := range agg.WindowDefects {
		lines = append(lines, fmt.Sprintf("- Window: %s", defect))
	}
	for _, entry := range agg.Invalid {
		lines = append(lines, fmt.Sprintf("- Record %s (%s): %s",
			recordRef(entry), entry.Date, strings.Join(entry.Defects, ", ")))
	}
	for _, entry := range agg.Entries {
		if len(entry.Defects) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s",
				entry.Date, strings.Join(entry.Defects, ", ")))
		}
	}

	if len(lines) == 0 {
		fmt.Fprintf(b, "None.\n")
		return
	}
	fmt.Fprintf(b, "%s\n", strings.Join(lines, "\n"))
}

func recordRef(entry normalize.Entry) string {
	if entry.ID != "" {
		return entry.ID
	}
	return "unknown"
}
