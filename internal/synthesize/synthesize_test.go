package synthesize

import (
	"strings"
	"testing"

	"github.com/knagato/hansei/internal/aggregate"
	"github.com/knagato/hansei/internal/normalize"
	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/window"
)

func buildAggregate(t *testing.T, start, end string, records []store.Record) *aggregate.Aggregate {
	t.Helper()
	w, err := window.Parse(start, end)
	if err != nil {
		t.Fatalf("parsing window: %v", err)
	}
	return aggregate.Build(w, normalize.Records(records, w))
}

func record(id, date string, tags ...string) store.Record {
	return store.Record{
		ID:          id,
		Date:        date,
		Experience:  "Refactored the importer",
		Reflection:  "Good progress, tests caught a mistake early",
		Abstraction: "Tight feedback loops pay off",
		NextAction:  "Add coverage for the edge cases",
		Tags:        tags,
	}
}

func TestRenderDeterministic(t *testing.T) {
	records := []store.Record{
		record("a", "2024-06-01", "go", "testing"),
		record("b", "2024-06-03", "go"),
	}

	first := Render(buildAggregate(t, "2024-06-01", "2024-06-03", records), "")
	second := Render(buildAggregate(t, "2024-06-01", "2024-06-03", records), "")

	if first.Body != second.Body {
		t.Fatal("expected byte-identical bodies for identical aggregates")
	}
	if first.Title != second.Title || first.Key != second.Key {
		t.Error("expected identical report metadata")
	}
}

func TestRenderScenario(t *testing.T) {
	rep := Render(buildAggregate(t, "2024-06-01", "2024-06-03", []store.Record{
		record("a", "2024-06-01", "go", "habits"),
		record("b", "2024-06-03", "go"),
	}), "")

	if rep.Key != "2024-06-01..2024-06-03" {
		t.Errorf("unexpected key: %s", rep.Key)
	}
	if rep.EntryCount != 2 || rep.GapCount != 1 {
		t.Errorf("expected 2 entries and 1 gap, got %d/%d", rep.EntryCount, rep.GapCount)
	}

	body := rep.Body
	if !strings.Contains(body, "- Entries: 2\n") || !strings.Contains(body, "- Gaps: 1\n") {
		t.Error("overview counts missing")
	}

	// Detail must be chronological with the gap noted in place.
	i1 := strings.Index(body, "### 2024-06-01")
	i2 := strings.Index(body, "### 2024-06-02")
	i3 := strings.Index(body, "### 2024-06-03")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Errorf("detail sections out of order: %d, %d, %d", i1, i2, i3)
	}

	gapSection := body[i2:i3]
	if !strings.Contains(gapSection, "_No entry recorded._") {
		t.Error("gap day must be noted as missing")
	}

	// Theme summary: go (2 days) before habits (1 day).
	themes := body[strings.Index(body, "## Themes"):strings.Index(body, "## Mood")]
	if strings.Index(themes, "**go**") > strings.Index(themes, "**habits**") {
		t.Error("themes not ordered by descending count")
	}
	if !strings.Contains(themes, "**go** — 2 days (2024-06-01, 2024-06-03)") {
		t.Errorf("theme line malformed:\n%s", themes)
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	rep := Render(buildAggregate(t, "2024-06-01", "2024-06-03", nil), "")

	if rep.EntryCount != 0 {
		t.Errorf("expected entry count 0, got %d", rep.EntryCount)
	}
	if rep.GapCount != 3 {
		t.Errorf("expected gap set to cover the window, got %d", rep.GapCount)
	}
	if !strings.Contains(rep.Body, "No themes tagged this window.") {
		t.Error("expected empty theme section")
	}
	if !strings.Contains(rep.Body, "No entries to score.") {
		t.Error("expected empty mood section")
	}
	if strings.Count(rep.Body, "_No entry recorded._") != 3 {
		t.Error("every day should be noted as missing")
	}
}

func TestRenderBadDateDefectVisible(t *testing.T) {
	bad := record("rec_broken", "junk")
	rep := Render(buildAggregate(t, "2024-06-01", "2024-06-02", []store.Record{
		bad,
		record("a", "2024-06-01"),
	}), "")

	if !strings.Contains(rep.Body, "rec_broken") {
		t.Error("invalid record must appear in the defects section")
	}
	if !strings.Contains(rep.Body, normalize.DefectBadDate) {
		t.Error("BadDate defect must be rendered")
	}
	// And it must not leak into the chronology.
	if strings.Contains(rep.Body, "### junk") {
		t.Error("invalid entry must not get a detail section")
	}
}

func TestRenderMissingStageAnnotatedInline(t *testing.T) {
	rec := record("a", "2024-06-01")
	rec.Reflection = ""

	rep := Render(buildAggregate(t, "2024-06-01", "2024-06-01", []store.Record{rec}), "")

	if !strings.Contains(rep.Body, "**Reflection**\n\n_Missing._") {
		t.Error("missing stage must be annotated inline")
	}
	if !strings.Contains(rep.Body, "MissingStage:reflection") {
		t.Error("missing stage defect must appear in the defects section")
	}
}

func TestRenderDuplicateDateDefect(t *testing.T) {
	rep := Render(buildAggregate(t, "2024-06-01", "2024-06-01", []store.Record{
		record("a", "2024-06-01"),
		record("b", "2024-06-01"),
	}), "")

	if rep.EntryCount != 1 {
		t.Errorf("duplicates must collapse to one entry, got %d", rep.EntryCount)
	}
	if !strings.Contains(rep.Body, "DuplicateDate:2024-06-01") {
		t.Error("DuplicateDate defect must be rendered against the window")
	}
}

func TestRenderTitlePrefix(t *testing.T) {
	agg := buildAggregate(t, "2026-02-06", "2026-02-06", nil)

	rep := Render(agg, "")
	if rep.Title != "Reflection Report: Feb 06, 2026" {
		t.Errorf("unexpected default title: %q", rep.Title)
	}

	custom := Render(agg, "Weekly Review")
	if custom.Title != "Weekly Review: Feb 06, 2026" {
		t.Errorf("unexpected custom title: %q", custom.Title)
	}
}
