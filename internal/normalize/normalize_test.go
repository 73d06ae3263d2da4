package normalize

import (
	"strings"
	"testing"

	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/window"
)

func testWindow(t *testing.T) window.Window {
	t.Helper()
	w, err := window.Parse("2024-06-01", "2024-06-07")
	if err != nil {
		t.Fatalf("parsing window: %v", err)
	}
	return w
}

func fullRecord(id, date string) store.Record {
	return store.Record{
		ID:          id,
		Date:        date,
		Experience:  "Paired on the migration",
		Reflection:  "Went smoother than expected",
		Abstraction: "Small steps reduce risk",
		NextAction:  "Split the next change up front",
	}
}

func TestRecordsWellFormed(t *testing.T) {
	res := Records([]store.Record{fullRecord("a", "2024-06-02")}, testWindow(t))

	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}
	e := res.Entries[0]
	if !e.Valid {
		t.Error("expected entry to be valid")
	}
	if len(e.Defects) != 0 {
		t.Errorf("expected no defects, got %v", e.Defects)
	}
	if e.Date != "2024-06-02" {
		t.Errorf("unexpected date: %s", e.Date)
	}
}

func TestBadDateExcludedButRetained(t *testing.T) {
	res := Records([]store.Record{
		fullRecord("a", "2024-06-02"),
		fullRecord("b", "yesterday-ish"),
	}, testWindow(t))

	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(res.Entries))
	}
	if len(res.Invalid) != 1 {
		t.Fatalf("expected 1 invalid entry retained, got %d", len(res.Invalid))
	}

	bad := res.Invalid[0]
	if bad.Valid {
		t.Error("expected invalid flag")
	}
	if !hasDefect(bad.Defects, DefectBadDate) {
		t.Errorf("expected BadDate defect, got %v", bad.Defects)
	}
}

func TestTimestampDateAccepted(t *testing.T) {
	res := Records([]store.Record{fullRecord("a", "2024-06-02T08:15:00Z")}, testWindow(t))
	if len(res.Entries) != 1 {
		t.Fatalf("expected timestamp date to normalize, got %+v", res)
	}
	if res.Entries[0].Date != "2024-06-02" {
		t.Errorf("expected coerced date, got %s", res.Entries[0].Date)
	}
}

func TestMissingStagesFlaggedButValid(t *testing.T) {
	rec := fullRecord("a", "2024-06-02")
	rec.Reflection = "   "
	rec.NextAction = ""

	res := Records([]store.Record{rec}, testWindow(t))
	if len(res.Entries) != 1 {
		t.Fatalf("partial entry must stay valid, got %+v", res)
	}

	e := res.Entries[0]
	if !hasDefect(e.Defects, DefectMissingStage+"reflection") {
		t.Errorf("expected MissingStage:reflection, got %v", e.Defects)
	}
	if !hasDefect(e.Defects, DefectMissingStage+"next_action") {
		t.Errorf("expected MissingStage:next_action, got %v", e.Defects)
	}
	if len(e.Defects) != 2 {
		t.Errorf("expected exactly 2 defects, got %v", e.Defects)
	}
}

func TestTagNormalization(t *testing.T) {
	rec := fullRecord("a", "2024-06-02")
	rec.Tags = []string{"Go", "go", " Testing ", "", "focus", "FOCUS"}

	res := Records([]store.Record{rec}, testWindow(t))
	tags := res.Entries[0].Tags

	want := []string{"focus", "go", "testing"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tag %d: expected %s, got %s", i, want[i], tags[i])
		}
	}
}

func TestDuplicateDateLastWins(t *testing.T) {
	first := fullRecord("a", "2024-06-02")
	first.Experience = "first version"
	second := fullRecord("b", "2024-06-02")
	second.Experience = "second version"

	res := Records([]store.Record{first, second}, testWindow(t))

	if len(res.Entries) != 1 {
		t.Fatalf("expected one entry per date, got %d", len(res.Entries))
	}
	if res.Entries[0].Experience != "second version" {
		t.Errorf("expected later record to win, got %q", res.Entries[0].Experience)
	}
	if len(res.WindowDefects) != 1 || res.WindowDefects[0] != DefectDuplicateDate+"2024-06-02" {
		t.Errorf("expected window-level DuplicateDate defect, got %v", res.WindowDefects)
	}
}

func TestOutOfWindowInvalid(t *testing.T) {
	res := Records([]store.Record{fullRecord("a", "2024-07-15")}, testWindow(t))
	if len(res.Entries) != 0 {
		t.Fatalf("out-of-window entry must not aggregate, got %+v", res.Entries)
	}
	if len(res.Invalid) != 1 || !hasDefect(res.Invalid[0].Defects, DefectOutOfWindow) {
		t.Errorf("expected OutOfWindow defect, got %+v", res.Invalid)
	}
}

func TestEntriesSortedAscending(t *testing.T) {
	res := Records([]store.Record{
		fullRecord("c", "2024-06-05"),
		fullRecord("a", "2024-06-01"),
		fullRecord("b", "2024-06-03"),
	}, testWindow(t))

	dates := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		dates[i] = e.Date
	}
	if strings.Join(dates, ",") != "2024-06-01,2024-06-03,2024-06-05" {
		t.Errorf("entries not sorted: %v", dates)
	}
}

func hasDefect(defects []string, want string) bool {
	for _, d := range defects {
		if d == want {
			return true
		}
	}
	return false
}
