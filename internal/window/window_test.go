package window

import (
	"errors"
	"testing"
	"time"
)

func TestParseSingleDay(t *testing.T) {
	w, err := Parse("2024-06-01", "2024-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Key() != "2024-06-01" {
		t.Errorf("expected key '2024-06-01', got %q", w.Key())
	}
	if w.DayCount() != 1 {
		t.Errorf("expected 1 day, got %d", w.DayCount())
	}
}

func TestParseRange(t *testing.T) {
	w, err := Parse("2024-06-01", "2024-06-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Key() != "2024-06-01..2024-06-03" {
		t.Errorf("expected range key, got %q", w.Key())
	}
	if w.DayCount() != 3 {
		t.Errorf("expected 3 days, got %d", w.DayCount())
	}
}

func TestParseReversedBounds(t *testing.T) {
	_, err := Parse("2024-06-03", "2024-06-01")
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestParseBadDates(t *testing.T) {
	for _, tc := range [][2]string{
		{"not-a-date", "2024-06-01"},
		{"2024-06-01", "junk"},
		{"", ""},
		{"2024-13-40", "2024-13-41"},
	} {
		if _, err := Parse(tc[0], tc[1]); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Parse(%q, %q): expected ErrInvalidWindow, got %v", tc[0], tc[1], err)
		}
	}
}

func TestDaysEnumeratesFullRange(t *testing.T) {
	w, _ := Parse("2024-02-27", "2024-03-02")
	days := w.Days()

	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d: %v", len(want), len(days), days)
	}
	for i, d := range want {
		if days[i] != d {
			t.Errorf("day %d: expected %s, got %s", i, d, days[i])
		}
	}
}

func TestContains(t *testing.T) {
	w, _ := Parse("2024-06-01", "2024-06-03")

	for _, d := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		if !w.Contains(d) {
			t.Errorf("expected window to contain %s", d)
		}
	}
	for _, d := range []string{"2024-05-31", "2024-06-04", "garbage", ""} {
		if w.Contains(d) {
			t.Errorf("expected window not to contain %q", d)
		}
	}
}

func TestLastDays(t *testing.T) {
	end := time.Date(2024, 6, 7, 15, 30, 0, 0, time.UTC)
	w := LastDays(end, 7)

	if w.StartDate() != "2024-06-01" {
		t.Errorf("expected start 2024-06-01, got %s", w.StartDate())
	}
	if w.EndDate() != "2024-06-07" {
		t.Errorf("expected end 2024-06-07, got %s", w.EndDate())
	}

	single := LastDays(end, 0)
	if single.Key() != "2024-06-07" {
		t.Errorf("expected single-day window, got %q", single.Key())
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	for _, key := range []string{"2024-06-01", "2024-06-01..2024-06-03"} {
		w, err := ParseKey(key)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", key, err)
		}
		if w.Key() != key {
			t.Errorf("round trip: expected %q, got %q", key, w.Key())
		}
	}
}

func TestDisplay(t *testing.T) {
	w, _ := Parse("2026-02-01", "2026-02-06")
	if w.Display() != "Feb 01 - Feb 06, 2026" {
		t.Errorf("unexpected display: %q", w.Display())
	}

	single, _ := Parse("2026-02-06", "2026-02-06")
	if single.Display() != "Feb 06, 2026" {
		t.Errorf("unexpected single-day display: %q", single.Display())
	}
}
