package handler

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestParseWeek(t *testing.T) {
	tests := []struct {
		name string
		in   string
		week int
		ok   bool
	}{
		{"bare marker", "3주차", 3, true},
		{"chat title", "[6기] 12주차 출석체크", 12, true},
		{"no marker", "일반 공지방", 0, false},
		{"digits without marker", "공지 2024", 0, false},
		{"zero week", "0주차", 0, false},
		{"first match wins", "1주차 그리고 2주차", 1, true},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, ok := parseWeek(tt.in)
			if week != tt.week || ok != tt.ok {
				t.Fatalf("parseWeek(%q) = (%d, %v), want (%d, %v)", tt.in, week, ok, tt.week, tt.ok)
			}
		})
	}
}

// TestParseWeekEmbeddedProperty tests that a week marker is recovered from
// any surrounding text that carries no digits of its own.
func TestParseWeekEmbeddedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		week := rapid.IntRange(1, 999).Draw(t, "week")
		prefix := rapid.StringMatching(`[a-z가-힣\[\] ]{0,10}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z가-힣 ]{0,10}`).Draw(t, "suffix")

		name := fmt.Sprintf("%s%d주차%s", prefix, week, suffix)
		got, ok := parseWeek(name)
		if !ok || got != week {
			t.Fatalf("parseWeek(%q) = (%d, %v), want (%d, true)", name, got, ok, week)
		}
	})
}

// TestParseWeekNoDigitsProperty tests that digit-free names never parse.
func TestParseWeekNoDigitsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z가-힣 ]{0,20}`).Draw(t, "name")
		if week, ok := parseWeek(name); ok {
			t.Fatalf("parseWeek(%q) = (%d, true), want no match", name, week)
		}
	})
}
