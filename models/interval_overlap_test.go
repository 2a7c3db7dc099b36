package models

import (
	"testing"
	"time"
)

func d(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestIntervalsOverlapHalfOpen(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint", d(2025, 10, 1), d(2025, 10, 3), d(2025, 10, 5), d(2025, 10, 7), false},
		{"back to back, checkout day reused", d(2025, 10, 21), d(2025, 10, 24), d(2025, 10, 24), d(2025, 10, 26), false},
		{"one day overlap", d(2025, 10, 21), d(2025, 10, 24), d(2025, 10, 23), d(2025, 10, 25), true},
		{"identical", d(2025, 10, 21), d(2025, 10, 24), d(2025, 10, 21), d(2025, 10, 24), true},
		{"containment", d(2025, 10, 21), d(2025, 10, 30), d(2025, 10, 23), d(2025, 10, 25), true},
		{"touching at start", d(2025, 10, 24), d(2025, 10, 26), d(2025, 10, 21), d(2025, 10, 24), false},
	}
	for _, tc := range cases {
		if got := intervalsOverlap(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		// Overlap is symmetric.
		if got := intervalsOverlap(tc.s2, tc.e2, tc.s1, tc.e1); got != tc.want {
			t.Fatalf("%s (swapped): expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNextOnOrAfterWeekday(t *testing.T) {
	tue := d(2025, 11, 4)
	if got := nextOnOrAfterWeekday(tue, time.Tuesday); !got.Equal(tue) {
		t.Fatalf("same weekday should resolve to the anchor itself, got %s", got)
	}
	if got := nextOnOrAfterWeekday(tue, time.Wednesday); !got.Equal(d(2025, 11, 5)) {
		t.Fatalf("expected 2025-11-05, got %s", got)
	}
	if got := nextOnOrAfterWeekday(tue, time.Monday); !got.Equal(d(2025, 11, 10)) {
		t.Fatalf("expected 2025-11-10, got %s", got)
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{d(2026, 1, 31), 1, d(2026, 2, 28)},
		{d(2024, 1, 31), 1, d(2024, 2, 29)},
		{d(2026, 1, 31), 2, d(2026, 3, 31)},
		{d(2025, 10, 15), 1, d(2025, 11, 15)},
		{d(2025, 11, 30), 3, d(2026, 2, 28)},
	}
	for _, tc := range cases {
		if got := addMonthsClamped(tc.in, tc.months); !got.Equal(tc.want) {
			t.Fatalf("addMonthsClamped(%s, %d): expected %s, got %s",
				tc.in.Format("2006-01-02"), tc.months,
				tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}
