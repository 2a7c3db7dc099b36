package models_test

import (
	"testing"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/models"
)

func TestFormatOrderNumber(t *testing.T) {
	oct21 := time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		seq  int64
		want string
	}{
		{1, "RES-20251021-001"},
		{42, "RES-20251021-042"},
		{999, "RES-20251021-999"},
		// Beyond three digits the suffix widens instead of wrapping.
		{1000, "RES-20251021-1000"},
	}
	for _, tc := range cases {
		if got := models.FormatOrderNumber(oct21, tc.seq); got != tc.want {
			t.Fatalf("FormatOrderNumber(seq=%d): expected %q, got %q", tc.seq, tc.want, got)
		}
	}
}

func TestParseCalendarDateStaysUTC(t *testing.T) {
	got, err := models.ParseCalendarDate("2025-10-21")
	if err != nil {
		t.Fatalf("ParseCalendarDate: %v", err)
	}
	want := time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("expected %s in UTC, got %s in %s", want, got, got.Location())
	}

	if _, err := models.ParseCalendarDate("21/10/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if _, err := models.ParseCalendarDate("2025-13-41"); err == nil {
		t.Fatal("expected error for impossible date")
	}
}
