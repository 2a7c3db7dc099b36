package models_test

import (
	"testing"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func expectStarts(t *testing.T, got []models.ReservationInstance, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(got))
	}
	for i, inst := range got {
		if !inst.StartDate.Equal(want[i]) {
			t.Fatalf("instance %d: expected start %s, got %s", i+1,
				want[i].Format("2006-01-02"), inst.StartDate.Format("2006-01-02"))
		}
		if inst.Sequence != i+1 {
			t.Fatalf("instance %d: expected sequence %d, got %d", i+1, i+1, inst.Sequence)
		}
	}
}

func TestExpandDailySteppingAndLimit(t *testing.T) {
	origin := day(2025, 10, 21)
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyDaily,
		Interval:        1,
		OccurrenceLimit: intPtr(5),
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	expectStarts(t, got, []time.Time{
		day(2025, 10, 22), day(2025, 10, 23), day(2025, 10, 24),
		day(2025, 10, 25), day(2025, 10, 26),
	})
}

func TestExpandDailyIntervalWithEndDate(t *testing.T) {
	origin := day(2025, 10, 1)
	end := day(2025, 10, 10)
	pattern := &models.RecurringReservationPattern{
		Frequency: models.FrequencyDaily,
		Interval:  3,
		EndDate:   &end,
	}
	// 4th, 7th, 10th; the 13th exceeds the inclusive end date.
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	expectStarts(t, got, []time.Time{
		day(2025, 10, 4), day(2025, 10, 7), day(2025, 10, 10),
	})
}

func TestExpandWeeklyTwoDaysThreeWeeks(t *testing.T) {
	// Origin Tuesday 2025-11-04, Mondays and Wednesdays for three weekly
	// cycles: exactly 6 instances, chronological.
	origin := day(2025, 11, 4)
	want := []time.Time{
		day(2025, 11, 5), day(2025, 11, 10),
		day(2025, 11, 12), day(2025, 11, 17),
		day(2025, 11, 19), day(2025, 11, 24),
	}

	end := day(2025, 11, 24)
	byEndDate := &models.RecurringReservationPattern{
		Frequency:  models.FrequencyWeekly,
		DaysOfWeek: []int{1, 3},
		Interval:   1,
		EndDate:    &end,
	}
	expectStarts(t, models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), byEndDate, 0), want)

	byLimit := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyWeekly,
		DaysOfWeek:      []int{3, 1}, // order must not matter
		Interval:        1,
		OccurrenceLimit: intPtr(6),
	}
	expectStarts(t, models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), byLimit, 0), want)
}

func TestExpandWeeklySkipsOriginStart(t *testing.T) {
	// Origin is a Tuesday and Tuesday is selected: the first cycle resolves to
	// the origin date itself, which is already booked and must not reappear.
	origin := day(2025, 11, 4)
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyWeekly,
		DaysOfWeek:      []int{2},
		Interval:        1,
		OccurrenceLimit: intPtr(3),
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	expectStarts(t, got, []time.Time{
		day(2025, 11, 11), day(2025, 11, 18), day(2025, 11, 25),
	})
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	origin := day(2026, 1, 31)
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyMonthly,
		Interval:        1,
		OccurrenceLimit: intPtr(3),
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	// Clamping does not stick: March recovers the 31st.
	expectStarts(t, got, []time.Time{
		day(2026, 2, 28), day(2026, 3, 31), day(2026, 4, 30),
	})
}

func TestExpandMonthlyLeapYear(t *testing.T) {
	origin := day(2024, 1, 31)
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyMonthly,
		Interval:        1,
		OccurrenceLimit: intPtr(1),
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	expectStarts(t, got, []time.Time{day(2024, 2, 29)})
}

func TestExpandUnboundedPatternCapped(t *testing.T) {
	origin := day(2025, 10, 1)
	pattern := &models.RecurringReservationPattern{
		Frequency: models.FrequencyDaily,
		Interval:  1,
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	if len(got) != 20 {
		t.Fatalf("expected the default cap of 20 instances, got %d", len(got))
	}
}

func TestExpandMaxInstancesOverride(t *testing.T) {
	origin := day(2025, 10, 1)
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyDaily,
		Interval:        1,
		OccurrenceLimit: intPtr(10),
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 instances with caller cap, got %d", len(got))
	}
}

func TestExpandPreservesDuration(t *testing.T) {
	origin := day(2025, 10, 21)
	originEnd := day(2025, 10, 24) // three-night stay
	pattern := &models.RecurringReservationPattern{
		Frequency:       models.FrequencyWeekly,
		DaysOfWeek:      []int{1},
		Interval:        1,
		OccurrenceLimit: intPtr(2),
	}
	got := models.ExpandRecurringPattern(origin, originEnd, pattern, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(got))
	}
	for _, inst := range got {
		if inst.EndDate.Sub(inst.StartDate) != originEnd.Sub(origin) {
			t.Fatalf("instance %d: duration not preserved: %s -> %s",
				inst.Sequence, inst.StartDate, inst.EndDate)
		}
	}
}

func TestExpandEndDateBeforeFirstInstance(t *testing.T) {
	origin := day(2025, 10, 21)
	end := day(2025, 10, 21)
	pattern := &models.RecurringReservationPattern{
		Frequency: models.FrequencyDaily,
		Interval:  1,
		EndDate:   &end,
	}
	got := models.ExpandRecurringPattern(origin, origin.AddDate(0, 0, 1), pattern, 0)
	if len(got) != 0 {
		t.Fatalf("expected no instances, got %d", len(got))
	}
}
