package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
)

// ConflictCheckResult is the ephemeral answer of a conflict probe. It is never
// persisted; the allocator consumes it and the facade surfaces the warnings.
type ConflictCheckResult struct {
	HasConflicts bool          `json:"has_conflicts"`
	Conflicting  []Reservation `json:"conflicting"`
	Warnings     []string      `json:"warnings"`
}

// intervalsOverlap reports whether [s1,e1) and [s2,e2) overlap. The half-open
// model makes a checkout on day X and a check-in on day X legal back-to-back.
func intervalsOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// DetectReservationConflicts answers whether [startDate,endDate) collides with
// an existing active booking on the resource. Only CONFIRMED, CHECKED_IN and
// CHECKED_OUT reservations block; CANCELLED and NO_SHOW are always ignored.
// excludeReservationId keeps the update path from conflicting with itself.
// Read-only; safe to call repeatedly and in parallel for different candidates.
func DetectReservationConflicts(ctx context.Context, tenantId string, resourceId int, startDate, endDate time.Time, excludeReservationId int) (*ConflictCheckResult, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).
		Where("tenant_id = ?", tenantId).
		Where("resource_id = ?", resourceId).
		Where("status IN ?", ActiveReservationStatuses).
		Where("start_date < ? AND end_date > ?", endDate, startDate)
	if excludeReservationId > 0 {
		dbCtx = dbCtx.Where("id != ?", excludeReservationId)
	}

	var conflicting []Reservation
	if err := dbCtx.Order("start_date, id").Find(&conflicting).Error; err != nil {
		return nil, err
	}

	result := &ConflictCheckResult{
		HasConflicts: len(conflicting) > 0,
		Conflicting:  conflicting,
	}
	for _, r := range conflicting {
		result.Warnings = append(result.Warnings, conflictWarning(r))
	}
	return result, nil
}

func conflictWarning(r Reservation) string {
	return fmt.Sprintf("resource %d is already booked by reservation %s (%s) from %s to %s",
		r.ResourceIdOrZero(), r.OrderNumber, r.Status,
		r.StartDate.Format(calendarDateLayout), r.EndDate.Format(calendarDateLayout))
}
