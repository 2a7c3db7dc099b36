package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

// defaultGenerationCap bounds expansion when a pattern carries neither an end
// date nor an occurrence limit.
const defaultGenerationCap = 20

// maxGenerationWindow is the absolute ceiling on instances per request, even
// when a far-future end date would allow more.
const maxGenerationWindow = 366

// RecurringReservationPattern is the 1:1 companion of an origin reservation
// describing how it expands into a series. Deleted together with its origin.
type RecurringReservationPattern struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	TenantId        string              `gorm:"index;not null" json:"tenant_id"`
	ReservationId   int                 `gorm:"uniqueIndex;not null" json:"reservation_id"`
	Frequency       RecurrenceFrequency `gorm:"size:10;not null" json:"frequency"`
	DaysOfWeek      []int               `gorm:"serializer:json" json:"days_of_week"`
	Interval        int                 `gorm:"not null;default:1" json:"interval"`
	EndDate         *time.Time          `gorm:"type:date" json:"end_date"`
	OccurrenceLimit *int                `json:"occurrence_limit"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRecurringPattern struct {
	Frequency       RecurrenceFrequency `json:"frequency" binding:"required"`
	DaysOfWeek      []int               `json:"days_of_week"`
	Interval        int                 `json:"interval"`
	EndDate         *string             `json:"end_date"`
	OccurrenceLimit *int                `json:"occurrence_limit"`
}

// ReservationInstance is one expanded occurrence of a recurring pattern.
type ReservationInstance struct {
	Sequence  int       `json:"sequence"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// CreateRecurringPattern attaches a recurrence to an existing reservation and
// marks the origin as recurring.
func CreateRecurringPattern(ctx context.Context, reservationId int, input *NewRecurringPattern) (*RecurringReservationPattern, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}

	origin, err := utils.FetchModel[Reservation](ctx, tenantId, reservationId)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[RecurringReservationPattern](ctx, tenantId, "reservation_id", reservationId, 0); err != nil {
		return nil, utils.NewValidationError("reservation_id", "reservation already has a recurrence pattern")
	}

	if !input.Frequency.Valid() {
		return nil, utils.NewValidationError("frequency", "invalid recurrence frequency")
	}
	interval := input.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return nil, utils.NewValidationError("interval", "must be a positive integer")
	}
	days := utils.UniqueSlice(input.DaysOfWeek)
	if input.Frequency == FrequencyWeekly {
		if len(days) == 0 {
			return nil, utils.NewValidationError("days_of_week", "required for weekly recurrence")
		}
		for _, d := range days {
			if d < 0 || d > 6 {
				return nil, utils.NewValidationError("days_of_week", "weekday indices must be 0 (Sunday) through 6 (Saturday)")
			}
		}
	} else {
		days = nil
	}
	var endDate *time.Time
	if input.EndDate != nil {
		parsed, err := ParseCalendarDate(*input.EndDate)
		if err != nil {
			return nil, utils.NewValidationError("end_date", "must be a calendar date (YYYY-MM-DD)")
		}
		if parsed.Before(origin.StartDate) {
			return nil, utils.NewValidationError("end_date", "must not precede the origin reservation")
		}
		endDate = &parsed
	}
	if input.OccurrenceLimit != nil && *input.OccurrenceLimit < 1 {
		return nil, utils.NewValidationError("occurrence_limit", "must be a positive integer")
	}

	pattern := RecurringReservationPattern{
		TenantId:        tenantId,
		ReservationId:   reservationId,
		Frequency:       input.Frequency,
		DaysOfWeek:      days,
		Interval:        interval,
		EndDate:         endDate,
		OccurrenceLimit: input.OccurrenceLimit,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&pattern).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&Reservation{}).
		Where("tenant_id = ? AND id = ?", tenantId, reservationId).
		Update("is_recurring", true).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &pattern, nil
}

// DeleteRecurringPattern removes the recurrence; the origin reverts to a
// plain reservation. Already-materialized instances are untouched.
func DeleteRecurringPattern(ctx context.Context, reservationId int) error {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return utils.ErrorTenantRequired
	}

	pattern, err := fetchPatternByReservation(ctx, tenantId, reservationId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(pattern).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&Reservation{}).
		Where("tenant_id = ? AND id = ?", tenantId, reservationId).
		Update("is_recurring", false).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func fetchPatternByReservation(ctx context.Context, tenantId string, reservationId int) (*RecurringReservationPattern, error) {
	db := config.GetDB()
	var pattern RecurringReservationPattern
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND reservation_id = ?", tenantId, reservationId).
		First(&pattern).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &pattern, nil
}

// ExpandRecurringPattern turns a pattern into the concrete, chronologically
// ordered instance list. Pure; persistence and allocation happen elsewhere.
//
// Conventions, fixed deliberately:
//   - DAILY steps Interval days from the previous instance's start.
//   - WEEKLY treats DaysOfWeek as absolute weekday indices (0=Sunday through
//     6=Saturday) resolved against the real calendar: each cycle is anchored
//     Interval*7 days after the origin, and every selected weekday maps to
//     its next occurrence on or after the anchor.
//   - MONTHLY steps Interval calendar months from the origin, clamping to the
//     end of shorter months (Jan 31 + 1 month = Feb 28/29).
//
// Every instance carries the origin's time-of-day and duration. An instance
// landing exactly on the origin's start is skipped, since the origin already
// occupies it.
func ExpandRecurringPattern(originStart, originEnd time.Time, pattern *RecurringReservationPattern, maxInstances int) []ReservationInstance {
	duration := originEnd.Sub(originStart)
	interval := pattern.Interval
	if interval < 1 {
		interval = 1
	}

	limit := maxGenerationWindow
	if pattern.OccurrenceLimit != nil && *pattern.OccurrenceLimit < limit {
		limit = *pattern.OccurrenceLimit
	}
	if pattern.EndDate == nil && pattern.OccurrenceLimit == nil && defaultGenerationCap < limit {
		limit = defaultGenerationCap
	}
	if maxInstances > 0 && maxInstances < limit {
		limit = maxInstances
	}
	if limit <= 0 {
		return nil
	}

	withinEnd := func(start time.Time) bool {
		return pattern.EndDate == nil || !start.After(*pattern.EndDate)
	}

	var instances []ReservationInstance
	appendInstance := func(start time.Time) bool {
		if start.Equal(originStart) || !withinEnd(start) {
			return len(instances) < limit
		}
		instances = append(instances, ReservationInstance{
			Sequence:  len(instances) + 1,
			StartDate: start,
			EndDate:   start.Add(duration),
		})
		return len(instances) < limit
	}

	switch pattern.Frequency {
	case FrequencyDaily:
		for k := 1; ; k++ {
			start := originStart.AddDate(0, 0, interval*k)
			if !withinEnd(start) {
				break
			}
			if !appendInstance(start) {
				break
			}
		}

	case FrequencyWeekly:
		days := utils.UniqueSlice(pattern.DaysOfWeek)
		sort.Ints(days)
		if len(days) == 0 {
			return nil
		}
		for cycle := 0; ; cycle++ {
			anchor := originStart.AddDate(0, 0, 7*interval*cycle)
			if !withinEnd(anchor) {
				break
			}
			cycleStarts := make([]time.Time, 0, len(days))
			for _, d := range days {
				cycleStarts = append(cycleStarts, nextOnOrAfterWeekday(anchor, time.Weekday(d)))
			}
			sort.Slice(cycleStarts, func(i, j int) bool { return cycleStarts[i].Before(cycleStarts[j]) })
			full := false
			for _, start := range cycleStarts {
				if !appendInstance(start) {
					full = true
					break
				}
			}
			if full {
				break
			}
		}

	case FrequencyMonthly:
		for k := 1; ; k++ {
			start := addMonthsClamped(originStart, interval*k)
			if !withinEnd(start) {
				break
			}
			if !appendInstance(start) {
				break
			}
		}
	}

	return instances
}

// nextOnOrAfterWeekday returns the first date with the given weekday that is
// on or after t, preserving t's time-of-day.
func nextOnOrAfterWeekday(t time.Time, weekday time.Weekday) time.Time {
	delta := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, delta)
}

// addMonthsClamped steps calendar months while clamping the day-of-month to
// the target month's length, avoiding time.AddDate's overflow into the next
// month (Jan 31 + 1 month would otherwise become Mar 2/3).
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

type GenerateInstancesOptions struct {
	PreviewOnly  bool `json:"preview_only"`
	MaxInstances int  `json:"max_instances"`
	Strict       bool `json:"strict"`
}

// GeneratedInstance reports the outcome for one expanded instance.
type GeneratedInstance struct {
	Sequence      int    `json:"sequence"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	ReservationId *int   `json:"reservation_id,omitempty"`
	OrderNumber   string `json:"order_number,omitempty"`
}

type GenerateInstancesResult struct {
	Instances []GeneratedInstance `json:"instances"`
	Warnings  []string            `json:"warnings"`
}

// GenerateRecurringInstances expands the origin's pattern and, unless
// previewing, allocates and persists one reservation per instance, tagged
// is_recurring and linked back to the origin.
//
// Allocation failures are collected per instance so one full resource never
// aborts the rest of the batch; sequence numbers stay stable either way. In
// strict mode the batch is all-or-nothing: the first failure rolls back every
// instance created so far.
func GenerateRecurringInstances(ctx context.Context, reservationId int, opts *GenerateInstancesOptions) (*GenerateInstancesResult, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}

	origin, err := utils.FetchModel[Reservation](ctx, tenantId, reservationId)
	if err != nil {
		return nil, err
	}
	pattern, err := fetchPatternByReservation(ctx, tenantId, reservationId)
	if err != nil {
		return nil, err
	}

	maxInstances := 0
	if opts != nil {
		maxInstances = opts.MaxInstances
	}
	instances := ExpandRecurringPattern(origin.StartDate, origin.EndDate, pattern, maxInstances)

	result := &GenerateInstancesResult{}
	for _, inst := range instances {
		result.Instances = append(result.Instances, GeneratedInstance{
			Sequence:  inst.Sequence,
			StartDate: inst.StartDate.Format(calendarDateLayout),
			EndDate:   inst.EndDate.Format(calendarDateLayout),
		})
	}
	if opts != nil && opts.PreviewOnly {
		return result, nil
	}

	var createdIds []int
	for i, inst := range instances {
		created, err := materializeInstance(ctx, tenantId, origin, inst)
		if err != nil {
			if opts != nil && opts.Strict {
				if rbErr := rollbackInstances(ctx, tenantId, createdIds); rbErr != nil {
					config.LogError(config.GetLogger(), "models", "GenerateRecurringInstances", "rollback after strict failure", createdIds, rbErr)
				}
				return nil, err
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("instance %d (%s): %s", inst.Sequence, inst.StartDate.Format(calendarDateLayout), err.Error()))
			continue
		}
		result.Instances[i].ReservationId = &created.ID
		result.Instances[i].OrderNumber = created.OrderNumber
		createdIds = append(createdIds, created.ID)
	}

	return result, nil
}

// materializeInstance books one expanded occurrence with the origin's
// customer/pet/service, running it through the allocator like any other
// reservation. An origin with a pinned resource pins its instances too;
// otherwise the origin's suite type drives first-fit.
func materializeInstance(ctx context.Context, tenantId string, origin *Reservation, inst ReservationInstance) (*Reservation, error) {
	allocation, err := AllocateReservationResource(ctx, &AllocationInput{
		TenantId:            tenantId,
		Category:            origin.ServiceCategory,
		RequestedResourceId: origin.ResourceId,
		SuiteType:           origin.SuiteType,
		StartDate:           inst.StartDate,
		EndDate:             inst.EndDate,
	})
	if err != nil {
		return nil, err
	}
	defer allocation.Release(ctx)

	reservation := Reservation{
		TenantId:            tenantId,
		CustomerId:          origin.CustomerId,
		PetId:               origin.PetId,
		ServiceId:           origin.ServiceId,
		ServiceCategory:     origin.ServiceCategory,
		ResourceId:          allocation.ResourceId,
		SuiteType:           origin.SuiteType,
		StartDate:           inst.StartDate,
		EndDate:             inst.EndDate,
		Status:              StatusConfirmed,
		Notes:               origin.Notes,
		IsRecurring:         utils.NewTrue(),
		OriginReservationId: &origin.ID,
	}
	if err := persistNewReservation(ctx, tenantId, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func rollbackInstances(ctx context.Context, tenantId string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantId, ids).
		Delete(&Reservation{}).Error
}
