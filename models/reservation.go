package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

const calendarDateLayout = "2006-01-02"

// ParseCalendarDate parses a wire date ("2025-10-21") as a calendar date in
// UTC. Dates are never reinterpreted through a local timezone offset, so a
// booking for the 21st stays on the 21st across DST and month boundaries.
func ParseCalendarDate(s string) (time.Time, error) {
	return time.ParseInLocation(calendarDateLayout, s, time.UTC)
}

// Reservation is a tenant-scoped booking of one pet for one service over the
// half-open range [StartDate, EndDate).
type Reservation struct {
	ID                  int               `gorm:"primary_key" json:"id"`
	TenantId            string            `gorm:"index;uniqueIndex:idx_resv_tenant_order;not null" json:"tenant_id"`
	CustomerId          int               `gorm:"index;not null" json:"customer_id"`
	PetId               int               `gorm:"index;not null" json:"pet_id"`
	ServiceId           int               `gorm:"not null" json:"service_id"`
	ServiceCategory     ServiceCategory   `gorm:"size:30;not null" json:"service_category"`
	ResourceId          *int              `gorm:"index" json:"resource_id"`
	SuiteType           *SuiteType        `gorm:"size:30" json:"suite_type"`
	StartDate           time.Time         `gorm:"type:date;not null;index" json:"start_date"`
	EndDate             time.Time         `gorm:"type:date;not null;index" json:"end_date"`
	Status              ReservationStatus `gorm:"size:20;not null;index" json:"status"`
	OrderNumber         string            `gorm:"size:30;uniqueIndex:idx_resv_tenant_order;not null" json:"order_number"`
	Notes               string            `gorm:"type:text" json:"notes"`
	IsRecurring         *bool             `gorm:"default:false" json:"is_recurring"`
	OriginReservationId *int              `gorm:"index" json:"origin_reservation_id"`
	CreatedAt           time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r Reservation) ResourceIdOrZero() int {
	if r.ResourceId == nil {
		return 0
	}
	return *r.ResourceId
}

type NewReservation struct {
	CustomerId      int                `json:"customer_id" binding:"required"`
	PetId           int                `json:"pet_id" binding:"required"`
	ServiceId       int                `json:"service_id" binding:"required"`
	ServiceCategory ServiceCategory    `json:"service_category" binding:"required"`
	StartDate       string             `json:"start_date" binding:"required"`
	EndDate         string             `json:"end_date" binding:"required"`
	ResourceId      *int               `json:"resource_id"`
	SuiteType       *SuiteType         `json:"suite_type"`
	Status          *ReservationStatus `json:"status"`
	Notes           string             `json:"notes"`
}

type UpdateReservation struct {
	CustomerId      *int               `json:"customer_id"`
	PetId           *int               `json:"pet_id"`
	ServiceId       *int               `json:"service_id"`
	ServiceCategory *ServiceCategory   `json:"service_category"`
	StartDate       *string            `json:"start_date"`
	EndDate         *string            `json:"end_date"`
	ResourceId      *int               `json:"resource_id"` // 0 clears the assignment
	SuiteType       *SuiteType         `json:"suite_type"`
	Status          *ReservationStatus `json:"status"`
	Notes           *string            `json:"notes"`
}

func validateReservationDates(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := ParseCalendarDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewValidationError("start_date", "must be a calendar date (YYYY-MM-DD)")
	}
	end, err := ParseCalendarDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewValidationError("end_date", "must be a calendar date (YYYY-MM-DD)")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, utils.NewValidationError("end_date", "must be after start_date")
	}
	return start, end, nil
}

// CreateReservation validates the booking request, allocates a resource when
// the service category calls for one, and stores the reservation together
// with its outbox event in one transaction. The allocation lock is held until
// the write commits.
func CreateReservation(ctx context.Context, input *NewReservation) (*Reservation, []string, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, nil, utils.ErrorTenantRequired
	}

	if !input.ServiceCategory.Valid() {
		return nil, nil, utils.NewValidationError("service_category", "invalid service category")
	}
	start, end, err := validateReservationDates(input.StartDate, input.EndDate)
	if err != nil {
		return nil, nil, err
	}

	status := StatusConfirmed
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, nil, utils.NewValidationError("status", "invalid reservation status")
		}
		status = *input.Status
	}

	if err := validateCustomerAndPet(ctx, tenantId, input.CustomerId, input.PetId); err != nil {
		return nil, nil, err
	}
	service, err := utils.FetchModel[Service](ctx, tenantId, input.ServiceId)
	if err != nil {
		return nil, nil, err
	}
	if service.Category != input.ServiceCategory {
		return nil, nil, utils.NewValidationError("service_category", "does not match the referenced service")
	}

	allocation, err := AllocateReservationResource(ctx, &AllocationInput{
		TenantId:            tenantId,
		Category:            input.ServiceCategory,
		RequestedResourceId: input.ResourceId,
		SuiteType:           input.SuiteType,
		StartDate:           start,
		EndDate:             end,
	})
	if err != nil {
		return nil, nil, err
	}
	defer allocation.Release(ctx)

	reservation := Reservation{
		TenantId:        tenantId,
		CustomerId:      input.CustomerId,
		PetId:           input.PetId,
		ServiceId:       input.ServiceId,
		ServiceCategory: input.ServiceCategory,
		ResourceId:      allocation.ResourceId,
		SuiteType:       input.SuiteType,
		StartDate:       start,
		EndDate:         end,
		Status:          status,
		Notes:           input.Notes,
		IsRecurring:     utils.NewFalse(),
	}

	if err := persistNewReservation(ctx, tenantId, &reservation); err != nil {
		return nil, nil, err
	}

	return &reservation, allocation.Warnings, nil
}

// persistNewReservation assigns an order number and inserts the row plus its
// outbox event. The unique (tenant_id, order_number) index is the backstop
// for racing writers; a duplicate-key failure regenerates with a bounded retry.
func persistNewReservation(ctx context.Context, tenantId string, reservation *Reservation) error {
	db := config.GetDB()

	var lastErr error
	for attempt := 0; attempt < orderNumberMaxRetries; attempt++ {
		orderNumber, err := NextOrderNumber(ctx, tenantId, time.Now().UTC())
		if err != nil {
			return err
		}
		reservation.OrderNumber = orderNumber

		tx := db.WithContext(ctx).Begin()
		if err := tx.Create(reservation).Error; err != nil {
			tx.Rollback()
			if isDuplicateKeyError(err) {
				lastErr = err
				reservation.ID = 0
				continue
			}
			return err
		}
		if err := publishReservationChange(ctx, tx, tenantId, reservation, ReservationEventCreated); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	}
	return lastErr
}

func isDuplicateKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

// UpdateReservationById applies a partial update, re-running allocation with
// the reservation's own id excluded whenever dates, resource, suite type or
// category change. Clearing the resource of a category that requires one is
// rejected.
func UpdateReservationById(ctx context.Context, id int, input *UpdateReservation) (*Reservation, []string, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, nil, utils.ErrorTenantRequired
	}

	existing, err := utils.FetchModel[Reservation](ctx, tenantId, id)
	if err != nil {
		return nil, nil, err
	}

	if input.CustomerId != nil || input.PetId != nil {
		customerId := existing.CustomerId
		petId := existing.PetId
		if input.CustomerId != nil {
			customerId = *input.CustomerId
		}
		if input.PetId != nil {
			petId = *input.PetId
		}
		if err := validateCustomerAndPet(ctx, tenantId, customerId, petId); err != nil {
			return nil, nil, err
		}
		existing.CustomerId = customerId
		existing.PetId = petId
	}

	category := existing.ServiceCategory
	if input.ServiceCategory != nil {
		if !input.ServiceCategory.Valid() {
			return nil, nil, utils.NewValidationError("service_category", "invalid service category")
		}
		category = *input.ServiceCategory
	}
	if input.ServiceId != nil {
		service, err := utils.FetchModel[Service](ctx, tenantId, *input.ServiceId)
		if err != nil {
			return nil, nil, err
		}
		if service.Category != category {
			return nil, nil, utils.NewValidationError("service_category", "does not match the referenced service")
		}
		existing.ServiceId = *input.ServiceId
	}

	startStr := existing.StartDate.Format(calendarDateLayout)
	endStr := existing.EndDate.Format(calendarDateLayout)
	datesChanged := false
	if input.StartDate != nil {
		startStr = *input.StartDate
		datesChanged = true
	}
	if input.EndDate != nil {
		endStr = *input.EndDate
		datesChanged = true
	}
	start, end, err := validateReservationDates(startStr, endStr)
	if err != nil {
		return nil, nil, err
	}

	requiresResource, err := CategoryRequiresResource(ctx, tenantId, category)
	if err != nil {
		return nil, nil, err
	}

	// Resolve the requested assignment for re-allocation.
	requestedResourceId := existing.ResourceId
	resourceChanged := false
	if input.ResourceId != nil {
		if *input.ResourceId == 0 {
			if requiresResource {
				return nil, nil, utils.NewValidationError("resource_id", "cannot clear the resource assignment for this service category")
			}
			requestedResourceId = nil
		} else {
			requestedResourceId = input.ResourceId
		}
		resourceChanged = true
	}
	suiteType := existing.SuiteType
	if input.SuiteType != nil {
		suiteType = input.SuiteType
		resourceChanged = true
	}

	var warnings []string
	needsAllocation := datesChanged || resourceChanged || category != existing.ServiceCategory
	if needsAllocation {
		allocation, err := AllocateReservationResource(ctx, &AllocationInput{
			TenantId:             tenantId,
			Category:             category,
			RequestedResourceId:  requestedResourceId,
			SuiteType:            suiteType,
			StartDate:            start,
			EndDate:              end,
			ExcludeReservationId: existing.ID,
		})
		if err != nil {
			return nil, nil, err
		}
		defer allocation.Release(ctx)
		existing.ResourceId = allocation.ResourceId
		warnings = allocation.Warnings
	}

	existing.ServiceCategory = category
	existing.SuiteType = suiteType
	existing.StartDate = start
	existing.EndDate = end
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, nil, utils.NewValidationError("status", "invalid reservation status")
		}
		existing.Status = *input.Status
	}
	if input.Notes != nil {
		existing.Notes = *input.Notes
	}

	action := ReservationEventUpdated
	if input.Status != nil && (*input.Status == StatusCancelled || *input.Status == StatusNoShow) {
		action = ReservationEventCancelled
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Save(existing).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := publishReservationChange(ctx, tx, tenantId, existing, action); err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	return existing, warnings, nil
}

func GetReservation(ctx context.Context, id int) (*Reservation, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}
	return utils.FetchModel[Reservation](ctx, tenantId, id)
}

type ReservationFilter struct {
	Status     *ReservationStatus
	CustomerId *int
	ResourceId *int
	From       *time.Time
	To         *time.Time
}

func GetReservations(ctx context.Context, filter *ReservationFilter) ([]*Reservation, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if filter != nil {
		if filter.Status != nil {
			dbCtx = dbCtx.Where("status = ?", *filter.Status)
		}
		if filter.CustomerId != nil {
			dbCtx = dbCtx.Where("customer_id = ?", *filter.CustomerId)
		}
		if filter.ResourceId != nil {
			dbCtx = dbCtx.Where("resource_id = ?", *filter.ResourceId)
		}
		if filter.From != nil {
			dbCtx = dbCtx.Where("end_date > ?", *filter.From)
		}
		if filter.To != nil {
			dbCtx = dbCtx.Where("start_date < ?", *filter.To)
		}
	}

	var results []*Reservation
	if err := dbCtx.Order("start_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
