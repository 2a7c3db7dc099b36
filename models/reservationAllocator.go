package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/utils"
	"github.com/bsm/redislock"
)

// AllocationInput carries everything the allocator needs to pick (or validate)
// a resource for one reservation interval.
type AllocationInput struct {
	TenantId             string
	Category             ServiceCategory
	RequestedResourceId  *int
	SuiteType            *SuiteType
	StartDate            time.Time
	EndDate              time.Time
	ExcludeReservationId int
}

// AllocationResult holds the chosen resource and, when a resource was locked,
// the distributed lock protecting the conflict-check-and-write section.
// Callers MUST call Release after their write commits (or fails).
type AllocationResult struct {
	ResourceId *int
	Warnings   []string
	lock       *redislock.Lock
}

func (a *AllocationResult) Release(ctx context.Context) {
	if a != nil && a.lock != nil {
		_ = a.lock.Release(ctx)
		a.lock = nil
	}
}

// AllocateReservationResource validates an explicit resource request or runs
// first-fit automatic assignment over the tenant's active resources of the
// requested suite type.
//
// Policy (fixed deliberately, both paths identical): when the category
// requires a resource and none is free, the call fails with a ConflictError.
// There is no silent "create unassigned with warning" fallback.
func AllocateReservationResource(ctx context.Context, input *AllocationInput) (*AllocationResult, error) {
	requiresResource, err := CategoryRequiresResource(ctx, input.TenantId, input.Category)
	if err != nil {
		return nil, err
	}

	// Explicit assignment path: the caller named a resource, so a conflict is
	// a hard failure regardless of category policy.
	if input.RequestedResourceId != nil && *input.RequestedResourceId > 0 {
		return allocateExplicit(ctx, input)
	}

	if !requiresResource {
		// GROOMING/TRAINING style categories book staff time, not a suite.
		return &AllocationResult{ResourceId: nil}, nil
	}

	if input.SuiteType == nil {
		return nil, utils.NewValidationError("suite_type", "suite type is required to auto-assign a resource for this category")
	}
	if !input.SuiteType.Valid() {
		return nil, utils.NewValidationError("suite_type", "invalid suite type")
	}
	return allocateFirstFit(ctx, input)
}

func allocateExplicit(ctx context.Context, input *AllocationInput) (*AllocationResult, error) {
	resourceId := *input.RequestedResourceId

	// Tenant mismatch surfaces as not-found; existence is never confirmed
	// across tenants.
	resource, err := utils.FetchModel[Resource](ctx, input.TenantId, resourceId)
	if err != nil {
		return nil, err
	}
	if resource.IsActive == nil || !*resource.IsActive {
		return nil, utils.NewValidationError("resource_id", "resource is not active")
	}

	lock, err := utils.ObtainAllocationLock(ctx, input.TenantId, resourceId)
	if err != nil {
		if errors.Is(err, utils.ErrorLockNotObtained) {
			return nil, &utils.ConflictError{Message: "resource is busy, please retry"}
		}
		return nil, err
	}

	check, err := DetectReservationConflicts(ctx, input.TenantId, resourceId, input.StartDate, input.EndDate, input.ExcludeReservationId)
	if err != nil {
		_ = lock.Release(ctx)
		return nil, err
	}
	if check.HasConflicts {
		_ = lock.Release(ctx)
		return nil, conflictErrorFrom("requested resource has overlapping bookings", check)
	}

	return &AllocationResult{ResourceId: &resourceId, lock: lock}, nil
}

func allocateFirstFit(ctx context.Context, input *AllocationInput) (*AllocationResult, error) {
	candidates, err := listActiveResourcesByType(ctx, input.TenantId, *input.SuiteType)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &utils.ConflictError{Message: "no resource of the requested suite type exists"}
	}

	var warnings []string
	for _, candidate := range candidates {
		lock, err := utils.ObtainAllocationLock(ctx, input.TenantId, candidate.ID)
		if err != nil {
			if errors.Is(err, utils.ErrorLockNotObtained) {
				// Another request holds this candidate; try the next one.
				warnings = append(warnings, "skipped busy resource "+candidate.Name)
				continue
			}
			return nil, err
		}

		check, err := DetectReservationConflicts(ctx, input.TenantId, candidate.ID, input.StartDate, input.EndDate, input.ExcludeReservationId)
		if err != nil {
			_ = lock.Release(ctx)
			return nil, err
		}
		if check.HasConflicts {
			_ = lock.Release(ctx)
			continue
		}

		id := candidate.ID
		return &AllocationResult{ResourceId: &id, Warnings: warnings, lock: lock}, nil
	}

	return nil, &utils.ConflictError{Message: "no available resource for the requested dates"}
}

func conflictErrorFrom(message string, check *ConflictCheckResult) *utils.ConflictError {
	ce := &utils.ConflictError{Message: message}
	for _, r := range check.Conflicting {
		ce.Conflicts = append(ce.Conflicts, utils.ConflictDetail{
			ReservationId: r.ID,
			OrderNumber:   r.OrderNumber,
			ResourceId:    r.ResourceIdOrZero(),
			StartDate:     r.StartDate.Format(calendarDateLayout),
			EndDate:       r.EndDate.Format(calendarDateLayout),
		})
	}
	return ce
}
