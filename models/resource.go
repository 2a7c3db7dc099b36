package models

import (
	"context"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

// Resource is a bookable physical unit (kennel/suite). Identity is immutable
// once referenced by a reservation; allocation only considers active rows.
type Resource struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index:idx_resource_tenant_name,unique;not null" json:"tenant_id"`
	Name      string    `gorm:"index:idx_resource_tenant_name,unique;size:100;not null" json:"name" binding:"required"`
	Type      SuiteType `gorm:"size:30;not null;index" json:"type" binding:"required"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewResource struct {
	Name  string    `json:"name" binding:"required"`
	Type  SuiteType `json:"type" binding:"required"`
	Notes string    `json:"notes"`
}

type UpdateResourceInput struct {
	Name     *string    `json:"name"`
	Type     *SuiteType `json:"type"`
	Notes    *string    `json:"notes"`
	IsActive *bool      `json:"is_active"`
}

func CreateResource(ctx context.Context, input *NewResource) (*Resource, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}
	if !input.Type.Valid() {
		return nil, utils.NewValidationError("type", "invalid suite type")
	}
	if err := utils.ValidateUnique[Resource](ctx, tenantId, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("name", err.Error())
	}

	db := config.GetDB()
	resource := Resource{
		TenantId: tenantId,
		Name:     input.Name,
		Type:     input.Type,
		Notes:    input.Notes,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&resource).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func UpdateResource(ctx context.Context, id int, input *UpdateResourceInput) (*Resource, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}

	resource, err := utils.FetchModel[Resource](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := utils.ValidateUnique[Resource](ctx, tenantId, "name", *input.Name, id); err != nil {
			return nil, utils.NewValidationError("name", err.Error())
		}
		resource.Name = *input.Name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, utils.NewValidationError("type", "invalid suite type")
		}
		resource.Type = *input.Type
	}
	if input.Notes != nil {
		resource.Notes = *input.Notes
	}
	if input.IsActive != nil {
		resource.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}

func GetResource(ctx context.Context, id int) (*Resource, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}
	return utils.FetchModel[Resource](ctx, tenantId, id)
}

func GetResources(ctx context.Context, suiteType *SuiteType) ([]*Resource, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if suiteType != nil {
		dbCtx = dbCtx.Where("type = ?", *suiteType)
	}
	var results []*Resource
	if err := dbCtx.Order("name, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// listActiveResourcesByType returns the auto-assignment candidate list in a
// stable deterministic order (name then id) so first-fit is reproducible.
func listActiveResourcesByType(ctx context.Context, tenantId string, suiteType SuiteType) ([]*Resource, error) {
	db := config.GetDB()
	var results []*Resource
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND is_active = ?", tenantId, suiteType, true).
		Order("name, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
