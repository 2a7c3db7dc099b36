package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;not null" json:"tenant_id"`
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Category    ServiceCategory `gorm:"type:enum('BOARDING','DAYCARE','GROOMING','TRAINING');not null" json:"category" binding:"required"`
	DayRate     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"day_rate"`
	SessionRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"session_rate"`
	IsActive    *bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CategoryResourcePolicy decides, per tenant and service category, whether a
// reservation must occupy a physical resource. Rows are seeded per tenant so
// new categories can be added without touching the allocator's control flow.
type CategoryResourcePolicy struct {
	ID               int             `gorm:"primary_key" json:"id"`
	TenantId         string          `gorm:"index:idx_policy_tenant_category,unique;not null" json:"tenant_id"`
	Category         ServiceCategory `gorm:"index:idx_policy_tenant_category,unique;size:30;not null" json:"category"`
	RequiresResource *bool           `gorm:"not null;default:false" json:"requires_resource"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

var defaultCategoryPolicies = map[ServiceCategory]bool{
	ServiceCategoryBoarding: true,
	ServiceCategoryDaycare:  true,
	ServiceCategoryGrooming: false,
	ServiceCategoryTraining: false,
}

func seedDefaultCategoryPolicies(tx *gorm.DB, ctx context.Context, tenantId string) error {
	var policies []CategoryResourcePolicy
	for category, requires := range defaultCategoryPolicies {
		r := requires
		policies = append(policies, CategoryResourcePolicy{
			TenantId:         tenantId,
			Category:         category,
			RequiresResource: &r,
		})
	}
	return tx.WithContext(ctx).Create(&policies).Error
}

// CategoryRequiresResource looks up the tenant's policy row, falling back to
// the built-in defaults for tenants seeded before a category existed.
// The per-tenant policy map is cached in redis.
func CategoryRequiresResource(ctx context.Context, tenantId string, category ServiceCategory) (bool, error) {
	policies := make(map[ServiceCategory]bool)
	redisKey := "categoryPolicyMap:" + tenantId
	exists, err := config.GetRedisObject(redisKey, &policies)
	if err != nil {
		return false, err
	}
	if !exists {
		db := config.GetDB()
		var rows []*CategoryResourcePolicy
		if err := db.WithContext(ctx).
			Where("tenant_id = ?", tenantId).
			Find(&rows).Error; err != nil {
			return false, err
		}
		for _, row := range rows {
			policies[row.Category] = row.RequiresResource != nil && *row.RequiresResource
		}
		if len(rows) > 0 {
			if err := config.SetRedisObject(redisKey, &policies, 0); err != nil {
				return false, err
			}
		}
	}

	if requires, ok := policies[category]; ok {
		return requires, nil
	}
	if requires, ok := defaultCategoryPolicies[category]; ok {
		return requires, nil
	}
	return false, fmt.Errorf("no resource policy for category %s", category)
}

func GetService(ctx context.Context, id int) (*Service, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, utils.ErrorTenantRequired
	}
	return utils.FetchModel[Service](ctx, tenantId, id)
}
