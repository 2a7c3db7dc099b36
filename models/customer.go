package models

import (
	"context"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/utils"
)

// Customer and Pet records are owned by the customer-management side of the
// platform. The scheduling core only validates that references exist for the
// requesting tenant.

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;not null" json:"tenant_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Pet struct {
	ID         int       `gorm:"primary_key" json:"id"`
	TenantId   string    `gorm:"index;not null" json:"tenant_id"`
	CustomerId int       `gorm:"index;not null" json:"customer_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Breed      string    `gorm:"size:100" json:"breed"`
	IsActive   *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// validateCustomerAndPet checks both references exist for the tenant and that
// the pet belongs to the customer. Cross-tenant ids surface as RecordNotFound.
func validateCustomerAndPet(ctx context.Context, tenantId string, customerId int, petId int) error {
	if err := utils.ValidateResourceId[Customer](ctx, tenantId, customerId); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Pet](ctx, tenantId, "id = ? AND customer_id = ?", petId, customerId)
	if err != nil {
		return err
	}
	if count <= 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
