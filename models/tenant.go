package models

import (
	"context"
	"time"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTenant struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

// CreateTenant stores a tenant and seeds its default category policies.
func CreateTenant(ctx context.Context, input *NewTenant) (*Tenant, error) {
	db := config.GetDB()

	tenant := Tenant{
		ID:    uuid.New(),
		Name:  input.Name,
		Email: input.Email,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&tenant).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := seedDefaultCategoryPolicies(tx, ctx, tenant.ID.String()); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &tenant, nil
}
