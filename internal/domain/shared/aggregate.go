package shared

import (
	"github.com/google/uuid"
)

// TenantAggregateRoot provides common fields for tenant-scoped aggregate roots
type TenantAggregateRoot struct {
	BaseEntity
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseEntity: NewBaseEntity(),
		TenantID:   tenantID,
	}
}
