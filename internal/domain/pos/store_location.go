package pos

import (
	"github.com/google/uuid"

	"github.com/openbooks/backend/internal/domain/shared"
)

// StoreLocation represents a physical store known from provider sale payloads.
// Locations are discovered lazily: the first sale referencing an unknown
// external store ID creates the record.
type StoreLocation struct {
	shared.TenantAggregateRoot
	Provider   ProviderCode `json:"provider"`
	ExternalID string       `json:"external_id"`
	Name       string       `json:"name"`
	Currency   string       `json:"currency"`
}

// NewStoreLocation creates a store location discovered from a sale payload.
// An empty name falls back to the external ID.
func NewStoreLocation(tenantID uuid.UUID, provider ProviderCode, externalID, name, currency string) (*StoreLocation, error) {
	if tenantID == uuid.Nil {
		return nil, ErrSaleInvalidTenantID
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_STORE_ID", "Store external ID cannot be empty")
	}
	if name == "" {
		name = externalID
	}
	if currency == "" {
		currency = "MYR"
	}
	return &StoreLocation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Provider:            provider,
		ExternalID:          externalID,
		Name:                name,
		Currency:            currency,
	}, nil
}

// Rename updates the display name reported by the provider
func (l *StoreLocation) Rename(name string) {
	if name == "" || name == l.Name {
		return
	}
	l.Name = name
	l.Touch()
}
