package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
)

// StoreLocationRepository implements the pos.StoreLocationRepository interface
type StoreLocationRepository struct {
	db *gorm.DB
}

// NewStoreLocationRepository creates a new store location repository
func NewStoreLocationRepository(db *gorm.DB) *StoreLocationRepository {
	return &StoreLocationRepository{db: db}
}

var _ pos.StoreLocationRepository = (*StoreLocationRepository)(nil)

// FindByExternalID finds a store location by provider store ID
func (r *StoreLocationRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, externalID string) (*pos.StoreLocation, error) {
	var model models.StoreLocationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND external_id = ?", tenantID, string(provider), externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByID finds a store location by ID for a tenant
func (r *StoreLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*pos.StoreLocation, error) {
	var model models.StoreLocationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a store location. Concurrent discovery of the
// same provider store resolves to an update of the existing row.
func (r *StoreLocationRepository) Save(ctx context.Context, location *pos.StoreLocation) error {
	model := models.StoreLocationModelFromEntity(location)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "provider"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "currency", "updated_at"}),
		}).
		Create(model).Error
}
