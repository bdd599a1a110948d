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

// SyncCursorRepository implements the pos.SyncCursorRepository interface
type SyncCursorRepository struct {
	db *gorm.DB
}

// NewSyncCursorRepository creates a new sync cursor repository
func NewSyncCursorRepository(db *gorm.DB) *SyncCursorRepository {
	return &SyncCursorRepository{db: db}
}

var _ pos.SyncCursorRepository = (*SyncCursorRepository)(nil)

// Find finds the cursor for a (tenant, provider) pair
func (r *SyncCursorRepository) Find(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode) (*pos.SyncCursor, error) {
	var model models.SyncCursorModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, string(provider)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a cursor. There is one row per
// (tenant, provider); concurrent saves resolve to an update.
func (r *SyncCursorRepository) Save(ctx context.Context, cursor *pos.SyncCursor) error {
	model := models.SyncCursorModelFromEntity(cursor)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sync_at", "updated_at"}),
		}).
		Create(model).Error
}
