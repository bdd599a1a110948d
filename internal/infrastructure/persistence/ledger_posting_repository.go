package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
)

// LedgerPostingRepository implements the ledger.PostingRepository interface
type LedgerPostingRepository struct {
	db *gorm.DB
}

// NewLedgerPostingRepository creates a new ledger posting repository
func NewLedgerPostingRepository(db *gorm.DB) *LedgerPostingRepository {
	return &LedgerPostingRepository{db: db}
}

var _ ledger.PostingRepository = (*LedgerPostingRepository)(nil)

// Insert persists a posting. The unique index on
// (tenant_id, source_type, source_id) decides the winner when two
// writers race; the loser gets ledger.ErrDuplicatePosting.
func (r *LedgerPostingRepository) Insert(ctx context.Context, posting *ledger.Posting) error {
	model := models.LedgerPostingModelFromEntity(posting)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrDuplicatePosting
	}
	return nil
}

// FindByID finds a posting by ID for a tenant
func (r *LedgerPostingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Posting, error) {
	var model models.LedgerPostingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrPostingNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindBySource finds a posting by its source reference
func (r *LedgerPostingRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*ledger.Posting, error) {
	var model models.LedgerPostingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrPostingNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}
