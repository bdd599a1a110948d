package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/infrastructure/persistence/models"
)

// PosSaleRepository implements the pos.SaleRepository interface
type PosSaleRepository struct {
	db *gorm.DB
}

// NewPosSaleRepository creates a new POS sale repository
func NewPosSaleRepository(db *gorm.DB) *PosSaleRepository {
	return &PosSaleRepository{db: db}
}

var _ pos.SaleRepository = (*PosSaleRepository)(nil)

// Insert persists a newly normalized sale. The insert is the dedupe
// commit point: a conflicting (tenant, provider, external ID) triple
// affects zero rows and is reported as pos.ErrDuplicateSale.
func (r *PosSaleRepository) Insert(ctx context.Context, sale *pos.Sale) error {
	model := models.PosSaleModelFromEntity(sale)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pos.ErrDuplicateSale
	}
	return nil
}

// FindByExternalID finds a sale by its deduplication key
func (r *PosSaleRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, externalID string) (*pos.Sale, error) {
	var model models.PosSaleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND external_id = ?", tenantID, string(provider), externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pos.ErrSaleNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// ExistsByExternalID checks if a sale has already been ingested
func (r *PosSaleRepository) ExistsByExternalID(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, externalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PosSaleModel{}).
		Where("tenant_id = ? AND provider = ? AND external_id = ?", tenantID, string(provider), externalID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindUnposted finds all normalized sales for a tenant and business date,
// optionally scoped to one store location
func (r *PosSaleRepository) FindUnposted(ctx context.Context, tenantID uuid.UUID, businessDate time.Time, storeLocationID *uuid.UUID) ([]*pos.Sale, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND business_date = ? AND status = ?",
			tenantID, businessDate, string(pos.SaleStatusNormalized))
	if storeLocationID != nil {
		query = query.Where("store_location_id = ?", *storeLocationID)
	}

	var modelList []models.PosSaleModel
	if err := query.Order("sold_at ASC").Find(&modelList).Error; err != nil {
		return nil, err
	}

	sales := make([]*pos.Sale, len(modelList))
	for i := range modelList {
		sales[i] = modelList[i].ToEntity()
	}
	return sales, nil
}

// MarkPosted flips the given normalized sales to posted. Sales that were
// flipped by a concurrent posting are left untouched, so the returned
// count can be short of len(saleIDs).
func (r *PosSaleRepository) MarkPosted(ctx context.Context, tenantID uuid.UUID, saleIDs []uuid.UUID, postingID uuid.UUID) (int64, error) {
	if len(saleIDs) == 0 {
		return 0, nil
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.PosSaleModel{}).
		Where("tenant_id = ? AND id IN ? AND status = ?",
			tenantID, saleIDs, string(pos.SaleStatusNormalized)).
		Updates(map[string]any{
			"status":     string(pos.SaleStatusPosted),
			"posting_id": postingID,
			"posted_at":  now,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByStatus counts sales by posting status for a tenant
func (r *PosSaleRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status pos.SaleStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PosSaleModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(status)).
		Count(&count).Error
	return count, err
}
