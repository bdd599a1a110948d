package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/domain/shared"
)

// PosSaleModel is the GORM model for normalized POS sales.
// The unique index on (tenant_id, provider, external_id) is the
// deduplication guarantee for repeated sync passes.
type PosSaleModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_pos_sales_dedupe,priority:1"`
	Provider            string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_pos_sales_dedupe,priority:2"`
	ExternalID          string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_pos_sales_dedupe,priority:3"`
	ReceiptNumber       string          `gorm:"type:varchar(100)"`
	Type                string          `gorm:"type:varchar(10);not null"`
	RefundForExternalID string          `gorm:"type:varchar(255)"`
	StoreLocationID     *uuid.UUID      `gorm:"type:uuid;index"`
	StoreExternalID     string          `gorm:"type:varchar(255)"`
	BusinessDate        time.Time       `gorm:"not null;index:idx_pos_sales_business_date"`
	SoldAt              time.Time       `gorm:"not null"`
	Currency            string          `gorm:"type:varchar(3);not null"`
	GrossAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Lines               []byte          `gorm:"type:jsonb;default:'[]'"`
	PayloadHash         string          `gorm:"type:varchar(64);not null"`
	Status              string          `gorm:"type:varchar(20);not null;default:'normalized';index"`
	PostingID           *uuid.UUID      `gorm:"type:uuid;index"`
	PostedAt            *time.Time
	CreatedAt           time.Time       `gorm:"autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (PosSaleModel) TableName() string {
	return "pos_sales"
}

// ToEntity converts the model to a domain entity
func (m *PosSaleModel) ToEntity() *pos.Sale {
	var lines []pos.SaleLine
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines)
	}

	return &pos.Sale{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		Provider:            pos.ProviderCode(m.Provider),
		ExternalID:          m.ExternalID,
		ReceiptNumber:       m.ReceiptNumber,
		Type:                pos.SaleType(m.Type),
		RefundForExternalID: m.RefundForExternalID,
		StoreLocationID:     m.StoreLocationID,
		StoreExternalID:     m.StoreExternalID,
		BusinessDate:        m.BusinessDate,
		SoldAt:              m.SoldAt,
		Currency:            m.Currency,
		GrossAmount:         m.GrossAmount,
		DiscountAmount:      m.DiscountAmount,
		TaxAmount:           m.TaxAmount,
		NetAmount:           m.NetAmount,
		Lines:               lines,
		PayloadHash:         m.PayloadHash,
		Status:              pos.SaleStatus(m.Status),
		PostingID:           m.PostingID,
		PostedAt:            m.PostedAt,
	}
}

// PosSaleModelFromEntity creates a model from a domain entity
func PosSaleModelFromEntity(e *pos.Sale) *PosSaleModel {
	var linesBytes []byte
	if e.Lines != nil {
		linesBytes, _ = json.Marshal(e.Lines)
	} else {
		linesBytes = []byte("[]")
	}

	return &PosSaleModel{
		ID:                  e.ID,
		TenantID:            e.TenantID,
		Provider:            string(e.Provider),
		ExternalID:          e.ExternalID,
		ReceiptNumber:       e.ReceiptNumber,
		Type:                string(e.Type),
		RefundForExternalID: e.RefundForExternalID,
		StoreLocationID:     e.StoreLocationID,
		StoreExternalID:     e.StoreExternalID,
		BusinessDate:        e.BusinessDate,
		SoldAt:              e.SoldAt,
		Currency:            e.Currency,
		GrossAmount:         e.GrossAmount,
		DiscountAmount:      e.DiscountAmount,
		TaxAmount:           e.TaxAmount,
		NetAmount:           e.NetAmount,
		Lines:               linesBytes,
		PayloadHash:         e.PayloadHash,
		Status:              string(e.Status),
		PostingID:           e.PostingID,
		PostedAt:            e.PostedAt,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

// StoreLocationModel is the GORM model for provider store locations
type StoreLocationModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_store_locations_external,priority:1"`
	Provider   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_store_locations_external,priority:2"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_store_locations_external,priority:3"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Currency   string    `gorm:"type:varchar(3);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (StoreLocationModel) TableName() string {
	return "store_locations"
}

// ToEntity converts the model to a domain entity
func (m *StoreLocationModel) ToEntity() *pos.StoreLocation {
	return &pos.StoreLocation{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		Provider:   pos.ProviderCode(m.Provider),
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Currency:   m.Currency,
	}
}

// StoreLocationModelFromEntity creates a model from a domain entity
func StoreLocationModelFromEntity(e *pos.StoreLocation) *StoreLocationModel {
	return &StoreLocationModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		Provider:   string(e.Provider),
		ExternalID: e.ExternalID,
		Name:       e.Name,
		Currency:   e.Currency,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// SyncCursorModel is the GORM model for per-provider sync cursors.
// One row per (tenant, provider).
type SyncCursorModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_sync_cursors_provider,priority:1"`
	Provider   string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_sync_cursors_provider,priority:2"`
	LastSyncAt *time.Time `gorm:"index"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SyncCursorModel) TableName() string {
	return "pos_sync_cursors"
}

// ToEntity converts the model to a domain entity
func (m *SyncCursorModel) ToEntity() *pos.SyncCursor {
	return &pos.SyncCursor{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		Provider:   pos.ProviderCode(m.Provider),
		LastSyncAt: m.LastSyncAt,
	}
}

// SyncCursorModelFromEntity creates a model from a domain entity
func SyncCursorModelFromEntity(e *pos.SyncCursor) *SyncCursorModel {
	return &SyncCursorModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		Provider:   string(e.Provider),
		LastSyncAt: e.LastSyncAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
