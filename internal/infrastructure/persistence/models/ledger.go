package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/shared"
)

// LedgerPostingModel is the GORM model for ledger postings.
// The unique index on (tenant_id, source_type, source_id) makes the
// insert the commit point when two writers race to post the same
// business date.
type LedgerPostingModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_ledger_postings_source,priority:1"`
	BusinessDate time.Time `gorm:"not null;index"`
	Period       string    `gorm:"type:varchar(7);not null;index"`
	SourceType   string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_ledger_postings_source,priority:2"`
	SourceID     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_ledger_postings_source,priority:3"`
	Reference    string    `gorm:"type:varchar(100);not null"`
	Description  string    `gorm:"type:varchar(500)"`
	Splits       []byte    `gorm:"type:jsonb;not null;default:'[]'"`
	Status       string    `gorm:"type:varchar(20);not null;default:'posted'"`
	CreatedBy    uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (LedgerPostingModel) TableName() string {
	return "ledger_postings"
}

// ToEntity converts the model to a domain entity
func (m *LedgerPostingModel) ToEntity() *ledger.Posting {
	var splits []ledger.Split
	if len(m.Splits) > 0 {
		_ = json.Unmarshal(m.Splits, &splits)
	}

	return &ledger.Posting{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		BusinessDate: m.BusinessDate,
		Period:       m.Period,
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		Reference:    m.Reference,
		Description:  m.Description,
		Splits:       splits,
		Status:       ledger.PostingStatus(m.Status),
		CreatedBy:    m.CreatedBy,
	}
}

// LedgerPostingModelFromEntity creates a model from a domain entity
func LedgerPostingModelFromEntity(e *ledger.Posting) *LedgerPostingModel {
	var splitsBytes []byte
	if e.Splits != nil {
		splitsBytes, _ = json.Marshal(e.Splits)
	} else {
		splitsBytes = []byte("[]")
	}

	return &LedgerPostingModel{
		ID:           e.ID,
		TenantID:     e.TenantID,
		BusinessDate: e.BusinessDate,
		Period:       e.Period,
		SourceType:   e.SourceType,
		SourceID:     e.SourceID,
		Reference:    e.Reference,
		Description:  e.Description,
		Splits:       splitsBytes,
		Status:       string(e.Status),
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
