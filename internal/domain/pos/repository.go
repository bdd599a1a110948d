package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SaleRepository defines the interface for normalized sale persistence
type SaleRepository interface {
	// Insert persists a newly normalized sale. A sale whose
	// (tenant, provider, external ID) triple already exists is rejected
	// with ErrDuplicateSale.
	Insert(ctx context.Context, sale *Sale) error

	// FindByExternalID finds a sale by its deduplication key
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, externalID string) (*Sale, error)

	// ExistsByExternalID checks if a sale has already been ingested
	ExistsByExternalID(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, externalID string) (bool, error)

	// FindUnposted finds all normalized sales for a tenant and business
	// date, optionally scoped to one store location
	FindUnposted(ctx context.Context, tenantID uuid.UUID, businessDate time.Time, storeLocationID *uuid.UUID) ([]*Sale, error)

	// MarkPosted flips the given normalized sales to posted with a
	// reference back to the consuming posting. Sales already posted are
	// left untouched. Returns the number of sales flipped.
	MarkPosted(ctx context.Context, tenantID uuid.UUID, saleIDs []uuid.UUID, postingID uuid.UUID) (int64, error)

	// CountByStatus counts sales by posting status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status SaleStatus) (int64, error)
}

// StoreLocationRepository defines the interface for store location persistence
type StoreLocationRepository interface {
	// FindByExternalID finds a store location by provider store ID.
	// Returns shared.ErrNotFound if the store is unknown.
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, externalID string) (*StoreLocation, error)

	// FindByID finds a store location by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StoreLocation, error)

	// Save creates or updates a store location
	Save(ctx context.Context, location *StoreLocation) error
}

// SyncCursorRepository defines the interface for sync cursor persistence
type SyncCursorRepository interface {
	// Find finds the cursor for a (tenant, provider) pair.
	// Returns shared.ErrNotFound if no sync has completed yet.
	Find(ctx context.Context, tenantID uuid.UUID, provider ProviderCode) (*SyncCursor, error)

	// Save creates or updates a cursor
	Save(ctx context.Context, cursor *SyncCursor) error
}

// SyncResult represents the outcome of one sync pass
type SyncResult struct {
	// Created is the number of sales newly ingested
	Created int `json:"created"`
	// Skipped is the number of sales already present (dedupe hits)
	Skipped int `json:"skipped"`
	// Errors is the number of sales that failed to normalize or persist
	Errors int `json:"errors"`
	// Full indicates the pass ignored the cursor and replayed history
	Full bool `json:"full"`
	// LastSyncAt is the cursor position after the pass
	LastSyncAt time.Time `json:"last_sync_at"`
}
