package pos

import (
	"time"

	"github.com/google/uuid"

	"github.com/openbooks/backend/internal/domain/shared"
)

// SyncCursor tracks incremental sync progress for one (tenant, provider)
// pair. LastSyncAt is the lower bound of the next incremental window and
// only ever moves forward.
type SyncCursor struct {
	shared.TenantAggregateRoot
	Provider   ProviderCode `json:"provider"`
	LastSyncAt *time.Time   `json:"last_sync_at"`
}

// NewSyncCursor creates a cursor with no sync history, so the first run
// pulls the provider's full retrievable history.
func NewSyncCursor(tenantID uuid.UUID, provider ProviderCode) (*SyncCursor, error) {
	if tenantID == uuid.Nil {
		return nil, ErrSaleInvalidTenantID
	}
	if !provider.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider code is not valid")
	}
	return &SyncCursor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Provider:            provider,
	}, nil
}

// Advance moves the cursor forward to the given instant. A regression is
// ignored so the incremental window can never widen backwards.
func (c *SyncCursor) Advance(now time.Time) {
	if c.LastSyncAt != nil && !now.After(*c.LastSyncAt) {
		return
	}
	t := now
	c.LastSyncAt = &t
	c.Touch()
}

// Since returns the incremental lower bound, or nil if no run completed yet
func (c *SyncCursor) Since() *time.Time {
	return c.LastSyncAt
}
