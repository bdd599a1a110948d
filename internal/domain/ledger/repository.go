package ledger

import (
	"context"

	"github.com/google/uuid"
)

// PostingRepository defines the interface for ledger posting persistence
type PostingRepository interface {
	// Insert persists a posting. A posting whose
	// (tenant, source type, source ID) triple already exists is rejected
	// with ErrDuplicatePosting; this is the guard against two writers
	// racing to post the same business date.
	Insert(ctx context.Context, posting *Posting) error

	// FindByID finds a posting by ID for a tenant.
	// Returns ErrPostingNotFound if it does not exist.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Posting, error)

	// FindBySource finds a posting by its source reference.
	// Returns ErrPostingNotFound if it does not exist.
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*Posting, error)
}
