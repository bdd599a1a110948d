package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/domain/shared"
	"github.com/openbooks/backend/internal/infrastructure/metrics"
)

// SyncRequest represents a request to run one sync pass
type SyncRequest struct {
	TenantID uuid.UUID
	Provider pos.ProviderCode
	// Full ignores the saved cursor and replays the provider's
	// retrievable history
	Full bool
}

// SyncService ingests sales from external POS providers into the local
// sale store. Each pass pulls all pages for the incremental window,
// deduplicates by (tenant, provider, external ID) and only then advances
// the cursor, so an interrupted pass is safe to retry with the same window.
type SyncService struct {
	providers pos.ProviderRegistry
	sales     pos.SaleRepository
	stores    pos.StoreLocationRepository
	cursors   pos.SyncCursorRepository
	metrics   *metrics.Registry
	logger    *zap.Logger

	// errorAlertThreshold triggers an error-spike signal when one pass
	// produces at least this many per-record failures. Zero disables it.
	errorAlertThreshold int
}

// NewSyncService creates a new SyncService
func NewSyncService(
	providers pos.ProviderRegistry,
	sales pos.SaleRepository,
	stores pos.StoreLocationRepository,
	cursors pos.SyncCursorRepository,
	registry *metrics.Registry,
	logger *zap.Logger,
	errorAlertThreshold int,
) *SyncService {
	return &SyncService{
		providers:           providers,
		sales:               sales,
		stores:              stores,
		cursors:             cursors,
		metrics:             registry,
		logger:              logger,
		errorAlertThreshold: errorAlertThreshold,
	}
}

// Sync runs one sync pass for a tenant and provider
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*pos.SyncResult, error) {
	if req.TenantID == uuid.Nil {
		return nil, pos.ErrSaleInvalidTenantID
	}

	provider, err := s.providers.GetProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	enabled, err := provider.IsEnabled(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check provider status: %w", err)
	}
	if !enabled {
		return nil, pos.ErrProviderNotEnabled
	}

	cursor, err := s.cursors.Find(ctx, req.TenantID, req.Provider)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to load sync cursor: %w", err)
		}
		cursor, err = pos.NewSyncCursor(req.TenantID, req.Provider)
		if err != nil {
			return nil, err
		}
	}

	var since *time.Time
	if !req.Full {
		since = cursor.Since()
	}

	// The cursor advances to the pass start, not its end, so sales
	// created while the pass runs fall into the next window.
	startedAt := time.Now().UTC()

	s.metrics.Inc(metrics.SyncRuns)
	if req.Full || since == nil {
		s.metrics.Inc(metrics.SyncFullRuns)
	} else {
		s.metrics.Inc(metrics.SyncIncrementalRuns)
	}

	s.logger.Info("Starting POS sync pass",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("provider", req.Provider.String()),
		zap.Bool("full", req.Full || since == nil),
	)

	result := &pos.SyncResult{Full: req.Full || since == nil}

	pullReq := &pos.SalePullRequest{
		TenantID: req.TenantID,
		Since:    since,
	}
	if err := pullReq.Validate(); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := provider.PullSales(ctx, pullReq)
		if err != nil {
			// Upstream failure: the cursor stays put so the same
			// window is retried. Sales already inserted on earlier
			// pages are absorbed by dedupe on retry.
			s.metrics.Inc(metrics.SyncErrors)
			result.Errors++
			return nil, fmt.Errorf("failed to pull sales: %w", err)
		}

		for i := range resp.Sales {
			s.ingest(ctx, req.TenantID, req.Provider, &resp.Sales[i], result)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		pullReq.Cursor = resp.NextCursor
	}

	if s.errorAlertThreshold > 0 && result.Errors >= s.errorAlertThreshold {
		s.metrics.Inc(metrics.SyncErrorSpikes)
		s.logger.Warn("POS sync error spike detected",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("provider", req.Provider.String()),
			zap.Int("errors", result.Errors),
			zap.Int("threshold", s.errorAlertThreshold),
		)
	}

	cursor.Advance(startedAt)
	if err := s.cursors.Save(ctx, cursor); err != nil {
		// The pass itself succeeded; a stale cursor only widens the
		// next window, which dedupe absorbs.
		s.logger.Warn("Failed to save sync cursor",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("provider", req.Provider.String()),
			zap.Error(err),
		)
	}
	result.LastSyncAt = startedAt

	s.logger.Info("POS sync pass completed",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("provider", req.Provider.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
	)

	return result, nil
}

// ingest normalizes and stores one raw sale, updating counters in place
func (s *SyncService) ingest(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, raw *pos.RawSale, result *pos.SyncResult) {
	exists, err := s.sales.ExistsByExternalID(ctx, tenantID, provider, raw.ExternalID)
	if err != nil {
		s.recordError(tenantID, raw.ExternalID, err, result)
		return
	}
	if exists {
		result.Skipped++
		s.metrics.Inc(metrics.SyncSkipped)
		return
	}

	sale, err := pos.NewSaleFromRaw(tenantID, provider, raw)
	if err != nil {
		s.recordError(tenantID, raw.ExternalID, err, result)
		return
	}

	if raw.StoreExternalID != "" {
		storeID, err := s.upsertStore(ctx, tenantID, provider, raw)
		if err != nil {
			s.recordError(tenantID, raw.ExternalID, err, result)
			return
		}
		sale.AttachStoreLocation(storeID)
	}

	if err := s.sales.Insert(ctx, sale); err != nil {
		if errors.Is(err, pos.ErrDuplicateSale) {
			// Lost a race with a concurrent pass; the sale is present
			result.Skipped++
			s.metrics.Inc(metrics.SyncSkipped)
			return
		}
		s.recordError(tenantID, raw.ExternalID, err, result)
		return
	}

	result.Created++
	s.metrics.Inc(metrics.SyncCreated)
}

// upsertStore resolves the local store location for a sale, creating it
// from the sale payload on first sight
func (s *SyncService) upsertStore(ctx context.Context, tenantID uuid.UUID, provider pos.ProviderCode, raw *pos.RawSale) (uuid.UUID, error) {
	existing, err := s.stores.FindByExternalID(ctx, tenantID, provider, raw.StoreExternalID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	location, err := pos.NewStoreLocation(tenantID, provider, raw.StoreExternalID, raw.StoreName, raw.Currency)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.stores.Save(ctx, location); err != nil {
		return uuid.Nil, err
	}
	return location.ID, nil
}

func (s *SyncService) recordError(tenantID uuid.UUID, externalID string, err error, result *pos.SyncResult) {
	result.Errors++
	s.metrics.Inc(metrics.SyncErrors)
	s.logger.Error("Failed to ingest sale",
		zap.String("tenant_id", tenantID.String()),
		zap.String("external_id", externalID),
		zap.Error(err),
	)
}
