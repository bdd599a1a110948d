package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/openbooks/backend/internal/application/ledger"
	apppos "github.com/openbooks/backend/internal/application/pos"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/infrastructure/scheduler"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// PosSyncer runs one sync pass for a tenant and provider
type PosSyncer interface {
	Sync(ctx context.Context, req apppos.SyncRequest) (*pos.SyncResult, error)
}

// DailyPoster folds one business day of sales into a ledger posting
type DailyPoster interface {
	PostDaily(ctx context.Context, req appledger.PostDailyRequest) (*appledger.PostDailyResult, error)
}

// SyncHistorySource exposes recent scheduled and manual sync runs
type SyncHistorySource interface {
	GetHistoryByTenant(tenantID uuid.UUID, limit int) []*scheduler.RunRecord
}

// PosHandler handles POS synchronization and daily posting HTTP requests
type PosHandler struct {
	BaseHandler
	syncService    PosSyncer
	postingService DailyPoster
	history        SyncHistorySource
	logger         *zap.Logger
}

// NewPosHandler creates a new PosHandler. history may be nil when the
// scheduler is disabled.
func NewPosHandler(syncService PosSyncer, postingService DailyPoster, history SyncHistorySource, logger *zap.Logger) *PosHandler {
	return &PosHandler{
		syncService:    syncService,
		postingService: postingService,
		history:        history,
		logger:         logger,
	}
}

// RegisterRoutes registers POS routes on the given router group
func (h *PosHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pos")
	group.POST("/:provider/sync", h.Sync)
	group.POST("/:provider/post", h.PostDaily)
	group.GET("/:provider/sync/history", h.SyncHistory)
}

// SyncRequestBody is the optional body for a manual sync trigger
type SyncRequestBody struct {
	Full bool `json:"full"`
}

// Sync triggers one synchronization pass against the provider
func (h *PosHandler) Sync(c *gin.Context) {
	provider := pos.ProviderCode(c.Param("provider"))
	if !provider.IsValid() {
		h.NotFound(c, "unknown POS provider: "+c.Param("provider"))
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid X-Tenant-ID header")
		return
	}

	var body SyncRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.Error(c, 400, dto.ErrCodeInvalidJSON, "invalid request body: "+err.Error())
			return
		}
	}
	full := body.Full || c.Query("full") == "true"

	result, err := h.syncService.Sync(c.Request.Context(), apppos.SyncRequest{
		TenantID: tenantID,
		Provider: provider,
		Full:     full,
	})
	if err != nil {
		h.handleSyncError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *PosHandler) handleSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pos.ErrProviderNotEnabled), errors.Is(err, pos.ErrProviderNotConfigured):
		h.ServiceUnavailable(c, dto.ErrCodeIntegrationDisabled, "POS integration is not enabled for this tenant")
	case errors.Is(err, pos.ErrProviderRateLimited):
		h.Error(c, 429, dto.ErrCodeProviderRateLimited, "POS provider throttled the request, retry later")
	case errors.Is(err, pos.ErrProviderUnavailable), errors.Is(err, pos.ErrProviderRequestFailed):
		h.Error(c, 502, dto.ErrCodeProviderUnavailable, "POS provider is unavailable")
	default:
		h.logger.Error("sync pass failed", zap.Error(err))
		h.InternalError(c, "sync pass failed")
	}
}

// PostDailyRequestBody is the body for a daily posting trigger. Status
// accepts "draft" or "posted"; anything else, including absence, posts.
type PostDailyRequestBody struct {
	BusinessDate    string  `json:"business_date" binding:"required,businessdate"`
	StoreLocationID *string `json:"store_location_id"`
	Status          string  `json:"status"`
}

// PostDaily folds all unposted sales of one business date into a single
// balanced ledger posting
func (h *PosHandler) PostDaily(c *gin.Context) {
	provider := pos.ProviderCode(c.Param("provider"))
	if !provider.IsValid() {
		h.NotFound(c, "unknown POS provider: "+c.Param("provider"))
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid X-Tenant-ID header")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "invalid X-User-ID header")
		return
	}

	var body PostDailyRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, []dto.ValidationDetail{
			{Field: "business_date", Message: "must be a calendar date in YYYY-MM-DD format"},
		})
		return
	}

	var storeLocationID *uuid.UUID
	if body.StoreLocationID != nil && *body.StoreLocationID != "" {
		id, err := uuid.Parse(*body.StoreLocationID)
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{
				{Field: "store_location_id", Message: "must be a valid UUID"},
			})
			return
		}
		storeLocationID = &id
	}

	status := ledger.PostingStatusPosted
	if body.Status == string(ledger.PostingStatusDraft) {
		status = ledger.PostingStatusDraft
	}

	result, err := h.postingService.PostDaily(c.Request.Context(), appledger.PostDailyRequest{
		TenantID:        tenantID,
		UserID:          userID,
		BusinessDate:    body.BusinessDate,
		StoreLocationID: storeLocationID,
		Status:          status,
	})
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	h.Created(c, result)
}

func (h *PosHandler) handlePostError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appledger.ErrInvalidBusinessDate):
		h.Error(c, 400, dto.ErrCodeInvalidBusinessDate, "business_date must be a valid YYYY-MM-DD calendar date")
	case errors.Is(err, appledger.ErrNothingToPost):
		h.UnprocessableEntity(c, dto.ErrCodeNothingToPost,
			"no unposted sales for the given business date and store, run a sync first or pick another date")
	case errors.Is(err, ledger.ErrDuplicatePosting):
		h.Conflict(c, dto.ErrCodeAlreadyPosted, "a ledger posting already exists for this business date and store")
	case errors.Is(err, ledger.ErrUnbalancedPosting):
		h.UnprocessableEntity(c, dto.ErrCodeUnbalancedPosting, "aggregated posting does not balance")
	default:
		h.logger.Error("daily posting failed", zap.Error(err))
		h.InternalError(c, "daily posting failed")
	}
}

// SyncRunResponse represents one historical sync run
type SyncRunResponse struct {
	ID          uuid.UUID `json:"id"`
	Provider    string    `json:"provider"`
	Full        bool      `json:"full"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Skipped     bool      `json:"skipped"`
	Reason      string    `json:"reason,omitempty"`
	Error       string    `json:"error,omitempty"`
	Created     int       `json:"created"`
	Duplicates  int       `json:"duplicates"`
	Errors      int       `json:"errors"`
}

// SyncHistory returns the most recent sync runs for the tenant
func (h *PosHandler) SyncHistory(c *gin.Context) {
	provider := pos.ProviderCode(c.Param("provider"))
	if !provider.IsValid() {
		h.NotFound(c, "unknown POS provider: "+c.Param("provider"))
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid X-Tenant-ID header")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.ValidationError(c, []dto.ValidationDetail{
				{Field: "limit", Message: "must be an integer between 1 and 100"},
			})
			return
		}
		limit = parsed
	}

	runs := make([]SyncRunResponse, 0, limit)
	if h.history != nil {
		for _, rec := range h.history.GetHistoryByTenant(tenantID, limit) {
			if rec.Provider != provider {
				continue
			}
			runs = append(runs, SyncRunResponse{
				ID:          rec.ID,
				Provider:    rec.Provider.String(),
				Full:        rec.Full,
				StartedAt:   rec.StartedAt,
				CompletedAt: rec.CompletedAt,
				Skipped:     rec.Skipped,
				Reason:      rec.Reason,
				Error:       rec.Error,
				Created:     rec.Created,
				Duplicates:  rec.Duplicates,
				Errors:      rec.Errors,
			})
		}
	}

	h.Success(c, runs)
}
