// Package pos contains adapters for external POS providers.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks/backend/internal/domain/pos"
)

// maxLoyverseResponseSize limits the response body size to prevent memory exhaustion
const maxLoyverseResponseSize = 10 * 1024 * 1024 // 10MB max response

// LoyverseAdapter implements the pos.Provider interface for the Loyverse
// POS platform. Receipts are pulled from GET /receipts with cursor
// pagination and an optional updated_at_min lower bound.
type LoyverseAdapter struct {
	config     *LoyverseConfig
	httpClient *http.Client

	// tenantConfigs stores per-tenant configurations
	tenantConfigs map[uuid.UUID]*LoyverseConfig
	mu            sync.RWMutex // Protects tenantConfigs map access
}

// NewLoyverseAdapter creates a new Loyverse adapter with the given default
// configuration. A nil config is allowed; the adapter then reports
// disabled for every tenant without a tenant-level config.
func NewLoyverseAdapter(config *LoyverseConfig) (*LoyverseAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &LoyverseAdapter{
		config:        config,
		httpClient:    &http.Client{Timeout: timeout},
		tenantConfigs: make(map[uuid.UUID]*LoyverseConfig),
	}, nil
}

// SetTenantConfig sets the configuration for a specific tenant
func (a *LoyverseAdapter) SetTenantConfig(tenantID uuid.UUID, config *LoyverseConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tenantConfigs[tenantID] = config
	return nil
}

// getTenantConfig retrieves the configuration for a tenant
func (a *LoyverseAdapter) getTenantConfig(tenantID uuid.UUID) (*LoyverseConfig, error) {
	a.mu.RLock()
	config, ok := a.tenantConfigs[tenantID]
	a.mu.RUnlock()
	if ok {
		return config, nil
	}
	if a.config != nil {
		return a.config, nil
	}
	return nil, pos.ErrProviderNotConfigured
}

// ProviderCode returns the provider code this adapter handles
func (a *LoyverseAdapter) ProviderCode() pos.ProviderCode {
	return pos.ProviderCodeLoyverse
}

// IsEnabled returns true if Loyverse is enabled for the tenant
func (a *LoyverseAdapter) IsEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	config, err := a.getTenantConfig(tenantID)
	if err != nil {
		return false, nil
	}
	return config.APIKey != "", nil
}

// PullSales pulls one page of receipts from Loyverse
func (a *LoyverseAdapter) PullSales(ctx context.Context, req *pos.SalePullRequest) (*pos.SalePullResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	config, err := a.getTenantConfig(req.TenantID)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	limit := req.Limit
	if config.PageSize > 0 && config.PageSize < limit {
		limit = config.PageSize
	}
	query.Set("limit", strconv.Itoa(limit))
	if req.Since != nil {
		// Receipts updated since the cursor, not just created, so
		// upstream edits to older receipts are re-delivered.
		query.Set("updated_at_min", req.Since.UTC().Format(time.RFC3339))
	}
	if req.Cursor != "" {
		query.Set("cursor", req.Cursor)
	}

	body, err := a.doRequest(ctx, config, "/receipts", query)
	if err != nil {
		return nil, err
	}

	var page loyverseReceiptsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", pos.ErrProviderInvalidResponse, err)
	}

	response := &pos.SalePullResponse{
		Sales:      make([]pos.RawSale, 0, len(page.Receipts)),
		NextCursor: page.Cursor,
		HasMore:    page.Cursor != "",
	}
	for _, raw := range page.Receipts {
		sale, err := convertReceipt(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", pos.ErrProviderInvalidResponse, err)
		}
		response.Sales = append(response.Sales, *sale)
	}
	return response, nil
}

// doRequest performs an authenticated GET against the Loyverse API
func (a *LoyverseAdapter) doRequest(ctx context.Context, config *LoyverseConfig, path string, query url.Values) ([]byte, error) {
	reqURL := config.APIBaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("loyverse: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pos.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoyverseResponseSize))
	if err != nil {
		return nil, fmt.Errorf("loyverse: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", pos.ErrProviderAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, pos.ErrProviderRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", pos.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", pos.ErrProviderRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// convertReceipt maps one raw Loyverse receipt document to a RawSale,
// keeping the original JSON as the payload snapshot
func convertReceipt(raw json.RawMessage) (*pos.RawSale, error) {
	var receipt loyverseReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, err
	}
	if receipt.ReceiptNumber == "" {
		return nil, fmt.Errorf("receipt without receipt_number")
	}

	sale := &pos.RawSale{
		ExternalID:          receipt.ReceiptNumber,
		ReceiptNumber:       receipt.ReceiptNumber,
		ReceiptType:         receipt.ReceiptType,
		RefundForExternalID: receipt.RefundFor,
		StoreExternalID:     receipt.StoreID,
		StoreName:           receipt.StoreName,
		SoldAt:              receipt.ReceiptDate,
		GrossAmount:         receipt.TotalMoney,
		DiscountAmount:      receipt.TotalDiscount,
		TaxAmount:           receipt.TotalTax,
		Currency:            receipt.Currency,
		Lines:               make([]pos.RawSaleLine, 0, len(receipt.LineItems)),
		Payload:             append([]byte(nil), raw...),
	}
	for _, item := range receipt.LineItems {
		sale.Lines = append(sale.Lines, pos.RawSaleLine{
			ExternalID:  item.ID,
			ItemName:    item.ItemName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			TotalAmount: item.TotalMoney,
		})
	}
	return sale, nil
}

// Ensure LoyverseAdapter implements pos.Provider
var _ pos.Provider = (*LoyverseAdapter)(nil)
