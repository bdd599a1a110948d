package pos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	// Provider errors
	ErrProviderNotConfigured   = errors.New("pos: provider not configured")
	ErrProviderNotEnabled      = errors.New("pos: provider not enabled")
	ErrProviderUnavailable     = errors.New("pos: provider temporarily unavailable")
	ErrProviderRequestFailed   = errors.New("pos: provider request failed")
	ErrProviderInvalidResponse = errors.New("pos: invalid provider response")
	ErrProviderAuthFailed      = errors.New("pos: provider authentication failed")
	ErrProviderRateLimited     = errors.New("pos: provider rate limited")

	// Sale sync errors
	ErrSaleInvalidTenantID = errors.New("pos: invalid tenant ID")
	ErrSaleInvalidPayload  = errors.New("pos: invalid sale payload")
	ErrDuplicateSale       = errors.New("pos: sale already ingested")
	ErrSaleNotFound        = errors.New("pos: sale not found")
)

// ---------------------------------------------------------------------------
// ProviderCode represents the type of external POS provider
// ---------------------------------------------------------------------------

// ProviderCode represents the type of external POS provider
type ProviderCode string

const (
	// ProviderCodeLoyverse represents the Loyverse POS platform
	ProviderCodeLoyverse ProviderCode = "loyverse"
)

// IsValid returns true if the provider code is valid
func (c ProviderCode) IsValid() bool {
	switch c {
	case ProviderCodeLoyverse:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProviderCode
func (c ProviderCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// RawSale represents a sale document pulled from an external POS provider,
// before normalization into the local Sale aggregate.
type RawSale struct {
	// ExternalID is the sale (receipt) identifier on the provider
	ExternalID string
	// ReceiptNumber is the provider's human-readable receipt number
	ReceiptNumber string
	// ReceiptType distinguishes sales from refunds on the provider
	ReceiptType string
	// RefundForExternalID references the refunded sale (refunds only)
	RefundForExternalID string
	// StoreExternalID is the originating store's ID on the provider
	StoreExternalID string
	// StoreName is the originating store's display name, when the
	// provider includes it in the sale payload
	StoreName string
	// SoldAt is the transaction timestamp reported by the provider
	SoldAt time.Time
	// GrossAmount is the total charged for the sale, after discounts
	// and inclusive of tax
	GrossAmount decimal.Decimal
	// DiscountAmount is the total discount applied
	DiscountAmount decimal.Decimal
	// TaxAmount is the tax portion of GrossAmount
	TaxAmount decimal.Decimal
	// Currency is the transaction currency
	Currency string
	// Lines contains the sale line items
	Lines []RawSaleLine
	// Payload is the original provider document (JSON)
	Payload []byte
}

// RawSaleLine represents a line item within a raw provider sale
type RawSaleLine struct {
	// ExternalID is the line identifier on the provider
	ExternalID string
	// ItemName is the sold item's name
	ItemName string
	// SKU is the sold item's SKU, when the provider reports one
	SKU string
	// Quantity is the sold quantity
	Quantity decimal.Decimal
	// UnitPrice is the unit price
	UnitPrice decimal.Decimal
	// TotalAmount is the extended line amount after line discounts
	TotalAmount decimal.Decimal
}

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// SalePullRequest represents a request to pull sales from a provider
type SalePullRequest struct {
	// TenantID is the tenant making the request
	TenantID uuid.UUID
	// Since limits results to sales changed at or after this instant.
	// Nil requests the provider's full retrievable history.
	Since *time.Time
	// Cursor is the provider's opaque pagination cursor
	Cursor string
	// Limit is the page size
	Limit int
}

// Validate validates the sale pull request
func (r *SalePullRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrSaleInvalidTenantID
	}
	if r.Limit < 1 || r.Limit > 250 {
		r.Limit = 100
	}
	return nil
}

// SalePullResponse represents one page of pulled sales
type SalePullResponse struct {
	// Sales contains the pulled sales
	Sales []RawSale
	// NextCursor is the cursor for the next page (empty when exhausted)
	NextCursor string
	// HasMore indicates if another page should be fetched
	HasMore bool
}

// ---------------------------------------------------------------------------
// Provider Port Interface
// ---------------------------------------------------------------------------

// Provider defines the port interface for external POS providers.
// It is defined in the domain layer; concrete implementations (Loyverse)
// live in the infrastructure layer.
type Provider interface {
	// ProviderCode returns the provider code this adapter handles
	ProviderCode() ProviderCode

	// IsEnabled returns true if this provider is enabled for the tenant
	IsEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error)

	// PullSales pulls one page of sales from the provider
	PullSales(ctx context.Context, req *SalePullRequest) (*SalePullResponse, error)
}

// ProviderRegistry provides access to configured POS providers
type ProviderRegistry interface {
	// GetProvider returns the adapter for the specified code
	GetProvider(code ProviderCode) (Provider, error)

	// ListProviders returns all registered provider adapters
	ListProviders() []Provider
}
