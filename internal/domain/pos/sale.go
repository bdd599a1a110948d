package pos

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks/backend/internal/domain/shared"
)

// SaleType distinguishes sales from refunds
type SaleType string

const (
	SaleTypeSale   SaleType = "sale"
	SaleTypeRefund SaleType = "refund"
)

// IsValid checks if the type is a valid SaleType
func (t SaleType) IsValid() bool {
	switch t {
	case SaleTypeSale, SaleTypeRefund:
		return true
	}
	return false
}

// String returns the string representation of SaleType
func (t SaleType) String() string {
	return string(t)
}

// SaleStatus represents the posting status of a normalized sale
type SaleStatus string

const (
	// SaleStatusNormalized indicates the sale is ingested and awaiting posting
	SaleStatusNormalized SaleStatus = "normalized"
	// SaleStatusPosted indicates the sale has been consumed by a ledger posting
	SaleStatusPosted SaleStatus = "posted"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusNormalized, SaleStatusPosted:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// SaleLine represents one normalized line item of a sale
type SaleLine struct {
	LineNumber int             `json:"line_number"`
	ExternalID string          `json:"external_id"`
	SKU        string          `json:"sku"`
	ItemName   string          `json:"item_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
}

// Sale represents a normalized POS sale aggregate root.
// Its identity for deduplication is (tenant, provider, external ID).
// Monetary fields follow the convention GrossAmount = NetAmount + TaxAmount,
// where NetAmount is ex-tax revenue after discounts. Refunds carry negative
// amounts and quantities so that daily aggregation is a plain sum.
type Sale struct {
	shared.TenantAggregateRoot
	Provider            ProviderCode    `json:"provider"`
	ExternalID          string          `json:"external_id"`
	ReceiptNumber       string          `json:"receipt_number"`
	Type                SaleType        `json:"type"`
	RefundForExternalID string          `json:"refund_for_external_id,omitempty"`
	StoreLocationID     *uuid.UUID      `json:"store_location_id,omitempty"`
	StoreExternalID     string          `json:"store_external_id"`
	BusinessDate        time.Time       `json:"business_date"`
	SoldAt              time.Time       `json:"sold_at"`
	Currency            string          `json:"currency"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	Lines               []SaleLine      `json:"lines"`
	PayloadHash         string          `json:"payload_hash"`
	Status              SaleStatus      `json:"status"`
	PostingID           *uuid.UUID      `json:"posting_id,omitempty"`
	PostedAt            *time.Time      `json:"posted_at,omitempty"`
}

// BusinessDateOf returns the UTC calendar day a sale timestamp belongs to
func BusinessDateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewSaleFromRaw normalizes a provider sale into the local aggregate.
// Refunds are inverted: amounts and quantities become negative.
func NewSaleFromRaw(tenantID uuid.UUID, provider ProviderCode, raw *RawSale) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, ErrSaleInvalidTenantID
	}
	if !provider.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider code is not valid")
	}
	if raw == nil || raw.ExternalID == "" {
		return nil, ErrSaleInvalidPayload
	}
	if raw.SoldAt.IsZero() {
		return nil, ErrSaleInvalidPayload
	}

	saleType := SaleTypeSale
	if raw.RefundForExternalID != "" || raw.ReceiptType == "REFUND" {
		saleType = SaleTypeRefund
	}

	gross := raw.GrossAmount
	discount := raw.DiscountAmount
	tax := raw.TaxAmount
	net := gross.Sub(tax)

	lines := make([]SaleLine, 0, len(raw.Lines))
	for i, l := range raw.Lines {
		qty := l.Quantity
		amount := l.TotalAmount
		if saleType == SaleTypeRefund {
			qty = qty.Abs().Neg()
			amount = amount.Abs().Neg()
		}
		lines = append(lines, SaleLine{
			LineNumber: i + 1,
			ExternalID: l.ExternalID,
			SKU:        l.SKU,
			ItemName:   l.ItemName,
			Quantity:   qty,
			UnitPrice:  l.UnitPrice,
			Amount:     amount,
		})
	}

	if saleType == SaleTypeRefund {
		gross = gross.Abs().Neg()
		discount = discount.Abs().Neg()
		tax = tax.Abs().Neg()
		net = net.Abs().Neg()
	}

	currency := raw.Currency
	if currency == "" {
		currency = "MYR"
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Provider:            provider,
		ExternalID:          raw.ExternalID,
		ReceiptNumber:       raw.ReceiptNumber,
		Type:                saleType,
		RefundForExternalID: raw.RefundForExternalID,
		StoreExternalID:     raw.StoreExternalID,
		BusinessDate:        BusinessDateOf(raw.SoldAt),
		SoldAt:              raw.SoldAt,
		Currency:            currency,
		GrossAmount:         gross,
		DiscountAmount:      discount,
		TaxAmount:           tax,
		NetAmount:           net,
		Lines:               lines,
		PayloadHash:         HashPayload(raw.Payload),
		Status:              SaleStatusNormalized,
	}
	return sale, nil
}

// HashPayload returns the hex SHA-256 digest of a raw provider payload
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// AttachStoreLocation links the sale to an upserted store location
func (s *Sale) AttachStoreLocation(storeLocationID uuid.UUID) {
	if storeLocationID == uuid.Nil {
		return
	}
	s.StoreLocationID = &storeLocationID
	s.Touch()
}

// MarkPosted transitions the sale to posted with a reference back to the
// consuming ledger posting. The transition happens exactly once.
func (s *Sale) MarkPosted(postingID uuid.UUID) error {
	if s.Status == SaleStatusPosted {
		return shared.NewDomainError("ALREADY_POSTED", "Sale has already been posted")
	}
	if postingID == uuid.Nil {
		return shared.NewDomainError("INVALID_POSTING_ID", "Posting ID cannot be empty")
	}
	now := time.Now()
	s.Status = SaleStatusPosted
	s.PostingID = &postingID
	s.PostedAt = &now
	s.UpdatedAt = now
	return nil
}

// IsPosted returns true if the sale has been consumed by a posting
func (s *Sale) IsPosted() bool {
	return s.Status == SaleStatusPosted
}

// IsRefund returns true if the sale is a refund
func (s *Sale) IsRefund() bool {
	return s.Type == SaleTypeRefund
}
