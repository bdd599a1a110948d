package pos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// loyverseReceiptsPage is one page of the GET /receipts response.
// Receipts are kept as raw JSON so the original payload can be stored
// alongside the normalized sale.
type loyverseReceiptsPage struct {
	Receipts []json.RawMessage `json:"receipts"`
	Cursor   string            `json:"cursor"`
}

// loyverseReceipt is the subset of the Loyverse receipt document the
// sync pipeline consumes
type loyverseReceipt struct {
	ReceiptNumber string             `json:"receipt_number"`
	ReceiptType   string             `json:"receipt_type"`
	RefundFor     string             `json:"refund_for"`
	StoreID       string             `json:"store_id"`
	StoreName     string             `json:"store_name"`
	ReceiptDate   time.Time          `json:"receipt_date"`
	TotalMoney    decimal.Decimal    `json:"total_money"`
	TotalTax      decimal.Decimal    `json:"total_tax"`
	TotalDiscount decimal.Decimal    `json:"total_discount"`
	Currency      string             `json:"currency"`
	LineItems     []loyverseLineItem `json:"line_items"`
}

// loyverseLineItem is one line of a Loyverse receipt
type loyverseLineItem struct {
	ID         string          `json:"id"`
	ItemName   string          `json:"item_name"`
	SKU        string          `json:"sku"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalMoney decimal.Decimal `json:"total_money"`
}
