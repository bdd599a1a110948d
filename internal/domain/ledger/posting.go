package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Ledger Errors
// ---------------------------------------------------------------------------

var (
	ErrNoSplits           = errors.New("ledger: posting requires at least one split")
	ErrUnbalancedPosting  = errors.New("ledger: posting debits do not equal credits")
	ErrDuplicatePosting   = errors.New("ledger: posting already exists for source")
	ErrPostingNotFound    = errors.New("ledger: posting not found")
	ErrInvalidBusinessDay = errors.New("ledger: invalid business date")
)

// ---------------------------------------------------------------------------
// Account codes
// ---------------------------------------------------------------------------

// Fixed account codes used for daily POS postings
const (
	AccountCash      = "1000"
	AccountTaxOutput = "2100"
	AccountRevenue   = "4000"
)

// AccountName returns the display name of a fixed account code
func AccountName(code string) string {
	switch code {
	case AccountCash:
		return "Cash / Undeposited Funds"
	case AccountTaxOutput:
		return "SST Output Tax"
	case AccountRevenue:
		return "Sales Revenue"
	default:
		return code
	}
}

// ---------------------------------------------------------------------------
// Direction represents which side of the ledger a split hits
// ---------------------------------------------------------------------------

// Direction represents which side of the ledger a split hits
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// ---------------------------------------------------------------------------
// PostingStatus represents the lifecycle state of a posting
// ---------------------------------------------------------------------------

// PostingStatus represents the lifecycle state of a posting
type PostingStatus string

const (
	PostingStatusDraft  PostingStatus = "draft"
	PostingStatusPosted PostingStatus = "posted"
)

// IsValid checks if the status is a valid PostingStatus
func (s PostingStatus) IsValid() bool {
	return s == PostingStatusDraft || s == PostingStatusPosted
}

// String returns the string representation of PostingStatus
func (s PostingStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Split
// ---------------------------------------------------------------------------

// Split represents one debit or credit line of a posting
type Split struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Direction   Direction       `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	TaxCode     string          `json:"tax_code,omitempty"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// Validate checks the split invariants. Amounts are always positive;
// the sign is carried by the direction.
func (s *Split) Validate() error {
	if s.AccountCode == "" {
		return shared.NewDomainError("INVALID_ACCOUNT", "Split account code cannot be empty")
	}
	if !s.Direction.IsValid() {
		return shared.NewDomainError("INVALID_DIRECTION", "Split direction must be debit or credit")
	}
	if s.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Split amount must be positive")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Posting aggregate
// ---------------------------------------------------------------------------

// Posting represents one balanced double-entry ledger posting.
// A posting is immutable once created; the balance invariant is enforced
// at construction so the ledger is only ever written balanced.
type Posting struct {
	shared.TenantAggregateRoot
	BusinessDate time.Time     `json:"business_date"`
	Period       string        `json:"period"`
	SourceType   string        `json:"source_type"`
	SourceID     string        `json:"source_id"`
	Reference    string        `json:"reference"`
	Description  string        `json:"description"`
	Splits       []Split       `json:"splits"`
	Status       PostingStatus `json:"status"`
	CreatedBy    uuid.UUID     `json:"created_by"`
}

// NewPosting creates a balanced posting. Construction fails if there are
// no splits, any split is invalid, or debits do not equal credits.
func NewPosting(
	tenantID uuid.UUID,
	createdBy uuid.UUID,
	businessDate time.Time,
	sourceType string,
	sourceID string,
	reference string,
	description string,
	splits []Split,
	status PostingStatus,
) (*Posting, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if businessDate.IsZero() {
		return nil, ErrInvalidBusinessDay
	}
	if sourceType == "" || sourceID == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Posting source type and ID are required")
	}
	if len(splits) == 0 {
		return nil, ErrNoSplits
	}
	if !status.IsValid() {
		status = PostingStatusPosted
	}
	for i := range splits {
		if err := splits[i].Validate(); err != nil {
			return nil, err
		}
	}

	p := &Posting{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BusinessDate:        businessDate,
		Period:              businessDate.UTC().Format("2006-01"),
		SourceType:          sourceType,
		SourceID:            sourceID,
		Reference:           reference,
		Description:         description,
		Splits:              splits,
		Status:              status,
		CreatedBy:           createdBy,
	}
	if !p.Balanced() {
		return nil, fmt.Errorf("%w: debit %s != credit %s",
			ErrUnbalancedPosting, p.TotalDebit(), p.TotalCredit())
	}
	return p, nil
}

// TotalDebit returns the sum of all debit splits
func (p *Posting) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Splits {
		if s.Direction == DirectionDebit {
			total = total.Add(s.Amount)
		}
	}
	return total
}

// TotalCredit returns the sum of all credit splits
func (p *Posting) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Splits {
		if s.Direction == DirectionCredit {
			total = total.Add(s.Amount)
		}
	}
	return total
}

// Balanced returns true if debits equal credits
func (p *Posting) Balanced() bool {
	return p.TotalDebit().Equal(p.TotalCredit())
}
