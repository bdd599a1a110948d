package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/domain/pos"
	"github.com/openbooks/backend/internal/infrastructure/metrics"
)

// SourceTypePosDaily tags ledger postings produced by daily POS aggregation
const SourceTypePosDaily = "pos_daily"

var (
	// ErrInvalidBusinessDate indicates the business date is not a valid
	// YYYY-MM-DD calendar date
	ErrInvalidBusinessDate = errors.New("ledger: invalid business date, expected YYYY-MM-DD")

	// ErrNothingToPost indicates no normalized sales remain for the
	// requested date and scope. Distinct from a generic failure so the
	// API can answer 422 instead of 500.
	ErrNothingToPost = errors.New("ledger: no unposted normalized sales for given criteria")
)

// PostDailyRequest represents a request to post one business day
type PostDailyRequest struct {
	TenantID        uuid.UUID
	UserID          uuid.UUID
	BusinessDate    string
	StoreLocationID *uuid.UUID
	Status          ledger.PostingStatus
}

// PostDailyCounts summarizes the consumed sales
type PostDailyCounts struct {
	Sales   int `json:"sales"`
	Refunds int `json:"refunds"`
	Total   int `json:"total"`
}

// PostDailyTotals summarizes the aggregated amounts
type PostDailyTotals struct {
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Net      decimal.Decimal `json:"net"`
}

// PostDailyResult represents the outcome of one daily posting
type PostDailyResult struct {
	Posting         *ledger.Posting `json:"ledger_posting"`
	BusinessDate    string          `json:"business_date"`
	StoreLocationID *uuid.UUID      `json:"store_location_id,omitempty"`
	Counts          PostDailyCounts `json:"counts"`
	Totals          PostDailyTotals `json:"totals"`
}

// DailyPostingService folds all normalized sales of one tenant, store and
// business date into a single balanced ledger posting and flips the
// consumed sales to posted. The posting is persisted before any sale is
// flipped; if flipping partially fails the posting stays authoritative
// and a later run can repeat the flip because it is keyed by the posting
// reference.
type DailyPostingService struct {
	sales    pos.SaleRepository
	postings ledger.PostingRepository
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewDailyPostingService creates a new DailyPostingService
func NewDailyPostingService(
	sales pos.SaleRepository,
	postings ledger.PostingRepository,
	registry *metrics.Registry,
	logger *zap.Logger,
) *DailyPostingService {
	return &DailyPostingService{
		sales:    sales,
		postings: postings,
		metrics:  registry,
		logger:   logger,
	}
}

// PostDaily posts one business day for a tenant, optionally scoped to a
// single store location
func (s *DailyPostingService) PostDaily(ctx context.Context, req PostDailyRequest) (*PostDailyResult, error) {
	if req.TenantID == uuid.Nil {
		return nil, pos.ErrSaleInvalidTenantID
	}
	businessDate, err := time.ParseInLocation("2006-01-02", req.BusinessDate, time.UTC)
	if err != nil {
		return nil, ErrInvalidBusinessDate
	}
	status := req.Status
	if !status.IsValid() {
		status = ledger.PostingStatusPosted
	}

	sales, err := s.sales.FindUnposted(ctx, req.TenantID, businessDate, req.StoreLocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unposted sales: %w", err)
	}
	if len(sales) == 0 {
		s.metrics.Inc(metrics.PostNothing)
		return nil, ErrNothingToPost
	}

	totals := PostDailyTotals{
		Gross:    decimal.Zero,
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
		Net:      decimal.Zero,
	}
	counts := PostDailyCounts{Total: len(sales)}
	saleIDs := make([]uuid.UUID, 0, len(sales))
	for _, sale := range sales {
		if sale.IsRefund() {
			counts.Refunds++
		} else {
			counts.Sales++
		}
		totals.Gross = totals.Gross.Add(sale.GrossAmount)
		totals.Discount = totals.Discount.Add(sale.DiscountAmount)
		totals.Tax = totals.Tax.Add(sale.TaxAmount)
		totals.Net = totals.Net.Add(sale.NetAmount)
		saleIDs = append(saleIDs, sale.ID)
	}

	splits := buildSplits(totals)

	sourceID := req.BusinessDate
	reference := "POS-" + req.BusinessDate
	description := "Daily POS posting " + req.BusinessDate
	if req.StoreLocationID != nil {
		sourceID += ":" + req.StoreLocationID.String()
		reference += "-" + req.StoreLocationID.String()
		description += " store " + req.StoreLocationID.String()
	}

	posting, err := ledger.NewPosting(req.TenantID, req.UserID, businessDate,
		SourceTypePosDaily, sourceID, reference, description, splits, status)
	if err != nil {
		return nil, err
	}

	if err := s.postings.Insert(ctx, posting); err != nil {
		// ErrDuplicatePosting surfaces when two callers race for the
		// same date and scope; the loser must not flip any sale.
		return nil, err
	}

	flipped, err := s.sales.MarkPosted(ctx, req.TenantID, saleIDs, posting.ID)
	if err != nil {
		// The posting is persisted and authoritative; a reconciliation
		// pass can re-run the flip idempotently.
		s.logger.Error("Posting persisted but marking sales failed",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("posting_id", posting.ID.String()),
			zap.String("business_date", req.BusinessDate),
			zap.Error(err),
		)
	} else if flipped != int64(len(saleIDs)) {
		s.logger.Warn("Not all consumed sales were flipped to posted",
			zap.String("posting_id", posting.ID.String()),
			zap.Int64("flipped", flipped),
			zap.Int("expected", len(saleIDs)),
		)
	}

	s.metrics.Inc(metrics.PostSuccess)
	if totals.Gross.IsNegative() {
		s.metrics.Inc(metrics.PostNegativeDay)
	}

	s.logger.Info("Daily POS posting completed",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("posting_id", posting.ID.String()),
		zap.String("business_date", req.BusinessDate),
		zap.Int("sales", counts.Sales),
		zap.Int("refunds", counts.Refunds),
		zap.String("gross", totals.Gross.String()),
	)

	return &PostDailyResult{
		Posting:         posting,
		BusinessDate:    req.BusinessDate,
		StoreLocationID: req.StoreLocationID,
		Counts:          counts,
		Totals:          totals,
	}, nil
}

// buildSplits maps the day's totals onto debit/credit splits. On a normal
// day cash is debited for the tax-inclusive total, revenue and output tax
// are credited. A refund-heavy day with negative totals reverses the
// direction of every leg. Zero legs are omitted.
//
// The direction choice is per day, not per leg: a mixed-sign day (gross
// and tax with opposite signs) does not balance under either branch, and
// ledger.NewPosting rejects it with ErrUnbalancedPosting. Nothing is
// persisted in that case.
func buildSplits(totals PostDailyTotals) []ledger.Split {
	splits := make([]ledger.Split, 0, 3)
	if !totals.Gross.IsNegative() {
		if !totals.Gross.IsZero() {
			splits = append(splits, ledger.Split{
				AccountCode: ledger.AccountCash,
				AccountName: ledger.AccountName(ledger.AccountCash),
				Direction:   ledger.DirectionDebit,
				Amount:      totals.Gross,
			})
		}
		if !totals.Net.IsZero() {
			splits = append(splits, ledger.Split{
				AccountCode: ledger.AccountRevenue,
				AccountName: ledger.AccountName(ledger.AccountRevenue),
				Direction:   ledger.DirectionCredit,
				Amount:      totals.Net.Abs(),
			})
		}
		if !totals.Tax.IsZero() {
			splits = append(splits, ledger.Split{
				AccountCode: ledger.AccountTaxOutput,
				AccountName: ledger.AccountName(ledger.AccountTaxOutput),
				Direction:   ledger.DirectionCredit,
				Amount:      totals.Tax.Abs(),
				TaxCode:     "SST",
				TaxAmount:   totals.Tax.Abs(),
			})
		}
		return splits
	}

	if !totals.Net.IsZero() {
		splits = append(splits, ledger.Split{
			AccountCode: ledger.AccountRevenue,
			AccountName: "Sales Revenue (Return)",
			Direction:   ledger.DirectionDebit,
			Amount:      totals.Net.Abs(),
		})
	}
	if !totals.Tax.IsZero() {
		splits = append(splits, ledger.Split{
			AccountCode: ledger.AccountTaxOutput,
			AccountName: "SST Output Tax (Return)",
			Direction:   ledger.DirectionDebit,
			Amount:      totals.Tax.Abs(),
			TaxCode:     "SST",
			TaxAmount:   totals.Tax.Abs(),
		})
	}
	splits = append(splits, ledger.Split{
		AccountCode: ledger.AccountCash,
		AccountName: ledger.AccountName(ledger.AccountCash),
		Direction:   ledger.DirectionCredit,
		Amount:      totals.Gross.Abs(),
	})
	return splits
}
