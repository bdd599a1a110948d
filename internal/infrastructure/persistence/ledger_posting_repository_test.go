package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openbooks/backend/internal/domain/ledger"
)

// LedgerPostingModelSQLite is a SQLite-compatible version of LedgerPostingModel for testing
type LedgerPostingModelSQLite struct {
	ID           string    `gorm:"primaryKey"`
	TenantID     string    `gorm:"index;not null;uniqueIndex:idx_ledger_postings_source,priority:1"`
	BusinessDate time.Time `gorm:"not null;index"`
	Period       string    `gorm:"not null;index"`
	SourceType   string    `gorm:"not null;uniqueIndex:idx_ledger_postings_source,priority:2"`
	SourceID     string    `gorm:"not null;uniqueIndex:idx_ledger_postings_source,priority:3"`
	Reference    string    `gorm:"not null"`
	Description  string
	Splits       string `gorm:"not null"`
	Status       string `gorm:"not null"`
	CreatedBy    string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (LedgerPostingModelSQLite) TableName() string {
	return "ledger_postings"
}

func setupLedgerPostingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&LedgerPostingModelSQLite{})
	require.NoError(t, err)

	return db
}

func newRepoTestPosting(t *testing.T, tenantID uuid.UUID, sourceID string) *ledger.Posting {
	t.Helper()

	businessDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	splits := []ledger.Split{
		{AccountCode: ledger.AccountCash, AccountName: "Cash on Hand", Direction: ledger.DirectionDebit, Amount: decimal.RequireFromString("185.50")},
		{AccountCode: ledger.AccountRevenue, AccountName: "Sales Revenue", Direction: ledger.DirectionCredit, Amount: decimal.RequireFromString("175.00")},
		{AccountCode: ledger.AccountTaxOutput, AccountName: "SST Output Tax", Direction: ledger.DirectionCredit, Amount: decimal.RequireFromString("10.50"), TaxCode: "SST"},
	}

	posting, err := ledger.NewPosting(
		tenantID,
		uuid.New(),
		businessDate,
		"pos_daily",
		sourceID,
		"POS-20240501",
		"Daily POS sales 2024-05-01",
		splits,
		ledger.PostingStatusPosted,
	)
	require.NoError(t, err)
	return posting
}

func TestLedgerPostingRepository_Insert(t *testing.T) {
	db := setupLedgerPostingTestDB(t)
	repo := NewLedgerPostingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("inserts and round-trips a posting", func(t *testing.T) {
		posting := newRepoTestPosting(t, tenantID, "2024-05-01")

		err := repo.Insert(ctx, posting)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, tenantID, posting.ID)
		require.NoError(t, err)
		assert.Equal(t, posting.ID, found.ID)
		assert.Equal(t, "2024-05", found.Period)
		assert.Equal(t, "pos_daily", found.SourceType)
		require.Len(t, found.Splits, 3)
		assert.True(t, found.Balanced())
		assert.True(t, found.TotalDebit().Equal(decimal.RequireFromString("185.50")))
	})

	t.Run("rejects duplicate source for same tenant", func(t *testing.T) {
		loser := newRepoTestPosting(t, tenantID, "2024-05-01")

		err := repo.Insert(ctx, loser)
		assert.ErrorIs(t, err, ledger.ErrDuplicatePosting)
	})

	t.Run("same source for another tenant is a distinct posting", func(t *testing.T) {
		other := newRepoTestPosting(t, uuid.New(), "2024-05-01")

		err := repo.Insert(ctx, other)
		assert.NoError(t, err)
	})
}

func TestLedgerPostingRepository_FindBySource(t *testing.T) {
	db := setupLedgerPostingTestDB(t)
	repo := NewLedgerPostingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	posting := newRepoTestPosting(t, tenantID, "2024-05-02")
	require.NoError(t, repo.Insert(ctx, posting))

	found, err := repo.FindBySource(ctx, tenantID, "pos_daily", "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, posting.ID, found.ID)

	_, err = repo.FindBySource(ctx, tenantID, "pos_daily", "2024-06-01")
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)
}

func TestLedgerPostingRepository_FindByID_NotFound(t *testing.T) {
	db := setupLedgerPostingTestDB(t)
	repo := NewLedgerPostingRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ledger.ErrPostingNotFound)
}
