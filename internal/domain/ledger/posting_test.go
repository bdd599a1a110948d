package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancedSplits() []Split {
	return []Split{
		{AccountCode: AccountCash, AccountName: AccountName(AccountCash), Direction: DirectionDebit, Amount: decimal.RequireFromString("185.50")},
		{AccountCode: AccountRevenue, AccountName: AccountName(AccountRevenue), Direction: DirectionCredit, Amount: decimal.RequireFromString("175.00")},
		{AccountCode: AccountTaxOutput, AccountName: AccountName(AccountTaxOutput), Direction: DirectionCredit, Amount: decimal.RequireFromString("10.50"), TaxCode: "SST"},
	}
}

func TestNewPosting(t *testing.T) {
	tenantID := uuid.New()
	businessDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	posting, err := NewPosting(tenantID, uuid.New(), businessDate,
		"pos_daily", "2024-05-01", "POS-2024-05-01", "Daily POS posting 2024-05-01",
		balancedSplits(), PostingStatusPosted)
	require.NoError(t, err)

	assert.Equal(t, tenantID, posting.TenantID)
	assert.Equal(t, "2024-05", posting.Period)
	assert.Equal(t, PostingStatusPosted, posting.Status)
	assert.True(t, posting.Balanced())
	assert.True(t, posting.TotalDebit().Equal(decimal.RequireFromString("185.50")))
	assert.True(t, posting.TotalCredit().Equal(decimal.RequireFromString("185.50")))
}

func TestNewPosting_Unbalanced(t *testing.T) {
	splits := balancedSplits()
	splits[0].Amount = decimal.RequireFromString("185.51")

	_, err := NewPosting(uuid.New(), uuid.New(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"pos_daily", "2024-05-01", "POS-2024-05-01", "", splits, PostingStatusPosted)
	assert.ErrorIs(t, err, ErrUnbalancedPosting)
}

func TestNewPosting_NoSplits(t *testing.T) {
	_, err := NewPosting(uuid.New(), uuid.New(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"pos_daily", "2024-05-01", "POS-2024-05-01", "", nil, PostingStatusPosted)
	assert.ErrorIs(t, err, ErrNoSplits)
}

func TestNewPosting_Validation(t *testing.T) {
	businessDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil tenant", func(t *testing.T) {
		_, err := NewPosting(uuid.Nil, uuid.New(), businessDate,
			"pos_daily", "2024-05-01", "", "", balancedSplits(), PostingStatusPosted)
		assert.Error(t, err)
	})

	t.Run("zero business date", func(t *testing.T) {
		_, err := NewPosting(uuid.New(), uuid.New(), time.Time{},
			"pos_daily", "2024-05-01", "", "", balancedSplits(), PostingStatusPosted)
		assert.ErrorIs(t, err, ErrInvalidBusinessDay)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := NewPosting(uuid.New(), uuid.New(), businessDate,
			"", "", "", "", balancedSplits(), PostingStatusPosted)
		assert.Error(t, err)
	})

	t.Run("negative split amount", func(t *testing.T) {
		splits := balancedSplits()
		splits[1].Amount = decimal.RequireFromString("-175.00")
		_, err := NewPosting(uuid.New(), uuid.New(), businessDate,
			"pos_daily", "2024-05-01", "", "", splits, PostingStatusPosted)
		assert.Error(t, err)
	})

	t.Run("invalid direction", func(t *testing.T) {
		splits := balancedSplits()
		splits[0].Direction = Direction("both")
		_, err := NewPosting(uuid.New(), uuid.New(), businessDate,
			"pos_daily", "2024-05-01", "", "", splits, PostingStatusPosted)
		assert.Error(t, err)
	})
}

func TestSplit_Validate(t *testing.T) {
	s := Split{AccountCode: AccountCash, Direction: DirectionDebit, Amount: decimal.NewFromInt(10)}
	assert.NoError(t, s.Validate())

	s.Amount = decimal.Zero
	assert.Error(t, s.Validate())
}

func TestAccountName(t *testing.T) {
	assert.Equal(t, "Cash / Undeposited Funds", AccountName(AccountCash))
	assert.Equal(t, "Sales Revenue", AccountName(AccountRevenue))
	assert.Equal(t, "SST Output Tax", AccountName(AccountTaxOutput))
	assert.Equal(t, "9999", AccountName("9999"))
}
