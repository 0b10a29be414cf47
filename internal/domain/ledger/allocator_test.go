package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharesWithJoining(readings ...int64) []MeterShare {
	shares := make([]MeterShare, len(readings))
	for i, r := range readings {
		shares[i] = MeterShare{TenantID: uuid.New(), JoiningReading: r}
	}
	return shares
}

func sumShares(a Allocation) (units, amount int64) {
	for _, s := range a.PerTenant {
		units += s.Units
		amount += s.Amount
	}
	return units, amount
}

// ============================================
// Allocate Tests
// ============================================

func TestAllocate_FourTenantsRemainderToLast(t *testing.T) {
	shares := sharesWithJoining(0, 0, 0, 0)

	a, err := Allocate(shares, 450, decimal.NewFromInt(12))
	require.NoError(t, err)

	assert.Equal(t, int64(450), a.TotalUnits)
	assert.Equal(t, int64(5400), a.TotalAmount)
	require.Len(t, a.PerTenant, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, shares[i].TenantID, a.PerTenant[i].TenantID)
		assert.Equal(t, int64(112), a.PerTenant[i].Units)
		assert.Equal(t, int64(1344), a.PerTenant[i].Amount)
	}
	assert.Equal(t, shares[3].TenantID, a.PerTenant[3].TenantID)
	assert.Equal(t, int64(114), a.PerTenant[3].Units)
	assert.Equal(t, int64(1368), a.PerTenant[3].Amount)
}

func TestAllocate_SingleTenantGetsEverything(t *testing.T) {
	shares := sharesWithJoining(900)

	a, err := Allocate(shares, 950, decimal.NewFromInt(12))
	require.NoError(t, err)

	assert.Equal(t, int64(900), a.Baseline)
	assert.Equal(t, int64(50), a.TotalUnits)
	assert.Equal(t, int64(600), a.TotalAmount)
	require.Len(t, a.PerTenant, 1)
	assert.Equal(t, int64(50), a.PerTenant[0].Units)
	assert.Equal(t, int64(600), a.PerTenant[0].Amount)
}

func TestAllocate_BaselineIsHighestJoiningReading(t *testing.T) {
	shares := sharesWithJoining(100, 340, 200)

	a, err := Allocate(shares, 400, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, int64(340), a.Baseline)
	assert.Equal(t, int64(60), a.TotalUnits)
	assert.Equal(t, int64(600), a.TotalAmount)
}

func TestAllocate_NegativeDeltaClampsToZero(t *testing.T) {
	shares := sharesWithJoining(500, 500)

	a, err := Allocate(shares, 20, decimal.NewFromInt(12))
	require.NoError(t, err)

	assert.Equal(t, int64(0), a.TotalUnits)
	assert.Equal(t, int64(0), a.TotalAmount)
	for _, s := range a.PerTenant {
		assert.Zero(t, s.Units)
		assert.Zero(t, s.Amount)
	}
}

func TestAllocate_FractionalRateStillSumsExactly(t *testing.T) {
	shares := sharesWithJoining(0, 0, 0)

	a, err := Allocate(shares, 101, decimal.RequireFromString("7.35"))
	require.NoError(t, err)

	// 101 * 7.35 = 742.35 -> 742
	assert.Equal(t, int64(742), a.TotalAmount)
	units, amount := sumShares(a)
	assert.Equal(t, a.TotalUnits, units)
	assert.Equal(t, a.TotalAmount, amount)
	assert.Equal(t, int64(33), a.PerTenant[0].Units)
	assert.Equal(t, int64(242), a.PerTenant[0].Amount)
	assert.Equal(t, int64(35), a.PerTenant[2].Units)
	assert.Equal(t, int64(258), a.PerTenant[2].Amount)
}

func TestAllocate_SplitExactness(t *testing.T) {
	rates := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(1),
		decimal.NewFromInt(12),
		decimal.RequireFromString("8.5"),
		decimal.RequireFromString("6.99"),
	}
	for n := 1; n <= 7; n++ {
		for reading := int64(0); reading <= 250; reading += 17 {
			for _, rate := range rates {
				shares := sharesWithJoining(make([]int64, n)...)
				a, err := Allocate(shares, reading, rate)
				require.NoError(t, err)

				units, amount := sumShares(a)
				assert.Equal(t, a.TotalUnits, units, "n=%d reading=%d rate=%s", n, reading, rate)
				assert.Equal(t, a.TotalAmount, amount, "n=%d reading=%d rate=%s", n, reading, rate)
				for _, s := range a.PerTenant {
					assert.GreaterOrEqual(t, s.Amount, int64(0))
				}
			}
		}
	}
}

func TestAllocate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		shares  []MeterShare
		reading int64
		rate    decimal.Decimal
	}{
		{"no tenants", nil, 10, decimal.NewFromInt(1)},
		{"negative reading", sharesWithJoining(0), -1, decimal.NewFromInt(1)},
		{"negative rate", sharesWithJoining(0), 10, decimal.NewFromInt(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.shares, tt.reading, tt.rate)
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		})
	}
}

func TestAllocation_ShareOf(t *testing.T) {
	shares := sharesWithJoining(0, 0)
	a, err := Allocate(shares, 9, decimal.NewFromInt(2))
	require.NoError(t, err)

	s, ok := a.ShareOf(shares[1].TenantID)
	require.True(t, ok)
	assert.Equal(t, int64(5), s.Units)
	assert.Equal(t, int64(10), s.Amount)

	_, ok = a.ShareOf(uuid.New())
	assert.False(t, ok)
}
