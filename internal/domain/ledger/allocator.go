package ledger

import (
	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MeterShare is one tenant's claim on a room meter
type MeterShare struct {
	TenantID       uuid.UUID
	JoiningReading int64
}

// TenantElectricity is the part of a room's consumption charged to one tenant
type TenantElectricity struct {
	TenantID uuid.UUID
	Units    int64
	Amount   int64
}

// Allocation is the result of splitting a room's electricity
type Allocation struct {
	Baseline    int64
	Reading     int64
	TotalUnits  int64
	TotalAmount int64
	Rate        decimal.Decimal
	PerTenant   []TenantElectricity
}

// ShareOf returns the share allocated to tenantID
func (a Allocation) ShareOf(tenantID uuid.UUID) (TenantElectricity, bool) {
	for _, s := range a.PerTenant {
		if s.TenantID == tenantID {
			return s, true
		}
	}
	return TenantElectricity{}, false
}

// Allocate splits a room's electricity between its tenants.
//
// Consumption is measured from the highest joining reading in the room and
// clamped at zero. Every tenant but the last gets floor(units/n) units and
// floor(units*rate) money; the last tenant in shares order takes whatever
// remains, so the parts always add up to the room totals exactly.
func Allocate(shares []MeterShare, currentReading int64, rate decimal.Decimal) (Allocation, error) {
	if len(shares) == 0 {
		return Allocation{}, shared.NewValidationError("cannot allocate electricity for a room without tenants")
	}
	if currentReading < 0 {
		return Allocation{}, shared.NewValidationError("meter reading cannot be negative")
	}
	if rate.IsNegative() {
		return Allocation{}, shared.NewValidationError("electricity rate cannot be negative")
	}

	baseline := shares[0].JoiningReading
	for _, s := range shares[1:] {
		if s.JoiningReading > baseline {
			baseline = s.JoiningReading
		}
	}

	totalUnits := currentReading - baseline
	if totalUnits < 0 {
		totalUnits = 0
	}
	totalAmount := decimal.NewFromInt(totalUnits).Mul(rate).Round(0).IntPart()

	n := int64(len(shares))
	unitsEach := totalUnits / n
	amountEach := decimal.NewFromInt(unitsEach).Mul(rate).Floor().IntPart()

	per := make([]TenantElectricity, len(shares))
	for i, s := range shares[:len(shares)-1] {
		per[i] = TenantElectricity{TenantID: s.TenantID, Units: unitsEach, Amount: amountEach}
	}
	per[n-1] = TenantElectricity{
		TenantID: shares[n-1].TenantID,
		Units:    totalUnits - unitsEach*(n-1),
		Amount:   totalAmount - amountEach*(n-1),
	}

	return Allocation{
		Baseline:    baseline,
		Reading:     currentReading,
		TotalUnits:  totalUnits,
		TotalAmount: totalAmount,
		Rate:        rate,
		PerTenant:   per,
	}, nil
}
