package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate. The
// (tenant_id, billing_month) unique index backs generation idempotency.
type BillModel struct {
	AggregateModel
	TenantID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_bills_tenant_month,priority:1"`
	TenantName        string              `gorm:"type:varchar(200);not null"`
	RoomNumber        string              `gorm:"type:varchar(20);not null;index"`
	BillingMonth      ledger.BillingMonth `gorm:"type:char(7);not null;uniqueIndex:idx_bills_tenant_month,priority:2;index"`
	RentAmount        int64               `gorm:"not null;default:0"`
	ElectricityUnits  int64               `gorm:"not null;default:0"`
	ElectricityRate   decimal.Decimal     `gorm:"type:decimal(10,4);not null"`
	ElectricityAmount int64               `gorm:"not null;default:0"`
	OtherCharges      int64               `gorm:"not null;default:0"`
	Adjustments       int64               `gorm:"not null;default:0"`
	TotalAmount       int64               `gorm:"not null"`
	AmountPaid        int64               `gorm:"not null;default:0"`
	BalanceDue        int64               `gorm:"not null"`
	Status            ledger.BillStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate           time.Time           `gorm:"type:date;not null;index"`
	GeneratedDate     time.Time           `gorm:"type:date;not null"`
	PaymentIDs        ledger.PaymentLinks `gorm:"column:payment_ids;type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the model to a Bill aggregate
func (m *BillModel) ToDomain() *ledger.Bill {
	links := m.PaymentIDs
	if links == nil {
		links = ledger.PaymentLinks{}
	}
	return &ledger.Bill{
		BaseAggregateRoot: m.toAggregate(),
		TenantID:          m.TenantID,
		TenantName:        m.TenantName,
		RoomNumber:        m.RoomNumber,
		BillingMonth:      m.BillingMonth,
		RentAmount:        m.RentAmount,
		ElectricityUnits:  m.ElectricityUnits,
		ElectricityRate:   m.ElectricityRate,
		ElectricityAmount: m.ElectricityAmount,
		OtherCharges:      m.OtherCharges,
		Adjustments:       m.Adjustments,
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		BalanceDue:        m.BalanceDue,
		Status:            m.Status,
		DueDate:           m.DueDate,
		GeneratedDate:     m.GeneratedDate,
		PaymentIDs:        links,
	}
}

// BillModelFromDomain converts a Bill aggregate to its model
func BillModelFromDomain(b *ledger.Bill) *BillModel {
	m := &BillModel{
		TenantID:          b.TenantID,
		TenantName:        b.TenantName,
		RoomNumber:        b.RoomNumber,
		BillingMonth:      b.BillingMonth,
		RentAmount:        b.RentAmount,
		ElectricityUnits:  b.ElectricityUnits,
		ElectricityRate:   b.ElectricityRate,
		ElectricityAmount: b.ElectricityAmount,
		OtherCharges:      b.OtherCharges,
		Adjustments:       b.Adjustments,
		TotalAmount:       b.TotalAmount,
		AmountPaid:        b.AmountPaid,
		BalanceDue:        b.BalanceDue,
		Status:            b.Status,
		DueDate:           b.DueDate,
		GeneratedDate:     b.GeneratedDate,
		PaymentIDs:        b.PaymentIDs,
	}
	m.fromAggregate(b.BaseAggregateRoot)
	return m
}
