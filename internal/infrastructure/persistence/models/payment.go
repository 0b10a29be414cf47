package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
)

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	BaseModel
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_payments_tenant_month,priority:1"`
	RoomNumber    string               `gorm:"type:varchar(20)"`
	BillingMonth  ledger.BillingMonth  `gorm:"type:char(7);not null;index:idx_payments_tenant_month,priority:2;index"`
	Amount        int64                `gorm:"column:amount_paid;not null"`
	Method        ledger.PaymentMethod `gorm:"column:payment_method;type:varchar(20);not null;index"`
	TransactionID string               `gorm:"type:varchar(100)"`
	Notes         string               `gorm:"type:text"`
	Status        ledger.PaymentStatus `gorm:"type:varchar(20);not null;default:'unapplied';index"`
	BillID        *uuid.UUID           `gorm:"type:uuid;index"`
	PaidOn        time.Time            `gorm:"column:created_date;type:date;not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a Payment entity
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		BaseEntity:    m.toEntity(),
		TenantID:      m.TenantID,
		RoomNumber:    m.RoomNumber,
		BillingMonth:  m.BillingMonth,
		Amount:        m.Amount,
		Method:        m.Method,
		TransactionID: m.TransactionID,
		Notes:         m.Notes,
		Status:        m.Status,
		BillID:        m.BillID,
		PaidOn:        m.PaidOn,
	}
}

// PaymentModelFromDomain converts a Payment entity to its model
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{
		TenantID:      p.TenantID,
		RoomNumber:    p.RoomNumber,
		BillingMonth:  p.BillingMonth,
		Amount:        p.Amount,
		Method:        p.Method,
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		Status:        p.Status,
		BillID:        p.BillID,
		PaidOn:        p.PaidOn,
	}
	m.fromEntity(p.BaseEntity)
	return m
}
