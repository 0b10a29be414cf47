package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

const (
	EventTypeBillGenerated       = "BillGenerated"
	EventTypeBillPaymentApplied  = "BillPaymentApplied"
	EventTypeBillPaymentReversed = "BillPaymentReversed"
	EventTypeBillOverdue         = "BillOverdue"

	aggregateTypeBill = "Bill"
)

// BillGeneratedEvent is raised when a monthly bill is created
type BillGeneratedEvent struct {
	shared.BaseDomainEvent
	BillID            uuid.UUID    `json:"bill_id"`
	TenantID          uuid.UUID    `json:"tenant_id"`
	RoomNumber        string       `json:"room_number"`
	BillingMonth      BillingMonth `json:"billing_month"`
	ElectricityUnits  int64        `json:"electricity_units"`
	ElectricityAmount int64        `json:"electricity_amount"`
	TotalAmount       int64        `json:"total_amount"`
	DueDate           time.Time    `json:"due_date"`
}

// NewBillGeneratedEvent creates a BillGeneratedEvent
func NewBillGeneratedEvent(b *Bill, at time.Time) *BillGeneratedEvent {
	return &BillGeneratedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeBillGenerated, aggregateTypeBill, b.ID, at),
		BillID:            b.ID,
		TenantID:          b.TenantID,
		RoomNumber:        b.RoomNumber,
		BillingMonth:      b.BillingMonth,
		ElectricityUnits:  b.ElectricityUnits,
		ElectricityAmount: b.ElectricityAmount,
		TotalAmount:       b.TotalAmount,
		DueDate:           b.DueDate,
	}
}

// BillPaymentAppliedEvent is raised when a payment is reconciled against a bill
type BillPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	BillID        uuid.UUID     `json:"bill_id"`
	PaymentID     uuid.UUID     `json:"payment_id"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	BillingMonth  BillingMonth  `json:"billing_month"`
	PaymentAmount int64         `json:"payment_amount"`
	Method        PaymentMethod `json:"method"`
	AmountPaid    int64         `json:"amount_paid"`
	BalanceDue    int64         `json:"balance_due"`
	Status        BillStatus    `json:"status"`
}

// NewBillPaymentAppliedEvent creates a BillPaymentAppliedEvent
func NewBillPaymentAppliedEvent(b *Bill, p *Payment, at time.Time) *BillPaymentAppliedEvent {
	return &BillPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaymentApplied, aggregateTypeBill, b.ID, at),
		BillID:          b.ID,
		PaymentID:       p.ID,
		TenantID:        b.TenantID,
		BillingMonth:    b.BillingMonth,
		PaymentAmount:   p.Amount,
		Method:          p.Method,
		AmountPaid:      b.AmountPaid,
		BalanceDue:      b.BalanceDue,
		Status:          b.Status,
	}
}

// BillPaymentReversedEvent is raised when a payment is taken back off a bill
type BillPaymentReversedEvent struct {
	shared.BaseDomainEvent
	BillID        uuid.UUID    `json:"bill_id"`
	PaymentID     uuid.UUID    `json:"payment_id"`
	TenantID      uuid.UUID    `json:"tenant_id"`
	BillingMonth  BillingMonth `json:"billing_month"`
	PaymentAmount int64        `json:"payment_amount"`
	AmountPaid    int64        `json:"amount_paid"`
	BalanceDue    int64        `json:"balance_due"`
	Status        BillStatus   `json:"status"`
}

// NewBillPaymentReversedEvent creates a BillPaymentReversedEvent
func NewBillPaymentReversedEvent(b *Bill, p *Payment, at time.Time) *BillPaymentReversedEvent {
	return &BillPaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaymentReversed, aggregateTypeBill, b.ID, at),
		BillID:          b.ID,
		PaymentID:       p.ID,
		TenantID:        b.TenantID,
		BillingMonth:    b.BillingMonth,
		PaymentAmount:   p.Amount,
		AmountPaid:      b.AmountPaid,
		BalanceDue:      b.BalanceDue,
		Status:          b.Status,
	}
}

// BillOverdueEvent is raised when the due-date sweep flags a bill
type BillOverdueEvent struct {
	shared.BaseDomainEvent
	BillID       uuid.UUID    `json:"bill_id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	BillingMonth BillingMonth `json:"billing_month"`
	BalanceDue   int64        `json:"balance_due"`
	DueDate      time.Time    `json:"due_date"`
}

// NewBillOverdueEvent creates a BillOverdueEvent
func NewBillOverdueEvent(b *Bill, at time.Time) *BillOverdueEvent {
	return &BillOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillOverdue, aggregateTypeBill, b.ID, at),
		BillID:          b.ID,
		TenantID:        b.TenantID,
		BillingMonth:    b.BillingMonth,
		BalanceDue:      b.BalanceDue,
		DueDate:         b.DueDate,
	}
}
