package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillStatus represents the payment status of a bill
type BillStatus string

const (
	BillStatusPending BillStatus = "pending" // Nothing paid yet
	BillStatusPartial BillStatus = "partial" // Some amount paid, balance outstanding
	BillStatusPaid    BillStatus = "paid"    // Balance due is zero or below
	BillStatusOverdue BillStatus = "overdue" // Past due date with balance outstanding
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPartial, BillStatusPaid, BillStatusOverdue:
		return true
	}
	return false
}

func (s BillStatus) String() string {
	return string(s)
}

// IsOutstanding returns true while money is still owed
func (s BillStatus) IsOutstanding() bool {
	return s != BillStatusPaid
}

// PaymentLinks is the ordered list of payments applied to a bill.
// It implements GORM Scanner/Valuer for JSON storage.
type PaymentLinks []uuid.UUID

// Value implements driver.Valuer
func (l PaymentLinks) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *PaymentLinks) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = PaymentLinks{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan PaymentLinks: unsupported type")
	}
	if len(raw) == 0 {
		*l = PaymentLinks{}
		return nil
	}
	return json.Unmarshal(raw, (*[]uuid.UUID)(l))
}

func (l PaymentLinks) contains(id uuid.UUID) bool {
	for _, x := range l {
		if x == id {
			return true
		}
	}
	return false
}

// Bill is a tenant's charge for one billing month
type Bill struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID
	TenantName        string
	RoomNumber        string
	BillingMonth      BillingMonth
	RentAmount        int64
	ElectricityUnits  int64
	ElectricityRate   decimal.Decimal
	ElectricityAmount int64
	OtherCharges      int64
	Adjustments       int64
	TotalAmount       int64
	AmountPaid        int64
	BalanceDue        int64
	Status            BillStatus
	DueDate           time.Time
	GeneratedDate     time.Time
	PaymentIDs        PaymentLinks
}

// BillInput carries the components of a new bill
type BillInput struct {
	TenantID          uuid.UUID
	TenantName        string
	RoomNumber        string
	BillingMonth      BillingMonth
	RentAmount        int64
	ElectricityUnits  int64
	ElectricityRate   decimal.Decimal
	ElectricityAmount int64
	OtherCharges      int64
	Adjustments       int64
	DueDate           time.Time
}

// NewBill validates the components and creates a bill with nothing paid.
// The total is fixed here and never recomputed.
func NewBill(in BillInput, now time.Time) (*Bill, error) {
	if in.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant id is required")
	}
	if strings.TrimSpace(in.RoomNumber) == "" {
		return nil, shared.NewValidationError("room number is required")
	}
	if _, err := ParseBillingMonth(string(in.BillingMonth)); err != nil {
		return nil, err
	}
	if in.RentAmount < 0 || in.ElectricityAmount < 0 || in.ElectricityUnits < 0 || in.OtherCharges < 0 {
		return nil, shared.NewValidationError("bill components cannot be negative")
	}
	if in.ElectricityRate.IsNegative() {
		return nil, shared.NewValidationError("electricity rate cannot be negative")
	}
	total := in.RentAmount + in.ElectricityAmount + in.OtherCharges + in.Adjustments
	if total < 0 {
		return nil, shared.NewValidationError("adjustments cannot bring the bill total below zero")
	}
	if in.DueDate.IsZero() {
		return nil, shared.NewValidationError("due date is required")
	}

	b := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		TenantID:          in.TenantID,
		TenantName:        in.TenantName,
		RoomNumber:        in.RoomNumber,
		BillingMonth:      in.BillingMonth,
		RentAmount:        in.RentAmount,
		ElectricityUnits:  in.ElectricityUnits,
		ElectricityRate:   in.ElectricityRate,
		ElectricityAmount: in.ElectricityAmount,
		OtherCharges:      in.OtherCharges,
		Adjustments:       in.Adjustments,
		TotalAmount:       total,
		DueDate:           startOfDay(in.DueDate),
		GeneratedDate:     startOfDay(now),
		PaymentIDs:        PaymentLinks{},
	}
	b.reconcile()
	b.AddDomainEvent(NewBillGeneratedEvent(b, now))
	return b, nil
}

// ApplyPayment links p to the bill and adds its amount to the paid total
func (b *Bill) ApplyPayment(p *Payment, now time.Time) error {
	if p.TenantID != b.TenantID || p.BillingMonth != b.BillingMonth {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("payment for %s/%s does not belong to bill %s", p.TenantID, p.BillingMonth, b.ID))
	}
	if b.PaymentIDs.contains(p.ID) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "payment is already applied to this bill")
	}

	b.AmountPaid += p.Amount
	b.PaymentIDs = append(b.PaymentIDs, p.ID)
	b.reconcile()
	b.Touch(now)
	b.IncrementVersion()
	p.linkTo(b.ID, now)

	b.AddDomainEvent(NewBillPaymentAppliedEvent(b, p, now))
	return nil
}

// ReversePayment removes p from the bill and takes its amount back out.
// The status falls back to partial, pending or paid; it is never put back
// to overdue here, the due-date sweep does that.
func (b *Bill) ReversePayment(p *Payment, now time.Time) error {
	if !b.PaymentIDs.contains(p.ID) {
		return shared.NewDomainError(shared.CodeInvalidState, "payment is not applied to this bill")
	}

	kept := make(PaymentLinks, 0, len(b.PaymentIDs)-1)
	for _, id := range b.PaymentIDs {
		if id != p.ID {
			kept = append(kept, id)
		}
	}
	b.PaymentIDs = kept
	b.AmountPaid -= p.Amount
	b.reconcile()
	b.Touch(now)
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPaymentReversedEvent(b, p, now))
	return nil
}

// ReconcileAmountChange adjusts the paid total after an applied payment's
// amount was edited from previous to p.Amount
func (b *Bill) ReconcileAmountChange(p *Payment, previous int64, now time.Time) error {
	if !b.PaymentIDs.contains(p.ID) {
		return shared.NewDomainError(shared.CodeInvalidState, "payment is not applied to this bill")
	}
	b.AmountPaid += p.Amount - previous
	b.reconcile()
	b.Touch(now)
	b.IncrementVersion()
	return nil
}

// IsOverdue reports whether the bill is unpaid after its due date
func (b *Bill) IsOverdue(asOf time.Time) bool {
	if b.BalanceDue <= 0 {
		return false
	}
	return asOf.Format(dateLayout) > b.DueDate.Format(dateLayout)
}

// MarkOverdue flags an unpaid bill past its due date. Returns false when
// nothing changed.
func (b *Bill) MarkOverdue(asOf time.Time) bool {
	if b.Status == BillStatusOverdue || b.Status == BillStatusPaid || !b.IsOverdue(asOf) {
		return false
	}
	b.Status = BillStatusOverdue
	b.Touch(asOf)
	b.IncrementVersion()
	b.AddDomainEvent(NewBillOverdueEvent(b, asOf))
	return true
}

// DisplayBalance is the balance shown to tenants; an overpayment reads as zero
// while BalanceDue keeps the signed value.
func (b *Bill) DisplayBalance() int64 {
	if b.BalanceDue < 0 {
		return 0
	}
	return b.BalanceDue
}

// reconcile restores balance_due = total - paid and derives the status
func (b *Bill) reconcile() {
	b.BalanceDue = b.TotalAmount - b.AmountPaid
	switch {
	case b.BalanceDue <= 0:
		b.Status = BillStatusPaid
	case b.AmountPaid > 0:
		b.Status = BillStatusPartial
	default:
		b.Status = BillStatusPending
	}
}

const dateLayout = "2006-01-02"

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
