package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

// PaymentMethod is how a tenant paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodBankTransfer,
		PaymentMethodCard, PaymentMethodCheque:
		return true
	}
	return false
}

// PaymentStatus tells whether a payment is reconciled against a bill
type PaymentStatus string

const (
	PaymentStatusApplied   PaymentStatus = "applied"   // Linked to the tenant's bill for the month
	PaymentStatusUnapplied PaymentStatus = "unapplied" // No bill existed when recorded
)

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusApplied || s == PaymentStatusUnapplied
}

// Payment is money received from a tenant for a billing month
type Payment struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	RoomNumber    string
	BillingMonth  BillingMonth
	Amount        int64
	Method        PaymentMethod
	TransactionID string
	Notes         string
	Status        PaymentStatus
	BillID        *uuid.UUID
	PaidOn        time.Time
}

// PaymentInput carries the values needed to record a payment
type PaymentInput struct {
	TenantID      uuid.UUID
	RoomNumber    string
	BillingMonth  string
	Amount        int64
	Method        PaymentMethod
	TransactionID string
	Notes         string
	PaidOn        time.Time
}

// NewPayment validates the input and creates an unapplied payment
func NewPayment(in PaymentInput, now time.Time) (*Payment, error) {
	if in.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant id is required")
	}
	month, err := ParseBillingMonth(in.BillingMonth)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, shared.NewValidationError("payment amount must be positive")
	}
	if !in.Method.IsValid() {
		return nil, shared.NewValidationError("unknown payment method %q", in.Method)
	}

	paidOn := in.PaidOn
	if paidOn.IsZero() {
		paidOn = now
	}
	y, m, d := paidOn.Date()

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(now),
		TenantID:      in.TenantID,
		RoomNumber:    in.RoomNumber,
		BillingMonth:  month,
		Amount:        in.Amount,
		Method:        in.Method,
		TransactionID: strings.TrimSpace(in.TransactionID),
		Notes:         strings.TrimSpace(in.Notes),
		Status:        PaymentStatusUnapplied,
		PaidOn:        time.Date(y, m, d, 0, 0, 0, 0, paidOn.Location()),
	}, nil
}

// IsApplied reports whether the payment is linked to a bill
func (p *Payment) IsApplied() bool {
	return p.BillID != nil
}

// ChangeAmount sets a new amount and returns the previous one. Callers
// must re-reconcile the linked bill with the returned value.
func (p *Payment) ChangeAmount(amount int64, now time.Time) (int64, error) {
	if amount <= 0 {
		return 0, shared.NewValidationError("payment amount must be positive")
	}
	old := p.Amount
	p.Amount = amount
	p.Touch(now)
	return old, nil
}

// UpdateDetails edits the non-monetary fields of the payment
func (p *Payment) UpdateDetails(method PaymentMethod, transactionID, notes string, now time.Time) error {
	if method != "" {
		if !method.IsValid() {
			return shared.NewValidationError("unknown payment method %q", method)
		}
		p.Method = method
	}
	p.TransactionID = strings.TrimSpace(transactionID)
	p.Notes = strings.TrimSpace(notes)
	p.Touch(now)
	return nil
}

// Unlink detaches the payment from its bill, e.g. when the bill is cleared
func (p *Payment) Unlink(now time.Time) {
	p.BillID = nil
	p.Status = PaymentStatusUnapplied
	p.Touch(now)
}

func (p *Payment) linkTo(billID uuid.UUID, now time.Time) {
	id := billID
	p.BillID = &id
	p.Status = PaymentStatusApplied
	p.Touch(now)
}
