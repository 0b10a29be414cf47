package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

// BillFilter defines filtering options for bill queries
type BillFilter struct {
	shared.Filter
	TenantID     *uuid.UUID
	BillingMonth BillingMonth
	Status       *BillStatus
	RoomNumber   string
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	TenantID     *uuid.UUID
	BillingMonth BillingMonth
	Status       *PaymentStatus
	Method       *PaymentMethod
	BillID       *uuid.UUID
}

// StatusTotals aggregates bills sharing a status
type StatusTotals struct {
	Status      BillStatus
	Count       int64
	TotalAmount int64
	AmountPaid  int64
	// Outstanding sums max(balance_due, 0)
	Outstanding int64
}

// MethodTotals aggregates payments made with one method
type MethodTotals struct {
	Method PaymentMethod
	Count  int64
	Amount int64
}

// MonthTotals aggregates payments collected for one billing month
type MonthTotals struct {
	BillingMonth BillingMonth
	Count        int64
	Amount       int64
}

// BillRepository is the bill store
type BillRepository interface {
	// FindByID finds a bill by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByTenantAndMonth finds the bill of a tenant for a month,
	// locking the row when called inside a transaction
	FindByTenantAndMonth(ctx context.Context, tenantID uuid.UUID, month BillingMonth) (*Bill, error)

	// FindAll lists bills matching the filter with pagination
	FindAll(ctx context.Context, filter BillFilter) ([]Bill, error)

	// Count counts bills matching the filter
	Count(ctx context.Context, filter BillFilter) (int64, error)

	// ExistsForTenants reports whether any of the tenants already has a bill for month
	ExistsForTenants(ctx context.Context, tenantIDs []uuid.UUID, month BillingMonth) (bool, error)

	// FindOverdueCandidates returns pending/partial bills with a due date before asOf
	FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]*Bill, error)

	// SaveBatch inserts new bills
	SaveBatch(ctx context.Context, bills []*Bill) error

	// SaveWithLock updates a bill only if its stored version matches
	SaveWithLock(ctx context.Context, bill *Bill) error

	// DeleteByMonth removes every bill of a month and returns how many were removed
	DeleteByMonth(ctx context.Context, month BillingMonth) (int64, error)

	// TotalsByStatus aggregates bills per status, optionally for a single month
	TotalsByStatus(ctx context.Context, month BillingMonth) ([]StatusTotals, error)
}

// PaymentRepository is the payment store
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll lists payments matching the filter with pagination
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// FindByBill returns the payments linked to a bill in recording order
	FindByBill(ctx context.Context, billID uuid.UUID) ([]Payment, error)

	// SumByBill sums the amounts of payments linked to a bill
	SumByBill(ctx context.Context, billID uuid.UUID) (int64, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// UnlinkByMonth detaches every payment of a month from its bill and marks
	// applied payments of that month unapplied
	UnlinkByMonth(ctx context.Context, month BillingMonth) (int64, error)

	// TotalsByMethod aggregates payments per method, optionally for a single month
	TotalsByMethod(ctx context.Context, month BillingMonth) ([]MethodTotals, error)

	// TotalsByMonth aggregates payments per billing month, newest first
	TotalsByMonth(ctx context.Context) ([]MonthTotals, error)
}
