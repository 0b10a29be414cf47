package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ==================== Generation DTOs ====================

// GenerateBillsRequest asks for one bill per active tenant for a month
type GenerateBillsRequest struct {
	BillingMonth    string           `json:"billing_month" binding:"required,billing_month"`
	ElectricityRate *decimal.Decimal `json:"electricity_rate"` // Defaults to billing.default_electricity_rate
	CurrentReadings map[string]int64 `json:"current_readings"` // Room number to meter value
	DueDays         *int             `json:"due_days" binding:"omitempty,min=0,max=90"`
}

// SkippedRoom explains why a room produced no bills
type SkippedRoom struct {
	RoomNumber string `json:"room_number"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

// RoomAllocationResponse is the electricity split computed for one room
type RoomAllocationResponse struct {
	RoomNumber  string `json:"room_number"`
	Reading     int64  `json:"reading"`
	Baseline    int64  `json:"baseline"`
	TotalUnits  int64  `json:"total_units"`
	TotalAmount int64  `json:"total_amount"`
	Tenants     int    `json:"tenants"`
	Estimated   bool   `json:"estimated"` // Reading came from the last known value
}

// GenerationReport summarizes one generation run
type GenerationReport struct {
	BillingMonth     string                   `json:"billing_month"`
	ElectricityRate  decimal.Decimal          `json:"electricity_rate"`
	Bills            []BillResponse           `json:"bills"`
	Rooms            []RoomAllocationResponse `json:"rooms"`
	Skipped          []SkippedRoom            `json:"skipped"`
	BillsGenerated   int                      `json:"bills_generated"`
	TotalAmount      int64                    `json:"total_amount"`
	TotalUnits       int64                    `json:"total_units"`
	ElectricityTotal int64                    `json:"electricity_total"`
}

// ==================== Bill DTOs ====================

// BillListFilter represents filter options for the bill list
type BillListFilter struct {
	Search       string `form:"search"`
	TenantID     string `form:"tenant_id" binding:"omitempty,uuid"`
	BillingMonth string `form:"billing_month" binding:"omitempty,billing_month"`
	Status       string `form:"status" binding:"omitempty,oneof=pending partial paid overdue"`
	RoomNumber   string `form:"room_number"`
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	TenantName        string          `json:"tenant_name"`
	RoomNumber        string          `json:"room_number"`
	BillingMonth      string          `json:"billing_month"`
	RentAmount        int64           `json:"rent_amount"`
	ElectricityUnits  int64           `json:"electricity_units"`
	ElectricityRate   decimal.Decimal `json:"electricity_rate"`
	ElectricityAmount int64           `json:"electricity_amount"`
	OtherCharges      int64           `json:"other_charges"`
	Adjustments       int64           `json:"adjustments"`
	TotalAmount       int64           `json:"total_amount"`
	AmountPaid        int64           `json:"amount_paid"`
	BalanceDue        int64           `json:"balance_due"` // Never below zero
	Status            string          `json:"status"`
	DueDate           string          `json:"due_date"`
	GeneratedDate     string          `json:"generated_date"`
	PaymentIDs        []uuid.UUID     `json:"payment_ids"`
	Version           int             `json:"version"`
}

// BillDetailResponse is a bill with its linked payments in recording order
type BillDetailResponse struct {
	BillResponse
	Payments []PaymentResponse `json:"payments"`
}

// ClearMonthResponse reports an administrative month-clear
type ClearMonthResponse struct {
	BillingMonth     string `json:"billing_month"`
	BillsDeleted     int64  `json:"bills_deleted"`
	PaymentsUnlinked int64  `json:"payments_unlinked"`
}

// OverdueSweepResponse reports a due-date re-evaluation pass
type OverdueSweepResponse struct {
	AsOf        string `json:"as_of"`
	BillsMarked int    `json:"bills_marked"`
}

// ==================== Payment DTOs ====================

// RecordPaymentRequest represents money received from a tenant
type RecordPaymentRequest struct {
	TenantID      uuid.UUID `json:"tenant_id" binding:"required"`
	BillingMonth  string    `json:"billing_month" binding:"required,billing_month"`
	Amount        int64     `json:"amount_paid" binding:"required,gt=0"`
	Method        string    `json:"payment_method" binding:"required,oneof=cash upi bank_transfer card cheque"`
	TransactionID string    `json:"transaction_id" binding:"max=100"`
	Notes         string    `json:"notes" binding:"max=500"`
	PaidOn        string    `json:"created_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdatePaymentRequest edits a recorded payment. Nil fields are left as they are.
type UpdatePaymentRequest struct {
	Amount        *int64  `json:"amount_paid" binding:"omitempty,gt=0"`
	Method        *string `json:"payment_method" binding:"omitempty,oneof=cash upi bank_transfer card cheque"`
	TransactionID *string `json:"transaction_id" binding:"omitempty,max=100"`
	Notes         *string `json:"notes" binding:"omitempty,max=500"`
}

// PaymentListFilter represents filter options for the payment list
type PaymentListFilter struct {
	Search       string `form:"search"`
	TenantID     string `form:"tenant_id" binding:"omitempty,uuid"`
	BillID       string `form:"bill_id" binding:"omitempty,uuid"`
	BillingMonth string `form:"billing_month" binding:"omitempty,billing_month"`
	Status       string `form:"status" binding:"omitempty,oneof=applied unapplied"`
	Method       string `form:"payment_method" binding:"omitempty,oneof=cash upi bank_transfer card cheque"`
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	RoomNumber    string     `json:"room_number"`
	BillingMonth  string     `json:"billing_month"`
	Amount        int64      `json:"amount_paid"`
	Method        string     `json:"payment_method"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	BillID        *uuid.UUID `json:"bill_id"`
	PaidOn        string     `json:"created_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Warning is a non-fatal condition attached to a successful result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaymentResult is the outcome of a payment write together with the
// bill it touched, if any
type PaymentResult struct {
	Payment PaymentResponse `json:"payment"`
	Bill    *BillResponse   `json:"bill,omitempty"`
	Warning *Warning        `json:"warning,omitempty"`
}

// ==================== Stats DTOs ====================

// MethodStat is the collection through one payment method
type MethodStat struct {
	Method string `json:"payment_method"`
	Count  int64  `json:"count"`
	Amount int64  `json:"amount"`
}

// MonthStat is the collection for one billing month
type MonthStat struct {
	BillingMonth string `json:"billing_month"`
	Count        int64  `json:"count"`
	Amount       int64  `json:"amount"`
}

// StatsResponse aggregates bills and payments, optionally for one month
type StatsResponse struct {
	BillingMonth   string           `json:"billing_month,omitempty"`
	TotalBills     int64            `json:"total_bills"`
	TotalBilled    int64            `json:"total_billed"`
	TotalCollected int64            `json:"total_collected"`
	PendingAmount  int64            `json:"pending_amount"`
	OverdueAmount  int64            `json:"overdue_amount"`
	BillsByStatus  map[string]int64 `json:"bills_by_status"`
	ByMethod       []MethodStat     `json:"by_method"`
	ByMonth        []MonthStat      `json:"by_month"`
}

// ==================== Converters ====================

// ToBillResponse converts a domain bill to a response
func ToBillResponse(b *ledger.Bill) BillResponse {
	ids := make([]uuid.UUID, len(b.PaymentIDs))
	copy(ids, b.PaymentIDs)
	return BillResponse{
		ID:                b.ID,
		TenantID:          b.TenantID,
		TenantName:        b.TenantName,
		RoomNumber:        b.RoomNumber,
		BillingMonth:      b.BillingMonth.String(),
		RentAmount:        b.RentAmount,
		ElectricityUnits:  b.ElectricityUnits,
		ElectricityRate:   b.ElectricityRate,
		ElectricityAmount: b.ElectricityAmount,
		OtherCharges:      b.OtherCharges,
		Adjustments:       b.Adjustments,
		TotalAmount:       b.TotalAmount,
		AmountPaid:        b.AmountPaid,
		BalanceDue:        b.DisplayBalance(),
		Status:            string(b.Status),
		DueDate:           b.DueDate.Format(dateLayout),
		GeneratedDate:     b.GeneratedDate.Format(dateLayout),
		PaymentIDs:        ids,
		Version:           b.GetVersion(),
	}
}

// ToBillResponses converts a slice of bills
func ToBillResponses(bills []ledger.Bill) []BillResponse {
	out := make([]BillResponse, len(bills))
	for i := range bills {
		out[i] = ToBillResponse(&bills[i])
	}
	return out
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *ledger.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		RoomNumber:    p.RoomNumber,
		BillingMonth:  p.BillingMonth.String(),
		Amount:        p.Amount,
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		Status:        string(p.Status),
		BillID:        p.BillID,
		PaidOn:        p.PaidOn.Format(dateLayout),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []ledger.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

const dateLayout = "2006-01-02"
