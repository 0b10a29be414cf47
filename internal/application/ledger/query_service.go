package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/shared"
)

// QueryService serves the read side of bills and payments
type QueryService struct {
	billRepo    ledger.BillRepository
	paymentRepo ledger.PaymentRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(billRepo ledger.BillRepository, paymentRepo ledger.PaymentRepository) *QueryService {
	return &QueryService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
	}
}

// ListBills retrieves bills with filtering, sorting and pagination
func (s *QueryService) ListBills(ctx context.Context, filter BillListFilter) ([]BillResponse, int64, error) {
	base, err := normalizeFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := parseOptionalID("tenant_id", filter.TenantID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter := ledger.BillFilter{
		Filter:     base,
		TenantID:   tenantID,
		RoomNumber: strings.TrimSpace(filter.RoomNumber),
	}
	if filter.BillingMonth != "" {
		month, err := ledger.ParseBillingMonth(filter.BillingMonth)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.BillingMonth = month
	}
	if filter.Status != "" {
		status := ledger.BillStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("invalid bill status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	bills, err := s.billRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.billRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToBillResponses(bills), total, nil
}

// GetBill retrieves a bill with its linked payments
func (s *QueryService) GetBill(ctx context.Context, id uuid.UUID) (*BillDetailResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByBill(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	return &BillDetailResponse{
		BillResponse: ToBillResponse(bill),
		Payments:     ToPaymentResponses(payments),
	}, nil
}

// ListPayments retrieves payments with filtering, sorting and pagination
func (s *QueryService) ListPayments(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	base, err := normalizeFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := parseOptionalID("tenant_id", filter.TenantID)
	if err != nil {
		return nil, 0, err
	}
	billID, err := parseOptionalID("bill_id", filter.BillID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter := ledger.PaymentFilter{
		Filter:   base,
		TenantID: tenantID,
		BillID:   billID,
	}
	if filter.BillingMonth != "" {
		month, err := ledger.ParseBillingMonth(filter.BillingMonth)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.BillingMonth = month
	}
	if filter.Status != "" {
		status := ledger.PaymentStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("invalid payment status %q", filter.Status)
		}
		domainFilter.Status = &status
	}
	if filter.Method != "" {
		method := ledger.PaymentMethod(filter.Method)
		if !method.IsValid() {
			return nil, 0, shared.NewValidationError("invalid payment method %q", filter.Method)
		}
		domainFilter.Method = &method
	}

	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPaymentResponses(payments), total, nil
}

// GetPayment retrieves a payment by ID
func (s *QueryService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(payment)
	return &response, nil
}

// Stats aggregates billing and collection figures. An empty month covers
// every month; the per-month breakdown always covers every month.
func (s *QueryService) Stats(ctx context.Context, billingMonth string) (*StatsResponse, error) {
	var month ledger.BillingMonth
	if billingMonth != "" {
		m, err := ledger.ParseBillingMonth(billingMonth)
		if err != nil {
			return nil, err
		}
		month = m
	}

	statusTotals, err := s.billRepo.TotalsByStatus(ctx, month)
	if err != nil {
		return nil, err
	}
	methodTotals, err := s.paymentRepo.TotalsByMethod(ctx, month)
	if err != nil {
		return nil, err
	}
	monthTotals, err := s.paymentRepo.TotalsByMonth(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StatsResponse{
		BillingMonth: month.String(),
		BillsByStatus: map[string]int64{
			string(ledger.BillStatusPending): 0,
			string(ledger.BillStatusPartial): 0,
			string(ledger.BillStatusPaid):    0,
			string(ledger.BillStatusOverdue): 0,
		},
		ByMethod: make([]MethodStat, 0, len(methodTotals)),
		ByMonth:  make([]MonthStat, 0, len(monthTotals)),
	}
	for _, t := range statusTotals {
		stats.TotalBills += t.Count
		stats.TotalBilled += t.TotalAmount
		stats.TotalCollected += t.AmountPaid
		stats.BillsByStatus[string(t.Status)] = t.Count
		switch t.Status {
		case ledger.BillStatusPending, ledger.BillStatusPartial:
			stats.PendingAmount += t.Outstanding
		case ledger.BillStatusOverdue:
			stats.OverdueAmount += t.Outstanding
		}
	}
	for _, t := range methodTotals {
		stats.ByMethod = append(stats.ByMethod, MethodStat{Method: string(t.Method), Count: t.Count, Amount: t.Amount})
	}
	for _, t := range monthTotals {
		stats.ByMonth = append(stats.ByMonth, MonthStat{BillingMonth: t.BillingMonth.String(), Count: t.Count, Amount: t.Amount})
	}
	return stats, nil
}

// normalizeFilter applies list defaults and rejects a malformed sort direction
func normalizeFilter(page, pageSize int, orderBy, orderDir, search string) (shared.Filter, error) {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		dir := strings.ToLower(orderDir)
		if dir != "asc" && dir != "desc" {
			return shared.Filter{}, shared.NewValidationError("order direction must be asc or desc")
		}
		f.OrderDir = dir
	}
	f.Search = strings.TrimSpace(search)
	return f, nil
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError("%s %q is not a valid id", field, raw)
	}
	return &id, nil
}
