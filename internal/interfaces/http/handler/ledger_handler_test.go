package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
	residencyapp "github.com/pgledger/backend/internal/application/residency"
	"github.com/pgledger/backend/internal/interfaces/http/dto"
	"github.com/pgledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantHandler_Register(t *testing.T) {
	s := newTestServer(t)

	t.Run("creates tenant", func(t *testing.T) {
		tenant := s.register(t, "Asha", "301", 6000, 120)
		assert.Equal(t, "Asha", tenant.Name)
		assert.Equal(t, "301", tenant.RoomNumber)
		assert.Equal(t, int64(120), tenant.ElectricityJoiningReading)
		assert.Equal(t, "active", tenant.Status)
	})

	t.Run("reports field errors", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/tenants", map[string]any{"monthly_rent": -5})
		require.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		assert.NotEmpty(t, info.RequestID)

		fields := make(map[string]string)
		for _, d := range info.Details {
			fields[d.Field] = d.Message
		}
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "room_number")
		assert.Contains(t, fields, "monthly_rent")
	})
}

func TestTenantHandler_GetByID(t *testing.T) {
	s := newTestServer(t)
	tenant := s.register(t, "Bina", "102", 5000, 0)

	w := s.do(t, http.MethodGet, "/api/v1/tenants/"+tenant.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenant.ID, decode[residencyapp.TenantResponse](t, w).Data.ID)

	w = s.do(t, http.MethodGet, "/api/v1/tenants/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/v1/tenants/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestTenantHandler_ListAndUpdates(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "Chitra", "201", 5500, 10)
	s.register(t, "Divya", "201", 5500, 10)
	s.register(t, "Esha", "202", 7000, 0)

	w := s.do(t, http.MethodGet, "/api/v1/tenants?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]residencyapp.TenantResponse](t, w)
	assert.Len(t, list.Data, 2)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(3), list.Meta.Total)
	assert.Equal(t, 2, list.Meta.TotalPages)

	w = s.do(t, http.MethodPut, "/api/v1/tenants/"+first.ID.String()+"/room",
		residencyapp.MoveRoomRequest{RoomNumber: "203", ElectricityJoiningReading: 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[residencyapp.TenantResponse](t, w).Data
	assert.Equal(t, "203", moved.RoomNumber)
	assert.Equal(t, int64(40), moved.ElectricityJoiningReading)

	w = s.do(t, http.MethodPut, "/api/v1/tenants/"+first.ID.String()+"/status",
		residencyapp.ChangeStatusRequest{Status: "inactive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "inactive", decode[residencyapp.TenantResponse](t, w).Data.Status)

	w = s.do(t, http.MethodPut, "/api/v1/tenants/"+first.ID.String()+"/status",
		map[string]string{"status": "evicted"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/tenants/"+first.ID.String()+"/deposit",
		residencyapp.UpdateDepositRequest{DepositPaid: 10000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(10000), decode[residencyapp.TenantResponse](t, w).Data.DepositPaid)
}

func TestTenantHandler_UpdateReadings(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Farah", "401", 6000, 100)
	s.register(t, "Gita", "401", 6000, 100)

	w := s.do(t, http.MethodPut, "/api/v1/electricity/readings",
		residencyapp.UpdateReadingsRequest{Readings: map[string]int64{"401": 180}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[residencyapp.UpdateReadingsResponse](t, w).Data
	assert.Equal(t, 2, resp.TenantsUpdated)
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, int64(180), resp.Rooms[0].Reading)

	w = s.do(t, http.MethodPut, "/api/v1/electricity/readings",
		residencyapp.UpdateReadingsRequest{Readings: map[string]int64{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func generate(t *testing.T, s *testServer, body map[string]any) ledgerapp.GenerationReport {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/bills/generate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[ledgerapp.GenerationReport](t, w).Data
}

func TestBillHandler_GenerateSplitsRoomElectricity(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"Asha", "Bina", "Chitra", "Divya"} {
		s.register(t, name, "301", 6000, 0)
	}

	body := map[string]any{
		"billing_month":    "2024-03",
		"electricity_rate": 12,
		"current_readings": map[string]int64{"301": 450},
	}
	report := generate(t, s, body)
	assert.Equal(t, 4, report.BillsGenerated)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Bills, 4)

	var amounts []int64
	var total int64
	for _, b := range report.Bills {
		amounts = append(amounts, b.ElectricityAmount)
		total += b.ElectricityAmount
		assert.Equal(t, "pending", b.Status)
	}
	assert.ElementsMatch(t, []int64{1344, 1344, 1344, 1368}, amounts)
	assert.Equal(t, int64(5400), total)

	rerun := generate(t, s, body)
	assert.Zero(t, rerun.BillsGenerated)
	require.Len(t, rerun.Skipped, 1)
	assert.Equal(t, "301", rerun.Skipped[0].RoomNumber)
	assert.Equal(t, "DUPLICATE_BILL", rerun.Skipped[0].Reason)

	w := s.do(t, http.MethodGet, "/api/v1/bills?billing_month=2024-03&room_number=301", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]ledgerapp.BillResponse](t, w)
	assert.Len(t, list.Data, 4)
	assert.Equal(t, int64(4), list.Meta.Total)

	w = s.do(t, http.MethodGet, "/api/v1/bills/"+report.Bills[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[ledgerapp.BillDetailResponse](t, w).Data
	assert.Equal(t, report.Bills[0].ID, detail.ID)
	assert.Empty(t, detail.Payments)
}

func TestBillHandler_GenerateErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"missing month", map[string]any{}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed month", map[string]any{"billing_month": "03-2024"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"no tenants", map[string]any{"billing_month": "2024-03"}, http.StatusUnprocessableEntity, dto.ErrCodeNoTenants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/bills/generate", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestPaymentHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	tenant := s.register(t, "Hema", "501", 6000, 0)
	report := generate(t, s, map[string]any{
		"billing_month":    "2024-03",
		"electricity_rate": 10,
		"current_readings": map[string]int64{"501": 50},
	})
	require.Len(t, report.Bills, 1)
	bill := report.Bills[0]
	require.Equal(t, int64(6500), bill.TotalAmount)

	record := map[string]any{
		"tenant_id":      tenant.ID,
		"billing_month":  "2024-03",
		"amount_paid":    4000,
		"payment_method": "upi",
	}
	w := s.do(t, http.MethodPost, "/api/v1/payments", record, middleware.IdempotencyKeyHeader, "pay-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[ledgerapp.PaymentResult](t, w).Data
	require.NotNil(t, result.Bill)
	assert.Nil(t, result.Warning)
	assert.Equal(t, "partial", result.Bill.Status)
	assert.Equal(t, int64(2500), result.Bill.BalanceDue)
	assert.Equal(t, "applied", result.Payment.Status)
	paymentID := result.Payment.ID

	w = s.do(t, http.MethodPost, "/api/v1/payments", record, middleware.IdempotencyKeyHeader, "pay-1")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, decodeError(t, w).Code)

	w = s.do(t, http.MethodPut, "/api/v1/payments/"+paymentID.String(), map[string]any{"amount_paid": 6500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[ledgerapp.PaymentResult](t, w).Data
	require.NotNil(t, updated.Bill)
	assert.Equal(t, "paid", updated.Bill.Status)
	assert.Zero(t, updated.Bill.BalanceDue)

	w = s.do(t, http.MethodGet, "/api/v1/payments?tenant_id="+tenant.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]ledgerapp.PaymentResponse](t, w).Data, 1)

	w = s.do(t, http.MethodGet, "/api/v1/payments?tenant_id=bogus", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/payments/"+paymentID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	deleted := decode[ledgerapp.PaymentResult](t, w).Data
	require.NotNil(t, deleted.Bill)
	assert.Equal(t, "pending", deleted.Bill.Status)
	assert.Equal(t, int64(6500), deleted.Bill.BalanceDue)

	w = s.do(t, http.MethodGet, "/api/v1/payments/"+paymentID.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_OrphanPayment(t *testing.T) {
	s := newTestServer(t)
	tenant := s.register(t, "Indu", "601", 6000, 0)

	w := s.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"tenant_id":      tenant.ID,
		"billing_month":  "2024-05",
		"amount_paid":    1000,
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[ledgerapp.PaymentResult](t, w).Data
	assert.Nil(t, result.Bill)
	require.NotNil(t, result.Warning)
	assert.Equal(t, "ORPHAN_PAYMENT", result.Warning.Code)
	assert.Equal(t, "unapplied", result.Payment.Status)
	assert.Nil(t, result.Payment.BillID)
}

func TestPaymentHandler_RejectsInvalidPayment(t *testing.T) {
	s := newTestServer(t)
	tenant := s.register(t, "Jaya", "701", 6000, 0)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"tenant_id": tenant.ID, "billing_month": "2024-03", "amount_paid": 0, "payment_method": "cash"}},
		{"unknown method", map[string]any{"tenant_id": tenant.ID, "billing_month": "2024-03", "amount_paid": 10, "payment_method": "barter"}},
		{"bad month", map[string]any{"tenant_id": tenant.ID, "billing_month": "2024-13", "amount_paid": 10, "payment_method": "cash"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/payments", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
		})
	}
}

func TestBillHandler_MaintenanceAndStats(t *testing.T) {
	s := newTestServer(t)
	tenant := s.register(t, "Kavya", "801", 5000, 0)
	generate(t, s, map[string]any{
		"billing_month":    "2024-03",
		"electricity_rate": 10,
		"current_readings": map[string]int64{"801": 20},
	})
	w := s.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"tenant_id":      tenant.ID,
		"billing_month":  "2024-03",
		"amount_paid":    1200,
		"payment_method": "bank_transfer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/bills/overdue-sweep?as_of=2099-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sweep := decode[ledgerapp.OverdueSweepResponse](t, w).Data
	assert.Equal(t, "2099-01-01", sweep.AsOf)
	assert.Equal(t, 1, sweep.BillsMarked)

	w = s.do(t, http.MethodPost, "/api/v1/bills/overdue-sweep?as_of=tomorrow", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/billing/stats?billing_month=2024-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode[ledgerapp.StatsResponse](t, w).Data
	assert.Equal(t, int64(1), stats.TotalBills)
	assert.Equal(t, int64(5200), stats.TotalBilled)
	assert.Equal(t, int64(1200), stats.TotalCollected)
	assert.Equal(t, int64(4000), stats.OverdueAmount)
	assert.Equal(t, int64(1), stats.BillsByStatus["overdue"])

	w = s.do(t, http.MethodDelete, "/api/v1/bills", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/bills?billing_month=2024-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := decode[ledgerapp.ClearMonthResponse](t, w).Data
	assert.Equal(t, int64(1), cleared.BillsDeleted)
	assert.Equal(t, int64(1), cleared.PaymentsUnlinked)

	w = s.do(t, http.MethodGet, "/api/v1/payments?billing_month=2024-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	payments := decode[[]ledgerapp.PaymentResponse](t, w).Data
	require.Len(t, payments, 1)
	assert.Equal(t, "unapplied", payments[0].Status)
}

func TestSystemHandler_Health(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w).Data
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Database)
}

func TestSystemHandler_HealthDatabaseDown(t *testing.T) {
	h := NewSystemHandler("pg-ledger", pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))
	c, w := newTestContext("GET", "/api/v1/health")
	h.Health(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, decodeError(t, w).Code)
}
